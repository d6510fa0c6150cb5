package runs

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/db"
)

type execCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	id  int64
	run *Run
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.run == nil {
		*(dest[0].(*int64)) = r.id
		return nil
	}
	j := r.run
	vals := []any{j.ID, j.Username, j.RoomID, j.DurationMin, j.StartTime, j.PreferredName, j.RawFields,
		j.TargetAt, j.State, j.Attempts, j.FinalKind, j.FinalReason, j.CreatedAt, j.FinishedAt}
	for i, v := range vals {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

type fakeDB struct {
	execs []execCall
	rows  []execCall
	next  *fakeRow
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) error {
	f.execs = append(f.execs, execCall{sql, args})
	return nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) db.Row {
	f.rows = append(f.rows, execCall{sql, args})
	if f.next != nil {
		return *f.next
	}
	return fakeRow{id: 42}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (db.Rows, error) {
	panic("not used")
}

func TestStartAndFinishRun(t *testing.T) {
	f := &fakeDB{}
	r := &Repo{db: f}
	target := time.Date(2026, 10, 28, 9, 0, 0, 0, time.FixedZone("BST", 3600))

	id, err := r.StartRun(context.Background(), booking.Request{
		Username: "alice", Password: "pw", RoomID: 29, DurationMin: 60, StartTime: "14:00", PreferredName: "A.B.",
	}, target)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.Len(t, f.rows, 1)
	assert.NotContains(t, f.rows[0].args, "pw", "passwords are never stored")
	assert.Equal(t, target.UTC(), f.rows[0].args[6])

	out := booking.ClassifyReserve("Your reservation has been made!")
	require.NoError(t, r.FinishRun(context.Background(), id, "succeeded", 3, &out))
	require.Len(t, f.execs, 1)
	args := f.execs[0].args
	assert.Equal(t, int64(42), args[0])
	assert.Equal(t, "succeeded", args[1])
	assert.Equal(t, 3, args[2])
	assert.Equal(t, "success", *(args[3].(*string)))
}

func TestFinalColumns(t *testing.T) {
	k, r := finalColumns(nil)
	assert.Nil(t, k)
	assert.Nil(t, r)

	big := booking.ClassifyReserve(strings.Repeat("x", maxReason+100))
	k, r = finalColumns(&big)
	assert.Equal(t, "unrecognized", *k)
	assert.Len(t, *r, maxReason)
}

func TestDescribe(t *testing.T) {
	kind := "slot_taken"
	run := Run{
		ID: 7, Username: "alice", RoomID: 29, DurationMin: 60, StartTime: "14:00", PreferredName: "A.B.",
		TargetAt: time.Date(2026, 10, 28, 9, 0, 0, 0, time.UTC), State: "stopped", Attempts: 12, FinalKind: &kind,
	}
	assert.Equal(t,
		`id=7 user=alice room=29 duration=60m start=14:00 name="A.B." target=2026-10-28T09:00:00Z state=stopped attempts=12 final=slot_taken`,
		run.Describe())

	run.RawFields = "roomid=30"
	run.FinalKind = nil
	assert.Contains(t, run.Describe(), `fields="roomid=30"`)
	assert.Contains(t, run.Describe(), "final=-")
}

func TestGet(t *testing.T) {
	kind, reason := "daily_cap", "daily 120-minute cap reached"
	finished := time.Date(2026, 10, 28, 9, 0, 1, 0, time.UTC)
	want := Run{
		ID: 9, Username: "alice", RoomID: 28, DurationMin: 120, StartTime: "10:00", PreferredName: "A",
		TargetAt: time.Date(2026, 10, 28, 9, 0, 0, 0, time.UTC), State: "stopped", Attempts: 4,
		FinalKind: &kind, FinalReason: &reason, CreatedAt: time.Date(2026, 10, 27, 20, 0, 0, 0, time.UTC),
		FinishedAt: &finished,
	}
	f := &fakeDB{next: &fakeRow{run: &want}}
	r := &Repo{db: f}

	got, err := r.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []any{int64(9)}, f.rows[0].args)

	detail := got.Detail()
	assert.Contains(t, detail, "room:      28\n")
	assert.Contains(t, detail, "final:     daily_cap\n")
	assert.Contains(t, detail, "reason:    daily 120-minute cap reached\n")
	assert.Contains(t, detail, "finished:  2026-10-28T09:00:01Z\n")

	f.next = &fakeRow{err: pgx.ErrNoRows}
	_, err = r.Get(context.Background(), 10)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
