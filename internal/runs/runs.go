package runs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/db"
)

// Run is one recorded arm cycle.
type Run struct {
	ID            int64
	Username      string
	RoomID        int
	DurationMin   int
	StartTime     string
	PreferredName string
	RawFields     string
	TargetAt      time.Time

	State       string
	Attempts    int
	FinalKind   *string
	FinalReason *string

	CreatedAt  time.Time
	FinishedAt *time.Time
}

// maxReason bounds stored reasons; an unrecognized response can be a whole page.
const maxReason = 4000

// Repo stores runs in Postgres. It satisfies scheduler.Recorder.
type Repo struct{ db db.Querier }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) StartRun(ctx context.Context, req booking.Request, target time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO runs(username,room_id,duration_minutes,start_time,preferred_name,raw_fields,target_at,state)
VALUES ($1,$2,$3,$4,$5,$6,$7,'armed')
RETURNING id`,
		req.Username, req.RoomID, req.DurationMin, req.StartTime, req.PreferredName, req.RawFields, target.UTC(),
	).Scan(&id)
	return id, db.WrapNotFound(err)
}

func (r *Repo) FinishRun(ctx context.Context, runID int64, state string, attempts int, last *booking.Outcome) error {
	kind, reason := finalColumns(last)
	return r.db.Exec(ctx, `
UPDATE runs SET state=$2, attempts=$3, final_kind=$4, final_reason=$5, finished_at=now()
WHERE id=$1`, runID, state, attempts, kind, reason)
}

func finalColumns(last *booking.Outcome) (*string, *string) {
	if last == nil {
		return nil, nil
	}
	k := last.Kind.String()
	reason := last.Reason
	if len(reason) > maxReason {
		reason = strings.ToValidUTF8(reason[:maxReason], "")
	}
	return &k, &reason
}

const selectRuns = `
SELECT id,username,room_id,duration_minutes,start_time,preferred_name,raw_fields,target_at,state,attempts,final_kind,final_reason,created_at,finished_at
FROM runs`

func (r *Repo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, selectRuns+`
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Run, error) {
	run, err := scanRun(r.db.QueryRow(ctx, selectRuns+` WHERE id=$1`, id))
	if err != nil {
		return Run{}, db.WrapNotFound(err)
	}
	return run, nil
}

func scanRun(row db.Row) (Run, error) {
	var j Run
	err := row.Scan(&j.ID, &j.Username, &j.RoomID, &j.DurationMin, &j.StartTime, &j.PreferredName, &j.RawFields,
		&j.TargetAt, &j.State, &j.Attempts, &j.FinalKind, &j.FinalReason, &j.CreatedAt, &j.FinishedAt)
	return j, err
}

// Describe renders a one-line summary for the history command.
func (j Run) Describe() string {
	what := fmt.Sprintf("room=%d duration=%dm start=%s name=%q", j.RoomID, j.DurationMin, j.StartTime, j.PreferredName)
	if j.RawFields != "" {
		what = fmt.Sprintf("fields=%q", j.RawFields)
	}
	final := "-"
	if j.FinalKind != nil {
		final = *j.FinalKind
	}
	return fmt.Sprintf("id=%d user=%s %s target=%s state=%s attempts=%d final=%s",
		j.ID, j.Username, what, j.TargetAt.Format(time.RFC3339), j.State, j.Attempts, final)
}

// Detail renders every column, including the full final reason, for
// `history <id>`.
func (j Run) Detail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id:        %d\n", j.ID)
	fmt.Fprintf(&b, "user:      %s\n", j.Username)
	if j.RawFields != "" {
		fmt.Fprintf(&b, "fields:    %s\n", j.RawFields)
	} else {
		fmt.Fprintf(&b, "room:      %d\n", j.RoomID)
		fmt.Fprintf(&b, "duration:  %dm\n", j.DurationMin)
		fmt.Fprintf(&b, "start:     %s\n", j.StartTime)
		fmt.Fprintf(&b, "name:      %s\n", j.PreferredName)
	}
	fmt.Fprintf(&b, "target:    %s\n", j.TargetAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "state:     %s\n", j.State)
	fmt.Fprintf(&b, "attempts:  %d\n", j.Attempts)
	fmt.Fprintf(&b, "created:   %s\n", j.CreatedAt.Format(time.RFC3339))
	if j.FinishedAt != nil {
		fmt.Fprintf(&b, "finished:  %s\n", j.FinishedAt.Format(time.RFC3339))
	}
	if j.FinalKind != nil {
		fmt.Fprintf(&b, "final:     %s\n", *j.FinalKind)
	}
	if j.FinalReason != nil {
		fmt.Fprintf(&b, "reason:    %s\n", *j.FinalReason)
	}
	return b.String()
}
