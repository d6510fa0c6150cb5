package cmd

import (
	"bytes"
	"crypto/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booker/internal/auth"
	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/profile"
	"github.com/example/room-booker/internal/rooms"
)

func TestBookFlagsRequest(t *testing.T) {
	f := bookFlags{
		room: "Bedford 2-01", duration: "1 hour", start: "14:00", name: "A.B.",
		username: "alice", password: "pw",
	}
	req, err := f.request(config.Config{})
	require.NoError(t, err)
	assert.Equal(t, 29, req.RoomID)
	assert.Equal(t, 60, req.DurationMin)
	assert.Equal(t, "14:00", req.StartTime)

	f = bookFlags{room: "Nowhere", duration: rooms.DefaultDuration, start: "14:00", name: "A", username: "a", password: "p"}
	_, err = f.request(config.Config{})
	assert.Error(t, err)

	f = bookFlags{username: "a", password: "p", rawFields: "roomid=29&duration=60"}
	req, err = f.request(config.Config{})
	require.NoError(t, err)
	assert.Zero(t, req.RoomID, "raw fields bypass the catalog")
}

func TestBookFlagsUseSavedProfile(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cfg := config.Config{CredEncKey: key, ProfilePath: filepath.Join(t.TempDir(), "profile.yaml")}

	store, err := profileStore(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Save(profile.Profile{Username: "alice", Password: "secret", PreferredName: "A.B."}))

	f := bookFlags{room: rooms.DefaultRoom, duration: rooms.DefaultDuration, start: "09:00"}
	req, err := f.request(cfg)
	require.NoError(t, err)
	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "secret", req.Password)
	assert.Equal(t, "A.B.", req.PreferredName)
	assert.Equal(t, 28, req.RoomID)
	assert.Equal(t, 120, req.DurationMin)

	// another user does not inherit the saved password
	f.username = "bob"
	_, err = f.request(cfg)
	assert.Error(t, err)
}

func TestPasswdCmd(t *testing.T) {
	var out bytes.Buffer
	c := newPasswdCmd()
	c.SetOut(&out)
	c.SetIn(strings.NewReader("operator\n"))
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())

	line := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(line, "export UI_PASSWORD_HASH='"))
	hash := strings.TrimSuffix(strings.TrimPrefix(line, "export UI_PASSWORD_HASH='"), "'")
	assert.True(t, auth.CheckPassword(hash, "operator"))
}

func TestKeysCmd(t *testing.T) {
	var out bytes.Buffer
	c := newKeysCmd()
	c.SetOut(&out)
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())
	for _, name := range []string{"COOKIE_HASH_KEY=", "COOKIE_BLOCK_KEY=", "CRED_ENC_KEY="} {
		assert.Contains(t, out.String(), name)
	}
}

func TestHistoryRejectsBadRunID(t *testing.T) {
	c := newHistoryCmd()
	c.SetOut(&bytes.Buffer{})
	c.SetArgs([]string{"latest"})
	assert.ErrorContains(t, c.Execute(), `invalid run id "latest"`)
}
