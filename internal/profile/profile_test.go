package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booker/internal/crypto"
)

func newStore(t *testing.T, key byte) *Store {
	t.Helper()
	k := make([]byte, 32)
	k[0] = key
	a, err := crypto.New(k)
	require.NoError(t, err)
	return NewStore(filepath.Join(t.TempDir(), "nested", "profile.yaml"), a)
}

func TestSaveLoad(t *testing.T) {
	s := newStore(t, 0)
	require.NoError(t, s.Save(Profile{Username: "alice", Password: "pw", PreferredName: "A.B."}))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pw\n")
	assert.Contains(t, string(raw), "username: alice")

	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Profile{Username: "alice", Password: "pw", PreferredName: "A.B."}, p)
}

func TestLoadMissing(t *testing.T) {
	_, err := newStore(t, 0).Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadWrongKey(t *testing.T) {
	s := newStore(t, 0)
	require.NoError(t, s.Save(Profile{Username: "alice", Password: "pw"}))

	k := make([]byte, 32)
	k[0] = 9
	a, err := crypto.New(k)
	require.NoError(t, err)
	_, err = NewStore(s.Path(), a).Load()
	assert.Error(t, err)
}

func TestSaveValidates(t *testing.T) {
	assert.Error(t, newStore(t, 0).Save(Profile{Username: "alice"}))
}
