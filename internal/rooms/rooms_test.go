package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := Default()

	r, err := c.Lookup("Bedford 2-01")
	require.NoError(t, err)
	assert.Equal(t, 29, r.ID)

	r, err = c.Lookup("founder's room 104")
	require.NoError(t, err)
	assert.Equal(t, 32, r.ID)

	r, err = c.Lookup("30")
	require.NoError(t, err)
	assert.Equal(t, "Bedford 2-01a", r.Name)

	r, err = c.Lookup("77")
	require.NoError(t, err)
	assert.Equal(t, 77, r.ID)

	_, err = c.Lookup("Main Hall")
	assert.Error(t, err)
	_, err = c.Lookup("")
	assert.Error(t, err)
	_, err = c.Lookup("-3")
	assert.Error(t, err)
}

func TestDefaultSelection(t *testing.T) {
	r, err := Default().Lookup(DefaultRoom)
	require.NoError(t, err)
	assert.Equal(t, 28, r.ID)

	m, err := ParseDuration(DefaultDuration)
	require.NoError(t, err)
	assert.Equal(t, 120, m)
}

func TestAllSortedByID(t *testing.T) {
	all := Default().All()
	require.Len(t, all, 6)
	assert.Equal(t, 27, all[0].ID)
	assert.Equal(t, 32, all[5].ID)
}

func TestParseDuration(t *testing.T) {
	tests := map[string]int{
		"1 hour":  60,
		"2 Hours": 120,
		"60":      60,
		"90m":     90,
		"2h":      120,
	}
	for in, want := range tests {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "0", "soon", "-5", "xm"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}
