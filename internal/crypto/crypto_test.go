package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	a, err := New(make([]byte, 32))
	require.NoError(t, err)

	ct, err := a.EncryptToString("hunter2")
	require.NoError(t, err)
	assert.NotContains(t, ct, "hunter2")

	pt, err := a.DecryptString(ct)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pt)

	again, err := a.EncryptToString("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, ct, again, "fresh nonce per seal")
}

func TestWrongKeyAndTampering(t *testing.T) {
	a, err := New(make([]byte, 32))
	require.NoError(t, err)
	other := make([]byte, 32)
	other[0] = 1
	b, err := New(other)
	require.NoError(t, err)

	ct, err := a.EncryptToString("secret")
	require.NoError(t, err)
	_, err = b.DecryptString(ct)
	assert.Error(t, err)

	_, err = a.DecryptString("AAAA")
	assert.Error(t, err)
	_, err = a.DecryptString("!!!")
	assert.Error(t, err)
}

func TestKeySize(t *testing.T) {
	_, err := New(make([]byte, 16))
	assert.Error(t, err)
}
