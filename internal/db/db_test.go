package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestWrapNotFound(t *testing.T) {
	assert.NoError(t, WrapNotFound(nil))
	assert.ErrorIs(t, WrapNotFound(pgx.ErrNoRows), ErrNotFound)

	other := errors.New("connection refused")
	err := WrapNotFound(other)
	assert.ErrorIs(t, err, other)
	assert.False(t, IsNotFound(err))
	assert.True(t, IsNotFound(pgx.ErrNoRows))
}
