package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDB struct{ name string }

func (stubDB) Read(context.Context, []byte) ([]byte, error)  { return nil, ErrKeyNotFound }
func (stubDB) Write(context.Context, []byte, []byte) error   { return nil }
func (stubDB) Delete(context.Context, []byte) error          { return nil }
func (stubDB) Batch(context.Context, []BatchOperation) error { return nil }
func (stubDB) Iterator(context.Context, []byte, []byte) (Iterator, error) {
	return nil, errors.New("not supported")
}

func TestRegistry(t *testing.T) {
	opened := map[string]int{}
	closed := map[string]int{}
	r := NewRegistry(func(name string) (DB, func() error, error) {
		if name == "bad" {
			return nil, nil, errors.New("boom")
		}
		opened[name]++
		return &stubDB{name}, func() error {
			closed[name]++
			if name == "sticky" {
				return errors.New("busy")
			}
			return nil
		}, nil
	})

	a1, err := r.OpenDB("a")
	require.NoError(t, err)
	a2, err := r.OpenDB("a")
	require.NoError(t, err)
	assert.Same(t, a1, a2)
	assert.Equal(t, 1, opened["a"])

	_, err = r.OpenDB("bad")
	assert.ErrorContains(t, err, "open database bad")

	require.NoError(t, r.CloseDB("a"))
	assert.ErrorIs(t, r.CloseDB("a"), ErrNamespaceNotFound)

	// reopening after close opens again
	_, err = r.OpenDB("a")
	require.NoError(t, err)
	assert.Equal(t, 2, opened["a"])

	_, err = r.OpenDB("sticky")
	require.NoError(t, err)
	err = r.Close()
	assert.ErrorContains(t, err, "close database sticky")
	assert.Equal(t, 2, closed["a"])
	assert.Equal(t, 1, closed["sticky"])

	require.NoError(t, r.Close())
}
