package backends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/storage/database"
)

func TestOpenEveryBackend(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			m, err := Open(name, t.TempDir(), database.Options{})
			require.NoError(t, err)
			defer m.Close()

			db, err := m.OpenDB("state")
			require.NoError(t, err)
			require.NoError(t, db.Write(context.Background(), []byte("k"), []byte("v")))
		})
	}
}

func TestOpenRejects(t *testing.T) {
	_, err := Open("rocksdb", t.TempDir(), database.Options{})
	assert.Error(t, err)

	_, err = Open(Pebble, "", database.Options{})
	assert.Error(t, err)
}
