package pebble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/storage/database"
	"github.com/LeJamon/goListingd/internal/storage/database/dbtest"
)

func TestConformance(t *testing.T) {
	m := NewManager(t.TempDir(), database.Options{NoSync: true})
	dbtest.Run(t, m)
	require.NoError(t, m.Close())
}
