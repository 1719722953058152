package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/plandok/sqlite"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(":memory:")
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		// Verify tables exist by querying them
		ctx := context.Background()

		var docCount int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&docCount)
		require.NoError(t, err)

		var catCount int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&catCount)
		require.NoError(t, err)

		var logCount int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM verification_log").Scan(&logCount)
		require.NoError(t, err)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		err := db.Open()
		require.Error(t, err)
	})
}
