package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/isdelr/todolist-web/internal/auth"
	"github.com/isdelr/todolist-web/internal/database"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func testHasher() *auth.PasswordHasher {
	return &auth.PasswordHasher{Memory: 1024, Time: 1, Threads: 1}
}
