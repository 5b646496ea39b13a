package p2pchat_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/p2pchat"
)

func TestMigrationFiles_AllDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite3", "mysql", "postgres"} {
		raw, err := p2pchat.MigrationFiles.ReadFile("migrations/" + driver + ".sql")
		require.NoError(t, err, driver)
		assert.Contains(t, string(raw), "{{prefix}}message", driver)
	}
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, p2pchat.ApplyMigrations(ctx, db, "sqlite3", "chat_"))
	require.NoError(t, p2pchat.ApplyMigrations(ctx, db, "sqlite3", "chat_"))

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'chat_message'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "chat_message", name)
}

func TestApplyMigrations_UnknownDriver(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	err = p2pchat.ApplyMigrations(context.Background(), db, "oracle", "")
	assert.True(t, p2pchat.HasCode(err, p2pchat.ErrCodeConfiguration))
}
