package relica

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coregx/p2pchat"
)

// Open connects to the database, applies the embedded schema and returns a
// ready MessageStore that owns the connection.
//
// For sqlite3 the dsn is a file path; its directory is created if missing
// and WAL journaling is enabled. The caller must import the driver.
func Open(ctx context.Context, driverName, dsn, prefix string) (*MessageStore, error) {
	if prefix == "" {
		prefix = p2pchat.DefaultTablePrefix
	}

	if driverName == "sqlite3" {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStartup, "failed to open database", err)
	}
	if driverName == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStartup, "failed to connect to database", err)
	}

	if err := p2pchat.ApplyMigrations(ctx, sqlDB, driverName, prefix); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store, err := NewMessageStoreWithPrefix(ctx, sqlDB, driverName, prefix)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", p2pchat.NewError(p2pchat.ErrCodeConfiguration, "sqlite path is required")
	}
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", p2pchat.NewErrorWithCause(p2pchat.ErrCodeStartup, fmt.Sprintf("failed to create %s", dir), err)
		}
	}

	if strings.Contains(path, "?") {
		return path, nil
	}
	return path + "?_journal_mode=WAL&_busy_timeout=5000", nil
}
