package p2pchat

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

// MigrationFiles contains the schema for every supported driver, one file
// per driver name (sqlite3.sql, mysql.sql, postgres.sql). Table names carry
// a {{prefix}} placeholder.
//
// Users who manage schemas with their own tool (goose, golang-migrate, atlas)
// can read the files directly and substitute the prefix themselves.
//
//go:embed migrations/*.sql
var MigrationFiles embed.FS

// DefaultTablePrefix is the table prefix used when none is configured.
const DefaultTablePrefix = "p2pchat_"

// ApplyMigrations creates the message table for driverName if it does not
// exist. Every statement is idempotent, so it is safe to call on each start.
func ApplyMigrations(ctx context.Context, db *sql.DB, driverName, prefix string) error {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}

	raw, err := MigrationFiles.ReadFile("migrations/" + driverName + ".sql")
	if err != nil {
		return NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("no schema for driver %q", driverName), err)
	}

	for _, stmt := range splitStatements(strings.ReplaceAll(string(raw), "{{prefix}}", prefix)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return NewErrorWithCause(ErrCodeStartup, "failed to apply schema", err)
		}
	}
	return nil
}

// splitStatements splits a schema file on semicolons and drops comment-only
// fragments. The schema files contain no semicolons inside literals.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			stmts = append(stmts, strings.Join(lines, "\n"))
		}
	}
	return stmts
}
