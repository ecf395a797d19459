package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schema mirrors the legacy MySQL layout: users, sessions, cases, case
// directories and the files inside them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT    NOT NULL UNIQUE,
		password_hash TEXT    NOT NULL,
		full_name     TEXT    NOT NULL DEFAULT '',
		email         TEXT    NOT NULL DEFAULT '',
		role          TEXT    NOT NULL DEFAULT 'user',
		status        TEXT    NOT NULL DEFAULT 'ACTIVE',
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login_at TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id            TEXT PRIMARY KEY,
		user_id       INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		session_token TEXT    NOT NULL UNIQUE,
		issued_at     TIMESTAMP NOT NULL,
		expires_at    TIMESTAMP NOT NULL,
		last_used_at  TIMESTAMP NOT NULL,
		revoked       INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_expires_at ON user_sessions(expires_at);`,
	`CREATE TABLE IF NOT EXISTS cases (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		case_name   TEXT    NOT NULL,
		case_number TEXT    NOT NULL DEFAULT '',
		description TEXT    NOT NULL DEFAULT '',
		created_by  INTEGER NOT NULL REFERENCES users(id),
		status      TEXT    NOT NULL DEFAULT 'ACTIVE',
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS case_directories (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		case_id        INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		directory_name TEXT    NOT NULL,
		parent_id      INTEGER REFERENCES case_directories(id)
	);`,
	`CREATE TABLE IF NOT EXISTS case_files (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		case_id      INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		directory_id INTEGER NOT NULL DEFAULT 0,
		file_name    TEXT    NOT NULL,
		file_path    TEXT    NOT NULL,
		file_size    INTEGER NOT NULL DEFAULT 0,
		uploaded_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_case_files_case_id ON case_files(case_id);`,
}

// EnsureSchema creates any missing tables and indexes. Safe to call on
// every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	log.Info().Msg("sqlite schema ensured")
	return nil
}
