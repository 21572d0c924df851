// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Supported SQL dialects
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// DriverName returns the database/sql driver registered for a dialect.
func DriverName(dialect string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return "postgres", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dialect)
	}
}

// CreateSchema creates all tables needed for the application and seeds the
// role records. Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect string) error {
	var idColumn, timestamp string
	switch dialect {
	case DialectPostgres:
		idColumn = "BIGSERIAL PRIMARY KEY"
		timestamp = "TIMESTAMPTZ"
	case DialectSQLite:
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
		timestamp = "TIMESTAMP"
	default:
		return fmt.Errorf("unsupported database type %q", dialect)
	}

	ddl := strings.NewReplacer("{{ID}}", idColumn, "{{TS}}", timestamp).Replace(schema)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := db.Exec(seedRoles); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	return nil
}

const schema = `
-- Roles
CREATE TABLE IF NOT EXISTS roles (
    id {{ID}},
    name VARCHAR(60) NOT NULL UNIQUE
);

-- Users
CREATE TABLE IF NOT EXISTS users (
    id {{ID}},
    name VARCHAR(40) NOT NULL,
    username VARCHAR(15) NOT NULL UNIQUE,
    email VARCHAR(40) NOT NULL UNIQUE,
    password VARCHAR(100) NOT NULL,
    created_at {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS user_roles (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, role_id)
);

-- Polls
CREATE TABLE IF NOT EXISTS polls (
    id {{ID}},
    question VARCHAR(140) NOT NULL,
    created_by BIGINT NOT NULL REFERENCES users(id),
    created_at {{TS}} NOT NULL,
    expiration_date_time {{TS}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_polls_created_by ON polls(created_by);
CREATE INDEX IF NOT EXISTS idx_polls_created_at ON polls(created_at);

-- Choices
CREATE TABLE IF NOT EXISTS choices (
    id {{ID}},
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    text VARCHAR(40) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_choices_poll_id ON choices(poll_id);

-- Votes: one per user per poll
CREATE TABLE IF NOT EXISTS votes (
    id {{ID}},
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    choice_id BIGINT NOT NULL REFERENCES choices(id) ON DELETE CASCADE,
    created_at {{TS}} NOT NULL,
    CONSTRAINT uq_votes_user_poll UNIQUE (user_id, poll_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_poll_id ON votes(poll_id);
CREATE INDEX IF NOT EXISTS idx_votes_choice_id ON votes(choice_id);
`

const seedRoles = `
INSERT INTO roles (name) VALUES ('ROLE_USER') ON CONFLICT (name) DO NOTHING;
INSERT INTO roles (name) VALUES ('ROLE_ADMIN') ON CONFLICT (name) DO NOTHING;
`
