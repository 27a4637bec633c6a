package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS materials (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    category       TEXT NOT NULL,
    quantity       REAL NOT NULL,
    unit           TEXT NOT NULL,
    condition      TEXT NOT NULL,
    location       TEXT NOT NULL,
    latitude       REAL,
    longitude      REAL,
    image_key      TEXT,
    image_name     TEXT,
    registered_by  TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Accepted')),
    registered_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS material_requests (
    id              INTEGER PRIMARY KEY,
    material_id     INTEGER NOT NULL REFERENCES materials(id),
    sender_email    TEXT NOT NULL,
    owner_email     TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Accepted', 'Rejected')),
    reason          TEXT,
    contact_details TEXT,
    requested_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: catalog search always filters on status first.
	`CREATE INDEX IF NOT EXISTS idx_materials_status_category
	     ON materials(status, category)`,
	// Migration 2: the requests page looks requests up by both parties.
	`CREATE INDEX IF NOT EXISTS idx_material_requests_owner
	     ON material_requests(owner_email)`,
	`CREATE INDEX IF NOT EXISTS idx_material_requests_sender
	     ON material_requests(sender_email)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies the migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
