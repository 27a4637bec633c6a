package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const sessionSecretKey = "session_secret"

// GetSessionSecret returns the key used to sign session cookies, generating
// and storing a random one on first use.
func GetSessionSecret(ctx context.Context, db *sql.DB) (string, error) {
	return getOrCreateSetting(ctx, db, sessionSecretKey, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}

// getOrCreateSetting reads a setting, inserting a generated value first if
// the key is missing. INSERT OR IGNORE followed by a read keeps two
// processes starting at once from ending up with different values.
func getOrCreateSetting(ctx context.Context, db *sql.DB, key string, generate func() (string, error)) (string, error) {
	candidate, err := generate()
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value); err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}
