package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/upcycle/internal/model"
)

const materialColumns = `id, name, category, quantity, unit, condition, location,
	latitude, longitude, image_key, image_name, registered_by, status, registered_at`

// CreateMaterial lists a new material as Available.
func CreateMaterial(ctx context.Context, db *sql.DB, m *model.Material) (*model.Material, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO materials (name, category, quantity, unit, condition, location,
		                        latitude, longitude, image_key, image_name, registered_by, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Category, m.Quantity, m.Unit, m.Condition, m.Location,
		m.Latitude, m.Longitude, nullString(m.ImageKey), nullString(m.ImageName),
		m.RegisteredBy, model.MaterialStatusAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("creating material: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting material id: %w", err)
	}

	return GetMaterial(ctx, db, id)
}

// GetMaterial returns a material by ID, or nil if there is none.
func GetMaterial(ctx context.Context, db *sql.DB, id int64) (*model.Material, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting material: %w", err)
	}
	defer rows.Close()

	materials, err := scanMaterials(rows)
	if err != nil {
		return nil, err
	}
	if len(materials) == 0 {
		return nil, nil
	}
	return &materials[0], nil
}

// SearchMaterials returns Available materials matching every non-empty field
// of the filter, in listing order. The name match is a case-insensitive
// substring match; category and condition must match exactly. An empty
// filter returns no results without touching the database.
func SearchMaterials(ctx context.Context, db *sql.DB, f model.SearchFilter) ([]model.Material, error) {
	if f.IsEmpty() {
		return nil, nil
	}

	query := `SELECT ` + materialColumns + ` FROM materials WHERE status = ?`
	args := []any{model.MaterialStatusAvailable}

	if f.Query != "" {
		// Both sides go through strings.ToLower so non-ASCII names match.
		query += ` AND fold(name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(f.Query))+"%")
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Condition != "" {
		query += ` AND condition = ?`
		args = append(args, f.Condition)
	}

	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching materials: %w", err)
	}
	defer rows.Close()

	return scanMaterials(rows)
}

// ListMaterialsByOwner returns every material a user listed, newest first.
func ListMaterialsByOwner(ctx context.Context, db *sql.DB, email string) ([]model.Material, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE registered_by = ? ORDER BY id DESC`, email,
	)
	if err != nil {
		return nil, fmt.Errorf("listing materials by owner: %w", err)
	}
	defer rows.Close()

	return scanMaterials(rows)
}

// CountMaterials returns the number of materials ever listed.
func CountMaterials(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting materials: %w", err)
	}
	return n, nil
}

func scanMaterials(rows *sql.Rows) ([]model.Material, error) {
	var materials []model.Material
	for rows.Next() {
		var m model.Material
		var lat, lng sql.NullFloat64
		var imageKey, imageName sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Quantity, &m.Unit, &m.Condition, &m.Location,
			&lat, &lng, &imageKey, &imageName, &m.RegisteredBy, &m.Status, &m.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scanning material: %w", err)
		}
		if lat.Valid {
			m.Latitude = &lat.Float64
		}
		if lng.Valid {
			m.Longitude = &lng.Float64
		}
		m.ImageKey = imageKey.String
		m.ImageName = imageName.String
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
