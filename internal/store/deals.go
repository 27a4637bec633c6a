package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/upcycle/internal/model"
)

// ListAcceptedDeals returns every accepted request joined with its material
// and the material owner's name, in the order the requests were made.
// Quantities are returned as stored text; the impact package coerces them.
func ListAcceptedDeals(ctx context.Context, db *sql.DB) ([]model.Deal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, m.id, m.category, CAST(m.quantity AS TEXT),
		        m.registered_by, COALESCE(u.name, m.registered_by)
		 FROM material_requests r
		 JOIN materials m ON m.id = r.material_id
		 LEFT JOIN users u ON u.email = m.registered_by
		 WHERE r.status = ?
		 ORDER BY r.id`, model.RequestStatusAccepted,
	)
	if err != nil {
		return nil, fmt.Errorf("listing accepted deals: %w", err)
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var d model.Deal
		var qty sql.NullString
		if err := rows.Scan(&d.RequestID, &d.MaterialID, &d.Category, &qty, &d.OwnerEmail, &d.OwnerName); err != nil {
			return nil, fmt.Errorf("scanning deal: %w", err)
		}
		d.Quantity = qty.String
		deals = append(deals, d)
	}
	return deals, rows.Err()
}
