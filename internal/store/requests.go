package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/upcycle/internal/model"
)

const requestSelect = `SELECT r.id, r.material_id, r.sender_email, r.owner_email, r.status,
	       r.reason, r.contact_details, r.requested_at,
	       COALESCE(m.name, ''), COALESCE(m.category, ''), COALESCE(m.quantity, 0), COALESCE(m.unit, ''),
	       COALESCE(su.name, r.sender_email), COALESCE(ou.name, r.owner_email)
	FROM material_requests r
	LEFT JOIN materials m ON m.id = r.material_id
	LEFT JOIN users su ON su.email = r.sender_email
	LEFT JOIN users ou ON ou.email = r.owner_email`

// CreateRequest records a Pending request from senderEmail for a material.
// The owner is copied from the material at creation time. It returns
// ErrNotFound for an unknown material and ErrSelfRequest when the sender
// listed the material themselves.
func CreateRequest(ctx context.Context, db *sql.DB, materialID int64, senderEmail, contactDetails string) (*model.Request, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT registered_by FROM materials WHERE id = ?`, materialID,
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking material: %w", err)
	}

	if owner == senderEmail {
		return nil, ErrSelfRequest
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO material_requests (material_id, sender_email, owner_email, status, contact_details)
		 VALUES (?, ?, ?, ?, ?)`,
		materialID, senderEmail, owner, model.RequestStatusPending, nullString(contactDetails),
	)
	if err != nil {
		return nil, fmt.Errorf("recording request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetRequest(ctx, db, id)
}

// GetRequest returns a request by ID, or nil if there is none.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.Request, error) {
	rows, err := db.QueryContext(ctx, requestSelect+` WHERE r.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

// RespondToRequest records the owner's answer to a request. Accepting a
// request also marks its material Accepted, in the same transaction; a
// missing material row leaves only the request updated.
//
// Only the request's owner may respond (ErrNotOwner). Answering a request
// that was already answered is allowed and overwrites the earlier answer.
func RespondToRequest(ctx context.Context, db *sql.DB, id int64, responderEmail, status, reason string) (*model.Request, error) {
	if !model.IsResponseStatus(status) {
		return nil, ErrInvalidStatus
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var materialID int64
	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT material_id, owner_email FROM material_requests WHERE id = ?`, id,
	).Scan(&materialID, &owner)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking request: %w", err)
	}

	if owner != responderEmail {
		return nil, ErrNotOwner
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE material_requests SET status = ?, reason = ? WHERE id = ?`,
		status, nullString(reason), id,
	); err != nil {
		return nil, fmt.Errorf("updating request: %w", err)
	}

	if status == model.RequestStatusAccepted {
		if _, err := tx.ExecContext(ctx,
			`UPDATE materials SET status = ? WHERE id = ?`,
			model.MaterialStatusAccepted, materialID,
		); err != nil {
			return nil, fmt.Errorf("updating material status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing response: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// ListIncomingRequests returns requests for materials the user owns, newest first.
func ListIncomingRequests(ctx context.Context, db *sql.DB, ownerEmail string) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		requestSelect+` WHERE r.owner_email = ? ORDER BY r.id DESC`, ownerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("listing incoming requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ListOutgoingRequests returns requests the user sent, newest first.
func ListOutgoingRequests(ctx context.Context, db *sql.DB, senderEmail string) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		requestSelect+` WHERE r.sender_email = ? ORDER BY r.id DESC`, senderEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("listing outgoing requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]model.Request, error) {
	var requests []model.Request
	for rows.Next() {
		var r model.Request
		var reason, contact sql.NullString
		if err := rows.Scan(&r.ID, &r.MaterialID, &r.SenderEmail, &r.OwnerEmail, &r.Status,
			&reason, &contact, &r.RequestedAt,
			&r.MaterialName, &r.MaterialCategory, &r.MaterialQuantity, &r.MaterialUnit,
			&r.SenderName, &r.OwnerName); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		r.Reason = reason.String
		r.ContactDetails = contact.String
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
