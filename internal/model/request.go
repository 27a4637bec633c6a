package model

import "time"

// Request is a claim one user makes on another user's material.
type Request struct {
	ID             int64     `json:"id"`
	MaterialID     int64     `json:"material_id"`
	SenderEmail    string    `json:"sender_email"`
	OwnerEmail     string    `json:"owner_email"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	ContactDetails string    `json:"contact_details,omitempty"`
	RequestedAt    time.Time `json:"requested_at"`

	// Joined fields (not always populated).
	MaterialName     string  `json:"material_name,omitempty"`
	MaterialCategory string  `json:"material_category,omitempty"`
	MaterialQuantity float64 `json:"material_quantity,omitempty"`
	MaterialUnit     string  `json:"material_unit,omitempty"`
	SenderName       string  `json:"sender_name,omitempty"`
	OwnerName        string  `json:"owner_name,omitempty"`
}

// Request statuses. Pending is the only non-terminal one.
const (
	RequestStatusPending  = "Pending"
	RequestStatusAccepted = "Accepted"
	RequestStatusRejected = "Rejected"
)

// IsResponseStatus reports whether an owner may answer a request with s.
func IsResponseStatus(s string) bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// Deal is an accepted request joined with the material it moved and the
// material's owner. Quantity is kept as stored so callers decide how to
// coerce it.
type Deal struct {
	RequestID  int64
	MaterialID int64
	Category   string
	Quantity   string
	OwnerEmail string
	OwnerName  string
}
