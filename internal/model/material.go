package model

import (
	"errors"
	"strings"
	"time"
)

// Material is a listed surplus item that other users can request.
type Material struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	Condition    string    `json:"condition"`
	Location     string    `json:"location"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	ImageKey     string    `json:"image_key,omitempty"`
	ImageName    string    `json:"image_name,omitempty"`
	RegisteredBy string    `json:"registered_by"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Material statuses.
const (
	MaterialStatusAvailable = "Available"
	MaterialStatusAccepted  = "Accepted"
)

// Material categories.
const (
	CategoryPlastic = "Plastic"
	CategoryMetal   = "Metal"
	CategoryGlass   = "Glass"
	CategoryWood    = "Wood"
	CategoryTextile = "Textile"
	CategoryPaper   = "Paper"
	CategoryOther   = "Other"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryPlastic,
	CategoryMetal,
	CategoryGlass,
	CategoryWood,
	CategoryTextile,
	CategoryPaper,
	CategoryOther,
}

// Conditions are the values offered by the listing form. Condition is
// stored as free text, so anything else found in the database is kept.
var Conditions = []string{"New", "Good", "Fair", "Used", "Damaged"}

// IsCategory reports whether c is one of Categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MaxQuantity is the largest quantity a listing may carry.
const MaxQuantity = 1e9

// Listing validation errors. Their text is shown to the user as is.
var (
	ErrMaterialNameRequired = errors.New("Material name is required")
	ErrUnknownCategory      = errors.New("Choose a valid category")
	ErrQuantityInvalid      = errors.New("Quantity must be a positive number up to 1,000,000,000")
	ErrUnitRequired         = errors.New("Unit is required")
	ErrConditionRequired    = errors.New("Condition is required")
	ErrLocationRequired     = errors.New("Location is required")
	ErrCoordinatesInvalid   = errors.New("Latitude must be within ±90 and longitude within ±180")
)

// Validate checks a material before it is listed.
func (m *Material) Validate() error {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return ErrMaterialNameRequired
	case !IsCategory(m.Category):
		return ErrUnknownCategory
	case !(m.Quantity > 0 && m.Quantity <= MaxQuantity):
		return ErrQuantityInvalid
	case strings.TrimSpace(m.Unit) == "":
		return ErrUnitRequired
	case strings.TrimSpace(m.Condition) == "":
		return ErrConditionRequired
	case strings.TrimSpace(m.Location) == "":
		return ErrLocationRequired
	}
	if m.Latitude != nil && (*m.Latitude < -90 || *m.Latitude > 90) {
		return ErrCoordinatesInvalid
	}
	if m.Longitude != nil && (*m.Longitude < -180 || *m.Longitude > 180) {
		return ErrCoordinatesInvalid
	}
	return nil
}

// SearchFilter narrows the catalog. Empty fields are ignored.
type SearchFilter struct {
	Query     string
	Category  string
	Condition string
}

// IsEmpty reports whether no filter was given, in which case no search runs.
func (f SearchFilter) IsEmpty() bool {
	return f.Query == "" && f.Category == "" && f.Condition == ""
}
