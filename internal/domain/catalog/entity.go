package catalog

import (
	"time"

	"github.com/google/uuid"
)

// ServiceType tells whether selecting the service needs a free-text note
type ServiceType string

const (
	TypeCheckbox ServiceType = "checkbox"
	TypeInput    ServiceType = "input"
)

func (t ServiceType) Valid() bool {
	return t == TypeCheckbox || t == TypeInput
}

// RequiresNote is true for input services (care tips, measurements)
func (t ServiceType) RequiresNote() bool {
	return t == TypeInput
}

// ServiceEntry is a grooming service offered for selection
type ServiceEntry struct {
	ID        uuid.UUID   `db:"id"`
	Name      string      `db:"name"`
	Price     float64     `db:"price"`
	Type      ServiceType `db:"type"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}
