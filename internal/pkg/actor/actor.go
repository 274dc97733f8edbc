package actor

import "github.com/google/uuid"

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Actor identifies who performs an operation and for which shop.
// It is passed explicitly into every core operation.
type Actor struct {
	UserID uuid.UUID
	ShopID uuid.UUID
	Role   string
}

// IsAdmin returns true for organization-wide administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccessShop checks whether the actor may read or write the shop's data.
func (a Actor) CanAccessShop(shopID uuid.UUID) bool {
	if a.IsAdmin() {
		return true
	}
	return a.ShopID != uuid.Nil && a.ShopID == shopID
}

// CreatedBy returns the user reference to stamp on new rows.
func (a Actor) CreatedBy() uuid.NullUUID {
	if a.UserID == uuid.Nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: a.UserID, Valid: true}
}
