package catalog

import "github.com/google/uuid"

// ImportEntry is one row of a catalog import file
type ImportEntry struct {
	ID     uuid.UUID `json:"id,omitempty"`
	Name   string    `json:"name"`
	Price  float64   `json:"price"`
	Type   string    `json:"type"`
	Active *bool     `json:"active,omitempty"`
}

// ServiceResponse represents a catalog entry in API responses
type ServiceResponse struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Price    float64     `json:"price"`
	Type     ServiceType `json:"type"`
	IsActive bool        `json:"is_active"`
}

func ServiceResponseFromEntity(e *ServiceEntry) ServiceResponse {
	return ServiceResponse{
		ID:       e.ID,
		Name:     e.Name,
		Price:    e.Price,
		Type:     e.Type,
		IsActive: e.IsActive,
	}
}
