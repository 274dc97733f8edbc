package selection

import (
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/catalog"
)

// SelectRequest is the body of POST /bookings/{id}/services
type SelectRequest struct {
	ServiceID  uuid.UUID `json:"service_id" validate:"required"`
	InputValue *string   `json:"input_value,omitempty" validate:"omitempty,max=2000"`
}

// UpdateNoteRequest is the body of PATCH /selections/{id}
type UpdateNoteRequest struct {
	InputValue *string `json:"input_value" validate:"omitempty,max=2000"`
}

// SelectionResponse represents a selection with its catalog data
type SelectionResponse struct {
	ID          uuid.UUID           `json:"id"`
	BookingID   uuid.UUID           `json:"booking_id"`
	ServiceID   uuid.UUID           `json:"service_id"`
	ServiceName string              `json:"service_name"`
	ServiceType catalog.ServiceType `json:"service_type"`
	Price       float64             `json:"price"`
	InputValue  *string             `json:"input_value,omitempty"`
	Frozen      bool                `json:"frozen"`
	CreatedAt   time.Time           `json:"created_at"`
}

func ViewResponse(v SelectionView) SelectionResponse {
	resp := SelectionResponse{
		ID:          v.ID,
		BookingID:   v.BookingID,
		ServiceID:   v.ServiceID,
		ServiceName: v.ServiceName,
		ServiceType: v.ServiceType,
		Price:       v.Price,
		Frozen:      v.Frozen,
		CreatedAt:   v.CreatedAt,
	}
	if v.InputValue.Valid {
		s := v.InputValue.String
		resp.InputValue = &s
	}
	return resp
}

// ViewResponses converts a list of views
func ViewResponses(views []SelectionView) []SelectionResponse {
	out := make([]SelectionResponse, len(views))
	for i, v := range views {
		out[i] = ViewResponse(v)
	}
	return out
}

// SelectedResponse represents a bare selection row
type SelectedResponse struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ServiceID  uuid.UUID `json:"service_id"`
	InputValue *string   `json:"input_value,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func SelectedResponseFromEntity(s *SelectedService) SelectedResponse {
	resp := SelectedResponse{
		ID:        s.ID,
		BookingID: s.BookingID,
		ServiceID: s.ServiceID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.InputValue.Valid {
		v := s.InputValue.String
		resp.InputValue = &v
	}
	return resp
}
