package transport

import (
	"time"

	"fixmarket_backend/internal/tickets/domain"

	"github.com/google/uuid"
)

// CreateTicketRequest is the body of POST /tickets.
type CreateTicketRequest struct {
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"omitempty"`
	Severity    string   `json:"severity" validate:"omitempty,oneof=high medium low"`
	Lat         *float64 `json:"lat" validate:"omitempty"`
	Lon         *float64 `json:"lon" validate:"omitempty"`
	ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Description        string     `json:"description"`
	Summary            string     `json:"summary"`
	Category           string     `json:"category"`
	Severity           string     `json:"severity,omitempty"`
	Lat                *float64   `json:"lat,omitempty"`
	Lon                *float64   `json:"lon,omitempty"`
	ImageURL           *string    `json:"imageUrl,omitempty"`
	Status             string     `json:"status"`
	ExpiresAt          time.Time  `json:"expiresAt"`
	DispatchedVendorID *uuid.UUID `json:"dispatchedVendorId,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// ToTicketResponse maps the domain model to its wire shape.
func ToTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                 t.ID,
		Description:        t.Description,
		Summary:            t.Summary,
		Category:           t.Category,
		Severity:           string(t.Severity),
		Lat:                t.Lat,
		Lon:                t.Lon,
		ImageURL:           t.ImageURL,
		Status:             string(t.Status),
		ExpiresAt:          t.ExpiresAt,
		DispatchedVendorID: t.DispatchedVendorID,
		CreatedAt:          t.CreatedAt,
	}
}

// ToTicketResponses maps a slice of tickets.
func ToTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i := range tickets {
		out[i] = ToTicketResponse(&tickets[i])
	}
	return out
}
