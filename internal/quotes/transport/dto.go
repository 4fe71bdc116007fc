package transport

import (
	"time"

	"fixmarket_backend/internal/quotes/repository"
	"fixmarket_backend/internal/quotes/service"

	"github.com/google/uuid"
)

// SubmitQuoteRequest is the body of POST /quotes.
type SubmitQuoteRequest struct {
	TicketID     uuid.UUID `json:"ticketId" validate:"required"`
	VendorID     uuid.UUID `json:"vendorId" validate:"required"`
	PriceCents   int64     `json:"priceCents" validate:"required,gt=0"`
	Availability time.Time `json:"availability" validate:"required"`
}

// QuoteResponse is the wire shape of a quote. The price is also rendered as
// a dollar string for display clients.
type QuoteResponse struct {
	ID           uuid.UUID `json:"id"`
	TicketID     uuid.UUID `json:"ticketId"`
	VendorID     uuid.UUID `json:"vendorId"`
	PriceCents   int64     `json:"priceCents"`
	Price        string    `json:"price"`
	Availability time.Time `json:"availability"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ToQuoteResponse maps the database model to its wire shape.
func ToQuoteResponse(q *repository.Quote) QuoteResponse {
	return QuoteResponse{
		ID:           q.ID,
		TicketID:     q.TicketID,
		VendorID:     q.VendorID,
		PriceCents:   q.PriceCents,
		Price:        *service.FormatCents(&q.PriceCents),
		Availability: q.Availability,
		Status:       string(q.Status),
		CreatedAt:    q.CreatedAt,
	}
}

// ToQuoteResponses maps a slice of quotes.
func ToQuoteResponses(quotes []repository.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		out[i] = ToQuoteResponse(&quotes[i])
	}
	return out
}
