package transport

import (
	"github.com/google/uuid"
)

// UrgentDispatchRequest is the body of POST /dispatch/urgent. Either a raw
// transcript or a chat session id must be supplied.
type UrgentDispatchRequest struct {
	Transcript string     `json:"transcript" validate:"required_without=SessionID"`
	SessionID  string     `json:"sessionId" validate:"required_without=Transcript"`
	Category   string     `json:"category" validate:"omitempty"`
	VendorID   *uuid.UUID `json:"vendorId" validate:"omitempty"`
	Lat        *float64   `json:"lat" validate:"omitempty"`
	Lon        *float64   `json:"lon" validate:"omitempty"`
	ImageURL   *string    `json:"imageUrl" validate:"omitempty,url"`
}

// DeclineDispatchRequest is the body of POST /tickets/:id/decline. The
// vendor id must match the ticket's assigned vendor.
type DeclineDispatchRequest struct {
	VendorID uuid.UUID `json:"vendorId" validate:"required"`
}
