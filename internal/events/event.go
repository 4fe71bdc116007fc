// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"fixmarket_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Ticket Domain Events
// =============================================================================

// TicketCreated is published when a new service ticket is created.
type TicketCreated struct {
	BaseEvent
	TicketID  uuid.UUID `json:"ticketId"`
	Category  string    `json:"category"`
	Severity  string    `json:"severity"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (e TicketCreated) EventName() string { return "tickets.created" }

// TicketDispatched is published when a ticket is broadcast to eligible vendors.
type TicketDispatched struct {
	BaseEvent
	TicketID  uuid.UUID   `json:"ticketId"`
	Category  string      `json:"category"`
	Summary   string      `json:"summary"`
	ExpiresAt time.Time   `json:"expiresAt"`
	VendorIDs []uuid.UUID `json:"vendorIds"`
}

func (e TicketDispatched) EventName() string { return "tickets.dispatched" }

// UrgentTicketDispatched is published when the urgent single-vendor path
// binds a ticket to one vendor.
type UrgentTicketDispatched struct {
	BaseEvent
	TicketID  uuid.UUID `json:"ticketId"`
	Category  string    `json:"category"`
	Summary   string    `json:"summary"`
	ExpiresAt time.Time `json:"expiresAt"`
	VendorID  uuid.UUID `json:"vendorId"`
}

func (e UrgentTicketDispatched) EventName() string { return "tickets.urgent_dispatched" }

// TicketExpired is published by the expiry sweep for every ticket that
// passed its deadline without reaching a terminal state.
type TicketExpired struct {
	BaseEvent
	TicketID  uuid.UUID `json:"ticketId"`
	Category  string    `json:"category"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (e TicketExpired) EventName() string { return "tickets.expired" }

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteSubmitted is published when a vendor submits a quote against a ticket.
type QuoteSubmitted struct {
	BaseEvent
	QuoteID    uuid.UUID `json:"quoteId"`
	TicketID   uuid.UUID `json:"ticketId"`
	VendorID   uuid.UUID `json:"vendorId"`
	PriceCents int64     `json:"priceCents"`
}

func (e QuoteSubmitted) EventName() string { return "quotes.submitted" }

// QuoteAccepted is published when the customer accepts a quote.
type QuoteAccepted struct {
	BaseEvent
	QuoteID  uuid.UUID `json:"quoteId"`
	TicketID uuid.UUID `json:"ticketId"`
	VendorID uuid.UUID `json:"vendorId"`
}

func (e QuoteAccepted) EventName() string { return "quotes.accepted" }

// QuoteCompleted is published when the accepted work is marked done.
type QuoteCompleted struct {
	BaseEvent
	QuoteID  uuid.UUID `json:"quoteId"`
	TicketID uuid.UUID `json:"ticketId"`
	VendorID uuid.UUID `json:"vendorId"`
}

func (e QuoteCompleted) EventName() string { return "quotes.completed" }
