// Package domain holds the ticket lifecycle rules: statuses, the transition
// table, and severity-derived expiry.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusDispatched Status = "dispatched"
	StatusQuoted     Status = "quoted"
	StatusAccepted   Status = "accepted"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

// Severity is the urgency tier controlling the expiry window.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Ticket is the customer's service request.
type Ticket struct {
	ID                 uuid.UUID  `db:"id"`
	Description        string     `db:"description"`
	Summary            string     `db:"summary"`
	Category           string     `db:"category"`
	Severity           Severity   `db:"severity"`
	Lat                *float64   `db:"lat"`
	Lon                *float64   `db:"lon"`
	ImageURL           *string    `db:"image_url"`
	Status             Status     `db:"status"`
	ExpiresAt          time.Time  `db:"expires_at"`
	DispatchedVendorID *uuid.UUID `db:"dispatched_vendor_id"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// HasOrigin reports whether the ticket carries customer coordinates.
func (t *Ticket) HasOrigin() bool {
	return t.Lat != nil && t.Lon != nil
}

// transitions is the full set of allowed status moves. Expiry is reachable
// from every pre-acceptance state; accepted and completed never expire.
var transitions = map[Status][]Status{
	StatusOpen:       {StatusDispatched, StatusQuoted, StatusExpired},
	StatusDispatched: {StatusQuoted, StatusExpired, StatusOpen},
	StatusQuoted:     {StatusAccepted, StatusExpired},
	StatusAccepted:   {StatusCompleted},
	StatusCompleted:  {},
	StatusExpired:    {},
}

// CanTransition reports whether moving a ticket from one status to another
// is allowed. The dispatched to open transition exists only for the
// no-vendor re-broadcast path.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status accepts no further transitions.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// Expirable reports whether a ticket in this status is subject to the
// expiry sweep.
func Expirable(s Status) bool {
	return CanTransition(s, StatusExpired)
}

// ParseSeverity maps free-form input to a severity tier. Unknown or empty
// input returns the empty severity, which ExpiryFor treats as the widest
// response window.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s)
	default:
		return ""
	}
}

// ExpiryFor computes the response deadline for a severity. The window is
// fixed at creation and never recomputed.
func ExpiryFor(severity Severity, now time.Time) time.Time {
	switch severity {
	case SeverityHigh:
		return now.Add(20 * time.Minute)
	case SeverityMedium:
		return now.Add(24 * time.Hour)
	default:
		return now.Add(48 * time.Hour)
	}
}
