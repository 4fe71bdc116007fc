// Package engine implements ticket dispatch: standard multi-vendor
// broadcast and the urgent single-vendor path.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"fixmarket_backend/internal/classifier"
	"fixmarket_backend/internal/events"
	ticketdomain "fixmarket_backend/internal/tickets/domain"
	ticketservice "fixmarket_backend/internal/tickets/service"
	"fixmarket_backend/platform/apperr"
	"fixmarket_backend/platform/geo"
	"fixmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// ReasonNoVendor is the stable soft-failure reason callers branch on to
// fall back from urgent to broadcast dispatch.
const ReasonNoVendor = "no vendor available"

// TicketStore is the slice of the ticket repository the engine needs.
type TicketStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ticketdomain.Ticket, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to ticketdomain.Status) error
	ReturnToOpen(ctx context.Context, id uuid.UUID) error
}

// CandidateSource lists dispatchable vendors.
type CandidateSource interface {
	CandidatesByCategory(ctx context.Context, category string) ([]Candidate, error)
	CandidateByID(ctx context.Context, id uuid.UUID) (*Candidate, error)
}

// AssignParams describes one urgent assignment.
type AssignParams struct {
	Category         string
	ExplicitVendorID *uuid.UUID
	Origin           *geo.Point
	Hold             bool
	Description      string
	Summary          string
	ImageURL         *string
}

// UrgentAssigner atomically selects a vendor and creates the dispatched
// ticket. Implementations must guarantee that no ticket exists when the
// returned error carries the no-vendor code.
type UrgentAssigner interface {
	AssignUrgent(ctx context.Context, p AssignParams) (*ticketdomain.Ticket, *Candidate, error)
}

// Engine routes tickets to vendors.
type Engine struct {
	tickets    TicketStore
	candidates CandidateSource
	assigner   UrgentAssigner
	classifier *classifier.Service
	bus        events.Bus
	hold       bool
	log        *logger.Logger
}

// New creates the dispatch engine. hold controls whether a vendor with an
// active urgent ticket is skipped by urgent selection.
func New(tickets TicketStore, candidates CandidateSource, assigner UrgentAssigner, cls *classifier.Service, bus events.Bus, hold bool, log *logger.Logger) *Engine {
	return &Engine{
		tickets:    tickets,
		candidates: candidates,
		assigner:   assigner,
		classifier: cls,
		bus:        bus,
		hold:       hold,
		log:        log,
	}
}

// StandardResult reports a broadcast dispatch.
type StandardResult struct {
	Success   bool        `json:"success"`
	TicketID  uuid.UUID   `json:"ticketId"`
	VendorIDs []uuid.UUID `json:"vendorIds,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// DispatchStandard broadcasts an open ticket to every eligible vendor. With
// zero eligible vendors the ticket stays open and the result is a soft
// failure, not an error.
func (e *Engine) DispatchStandard(ctx context.Context, ticketID uuid.UUID) (*StandardResult, error) {
	ticket, err := retryOnce(ctx, func(ctx context.Context) (*ticketdomain.Ticket, error) {
		return e.tickets.GetByID(ctx, ticketID)
	})
	if err != nil {
		return nil, err
	}

	if ticket.Status != ticketdomain.StatusOpen {
		return nil, apperr.Conflict("only an open ticket can be dispatched").
			WithCode(apperr.CodeInvalidTicketState)
	}
	if !ticket.ExpiresAt.After(time.Now()) {
		return nil, apperr.Conflict("ticket response window has closed").
			WithCode(apperr.CodeInvalidTicketState)
	}

	candidates, err := retryOnce(ctx, func(ctx context.Context) ([]Candidate, error) {
		return e.candidates.CandidatesByCategory(ctx, ticket.Category)
	})
	if err != nil {
		return nil, err
	}

	var origin *geo.Point
	if ticket.HasOrigin() {
		origin = &geo.Point{Lat: *ticket.Lat, Lon: *ticket.Lon}
	}
	eligible, err := EligibleCandidates(candidates, origin)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return &StandardResult{Success: false, TicketID: ticket.ID, Reason: ReasonNoVendor}, nil
	}

	if err := e.tickets.UpdateStatus(ctx, ticket.ID, ticketdomain.StatusOpen, ticketdomain.StatusDispatched); err != nil {
		return nil, err
	}

	vendorIDs := make([]uuid.UUID, len(eligible))
	for i, c := range eligible {
		vendorIDs[i] = c.ID
	}
	e.bus.Publish(ctx, events.TicketDispatched{
		BaseEvent: events.NewBaseEvent(),
		TicketID:  ticket.ID,
		Category:  ticket.Category,
		Summary:   ticket.Summary,
		ExpiresAt: ticket.ExpiresAt,
		VendorIDs: vendorIDs,
	})
	e.log.DispatchEvent("standard", ticket.ID.String(), len(vendorIDs), ticket.Category)

	return &StandardResult{Success: true, TicketID: ticket.ID, VendorIDs: vendorIDs}, nil
}

// UrgentRequest is one urgent dispatch call. Category and VendorID are
// optional; the transcript is classified when the category is absent.
type UrgentRequest struct {
	Transcript string
	Category   string
	VendorID   *uuid.UUID
	Lat        *float64
	Lon        *float64
	ImageURL   *string
}

// UrgentResult reports an urgent dispatch. VendorRef is the assigned
// vendor's id; Reason is set only on soft failure.
type UrgentResult struct {
	Success   bool       `json:"success"`
	TicketID  *uuid.UUID `json:"ticketId,omitempty"`
	VendorRef *uuid.UUID `json:"vendorRef,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// DispatchUrgent binds a high-severity ticket to exactly one vendor. When no
// vendor qualifies the call reports a soft failure and creates nothing; the
// fallback to broadcast dispatch belongs to the caller.
func (e *Engine) DispatchUrgent(ctx context.Context, req UrgentRequest) (*UrgentResult, error) {
	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" {
		return nil, apperr.Validation("transcript is required")
	}

	origin, err := resolveOrigin(req.Lat, req.Lon)
	if err != nil {
		return nil, err
	}

	category := classifier.Parse(req.Category)
	if req.Category == "" {
		category = e.classifier.Classify(ctx, transcript)
	}

	if req.VendorID != nil {
		if err := e.validateExplicitVendor(ctx, *req.VendorID, string(category)); err != nil {
			return nil, err
		}
	}

	ticket, vendor, err := e.assigner.AssignUrgent(ctx, AssignParams{
		Category:         string(category),
		ExplicitVendorID: req.VendorID,
		Origin:           origin,
		Hold:             e.hold,
		Description:      transcript,
		Summary:          ticketservice.Summarize(transcript),
		ImageURL:         req.ImageURL,
	})
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNoEligibleVendor) {
			return &UrgentResult{Success: false, Reason: ReasonNoVendor}, nil
		}
		return nil, err
	}

	e.bus.Publish(ctx, events.UrgentTicketDispatched{
		BaseEvent: events.NewBaseEvent(),
		TicketID:  ticket.ID,
		Category:  ticket.Category,
		Summary:   ticket.Summary,
		ExpiresAt: ticket.ExpiresAt,
		VendorID:  vendor.ID,
	})
	e.log.DispatchEvent("urgent", ticket.ID.String(), 1, ticket.Category)

	return &UrgentResult{Success: true, TicketID: &ticket.ID, VendorRef: &vendor.ID}, nil
}

// Decline releases a ticket whose assigned vendor turned the job down. The
// ticket returns to open with no bound vendor, so a later broadcast dispatch
// can offer it to the rest of the pool.
func (e *Engine) Decline(ctx context.Context, ticketID, vendorID uuid.UUID) error {
	ticket, err := retryOnce(ctx, func(ctx context.Context) (*ticketdomain.Ticket, error) {
		return e.tickets.GetByID(ctx, ticketID)
	})
	if err != nil {
		return err
	}

	if ticket.Status != ticketdomain.StatusDispatched {
		return apperr.Conflict("only a dispatched ticket can be declined").
			WithCode(apperr.CodeInvalidTicketState)
	}
	if ticket.DispatchedVendorID == nil || *ticket.DispatchedVendorID != vendorID {
		return apperr.Conflict("ticket is not assigned to this vendor")
	}

	if err := e.tickets.ReturnToOpen(ctx, ticketID); err != nil {
		return err
	}
	e.log.Info("dispatch declined",
		"ticket_id", ticketID.String(),
		"vendor_id", vendorID.String(),
	)
	return nil
}

// validateExplicitVendor confirms a caller-supplied vendor exists and works
// the resolved category before the assigner takes locks.
func (e *Engine) validateExplicitVendor(ctx context.Context, vendorID uuid.UUID, category string) error {
	candidate, err := retryOnce(ctx, func(ctx context.Context) (*Candidate, error) {
		return e.candidates.CandidateByID(ctx, vendorID)
	})
	if err != nil {
		return err
	}
	if candidate.Category != category {
		return apperr.Validation("vendor does not serve the requested category")
	}
	return nil
}

func resolveOrigin(lat, lon *float64) (*geo.Point, error) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, apperr.Validation("latitude and longitude must be supplied together").
			WithCode(apperr.CodeInvalidCoordinate)
	}
	p := geo.Point{Lat: *lat, Lon: *lon}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// retryOnce retries a read exactly once on transient failure. Domain errors
// pass through untouched; a second transient failure surfaces as a
// persistence error. Writes are never retried here because a write that
// partially succeeded must be reported, not repeated.
func retryOnce[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err == nil {
		return out, nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return out, err
	}

	out, err = fn(ctx)
	if err == nil {
		return out, nil
	}
	var zero T
	return zero, apperr.Wrap(apperr.KindInternal, "persistent read failure during dispatch", err).
		WithCode(apperr.CodePersistenceError)
}
