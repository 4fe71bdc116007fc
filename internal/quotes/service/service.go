package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fixmarket_backend/internal/events"
	"fixmarket_backend/internal/quotes/repository"
	"fixmarket_backend/platform/apperr"
	"fixmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Service implements the quote ledger on top of the repository.
type Service struct {
	repo           *repository.Repository
	bus            events.Bus
	rejectSiblings bool
	log            *logger.Logger
}

// New creates the quote service. rejectSiblings controls whether accepting a
// quote rejects its submitted siblings or leaves them standing.
func New(repo *repository.Repository, bus events.Bus, rejectSiblings bool, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, rejectSiblings: rejectSiblings, log: log}
}

// SubmitParams carries a vendor's offer.
type SubmitParams struct {
	TicketID     uuid.UUID
	VendorID     uuid.UUID
	PriceCents   int64
	Availability time.Time
}

// Submit records a vendor's quote against a ticket.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (*repository.Quote, error) {
	if p.PriceCents <= 0 {
		return nil, apperr.Validation("price must be positive")
	}
	if p.Availability.IsZero() {
		return nil, apperr.Validation("availability is required")
	}

	now := time.Now()
	quote := &repository.Quote{
		ID:           uuid.New(),
		TicketID:     p.TicketID,
		VendorID:     p.VendorID,
		PriceCents:   p.PriceCents,
		Availability: p.Availability,
		Status:       repository.StatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Submit(ctx, quote); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.QuoteSubmitted{
		BaseEvent:  events.NewBaseEvent(),
		QuoteID:    quote.ID,
		TicketID:   quote.TicketID,
		VendorID:   quote.VendorID,
		PriceCents: quote.PriceCents,
	})
	return quote, nil
}

// Accept marks one quote as the winner and moves its ticket to accepted.
func (s *Service) Accept(ctx context.Context, quoteID uuid.UUID) (*repository.Quote, error) {
	quote, err := s.repo.Accept(ctx, quoteID, s.rejectSiblings)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.QuoteAccepted{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   quote.ID,
		TicketID:  quote.TicketID,
		VendorID:  quote.VendorID,
	})
	return quote, nil
}

// Complete marks the accepted work done. Safe to call twice.
func (s *Service) Complete(ctx context.Context, quoteID uuid.UUID) (*repository.Quote, error) {
	quote, err := s.repo.Complete(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.QuoteCompleted{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   quote.ID,
		TicketID:  quote.TicketID,
		VendorID:  quote.VendorID,
	})
	return quote, nil
}

// ListForTicket returns the quotes on a ticket for comparison.
func (s *Service) ListForTicket(ctx context.Context, ticketID uuid.UUID) ([]repository.Quote, error) {
	return s.repo.ListForTicket(ctx, ticketID)
}

// EstimateResult is the price guidance derived from historical quotes. All
// fields are nil when no history matches.
type EstimateResult struct {
	Avg     *string `json:"avg"`
	Min     *string `json:"min"`
	Max     *string `json:"max"`
	Samples int     `json:"samples"`
}

// Estimate aggregates historical quotes on tickets whose summary contains
// the given text.
func (s *Service) Estimate(ctx context.Context, summary string) (*EstimateResult, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, apperr.Validation("summary is required")
	}

	est, err := s.repo.EstimateBySummary(ctx, summary)
	if err != nil {
		return nil, err
	}
	return &EstimateResult{
		Avg:     FormatCents(est.AvgCents),
		Min:     FormatCents(est.MinCents),
		Max:     FormatCents(est.MaxCents),
		Samples: est.Samples,
	}, nil
}

// FormatCents renders a cent amount as a two-decimal dollar string. Nil in,
// nil out.
func FormatCents(cents *int64) *string {
	if cents == nil {
		return nil
	}
	formatted := fmt.Sprintf("%.2f", float64(*cents)/100)
	return &formatted
}
