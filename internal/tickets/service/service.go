package service

import (
	"context"
	"strings"
	"time"

	"fixmarket_backend/internal/classifier"
	"fixmarket_backend/internal/events"
	"fixmarket_backend/internal/tickets/domain"
	"fixmarket_backend/internal/tickets/repository"
	"fixmarket_backend/platform/apperr"
	"fixmarket_backend/platform/geo"
	"fixmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Service implements the ticket lifecycle on top of the repository.
type Service struct {
	repo       *repository.Repository
	classifier *classifier.Service
	bus        events.Bus
	log        *logger.Logger
}

// New creates the ticket service.
func New(repo *repository.Repository, cls *classifier.Service, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, classifier: cls, bus: bus, log: log}
}

// CreateParams carries the fields of a standard ticket submission. Category
// and severity are optional; absent values are inferred or defaulted.
type CreateParams struct {
	Description string
	Category    string
	Severity    string
	Lat         *float64
	Lon         *float64
	ImageURL    *string
}

// Create builds an open ticket from a standard submission. The expiry
// deadline is computed here, once, from the resolved severity.
func (s *Service) Create(ctx context.Context, p CreateParams) (*domain.Ticket, error) {
	description := strings.TrimSpace(p.Description)
	if description == "" {
		return nil, apperr.Validation("description is required")
	}

	origin, err := resolveOrigin(p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}

	category := classifier.Parse(p.Category)
	if p.Category == "" {
		category = s.classifier.Classify(ctx, description)
	}

	severity := domain.ParseSeverity(p.Severity)
	now := time.Now()
	ticket := &domain.Ticket{
		ID:          uuid.New(),
		Description: description,
		Summary:     Summarize(description),
		Category:    string(category),
		Severity:    severity,
		ImageURL:    p.ImageURL,
		Status:      domain.StatusOpen,
		ExpiresAt:   domain.ExpiryFor(severity, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if origin != nil {
		ticket.Lat = &origin.Lat
		ticket.Lon = &origin.Lon
	}

	if err := s.repo.Insert(ctx, ticket); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.TicketCreated{
		BaseEvent: events.NewBaseEvent(),
		TicketID:  ticket.ID,
		Category:  ticket.Category,
		Severity:  string(ticket.Severity),
		ExpiresAt: ticket.ExpiresAt,
	})
	return ticket, nil
}

// Get returns one ticket by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the customer history for a phase.
func (s *Service) List(ctx context.Context, phase repository.Phase) ([]domain.Ticket, error) {
	return s.repo.ListByPhase(ctx, phase, time.Now())
}

// ExpireDue runs one expiry sweep pass and publishes an event per expired
// ticket. Called from the scheduler worker.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, e := range expired {
		s.bus.Publish(ctx, events.TicketExpired{
			BaseEvent: events.NewBaseEvent(),
			TicketID:  e.ID,
			Category:  e.Category,
			ExpiresAt: e.ExpiresAt,
		})
	}
	return len(expired), nil
}

// resolveOrigin validates an optional coordinate pair. Supplying only one
// half of the pair is rejected.
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

const summaryMaxLen = 120

// Summarize derives the short summary used for estimate matching from the
// full description. The urgent dispatch path reuses it for transcripts.
func Summarize(description string) string {
	firstLine := strings.SplitN(description, "\n", 2)[0]
	firstLine = strings.TrimSpace(firstLine)
	runes := []rune(firstLine)
	if len(runes) <= summaryMaxLen {
		return firstLine
	}
	return string(runes[:summaryMaxLen])
}
