package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fixmarket_backend/internal/classifier"
	ticketdomain "fixmarket_backend/internal/tickets/domain"
	"fixmarket_backend/internal/vendors/repository"
	"fixmarket_backend/platform/apperr"
	"fixmarket_backend/platform/geo"
	"fixmarket_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// OpenTicketSource feeds the vendor jobs view with quotable tickets.
type OpenTicketSource interface {
	ListOpenForCategory(ctx context.Context, category string, now time.Time) ([]ticketdomain.Ticket, error)
}

// Service implements vendor registration, matching and reviews.
type Service struct {
	repo          *repository.Repository
	tickets       OpenTicketSource
	defaultRegion string
	log           *logger.Logger
}

// New creates the vendor service. The region is the default country for
// parsing nationally formatted phone numbers.
func New(repo *repository.Repository, tickets OpenTicketSource, defaultRegion string, log *logger.Logger) *Service {
	return &Service{repo: repo, tickets: tickets, defaultRegion: defaultRegion, log: log}
}

// RegisterParams carries a vendor registration.
type RegisterParams struct {
	Name     string
	Email    string
	Phone    string
	Category string
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// Register validates and stores a new vendor. The phone number is normalized
// to E.164 so the contact channel is stable across clients.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*repository.Vendor, error) {
	category := classifier.Parse(p.Category)
	if !classifier.Known(category) {
		return nil, apperr.Validation(fmt.Sprintf("unknown category %q", p.Category))
	}

	location := geo.Point{Lat: p.Lat, Lon: p.Lon}
	if err := location.Validate(); err != nil {
		return nil, err
	}
	if p.RadiusKm <= 0 {
		return nil, apperr.Validation("service radius must be positive")
	}

	phone, err := s.normalizePhone(p.Phone)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	vendor := &repository.Vendor{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(p.Name),
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:     phone,
		Category:  string(category),
		Lat:       p.Lat,
		Lon:       p.Lon,
		RadiusKm:  p.RadiusKm,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// Get returns one vendor with its derived rating.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Vendor, error) {
	return s.repo.GetByID(ctx, id)
}

// Update patches a vendor. Phone numbers are re-normalized, coordinates and
// radius re-validated.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p repository.UpdateParams) (*repository.Vendor, error) {
	if p.Phone != nil {
		phone, err := s.normalizePhone(*p.Phone)
		if err != nil {
			return nil, err
		}
		p.Phone = &phone
	}
	if p.RadiusKm != nil && *p.RadiusKm <= 0 {
		return nil, apperr.Validation("service radius must be positive")
	}
	if p.Lat != nil || p.Lon != nil {
		if p.Lat == nil || p.Lon == nil {
			return nil, apperr.Validation("latitude and longitude must be supplied together").
				WithCode(apperr.CodeInvalidCoordinate)
		}
		if err := (geo.Point{Lat: *p.Lat, Lon: *p.Lon}).Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// VendorsFor returns the vendors eligible for a category and, when an origin
// is given, whose own service radius contains it. Without an origin the
// category match alone decides.
func (s *Service) VendorsFor(ctx context.Context, category string, origin *geo.Point) ([]repository.Vendor, error) {
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return nil, err
		}
	}

	vendors, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if origin == nil {
		return vendors, nil
	}
	return filterByServiceRadius(vendors, *origin)
}

// filterByServiceRadius keeps the vendors whose own service radius contains
// the origin point. Each vendor's stored radius is used, never a shared
// constant.
func filterByServiceRadius(vendors []repository.Vendor, origin geo.Point) ([]repository.Vendor, error) {
	eligible := make([]repository.Vendor, 0, len(vendors))
	for _, v := range vendors {
		within, err := geo.WithinRadius(geo.Point{Lat: v.Lat, Lon: v.Lon}, origin, v.RadiusKm)
		if err != nil {
			return nil, err
		}
		if within {
			eligible = append(eligible, v)
		}
	}
	return eligible, nil
}

// JobsFor returns the open, unexpired tickets in the vendor's category whose
// origin lies within the vendor's service radius. Tickets without
// coordinates are offered to every vendor in the category.
func (s *Service) JobsFor(ctx context.Context, vendorID uuid.UUID) ([]ticketdomain.Ticket, error) {
	vendor, err := s.repo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListOpenForCategory(ctx, vendor.Category, time.Now())
	if err != nil {
		return nil, err
	}

	base := geo.Point{Lat: vendor.Lat, Lon: vendor.Lon}
	jobs := make([]ticketdomain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if !t.HasOrigin() {
			jobs = append(jobs, t)
			continue
		}
		within, err := geo.WithinRadius(base, geo.Point{Lat: *t.Lat, Lon: *t.Lon}, vendor.RadiusKm)
		if err != nil {
			return nil, err
		}
		if within {
			jobs = append(jobs, t)
		}
	}
	return jobs, nil
}

// AddReview records a rating against a vendor.
func (s *Service) AddReview(ctx context.Context, vendorID uuid.UUID, rating int, comment *string) (*repository.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	if _, err := s.repo.GetByID(ctx, vendorID); err != nil {
		return nil, err
	}

	review := &repository.Review{
		ID:        uuid.New(),
		VendorID:  vendorID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	if err := s.repo.InsertReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Reviews lists a vendor's reviews.
func (s *Service) Reviews(ctx context.Context, vendorID uuid.UUID) ([]repository.Review, error) {
	return s.repo.ListReviews(ctx, vendorID)
}

func (s *Service) normalizePhone(raw string) (string, error) {
	parsed, err := phonenumbers.Parse(strings.TrimSpace(raw), s.defaultRegion)
	if err != nil {
		return "", apperr.Validation("invalid phone number")
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", apperr.Validation("invalid phone number")
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
