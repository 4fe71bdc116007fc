package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixmarket_backend/internal/dispatch/engine"
	ticketdomain "fixmarket_backend/internal/tickets/domain"
	"fixmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository owns the dispatch SQL: candidate scans over vendors and the
// atomic urgent assignment.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new dispatch repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// candidateColumns includes an occupancy flag: a vendor is occupied while it
// holds a dispatched high-severity ticket whose window is still open.
const candidateColumns = `
	v.id, v.name, v.category, v.lat, v.lon, v.radius_km,
	EXISTS (
		SELECT 1 FROM tickets t
		WHERE t.dispatched_vendor_id = v.id
		  AND t.status = 'dispatched'
		  AND t.severity = 'high'
		  AND t.expires_at > now()
	)`

func scanCandidate(row pgx.Row) (*engine.Candidate, error) {
	var c engine.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Location.Lat, &c.Location.Lon, &c.RadiusKm, &c.Occupied)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CandidatesByCategory lists dispatchable vendors in one category, ordered
// by id for deterministic selection downstream.
func (r *Repository) CandidatesByCategory(ctx context.Context, category string) ([]engine.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM vendors v WHERE v.category = $1 ORDER BY v.id`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates: %w", err)
	}
	defer rows.Close()

	var candidates []engine.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// CandidateByID fetches one vendor as a dispatch candidate.
func (r *Repository) CandidateByID(ctx context.Context, id uuid.UUID) (*engine.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM vendors v WHERE v.id = $1`

	c, err := scanCandidate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("vendor not found")
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// AssignUrgent selects a vendor and creates the dispatched ticket in one
// transaction. Candidate rows are locked with SKIP LOCKED so two concurrent
// urgent requests cannot both take the last free vendor; a request that
// finds every candidate locked or ineligible reports no vendor available
// and leaves no ticket behind.
func (r *Repository) AssignUrgent(ctx context.Context, p engine.AssignParams) (*ticketdomain.Ticket, *engine.Candidate, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	candidates, err := r.lockCandidates(ctx, tx, p)
	if err != nil {
		return nil, nil, err
	}

	vendor, err := engine.SelectUrgentVendor(candidates, p.Origin, p.Hold)
	if err != nil {
		return nil, nil, err
	}
	if vendor == nil {
		return nil, nil, apperr.Conflict("no vendor available for urgent dispatch").
			WithCode(apperr.CodeNoEligibleVendor)
	}

	ticket, err := insertUrgentTicket(ctx, tx, p, vendor.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "urgent dispatch failed to commit", err).
			WithCode(apperr.CodeDispatchFailed)
	}
	return ticket, vendor, nil
}

func (r *Repository) lockCandidates(ctx context.Context, tx pgx.Tx, p engine.AssignParams) ([]engine.Candidate, error) {
	var rows pgx.Rows
	var err error
	if p.ExplicitVendorID != nil {
		rows, err = tx.Query(ctx,
			`SELECT `+candidateColumns+` FROM vendors v WHERE v.id = $1 FOR UPDATE OF v`,
			*p.ExplicitVendorID,
		)
	} else {
		rows, err = tx.Query(ctx,
			`SELECT `+candidateColumns+` FROM vendors v WHERE v.category = $1 ORDER BY v.id FOR UPDATE OF v SKIP LOCKED`,
			p.Category,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock candidates: %w", err)
	}
	defer rows.Close()

	var candidates []engine.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

func insertUrgentTicket(ctx context.Context, tx pgx.Tx, p engine.AssignParams, vendorID uuid.UUID) (*ticketdomain.Ticket, error) {
	now := time.Now()
	ticket := &ticketdomain.Ticket{
		ID:                 uuid.New(),
		Description:        p.Description,
		Summary:            p.Summary,
		Category:           p.Category,
		Severity:           ticketdomain.SeverityHigh,
		ImageURL:           p.ImageURL,
		Status:             ticketdomain.StatusDispatched,
		ExpiresAt:          ticketdomain.ExpiryFor(ticketdomain.SeverityHigh, now),
		DispatchedVendorID: &vendorID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if p.Origin != nil {
		ticket.Lat = &p.Origin.Lat
		ticket.Lon = &p.Origin.Lon
	}

	query := `
		INSERT INTO tickets (
			id, description, summary, category, severity, lat, lon, image_url,
			status, expires_at, dispatched_vendor_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		ticket.ID, ticket.Description, ticket.Summary, ticket.Category, ticket.Severity,
		ticket.Lat, ticket.Lon, ticket.ImageURL,
		ticket.Status, ticket.ExpiresAt, ticket.DispatchedVendorID, ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "urgent dispatch failed after vendor selection", err).
			WithCode(apperr.CodeDispatchFailed)
	}
	return ticket, nil
}
