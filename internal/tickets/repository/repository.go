package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixmarket_backend/internal/tickets/domain"
	"fixmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketNotFoundMsg = "ticket not found"

// Phase splits a customer's ticket history by the expiry deadline.
type Phase string

const (
	PhaseOpen Phase = "open"
	PhasePast Phase = "past"
)

// ExpiredTicket is the sweep's view of a ticket it just expired.
type ExpiredTicket struct {
	ID        uuid.UUID
	Category  string
	ExpiresAt time.Time
}

// Repository provides database operations for tickets
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new tickets repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ticketColumns = `
	id, description, summary, category, severity, lat, lon, image_url,
	status, expires_at, dispatched_vendor_id, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.Description, &t.Summary, &t.Category, &t.Severity,
		&t.Lat, &t.Lon, &t.ImageURL,
		&t.Status, &t.ExpiresAt, &t.DispatchedVendorID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Insert stores a new ticket.
func (r *Repository) Insert(ctx context.Context, t *domain.Ticket) error {
	query := `
		INSERT INTO tickets (
			id, description, summary, category, severity, lat, lon, image_url,
			status, expires_at, dispatched_vendor_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Description, t.Summary, t.Category, t.Severity, t.Lat, t.Lon, t.ImageURL,
		t.Status, t.ExpiresAt, t.DispatchedVendorID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetByID fetches a single ticket.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	t, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(ticketNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

// UpdateStatus performs a conditional status transition. The WHERE clause on
// the current status makes the transition safe under concurrent writers; a
// zero row count is classified against the ticket's actual state.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) error {
	query := `UPDATE tickets SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedTransition(ctx, id, from, to)
	}
	return nil
}

func (r *Repository) classifyMissedTransition(ctx context.Context, id uuid.UUID, from, to domain.Status) error {
	var current domain.Status
	err := r.pool.QueryRow(ctx, `SELECT status FROM tickets WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(ticketNotFoundMsg)
	}
	if err != nil {
		return fmt.Errorf("failed to read ticket status: %w", err)
	}
	return apperr.Conflict(fmt.Sprintf("ticket is %s, cannot move %s to %s", current, from, to)).
		WithCode(apperr.CodeInvalidTicketState)
}

// ReturnToOpen moves a dispatched ticket back to open and clears its bound
// vendor so a declined job can be re-broadcast.
func (r *Repository) ReturnToOpen(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tickets
		SET status = $1, dispatched_vendor_id = NULL, updated_at = now()
		WHERE id = $2 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, domain.StatusOpen, id, domain.StatusDispatched)
	if err != nil {
		return fmt.Errorf("failed to return ticket to open: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedTransition(ctx, id, domain.StatusDispatched, domain.StatusOpen)
	}
	return nil
}

// ExpireDue transitions every past-deadline, still-expirable ticket to
// expired in a single statement and returns the affected rows for event
// publication.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time) ([]ExpiredTicket, error) {
	query := `
		UPDATE tickets
		SET status = $1, updated_at = now()
		WHERE status = ANY($2) AND expires_at <= $3
		RETURNING id, category, expires_at`

	expirable := []domain.Status{domain.StatusOpen, domain.StatusDispatched, domain.StatusQuoted}
	rows, err := r.pool.Query(ctx, query, domain.StatusExpired, expirable, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire tickets: %w", err)
	}
	defer rows.Close()

	var expired []ExpiredTicket
	for rows.Next() {
		var e ExpiredTicket
		if err := rows.Scan(&e.ID, &e.Category, &e.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan expired ticket: %w", err)
		}
		expired = append(expired, e)
	}
	return expired, rows.Err()
}

// ListByPhase returns the customer-visible history. Open means the response
// window is still running; past covers everything else, terminal or not.
func (r *Repository) ListByPhase(ctx context.Context, phase Phase, now time.Time) ([]domain.Ticket, error) {
	active := []domain.Status{domain.StatusOpen, domain.StatusDispatched, domain.StatusQuoted, domain.StatusAccepted}

	var query string
	switch phase {
	case PhaseOpen:
		query = `SELECT ` + ticketColumns + ` FROM tickets
			WHERE status = ANY($1) AND expires_at > $2
			ORDER BY created_at DESC`
	case PhasePast:
		query = `SELECT ` + ticketColumns + ` FROM tickets
			WHERE NOT (status = ANY($1) AND expires_at > $2)
			ORDER BY created_at DESC`
	default:
		return nil, apperr.BadRequest(fmt.Sprintf("unknown phase %q", phase))
	}

	rows, err := r.pool.Query(ctx, query, active, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

// ListOpenForCategory returns quotable, unexpired tickets in one category.
// Geographic filtering against each vendor's radius happens at the caller.
func (r *Repository) ListOpenForCategory(ctx context.Context, category string, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE category = $1 AND status = ANY($2) AND expires_at > $3
		ORDER BY created_at DESC`

	quotable := []domain.Status{domain.StatusOpen, domain.StatusDispatched, domain.StatusQuoted}
	rows, err := r.pool.Query(ctx, query, category, quotable, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tickets: %w", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}
