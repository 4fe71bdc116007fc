package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	ticketdomain "fixmarket_backend/internal/tickets/domain"
	"fixmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Quote is a vendor's offer against a ticket. Prices are stored in cents.
type Quote struct {
	ID           uuid.UUID `db:"id"`
	TicketID     uuid.UUID `db:"ticket_id"`
	VendorID     uuid.UUID `db:"vendor_id"`
	PriceCents   int64     `db:"price_cents"`
	Availability time.Time `db:"availability"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Estimate aggregates historical quote prices for similar tickets. Nil
// fields mean no matching data, which is a valid result, not an error.
type Estimate struct {
	AvgCents *int64
	MinCents *int64
	MaxCents *int64
	Samples  int
}

// ── Repository ────────────────────────────────────────────────────────────────

const quoteNotFoundMsg = "quote not found"

// Repository provides database operations for quotes
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const quoteColumns = `id, ticket_id, vendor_id, price_cents, availability, status, created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(
		&q.ID, &q.TicketID, &q.VendorID, &q.PriceCents, &q.Availability,
		&q.Status, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Submit inserts a quote and moves the ticket to quoted in one transaction.
// The partial unique index on (ticket_id, vendor_id) over active statuses
// turns a repeat submission into a duplicate_active_quote conflict.
func (r *Repository) Submit(ctx context.Context, q *Quote) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ticketStatus ticketdomain.Status
	var expiresAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT status, expires_at FROM tickets WHERE id = $1 FOR UPDATE`,
		q.TicketID,
	).Scan(&ticketStatus, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("ticket not found")
	}
	if err != nil {
		return fmt.Errorf("failed to lock ticket: %w", err)
	}

	if !expiresAt.After(time.Now()) || !quotable(ticketStatus) {
		return apperr.Conflict(fmt.Sprintf("ticket is %s and cannot accept quotes", ticketStatus)).
			WithCode(apperr.CodeInvalidTicketState)
	}

	insert := `
		INSERT INTO quotes (id, ticket_id, vendor_id, price_cents, availability, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.Exec(ctx, insert,
		q.ID, q.TicketID, q.VendorID, q.PriceCents, q.Availability, q.Status, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("vendor already has an active quote on this ticket").
				WithCode(apperr.CodeDuplicateActiveQuote)
		}
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperr.NotFound("vendor not found")
		}
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE tickets SET status = $1, updated_at = now() WHERE id = $2 AND status = ANY($3)`,
		ticketdomain.StatusQuoted, q.TicketID,
		[]ticketdomain.Status{ticketdomain.StatusOpen, ticketdomain.StatusDispatched},
	)
	if err != nil {
		return fmt.Errorf("failed to mark ticket quoted: %w", err)
	}

	return tx.Commit(ctx)
}

func quotable(s ticketdomain.Status) bool {
	switch s {
	case ticketdomain.StatusOpen, ticketdomain.StatusDispatched, ticketdomain.StatusQuoted:
		return true
	default:
		return false
	}
}

// GetByID fetches one quote.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`

	q, err := scanQuote(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return q, nil
}

// ListForTicket returns a ticket's quotes in submission order for the
// comparison view.
func (r *Repository) ListForTicket(ctx context.Context, ticketID uuid.UUID) ([]Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE ticket_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// Accept transitions one quote to accepted and its ticket along with it.
// The quote update is a single conditional statement guarded against an
// already-accepted sibling, so two concurrent accepts on the same ticket
// cannot both win.
func (r *Repository) Accept(ctx context.Context, quoteID uuid.UUID, rejectSiblings bool) (*Quote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	quote, err := scanQuote(tx.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, quoteID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock quote: %w", err)
	}

	// Re-accepting the winning quote is a no-op.
	if quote.Status == StatusAccepted {
		return quote, tx.Commit(ctx)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE quotes SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		  AND NOT EXISTS (
			SELECT 1 FROM quotes s
			WHERE s.ticket_id = $4 AND s.status = $1 AND s.id <> $2
		  )`,
		StatusAccepted, quoteID, StatusSubmitted, quote.TicketID,
	)
	if err != nil {
		// A concurrent accept that committed first trips the partial unique
		// index on accepted quotes before the NOT EXISTS guard can see it.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Conflict("another quote on this ticket is already accepted").
				WithCode(apperr.CodeAlreadyAccepted)
		}
		return nil, fmt.Errorf("failed to accept quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, r.classifyAcceptFailure(ctx, tx, quote)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE tickets SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		ticketdomain.StatusAccepted, quote.TicketID, ticketdomain.StatusQuoted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to accept ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.Conflict("ticket is no longer accepting quotes").
			WithCode(apperr.CodeInvalidTicketState)
	}

	if rejectSiblings {
		_, err = tx.Exec(ctx,
			`UPDATE quotes SET status = $1, updated_at = now() WHERE ticket_id = $2 AND status = $3`,
			StatusRejected, quote.TicketID, StatusSubmitted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reject sibling quotes: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit accept: %w", err)
	}
	quote.Status = StatusAccepted
	return quote, nil
}

func (r *Repository) classifyAcceptFailure(ctx context.Context, tx pgx.Tx, quote *Quote) error {
	var siblings int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM quotes WHERE ticket_id = $1 AND status = $2 AND id <> $3`,
		quote.TicketID, StatusAccepted, quote.ID,
	).Scan(&siblings)
	if err != nil {
		return fmt.Errorf("failed to inspect sibling quotes: %w", err)
	}
	if siblings > 0 {
		return apperr.Conflict("another quote on this ticket is already accepted").
			WithCode(apperr.CodeAlreadyAccepted)
	}
	return apperr.Conflict(fmt.Sprintf("quote is %s and cannot be accepted", quote.Status)).
		WithCode(apperr.CodeInvalidTicketState)
}

// Complete transitions an accepted quote and its ticket to completed.
// Completing an already completed quote is a no-op.
func (r *Repository) Complete(ctx context.Context, quoteID uuid.UUID) (*Quote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	quote, err := scanQuote(tx.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, quoteID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock quote: %w", err)
	}

	switch quote.Status {
	case StatusCompleted:
		return quote, tx.Commit(ctx)
	case StatusAccepted:
		// proceed
	default:
		return nil, apperr.Conflict(fmt.Sprintf("quote is %s, only an accepted quote can be completed", quote.Status)).
			WithCode(apperr.CodeNotAccepted)
	}

	_, err = tx.Exec(ctx,
		`UPDATE quotes SET status = $1, updated_at = now() WHERE id = $2`,
		StatusCompleted, quoteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete quote: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE tickets SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		ticketdomain.StatusCompleted, quote.TicketID, ticketdomain.StatusAccepted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}
	quote.Status = StatusCompleted
	return quote, nil
}

// EstimateBySummary aggregates prices of every quote whose ticket summary
// contains the given text. Zero matches leave all fields nil.
func (r *Repository) EstimateBySummary(ctx context.Context, summary string) (*Estimate, error) {
	query := `
		SELECT AVG(q.price_cents), MIN(q.price_cents), MAX(q.price_cents), COUNT(q.id)
		FROM quotes q
		JOIN tickets t ON t.id = q.ticket_id
		WHERE t.summary ILIKE '%' || $1 || '%'`

	var est Estimate
	var avg *float64
	err := r.pool.QueryRow(ctx, query, summary).Scan(&avg, &est.MinCents, &est.MaxCents, &est.Samples)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate estimate: %w", err)
	}
	if avg != nil {
		rounded := int64(*avg + 0.5)
		est.AvgCents = &rounded
	}
	return &est, nil
}
