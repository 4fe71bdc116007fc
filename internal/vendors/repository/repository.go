package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Vendor is the database model for a service vendor. The average rating is
// derived from reviews at read time, never stored.
type Vendor struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	Category      string    `db:"category"`
	Lat           float64   `db:"lat"`
	Lon           float64   `db:"lon"`
	RadiusKm      float64   `db:"radius_km"`
	AverageRating float64   `db:"average_rating"`
	ReviewCount   int       `db:"review_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Review is a customer rating against a vendor.
type Review struct {
	ID        uuid.UUID `db:"id"`
	VendorID  uuid.UUID `db:"vendor_id"`
	Rating    int       `db:"rating"`
	Comment   *string   `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
}

// UpdateParams carries the mutable vendor fields. Nil means leave unchanged.
type UpdateParams struct {
	Name     *string
	Email    *string
	Phone    *string
	RadiusKm *float64
	Lat      *float64
	Lon      *float64
}

// ── Repository ────────────────────────────────────────────────────────────────

const vendorNotFoundMsg = "vendor not found"

// Repository provides database operations for vendors and their reviews
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new vendors repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// vendorColumns joins the review aggregate in so every read carries the
// derived rating. COALESCE keeps zero-review vendors at 0 while the count
// column preserves the unrated distinction for display.
const vendorColumns = `
	v.id, v.name, v.email, v.phone, v.category, v.lat, v.lon, v.radius_km,
	COALESCE(AVG(r.rating), 0), COUNT(r.id), v.created_at, v.updated_at`

const vendorGroupBy = `GROUP BY v.id`

func scanVendor(row pgx.Row) (*Vendor, error) {
	var v Vendor
	err := row.Scan(
		&v.ID, &v.Name, &v.Email, &v.Phone, &v.Category, &v.Lat, &v.Lon, &v.RadiusKm,
		&v.AverageRating, &v.ReviewCount, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Insert stores a new vendor.
func (r *Repository) Insert(ctx context.Context, v *Vendor) error {
	query := `
		INSERT INTO vendors (id, name, email, phone, category, lat, lon, radius_km, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.Name, v.Email, v.Phone, v.Category, v.Lat, v.Lon, v.RadiusKm, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vendor: %w", err)
	}
	return nil
}

// GetByID fetches one vendor with its derived rating.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	query := `
		SELECT ` + vendorColumns + `
		FROM vendors v
		LEFT JOIN reviews r ON r.vendor_id = v.id
		WHERE v.id = $1 ` + vendorGroupBy

	v, err := scanVendor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(vendorNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return v, nil
}

// ListByCategory returns vendors in one category ordered by id so selection
// policies that take the first match stay deterministic.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]Vendor, error) {
	query := `
		SELECT ` + vendorColumns + `
		FROM vendors v
		LEFT JOIN reviews r ON r.vendor_id = v.id
		WHERE v.category = $1 ` + vendorGroupBy + `
		ORDER BY v.id`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	return collectVendors(rows)
}

// List returns all vendors ordered by id.
func (r *Repository) List(ctx context.Context) ([]Vendor, error) {
	query := `
		SELECT ` + vendorColumns + `
		FROM vendors v
		LEFT JOIN reviews r ON r.vendor_id = v.id ` + vendorGroupBy + `
		ORDER BY v.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	return collectVendors(rows)
}

// Update patches the mutable vendor fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) error {
	query := `
		UPDATE vendors SET
			name = COALESCE($1, name),
			email = COALESCE($2, email),
			phone = COALESCE($3, phone),
			radius_km = COALESCE($4, radius_km),
			lat = COALESCE($5, lat),
			lon = COALESCE($6, lon),
			updated_at = now()
		WHERE id = $7`

	tag, err := r.pool.Exec(ctx, query, p.Name, p.Email, p.Phone, p.RadiusKm, p.Lat, p.Lon, id)
	if err != nil {
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(vendorNotFoundMsg)
	}
	return nil
}

// InsertReview stores a rating. The foreign key rejects unknown vendors.
func (r *Repository) InsertReview(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (id, vendor_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		review.ID, review.VendorID, review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// ListReviews returns a vendor's reviews, newest first.
func (r *Repository) ListReviews(ctx context.Context, vendorID uuid.UUID) ([]Review, error) {
	query := `
		SELECT id, vendor_id, rating, comment, created_at
		FROM reviews
		WHERE vendor_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.VendorID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func collectVendors(rows pgx.Rows) ([]Vendor, error) {
	var vendors []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, *v)
	}
	return vendors, rows.Err()
}
