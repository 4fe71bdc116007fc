package transport

import (
	"time"

	"fixmarket_backend/internal/vendors/repository"

	"github.com/google/uuid"
)

// RegisterVendorRequest is the body of POST /vendors.
type RegisterVendorRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lon      float64 `json:"lon" validate:"min=-180,max=180"`
	RadiusKm float64 `json:"radiusKm" validate:"required,gt=0"`
}

// UpdateVendorRequest is the body of PATCH /vendors/:id.
type UpdateVendorRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=1"`
	Email    *string  `json:"email" validate:"omitempty,email"`
	Phone    *string  `json:"phone" validate:"omitempty"`
	RadiusKm *float64 `json:"radiusKm" validate:"omitempty,gt=0"`
	Lat      *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon      *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
}

// CreateReviewRequest is the body of POST /vendors/:id/reviews.
type CreateReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// VendorResponse is the wire shape of a vendor. ReviewCount lets clients
// tell an unrated vendor from one genuinely averaging zero.
type VendorResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Category      string    `json:"category"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	RadiusKm      float64   `json:"radiusKm"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReviewResponse is the wire shape of a review.
type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendorId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToVendorResponse maps the database model to its wire shape.
func ToVendorResponse(v *repository.Vendor) VendorResponse {
	return VendorResponse{
		ID:            v.ID,
		Name:          v.Name,
		Email:         v.Email,
		Phone:         v.Phone,
		Category:      v.Category,
		Lat:           v.Lat,
		Lon:           v.Lon,
		RadiusKm:      v.RadiusKm,
		AverageRating: v.AverageRating,
		ReviewCount:   v.ReviewCount,
		CreatedAt:     v.CreatedAt,
	}
}

// ToVendorResponses maps a slice of vendors.
func ToVendorResponses(vendors []repository.Vendor) []VendorResponse {
	out := make([]VendorResponse, len(vendors))
	for i := range vendors {
		out[i] = ToVendorResponse(&vendors[i])
	}
	return out
}

// ToReviewResponse maps the database model to its wire shape.
func ToReviewResponse(r *repository.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		VendorID:  r.VendorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// ToReviewResponses maps a slice of reviews.
func ToReviewResponses(reviews []repository.Review) []ReviewResponse {
	out := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		out[i] = ToReviewResponse(&reviews[i])
	}
	return out
}
