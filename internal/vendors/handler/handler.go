package handler

import (
	"errors"
	"net/http"
	"strconv"

	"fixmarket_backend/internal/http/response"
	tickettransport "fixmarket_backend/internal/tickets/transport"
	"fixmarket_backend/internal/vendors/repository"
	"fixmarket_backend/internal/vendors/service"
	"fixmarket_backend/internal/vendors/transport"
	"fixmarket_backend/platform/geo"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service  *service.Service
	validate *validator.Validator
	log      *logger.Logger
}

func NewHandler(service *service.Service, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: service, validate: validate, log: log}
}

// Register handles POST /vendors.
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	vendor, err := h.service.Register(c.Request.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Category: req.Category,
		Lat:      req.Lat,
		Lon:      req.Lon,
		RadiusKm: req.RadiusKm,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, transport.ToVendorResponse(vendor))
}

// Get handles GET /vendors/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid vendor ID", nil)
		return
	}

	vendor, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToVendorResponse(vendor))
}

// List handles GET /vendors?category=&lat=&lon=.
func (h *Handler) List(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		response.Error(c, http.StatusBadRequest, "category is required", nil)
		return
	}

	origin, err := parseOrigin(c.Query("lat"), c.Query("lon"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	vendors, err := h.service.VendorsFor(c.Request.Context(), category, origin)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToVendorResponses(vendors))
}

// Update handles PATCH /vendors/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid vendor ID", nil)
		return
	}

	var req transport.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	vendor, err := h.service.Update(c.Request.Context(), id, repository.UpdateParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		RadiusKm: req.RadiusKm,
		Lat:      req.Lat,
		Lon:      req.Lon,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToVendorResponse(vendor))
}

// Jobs handles GET /vendors/:id/jobs.
func (h *Handler) Jobs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid vendor ID", nil)
		return
	}

	jobs, err := h.service.JobsFor(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, tickettransport.ToTicketResponses(jobs))
}

// CreateReview handles POST /vendors/:id/reviews.
func (h *Handler) CreateReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid vendor ID", nil)
		return
	}

	var req transport.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	review, err := h.service.AddReview(c.Request.Context(), id, req.Rating, req.Comment)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, transport.ToReviewResponse(review))
}

// ListReviews handles GET /vendors/:id/reviews.
func (h *Handler) ListReviews(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid vendor ID", nil)
		return
	}

	reviews, err := h.service.Reviews(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToReviewResponses(reviews))
}

// parseOrigin reads the optional lat/lon query pair.
func parseOrigin(latStr, lonStr string) (*geo.Point, error) {
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		return nil, errors.New("lat and lon must both be valid numbers")
	}
	return &geo.Point{Lat: lat, Lon: lon}, nil
}
