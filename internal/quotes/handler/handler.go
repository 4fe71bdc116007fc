package handler

import (
	"net/http"

	"fixmarket_backend/internal/http/response"
	"fixmarket_backend/internal/quotes/service"
	"fixmarket_backend/internal/quotes/transport"
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

// Submit handles POST /quotes.
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	quote, err := h.service.Submit(c.Request.Context(), service.SubmitParams{
		TicketID:     req.TicketID,
		VendorID:     req.VendorID,
		PriceCents:   req.PriceCents,
		Availability: req.Availability,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, transport.ToQuoteResponse(quote))
}

// Accept handles POST /quotes/:id/accept.
func (h *Handler) Accept(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid quote ID", nil)
		return
	}

	quote, err := h.service.Accept(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToQuoteResponse(quote))
}

// Complete handles POST /quotes/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid quote ID", nil)
		return
	}

	quote, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToQuoteResponse(quote))
}

// ListForTicket handles GET /tickets/:id/quotes.
func (h *Handler) ListForTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid ticket ID", nil)
		return
	}

	quotes, err := h.service.ListForTicket(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToQuoteResponses(quotes))
}

// Estimate handles GET /estimate?summary=.
func (h *Handler) Estimate(c *gin.Context) {
	est, err := h.service.Estimate(c.Request.Context(), c.Query("summary"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, est)
}
