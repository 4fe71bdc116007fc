package handler

import (
	"net/http"

	"fixmarket_backend/internal/http/response"
	"fixmarket_backend/internal/tickets/repository"
	"fixmarket_backend/internal/tickets/service"
	"fixmarket_backend/internal/tickets/transport"
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

// Create handles POST /tickets.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ticket, err := h.service.Create(c.Request.Context(), service.CreateParams{
		Description: req.Description,
		Category:    req.Category,
		Severity:    req.Severity,
		Lat:         req.Lat,
		Lon:         req.Lon,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, transport.ToTicketResponse(ticket))
}

// Get handles GET /tickets/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid ticket ID", nil)
		return
	}

	ticket, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToTicketResponse(ticket))
}

// List handles GET /tickets?phase=open|past.
func (h *Handler) List(c *gin.Context) {
	phase := repository.Phase(c.DefaultQuery("phase", string(repository.PhaseOpen)))

	tickets, err := h.service.List(c.Request.Context(), phase)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, transport.ToTicketResponses(tickets))
}
