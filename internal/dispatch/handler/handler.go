package handler

import (
	"context"
	"net/http"

	"fixmarket_backend/internal/dispatch/engine"
	"fixmarket_backend/internal/dispatch/transport"
	"fixmarket_backend/internal/http/response"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TranscriptSource resolves a chat session to its transcript and tears the
// session down once a ticket has been created from it.
type TranscriptSource interface {
	Transcript(ctx context.Context, sessionID string) (string, error)
	Terminate(ctx context.Context, sessionID string)
}

type Handler struct {
	engine   *engine.Engine
	sessions TranscriptSource
	validate *validator.Validator
	log      *logger.Logger
}

func NewHandler(eng *engine.Engine, sessions TranscriptSource, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{engine: eng, sessions: sessions, validate: validate, log: log}
}

// DispatchStandard handles POST /tickets/:id/dispatch.
func (h *Handler) DispatchStandard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid ticket ID", nil)
		return
	}

	result, err := h.engine.DispatchStandard(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, result)
}

// Decline handles POST /tickets/:id/decline.
func (h *Handler) Decline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid ticket ID", nil)
		return
	}

	var req transport.DeclineDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.engine.Decline(c.Request.Context(), id, req.VendorID); err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, gin.H{"ticketId": id, "status": "open"})
}

// DispatchUrgent handles POST /dispatch/urgent.
func (h *Handler) DispatchUrgent(c *gin.Context) {
	var req transport.UrgentDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx := c.Request.Context()
	transcript := req.Transcript
	if transcript == "" {
		var err error
		transcript, err = h.sessions.Transcript(ctx, req.SessionID)
		if err != nil {
			response.HandleError(c, err)
			return
		}
	}

	result, err := h.engine.DispatchUrgent(ctx, engine.UrgentRequest{
		Transcript: transcript,
		Category:   req.Category,
		VendorID:   req.VendorID,
		Lat:        req.Lat,
		Lon:        req.Lon,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}

	// The session ends once a ticket exists for it.
	if result.Success && req.SessionID != "" {
		h.sessions.Terminate(ctx, req.SessionID)
	}
	response.OK(c, result)
}
