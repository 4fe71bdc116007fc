package chat

import (
	"net/http"
	"time"

	"fixmarket_backend/internal/http/response"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	validate *validator.Validator
	log      *logger.Logger
}

func NewHandler(service *Service, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: service, validate: validate, log: log}
}

type appendMessageRequest struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Kind    string `json:"kind" validate:"omitempty,oneof=text image"`
	Content string `json:"content" validate:"required"`
}

// CreateSession starts a new conversation session.
func (h *Handler) CreateSession(c *gin.Context) {
	id, err := h.service.Create(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, gin.H{"sessionId": id})
}

// AppendMessage adds one turn to a session and returns the updated state.
func (h *Handler) AppendMessage(c *gin.Context) {
	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	kind := Kind(req.Kind)
	if kind == "" {
		kind = KindText
	}
	msg := Message{
		Role:      Role(req.Role),
		Kind:      kind,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	state, err := h.service.Append(c.Request.Context(), c.Param("id"), msg)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, state)
}

// GetSession returns the current session state.
func (h *Handler) GetSession(c *gin.Context) {
	state, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, state)
}
