package chat

import (
	"time"

	apphttp "fixmarket_backend/internal/http"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// Module bundles the chat intake surface.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the chat store, service and handler.
func NewModule(rdb *redis.Client, ttl time.Duration, validate *validator.Validator, log *logger.Logger) *Module {
	store := NewStore(rdb, ttl)
	service := NewService(store, log)
	return &Module{
		handler: NewHandler(service, validate, log),
		service: service,
	}
}

// Service exposes the session service for cross-module wiring.
func (m *Module) Service() *Service { return m.service }

func (m *Module) Name() string { return "chat" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	sessions := ctx.V1.Group("/chat/sessions")
	sessions.POST("", ctx.IntakeRateLimiter, m.handler.CreateSession)
	sessions.POST("/:id/messages", ctx.IntakeRateLimiter, m.handler.AppendMessage)
	sessions.GET("/:id", m.handler.GetSession)
}
