package tickets

import (
	"fixmarket_backend/internal/classifier"
	"fixmarket_backend/internal/events"
	apphttp "fixmarket_backend/internal/http"
	"fixmarket_backend/internal/tickets/handler"
	"fixmarket_backend/internal/tickets/repository"
	"fixmarket_backend/internal/tickets/service"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the ticket lifecycle surface.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule wires the ticket repository, service and handler.
func NewModule(pool *pgxpool.Pool, cls *classifier.Service, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cls, bus, log)
	return &Module{
		handler:    handler.NewHandler(svc, validate, log),
		service:    svc,
		repository: repo,
	}
}

// Service exposes the ticket service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }

// Repository exposes the ticket repository for the dispatch engine and the
// vendor jobs feed.
func (m *Module) Repository() *repository.Repository { return m.repository }

func (m *Module) Name() string { return "tickets" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	tickets := ctx.V1.Group("/tickets")
	tickets.POST("", m.handler.Create)
	tickets.GET("", m.handler.List)
	tickets.GET("/:id", m.handler.Get)
}
