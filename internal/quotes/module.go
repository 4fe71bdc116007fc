package quotes

import (
	"fixmarket_backend/internal/events"
	apphttp "fixmarket_backend/internal/http"
	"fixmarket_backend/internal/quotes/handler"
	"fixmarket_backend/internal/quotes/repository"
	"fixmarket_backend/internal/quotes/service"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the quote ledger surface.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the quote repository, service and handler.
func NewModule(pool *pgxpool.Pool, bus events.Bus, rejectSiblings bool, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, rejectSiblings, log)
	return &Module{
		handler: handler.NewHandler(svc, validate, log),
		service: svc,
	}
}

// Service exposes the quote service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) Name() string { return "quotes" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotes := ctx.V1.Group("/quotes")
	quotes.POST("", m.handler.Submit)
	quotes.POST("/:id/accept", m.handler.Accept)
	quotes.POST("/:id/complete", m.handler.Complete)

	ctx.V1.GET("/tickets/:id/quotes", m.handler.ListForTicket)
	ctx.V1.GET("/estimate", m.handler.Estimate)
}
