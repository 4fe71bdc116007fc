package dispatch

import (
	"fixmarket_backend/internal/classifier"
	"fixmarket_backend/internal/dispatch/engine"
	"fixmarket_backend/internal/dispatch/handler"
	"fixmarket_backend/internal/dispatch/repository"
	"fixmarket_backend/internal/events"
	apphttp "fixmarket_backend/internal/http"
	ticketrepo "fixmarket_backend/internal/tickets/repository"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the dispatch surface.
type Module struct {
	handler *handler.Handler
	engine  *engine.Engine
}

// NewModule wires the dispatch repository, engine and handler.
func NewModule(
	pool *pgxpool.Pool,
	tickets *ticketrepo.Repository,
	sessions handler.TranscriptSource,
	cls *classifier.Service,
	bus events.Bus,
	urgentHold bool,
	validate *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	eng := engine.New(tickets, repo, repo, cls, bus, urgentHold, log)
	return &Module{
		handler: handler.NewHandler(eng, sessions, validate, log),
		engine:  eng,
	}
}

// Engine exposes the dispatch engine for cross-module wiring.
func (m *Module) Engine() *engine.Engine { return m.engine }

func (m *Module) Name() string { return "dispatch" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/tickets/:id/dispatch", m.handler.DispatchStandard)
	ctx.V1.POST("/tickets/:id/decline", m.handler.Decline)
	ctx.V1.POST("/dispatch/urgent", m.handler.DispatchUrgent)
}
