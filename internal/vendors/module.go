package vendors

import (
	apphttp "fixmarket_backend/internal/http"
	"fixmarket_backend/internal/vendors/handler"
	"fixmarket_backend/internal/vendors/repository"
	"fixmarket_backend/internal/vendors/service"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the vendor directory surface.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the vendor repository, service and handler.
func NewModule(pool *pgxpool.Pool, tickets service.OpenTicketSource, defaultRegion string, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, tickets, defaultRegion, log)
	return &Module{
		handler: handler.NewHandler(svc, validate, log),
		service: svc,
	}
}

// Service exposes the vendor service for the dispatch engine.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) Name() string { return "vendors" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	vendors := ctx.V1.Group("/vendors")
	vendors.POST("", m.handler.Register)
	vendors.GET("", m.handler.List)
	vendors.GET("/:id", m.handler.Get)
	vendors.PATCH("/:id", m.handler.Update)
	vendors.GET("/:id/jobs", m.handler.Jobs)
	vendors.POST("/:id/reviews", m.handler.CreateReview)
	vendors.GET("/:id/reviews", m.handler.ListReviews)
}
