package scheduler

import (
	"context"
	"fmt"
	"time"

	"fixmarket_backend/internal/events"
	"fixmarket_backend/internal/notification"
	ticketrepo "fixmarket_backend/internal/tickets/repository"
	vendorrepo "fixmarket_backend/internal/vendors/repository"
	"fixmarket_backend/platform/config"
	"fixmarket_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker executes background tasks: the periodic expiry sweep and queued
// vendor alerts.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	tickets *ticketrepo.Repository
	vendors *vendorrepo.Repository
	sender  notification.Sender
	bus     events.Bus
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender notification.Sender, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		tickets: ticketrepo.New(pool),
		vendors: vendorrepo.New(pool),
		sender:  sender,
		bus:     bus,
		log:     log,
	}

	mux.HandleFunc(TaskTicketExpirySweep, w.handleExpirySweep)
	mux.HandleFunc(TaskVendorAlert, w.handleVendorAlert)

	return w, nil
}

// handleExpirySweep retires every ticket whose response window has closed
// and publishes an event per row.
func (w *Worker) handleExpirySweep(ctx context.Context, task *asynq.Task) error {
	expired, err := w.tickets.ExpireDue(ctx, time.Now())
	if err != nil {
		w.log.DatabaseError("tickets.expire_due", err)
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	for _, e := range expired {
		w.bus.Publish(ctx, events.TicketExpired{
			BaseEvent: events.NewBaseEvent(),
			TicketID:  e.ID,
			Category:  e.Category,
			ExpiresAt: e.ExpiresAt,
		})
	}
	w.log.Info("expiry sweep completed", "expired", len(expired))
	return nil
}

// handleVendorAlert delivers one queued urgent alert.
func (w *Worker) handleVendorAlert(ctx context.Context, task *asynq.Task) error {
	if w.sender == nil {
		return nil
	}

	payload, err := ParseVendorAlertPayload(task)
	if err != nil {
		return err
	}

	vendor, err := w.vendors.GetByID(ctx, payload.VendorID)
	if err != nil {
		w.log.DatabaseError("vendors.get_by_id", err)
		return err
	}

	return w.sender.SendUrgentAlert(ctx, vendor.Email, vendor.Name, notification.UrgentAlert{
		TicketID:  payload.TicketID,
		Category:  payload.Category,
		Summary:   payload.Summary,
		ExpiresAt: payload.ExpiresAt,
	})
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// NewPeriodic builds the asynq scheduler that enqueues the expiry sweep on
// the configured interval.
func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*asynq.Scheduler, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	periodic := asynq.NewScheduler(opt, nil)
	spec := cfg.GetExpirySweepSpec()
	if spec == "" {
		spec = "@every 1m"
	}
	if _, err := periodic.Register(spec, NewExpirySweepTask(), asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("failed to register expiry sweep: %w", err)
	}
	log.Info("registered expiry sweep", "spec", spec)
	return periodic, nil
}
