package notification

import (
	"context"
	"fmt"

	"fixmarket_backend/internal/events"
	vendorrepo "fixmarket_backend/internal/vendors/repository"
	"fixmarket_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// broadcastFanOutLimit caps concurrent SMTP connections during a broadcast.
const broadcastFanOutLimit = 5

// VendorReader resolves vendor contact details.
type VendorReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*vendorrepo.Vendor, error)
}

// AlertQueue hands urgent alerts to the background worker for retryable
// delivery.
type AlertQueue interface {
	EnqueueUrgentAlert(ctx context.Context, vendorID uuid.UUID, alert UrgentAlert) error
}

// Subscriber reacts to domain events with outbound email. A nil sender
// disables direct delivery; a nil queue falls back to sending urgent alerts
// inline.
type Subscriber struct {
	sender  Sender
	vendors VendorReader
	queue   AlertQueue
	log     *logger.Logger
}

// NewSubscriber creates the notification event subscriber.
func NewSubscriber(sender Sender, vendors VendorReader, queue AlertQueue, log *logger.Logger) *Subscriber {
	return &Subscriber{sender: sender, vendors: vendors, queue: queue, log: log}
}

// RegisterHandlers attaches the subscriber to the event bus.
func (s *Subscriber) RegisterHandlers(bus events.Bus) {
	if s.sender == nil && s.queue == nil {
		s.log.Info("email notifications disabled, no SMTP configured")
		return
	}

	bus.Subscribe(events.TicketDispatched{}.EventName(), events.HandlerFunc(s.onTicketDispatched))
	bus.Subscribe(events.UrgentTicketDispatched{}.EventName(), events.HandlerFunc(s.onUrgentDispatched))
	bus.Subscribe(events.QuoteSubmitted{}.EventName(), events.HandlerFunc(s.onQuoteSubmitted))
	bus.Subscribe(events.QuoteAccepted{}.EventName(), events.HandlerFunc(s.onQuoteAccepted))
}

// onTicketDispatched fans job alerts out to every matched vendor. Each
// failed delivery is logged and the rest continue.
func (s *Subscriber) onTicketDispatched(ctx context.Context, event events.Event) error {
	e, ok := event.(events.TicketDispatched)
	if !ok || s.sender == nil {
		return nil
	}

	alert := UrgentAlert{
		TicketID:  e.TicketID,
		Category:  e.Category,
		Summary:   e.Summary,
		ExpiresAt: e.ExpiresAt,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastFanOutLimit)
	for _, vendorID := range e.VendorIDs {
		g.Go(func() error {
			vendor, err := s.vendors.GetByID(gctx, vendorID)
			if err != nil {
				s.log.NotificationError("email", vendorID.String(), err)
				return nil
			}
			if err := s.sender.SendJobAlert(gctx, vendor.Email, vendor.Name, alert); err != nil {
				s.log.NotificationError("email", vendor.Email, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// onUrgentDispatched queues the single-vendor alert for retryable delivery,
// or sends inline when no queue is wired.
func (s *Subscriber) onUrgentDispatched(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UrgentTicketDispatched)
	if !ok {
		return nil
	}

	alert := UrgentAlert{
		TicketID:  e.TicketID,
		Category:  e.Category,
		Summary:   e.Summary,
		ExpiresAt: e.ExpiresAt,
	}

	if s.queue != nil {
		if err := s.queue.EnqueueUrgentAlert(ctx, e.VendorID, alert); err != nil {
			s.log.NotificationError("queue", e.VendorID.String(), err)
		}
		return nil
	}

	vendor, err := s.vendors.GetByID(ctx, e.VendorID)
	if err != nil {
		s.log.NotificationError("email", e.VendorID.String(), err)
		return nil
	}
	if err := s.sender.SendUrgentAlert(ctx, vendor.Email, vendor.Name, alert); err != nil {
		s.log.NotificationError("email", vendor.Email, err)
	}
	return nil
}

// onQuoteSubmitted sends the vendor a submission receipt.
func (s *Subscriber) onQuoteSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.QuoteSubmitted)
	if !ok || s.sender == nil {
		return nil
	}

	vendor, err := s.vendors.GetByID(ctx, e.VendorID)
	if err != nil {
		s.log.NotificationError("email", e.VendorID.String(), err)
		return nil
	}

	body := fmt.Sprintf("Hi %s,\n\nYour quote of $%.2f was recorded against ticket %s.\n",
		vendor.Name, float64(e.PriceCents)/100, e.TicketID)
	if err := s.sender.SendQuoteUpdate(ctx, vendor.Email, "Quote received", body); err != nil {
		s.log.NotificationError("email", vendor.Email, err)
	}
	return nil
}

// onQuoteAccepted notifies the winning vendor.
func (s *Subscriber) onQuoteAccepted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.QuoteAccepted)
	if !ok || s.sender == nil {
		return nil
	}

	vendor, err := s.vendors.GetByID(ctx, e.VendorID)
	if err != nil {
		s.log.NotificationError("email", e.VendorID.String(), err)
		return nil
	}

	body := fmt.Sprintf("Hi %s,\n\nYour quote %s on ticket %s was accepted by the customer.\n",
		vendor.Name, e.QuoteID, e.TicketID)
	if err := s.sender.SendQuoteUpdate(ctx, vendor.Email, "Quote accepted", body); err != nil {
		s.log.NotificationError("email", vendor.Email, err)
	}
	return nil
}
