package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"fixmarket_backend/internal/notification"
	"fixmarket_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues background tasks from the API process.
type Client struct {
	client *asynq.Client
	queue  string
}

// VendorAlertEnqueuer is the slice of the client the notification layer
// uses.
type VendorAlertEnqueuer interface {
	EnqueueVendorAlert(ctx context.Context, payload VendorAlertPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueUrgentAlert implements the notification queue over asynq.
func (c *Client) EnqueueUrgentAlert(ctx context.Context, vendorID uuid.UUID, alert notification.UrgentAlert) error {
	return c.EnqueueVendorAlert(ctx, VendorAlertPayload{
		TicketID:  alert.TicketID,
		VendorID:  vendorID,
		Category:  alert.Category,
		Summary:   alert.Summary,
		ExpiresAt: alert.ExpiresAt,
	})
}

// EnqueueVendorAlert queues one urgent alert for delivery by the worker.
func (c *Client) EnqueueVendorAlert(ctx context.Context, payload VendorAlertPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewVendorAlertTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
