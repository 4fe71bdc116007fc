// Package scheduler defines the background task types shared between the
// API process (which enqueues) and the worker process (which executes).
package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// TaskTicketExpirySweep transitions past-deadline tickets to expired.
	// Scheduled periodically, carries no payload.
	TaskTicketExpirySweep = "tickets.expiry_sweep"

	// TaskVendorAlert delivers an urgent dispatch alert to one vendor.
	TaskVendorAlert = "dispatch.vendor_alert"
)

// VendorAlertPayload is the body of a vendor alert task.
type VendorAlertPayload struct {
	TicketID  uuid.UUID `json:"ticketId"`
	VendorID  uuid.UUID `json:"vendorId"`
	Category  string    `json:"category"`
	Summary   string    `json:"summary"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewExpirySweepTask creates the periodic sweep task.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskTicketExpirySweep, nil)
}

// NewVendorAlertTask creates a vendor alert task. Delivery is retried at
// most once; an alert that fails twice is reported, not repeated.
func NewVendorAlertTask(p VendorAlertPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vendor alert payload: %w", err)
	}
	return asynq.NewTask(TaskVendorAlert, payload, asynq.MaxRetry(1)), nil
}

// ParseVendorAlertPayload decodes a vendor alert task body.
func ParseVendorAlertPayload(t *asynq.Task) (VendorAlertPayload, error) {
	var p VendorAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal vendor alert payload: %w", err)
	}
	return p, nil
}
