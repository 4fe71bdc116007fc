// Package notification delivers vendor alerts and customer updates over
// email in response to domain events. Delivery is fire and forget: failures
// are logged and never propagate into the operation that triggered them.
package notification

import (
	"context"
	"fmt"
	"net"
	"time"

	"fixmarket_backend/platform/config"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// UrgentAlert carries the details of an urgent dispatch for delivery.
type UrgentAlert struct {
	TicketID  uuid.UUID
	Category  string
	Summary   string
	ExpiresAt time.Time
}

// Sender delivers notification emails.
type Sender interface {
	SendJobAlert(ctx context.Context, toEmail, vendorName string, alert UrgentAlert) error
	SendUrgentAlert(ctx context.Context, toEmail, vendorName string, alert UrgentAlert) error
	SendQuoteUpdate(ctx context.Context, toEmail, subject, body string) error
}

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSender builds the SMTP sender from configuration. Returns nil when
// email delivery is disabled or no SMTP host is configured.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return nil
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendJobAlert notifies a vendor about a broadcast ticket open for quotes.
func (s *SMTPSender) SendJobAlert(ctx context.Context, toEmail, vendorName string, alert UrgentAlert) error {
	subject := fmt.Sprintf("New %s job available: %s", alert.Category, alert.Summary)
	body := fmt.Sprintf(
		"Hi %s,\n\nA new %s request is open for quotes.\n\n%s\n\nQuotes close at %s.\nTicket: %s\n",
		vendorName, alert.Category, alert.Summary,
		alert.ExpiresAt.Format(time.RFC1123), alert.TicketID,
	)
	return s.send(ctx, toEmail, subject, body)
}

// SendUrgentAlert notifies the single vendor bound by an urgent dispatch.
func (s *SMTPSender) SendUrgentAlert(ctx context.Context, toEmail, vendorName string, alert UrgentAlert) error {
	subject := fmt.Sprintf("URGENT %s dispatch: %s", alert.Category, alert.Summary)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have been assigned an urgent %s request.\n\n%s\n\nRespond before %s.\nTicket: %s\n",
		vendorName, alert.Category, alert.Summary,
		alert.ExpiresAt.Format(time.RFC1123), alert.TicketID,
	)
	return s.send(ctx, toEmail, subject, body)
}

// SendQuoteUpdate sends a quote lifecycle notification.
func (s *SMTPSender) SendQuoteUpdate(ctx context.Context, toEmail, subject, body string) error {
	return s.send(ctx, toEmail, subject, body)
}
