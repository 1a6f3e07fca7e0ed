// Package notify sends booking notification emails to tenants.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"terminbot/internal/schedule"
	"terminbot/internal/tenant"
	"terminbot/pkg/logging"
)

// EmailSender sends one email. Implementations can be swapped (SendGrid,
// SMTP) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds SendGrid credentials and sender identity.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a SendGrid email sender, or nil when no API key
// is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Terminbot"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid. Safe on a nil receiver, which happens
// when a nil *SendGridSender travels through the EmailSender interface.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid sender not configured")
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}
	s.logger.Info("notification email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// BookingNotifier emails the tenant about each confirmed booking. Best
// effort: failures are logged and never affect the booking itself.
type BookingNotifier struct {
	sender EmailSender
	logger *logging.Logger
}

// NewBookingNotifier creates a notifier, or nil when no sender is available
// so callers can skip wiring it.
func NewBookingNotifier(sender EmailSender, logger *logging.Logger) *BookingNotifier {
	if sender == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingNotifier{sender: sender, logger: logger}
}

// BookingConfirmed sends the notification email when the tenant has one
// configured.
func (n *BookingNotifier) BookingConfirmed(ctx context.Context, cfg *tenant.Config, name, service string, slot schedule.Slot) {
	if cfg.NotifyEmail == "" {
		return
	}
	msg := EmailMessage{
		To:      cfg.NotifyEmail,
		ToName:  cfg.Name,
		Subject: fmt.Sprintf("Novi termin: %s", service),
		Body: fmt.Sprintf("Ime: %s\nUsluga: %s\nVreme: %s - %s\nKalendar: %s\n",
			name, service,
			slot.Start.In(cfg.Location()).Format("02.01.2006. 15:04"),
			slot.End.In(cfg.Location()).Format("15:04"),
			slot.CalendarID),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("booking notification failed", "error", err, "tenant", cfg.PhoneNumberID)
	}
}
