// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"support-engine/internal/common/config"
	"support-engine/internal/common/errors"
	"support-engine/internal/common/logger"
)

// Escalation describes a request that ended in BUCKET_C and should be
// surfaced to the support team.
type Escalation struct {
	RequestID      string
	SessionID      string
	Intent         string
	Action         string
	Query          string
	SentimentLabel string
	SentimentScore float64
}

// Notifier fans an escalation out to the configured channels. Delivery
// is best effort; a failed channel is logged and does not fail the
// customer-facing request.
type Notifier struct {
	cfg    config.NotificationConfig
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

// NewNotifier wires a notifier. Senders for disabled channels may be nil.
func NewNotifier(cfg config.NotificationConfig, email EmailSender, sms SMSSender, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:   cfg,
		email: email,
		sms:   sms,
		logger: log.With(map[string]interface{}{
			"component": "notify",
		}),
	}
}

// NotifyEscalation sends the escalation to every enabled channel. All
// channels are attempted even when one fails; the last failure is
// returned for observability.
func (n *Notifier) NotifyEscalation(ctx context.Context, esc Escalation) error {
	var lastErr error

	if n.cfg.Email.Enabled && n.email != nil {
		subject := fmt.Sprintf("Escalated support request %s (%s)", esc.RequestID, esc.Action)
		if err := n.email.SendEmail(ctx, n.cfg.Email.FromEmail, n.cfg.Email.SupportEmail, subject, emailBody(esc)); err != nil {
			lastErr = errors.NewNotificationSendFailedError("email", err)
			n.logger.Error("escalation email failed", map[string]interface{}{
				"requestId": esc.RequestID,
				"error":     err.Error(),
			})
		}
	}

	if n.cfg.SMS.Enabled && n.sms != nil {
		if err := n.sms.SendSMS(ctx, n.cfg.SMS.SupportNumber, smsBody(esc)); err != nil {
			lastErr = errors.NewNotificationSendFailedError("sms", err)
			n.logger.Error("escalation sms failed", map[string]interface{}{
				"requestId": esc.RequestID,
				"error":     err.Error(),
			})
		}
	}

	return lastErr
}

func emailBody(esc Escalation) string {
	return fmt.Sprintf(
		"A customer request was escalated.\n\n"+
			"Request ID: %s\n"+
			"Session ID: %s\n"+
			"Intent: %s\n"+
			"Escalation reason: %s\n"+
			"Sentiment: %s (%.2f)\n\n"+
			"Customer message:\n%s\n",
		esc.RequestID, esc.SessionID, esc.Intent, esc.Action,
		esc.SentimentLabel, esc.SentimentScore, esc.Query,
	)
}

func smsBody(esc Escalation) string {
	query := esc.Query
	if len(query) > 80 {
		query = query[:77] + "..."
	}
	return fmt.Sprintf("Escalated request %s (%s, intent %s): %s",
		esc.RequestID, esc.Action, esc.Intent, query)
}
