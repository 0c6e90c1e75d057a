// Package notify pushes customer-facing updates about a ticket. Delivery is
// best effort; a failed notification never fails the request that caused it.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforge/backend/internal/models"
)

type Notifier interface {
	TicketCreated(ctx context.Context, t models.Ticket) error
	TicketAssigned(ctx context.Context, t models.Ticket, w models.Worker, eta *time.Time) error
	TicketStatusChanged(ctx context.Context, t models.Ticket) error
	SLAWarning(ctx context.Context, t models.Ticket, remaining time.Duration) error
}

// LogNotifier writes each notification to the log instead of sending it.
// The default when no SMS gateway is configured.
type LogNotifier struct {
	Logger       zerolog.Logger
	TrackingBase string
}

func (n LogNotifier) TicketCreated(ctx context.Context, t models.Ticket) error {
	n.log(t, createdMessage(t, n.TrackingBase))
	return nil
}

func (n LogNotifier) TicketAssigned(ctx context.Context, t models.Ticket, w models.Worker, eta *time.Time) error {
	n.log(t, assignedMessage(t, w, eta))
	return nil
}

func (n LogNotifier) TicketStatusChanged(ctx context.Context, t models.Ticket) error {
	n.log(t, statusMessage(t))
	return nil
}

func (n LogNotifier) SLAWarning(ctx context.Context, t models.Ticket, remaining time.Duration) error {
	n.log(t, slaWarningMessage(t, remaining))
	return nil
}

func (n LogNotifier) log(t models.Ticket, message string) {
	n.Logger.Info().
		Int64("ticket_id", t.ID).
		Str("phone", t.CustomerPhone).
		Str("message", message).
		Msg("notification")
}

func createdMessage(t models.Ticket, trackingBase string) string {
	msg := fmt.Sprintf("FieldForge: we received your request %q (severity %s).", t.Title, t.Severity)
	if trackingBase != "" && t.TrackingToken != "" {
		msg += fmt.Sprintf(" Track progress: %s/%s", trackingBase, t.TrackingToken)
	}
	return msg
}

func assignedMessage(t models.Ticket, w models.Worker, eta *time.Time) string {
	msg := fmt.Sprintf("FieldForge: %s has been assigned to your request %q.", w.Name, t.Title)
	if eta != nil {
		msg += fmt.Sprintf(" Estimated arrival: %s.", eta.Format("15:04 MST"))
	}
	return msg
}

func statusMessage(t models.Ticket) string {
	switch t.Status {
	case models.TicketStatusEnRoute:
		return fmt.Sprintf("FieldForge: your technician is on the way for %q.", t.Title)
	case models.TicketStatusInProgress:
		return fmt.Sprintf("FieldForge: work on %q is underway.", t.Title)
	case models.TicketStatusCompleted:
		return fmt.Sprintf("FieldForge: your request %q is complete. Thank you!", t.Title)
	case models.TicketStatusCancelled:
		return fmt.Sprintf("FieldForge: your request %q was cancelled.", t.Title)
	default:
		return fmt.Sprintf("FieldForge: your request %q is now %s.", t.Title, t.Status)
	}
}

func slaWarningMessage(t models.Ticket, remaining time.Duration) string {
	if remaining <= 0 {
		return fmt.Sprintf("FieldForge alert: ticket #%d %q has breached its response deadline.", t.ID, t.Title)
	}
	return fmt.Sprintf("FieldForge alert: ticket #%d %q breaches its deadline in %d minutes.",
		t.ID, t.Title, int(remaining.Minutes()))
}
