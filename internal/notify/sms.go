package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fieldforge/backend/internal/models"
)

// SMSNotifier posts each message to an SMS gateway webhook. The gateway owns
// carrier delivery; we only hand it a phone number and a body.
type SMSNotifier struct {
	BaseURL      string
	TrackingBase string
	Client       *http.Client
}

type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (n SMSNotifier) TicketCreated(ctx context.Context, t models.Ticket) error {
	return n.send(ctx, t.CustomerPhone, createdMessage(t, n.TrackingBase))
}

func (n SMSNotifier) TicketAssigned(ctx context.Context, t models.Ticket, w models.Worker, eta *time.Time) error {
	return n.send(ctx, t.CustomerPhone, assignedMessage(t, w, eta))
}

func (n SMSNotifier) TicketStatusChanged(ctx context.Context, t models.Ticket) error {
	return n.send(ctx, t.CustomerPhone, statusMessage(t))
}

func (n SMSNotifier) SLAWarning(ctx context.Context, t models.Ticket, remaining time.Duration) error {
	return n.send(ctx, t.CustomerPhone, slaWarningMessage(t, remaining))
}

func (n SMSNotifier) send(ctx context.Context, to string, body string) error {
	if to == "" {
		return nil
	}
	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	b, _ := json.Marshal(smsPayload{To: to, Body: body})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+"/send", bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("sms gateway error: " + resp.Status)
	}
	return nil
}
