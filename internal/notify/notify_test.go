package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fieldforge/backend/internal/models"
)

func testTicket() models.Ticket {
	return models.Ticket{
		ID:            42,
		TrackingToken: "tok-42",
		Title:         "Furnace not heating",
		Severity:      models.SeverityP2,
		Status:        models.TicketStatusEnRoute,
		CustomerPhone: "+15550100",
	}
}

func TestCreatedMessageIncludesTrackingLink(t *testing.T) {
	msg := createdMessage(testTicket(), "https://example.com/track")
	if !strings.Contains(msg, "https://example.com/track/tok-42") {
		t.Fatalf("message missing tracking link: %s", msg)
	}
	if !strings.Contains(msg, "P2") {
		t.Fatalf("message missing severity: %s", msg)
	}
}

func TestCreatedMessageWithoutBase(t *testing.T) {
	msg := createdMessage(testTicket(), "")
	if strings.Contains(msg, "Track progress") {
		t.Fatalf("unexpected tracking link: %s", msg)
	}
}

func TestAssignedMessageETA(t *testing.T) {
	eta := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	msg := assignedMessage(testTicket(), models.Worker{Name: "Dana Fixit"}, &eta)
	if !strings.Contains(msg, "Dana Fixit") || !strings.Contains(msg, "14:30") {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestSLAWarningBreached(t *testing.T) {
	msg := slaWarningMessage(testTicket(), -5*time.Minute)
	if !strings.Contains(msg, "breached") {
		t.Fatalf("expected breach wording: %s", msg)
	}
}

func TestSMSNotifierPostsToGateway(t *testing.T) {
	var got smsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := SMSNotifier{BaseURL: srv.URL, TrackingBase: "https://example.com/track"}
	if err := n.TicketCreated(context.Background(), testTicket()); err != nil {
		t.Fatalf("ticket created: %v", err)
	}
	if got.To != "+15550100" {
		t.Fatalf("sent to %q, want customer phone", got.To)
	}
	if !strings.Contains(got.Body, "tok-42") {
		t.Fatalf("body missing tracking token: %s", got.Body)
	}
}

func TestSMSNotifierSkipsWithoutPhone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called without a phone number")
	}))
	defer srv.Close()

	ticket := testTicket()
	ticket.CustomerPhone = ""
	n := SMSNotifier{BaseURL: srv.URL}
	if err := n.TicketStatusChanged(context.Background(), ticket); err != nil {
		t.Fatalf("status changed: %v", err)
	}
}

func TestSMSNotifierGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := SMSNotifier{BaseURL: srv.URL}
	if err := n.TicketAssigned(context.Background(), testTicket(), models.Worker{Name: "Dana"}, nil); err == nil {
		t.Fatal("expected error from failing gateway")
	}
}
