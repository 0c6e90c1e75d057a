package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIDParamRejectsGarbage(t *testing.T) {
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for _, bad := range []string{"abc", "0", "-4", "1.5"} {
		req, _ := http.NewRequest(http.MethodGet, "/things/"+bad, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", bad, w.Code)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, "/things/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		writeError(c, http.StatusConflict, "ALREADY_ASSIGNED", "Ticket already has a worker", gin.H{"ticket_id": 7})
	})

	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "ALREADY_ASSIGNED" {
		t.Fatalf("expected code ALREADY_ASSIGNED, got %q", body.Error.Code)
	}
	if body.Error.Details["ticket_id"] != float64(7) {
		t.Fatalf("expected ticket_id detail, got %v", body.Error.Details)
	}
}

func TestTrackingViewHidesInternalFields(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eta := deadline.Add(-90 * time.Minute)
	minutes := 34.0
	ticket := models.Ticket{
		ID:            9,
		TrackingToken: "tok-abc",
		Title:         "Server room AC down",
		Status:        models.TicketStatusEnRoute,
		Severity:      models.SeverityP1,
		Category:      "hvac",
		CustomerEmail: "ops@example.com",
		SLADeadline:   &deadline,
	}
	assignment := models.Assignment{
		ID:                4,
		WorkerID:          2,
		Status:            models.AssignmentStatusEnRoute,
		ETA:               &eta,
		TravelTimeMinutes: &minutes,
		OverallScore:      ptrFloat(0.91),
	}

	view := trackingView(ticket, &assignment, "Dana Reyes")

	if view["worker_name"] != "Dana Reyes" {
		t.Fatalf("expected worker name, got %v", view["worker_name"])
	}
	if view["eta"] != &eta {
		t.Fatalf("expected eta pointer, got %v", view["eta"])
	}
	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, hidden := range []string{"overall_score", "customer_email", "assigned_worker_id", "id"} {
		if _, ok := flat[hidden]; ok {
			t.Fatalf("tracking view leaked %q", hidden)
		}
	}
}

func TestTrackingViewWithoutAssignment(t *testing.T) {
	ticket := models.Ticket{
		TrackingToken: "tok-new",
		Title:         "Leaky faucet",
		Status:        models.TicketStatusOpen,
		Severity:      models.SeverityP4,
	}
	view := trackingView(ticket, nil, "")
	if _, ok := view["worker_name"]; ok {
		t.Fatal("unassigned ticket should not expose a worker name")
	}
	if _, ok := view["assignment_status"]; ok {
		t.Fatal("unassigned ticket should not expose an assignment status")
	}
}

func TestCustomerVisibleStatus(t *testing.T) {
	visible := []string{
		models.AssignmentStatusEnRoute,
		models.AssignmentStatusInProgress,
		models.AssignmentStatusCompleted,
		models.AssignmentStatusCancelled,
	}
	for _, s := range visible {
		if !customerVisibleStatus[s] {
			t.Fatalf("expected %q to notify the customer", s)
		}
	}
	if customerVisibleStatus[models.AssignmentStatusPending] || customerVisibleStatus[models.AssignmentStatusAccepted] {
		t.Fatal("assignment bookkeeping states should not notify the customer")
	}
}

func ptrFloat(f float64) *float64 { return &f }
