package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/models"
	"github.com/fieldforge/backend/internal/stream"
)

// trackingView is the customer-safe slice of a ticket: progress and arrival
// information, no internal scoring or dispatch detail.
func trackingView(t models.Ticket, a *models.Assignment, workerName string) gin.H {
	view := gin.H{
		"tracking_token": t.TrackingToken,
		"title":          t.Title,
		"status":         t.Status,
		"severity":       t.Severity,
		"category":       t.Category,
		"created_at":     t.CreatedAt,
	}
	if t.SLADeadline != nil {
		view["sla_deadline"] = t.SLADeadline
	}
	if t.CompletedAt != nil {
		view["completed_at"] = t.CompletedAt
	}
	if workerName != "" {
		view["worker_name"] = workerName
	}
	if a != nil {
		view["assignment_status"] = a.Status
		if a.ETA != nil {
			view["eta"] = a.ETA
		}
		if a.TravelTimeMinutes != nil {
			view["travel_time_minutes"] = a.TravelTimeMinutes
		}
	}
	return view
}

// currentAssignment picks the newest assignment still in play.
func (h *Handler) currentAssignment(c *gin.Context, ticketID int64) (*models.Assignment, string) {
	assignments, err := h.Store.ListAssignments(c.Request.Context(), db.AssignmentFilter{TicketID: ticketID})
	if err != nil {
		return nil, ""
	}
	for i := range assignments {
		if assignments[i].Status == models.AssignmentStatusCancelled {
			continue
		}
		name := ""
		if w, err := h.Store.GetWorker(c.Request.Context(), assignments[i].WorkerID); err == nil {
			name = w.Name
		}
		return &assignments[i], name
	}
	return nil, ""
}

// @Summary Track a ticket
// @Description Public, token-addressed progress view for the customer
// @Tags tracking
// @Produce json
// @Param token path string true "tracking token"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/track/{token} [get]
func (h *Handler) TrackTicket(c *gin.Context) {
	ticket, err := h.Store.GetTicketByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeLookupError(c, err, "Ticket")
		return
	}
	assignment, workerName := h.currentAssignment(c, ticket.ID)
	c.JSON(http.StatusOK, trackingView(ticket, assignment, workerName))
}

// TrackStream pushes live updates for one ticket over SSE. Opens with a
// snapshot event so the page renders without a second fetch.
func (h *Handler) TrackStream(c *gin.Context) {
	token := c.Param("token")
	ticket, err := h.Store.GetTicketByToken(c.Request.Context(), token)
	if err != nil {
		writeLookupError(c, err, "Ticket")
		return
	}

	assignment, workerName := h.currentAssignment(c, ticket.ID)
	snapshot := trackingView(ticket, assignment, workerName)

	ch := h.Broker.Subscribe(stream.TicketTopic(token))
	defer h.Broker.Unsubscribe(stream.TicketTopic(token), ch)
	h.serveSSE(c, ch, "snapshot", snapshot)
}

// DashboardStream is the dispatch board's firehose: every ticket, worker,
// and assignment event as it happens.
func (h *Handler) DashboardStream(c *gin.Context) {
	ch := h.Broker.Subscribe(stream.TopicDispatch)
	defer h.Broker.Unsubscribe(stream.TopicDispatch, ch)
	h.serveSSE(c, ch, "snapshot", gin.H{"connected_at": time.Now().UTC()})
}

func (h *Handler) serveSSE(c *gin.Context, ch chan stream.Event, openEvent string, openData any) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	writeSSE(c, openEvent, openData)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()
	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(c, evt.Type, evt.Data)
		case <-heartbeat.C:
			writeSSE(c, "heartbeat", gin.H{"ts": time.Now().UTC().Format(time.RFC3339)})
		}
	}
}

func writeSSE(c *gin.Context, event string, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\n", event)
	fmt.Fprintf(c.Writer, "data: %s\n\n", b)
	c.Writer.Flush()
}
