package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/sla"
)

// @Summary Dispatch board statistics
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/dashboard/stats [get]
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.Store.DashboardStats(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load stats", err.Error())
		return
	}
	recent, err := h.Store.ListTickets(c.Request.Context(), db.TicketFilter{Limit: 10})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load recent tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "recent_tickets": recent})
}

// DashboardMap returns the live-map layers: positioned active workers and
// unfinished geocoded tickets.
func (h *Handler) DashboardMap(c *gin.Context) {
	workers, err := h.Store.WorkersWithLocation(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load workers", err.Error())
		return
	}
	tickets, err := h.Store.TicketsWithLocation(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}

	workerPins := make([]gin.H, 0, len(workers))
	for _, w := range workers {
		workerPins = append(workerPins, gin.H{
			"id":     w.ID,
			"name":   w.Name,
			"lat":    *w.CurrentLat,
			"lng":    *w.CurrentLng,
			"status": w.AvailabilityStatus,
			"skills": w.Skills,
		})
	}
	ticketPins := make([]gin.H, 0, len(tickets))
	for _, t := range tickets {
		ticketPins = append(ticketPins, gin.H{
			"id":       t.ID,
			"title":    t.Title,
			"lat":      *t.Lat,
			"lng":      *t.Lng,
			"severity": t.Severity,
			"status":   t.Status,
			"category": t.Category,
		})
	}
	c.JSON(http.StatusOK, gin.H{"workers": workerPins, "tickets": ticketPins})
}

// SLAAlerts lists unfinished tickets whose response deadline is close or
// already gone, most urgent first.
func (h *Handler) SLAAlerts(c *gin.Context) {
	withinMinutes, err := strconv.Atoi(c.DefaultQuery("within_minutes", "120"))
	if err != nil || withinMinutes < 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "within_minutes must be a non-negative integer", c.Query("within_minutes"))
		return
	}

	now := time.Now().UTC()
	cutoff := now.Add(time.Duration(withinMinutes) * time.Minute)
	tickets, err := h.Store.SLAAlerts(c.Request.Context(), cutoff)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load alerts", err.Error())
		return
	}

	alerts := make([]gin.H, 0, len(tickets))
	for _, t := range tickets {
		alerts = append(alerts, gin.H{
			"ticket":            t,
			"remaining_minutes": sla.Remaining(*t.SLADeadline, now),
			"breached":          sla.Breached(*t.SLADeadline, now),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": alerts, "within_minutes": withinMinutes})
}
