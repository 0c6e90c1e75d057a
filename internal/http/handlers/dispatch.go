package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/backend/internal/dispatch"
	"github.com/fieldforge/backend/internal/models"
	"github.com/fieldforge/backend/internal/sla"
)

// @Summary Ranked candidate workers for a ticket
// @Description Scores every active worker on skills, proximity, availability, and performance
// @Tags dispatch
// @Produce json
// @Param id path int true "ticket id"
// @Param limit query int false "max candidates"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/tickets/{id}/candidates [get]
func (h *Handler) TicketCandidates(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	ticket, scores, err := h.Dispatch.Candidates(c.Request.Context(), id, limit)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	if scores == nil {
		scores = []dispatch.CandidateScore{}
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": ticket.ID, "items": scores})
}

type AssignRequest struct {
	WorkerID int64  `json:"worker_id"`
	Note     string `json:"note"`
}

// @Summary Assign a ticket
// @Description Auto-assigns the top-ranked worker, or the given worker as a manual override
// @Tags dispatch
// @Accept json
// @Produce json
// @Param id path int true "ticket id"
// @Param body body AssignRequest false "manual override"
// @Success 201 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/tickets/{id}/assign [post]
func (h *Handler) TicketAssign(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AssignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
	}

	assignment, score, err := h.Dispatch.Assign(c.Request.Context(), id, req.WorkerID, req.Note)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment, "score": score})
}

// FleetPlan splits the open geocoded backlog across positioned workers and
// sequences each share.
func (h *Handler) FleetPlan(c *gin.Context) {
	routes, err := h.Dispatch.FleetPlan(c.Request.Context())
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	stops := 0
	for _, r := range routes {
		stops += len(r.Stops)
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes, "route_count": len(routes), "stop_count": stops})
}

// Clusters groups the open backlog into k geographic zones.
func (h *Handler) Clusters(c *gin.Context) {
	k, _ := strconv.Atoi(c.DefaultQuery("k", "3"))
	clusters, err := h.Dispatch.ClusterOpenTickets(c.Request.Context(), k)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters, "k": len(clusters)})
}

// SLAPreview reports the response window for a severity and where the
// deadline would land for a ticket created now.
func (h *Handler) SLAPreview(c *gin.Context) {
	severity, ok := models.ParseSeverity(c.Param("severity"))
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_SEVERITY", "Unknown severity", c.Param("severity"))
		return
	}
	window, err := sla.Window(severity)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_SEVERITY", "Unknown severity", err.Error())
		return
	}
	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"severity":         severity,
		"response_minutes": window.Minutes(),
		"deadline":         now.Add(window),
	})
}
