package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/models"
	"github.com/fieldforge/backend/internal/stream"
)

func (h *Handler) AssignmentsList(c *gin.Context) {
	workerID, _ := strconv.ParseInt(c.Query("worker_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.Store.ListAssignments(c.Request.Context(), db.AssignmentFilter{
		Status:   c.Query("status"),
		WorkerID: workerID,
		Limit:    limit,
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list assignments", err.Error())
		return
	}
	if items == nil {
		items = []models.Assignment{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) AssignmentDetails(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	assignment, err := h.Store.GetAssignment(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err, "Assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

type AssignmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// customerVisibleStatus lists the transitions worth a customer notification.
var customerVisibleStatus = map[string]bool{
	models.AssignmentStatusEnRoute:    true,
	models.AssignmentStatusInProgress: true,
	models.AssignmentStatusCompleted:  true,
	models.AssignmentStatusCancelled:  true,
}

// AssignmentStatus walks an assignment through its lifecycle and keeps the
// ticket and worker in step: en_route and in_progress mirror onto the
// ticket and mark the worker busy, completed closes the ticket and frees
// the worker, cancelled reopens the ticket for re-dispatch.
func (h *Handler) AssignmentStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if !models.ValidAssignmentStatus(req.Status) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown assignment status", req.Status)
		return
	}

	assignment, err := h.Store.GetAssignment(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err, "Assignment")
		return
	}
	if assignment.Status == models.AssignmentStatusCompleted || assignment.Status == models.AssignmentStatusCancelled {
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", "Assignment already finished", assignment.Status)
		return
	}

	err = h.Store.WithTx(c.Request.Context(), func(tx pgx.Tx) error {
		var txErr error
		assignment, txErr = h.Store.SetAssignmentStatus(c.Request.Context(), tx, id, req.Status)
		if txErr != nil {
			return txErr
		}
		switch req.Status {
		case models.AssignmentStatusEnRoute:
			if txErr = h.Store.SetTicketStatus(c.Request.Context(), tx, assignment.TicketID, models.TicketStatusEnRoute); txErr != nil {
				return txErr
			}
			return h.Store.MarkWorkerBusy(c.Request.Context(), tx, assignment.WorkerID)
		case models.AssignmentStatusInProgress:
			if txErr = h.Store.SetTicketStatus(c.Request.Context(), tx, assignment.TicketID, models.TicketStatusInProgress); txErr != nil {
				return txErr
			}
			return h.Store.MarkWorkerBusy(c.Request.Context(), tx, assignment.WorkerID)
		case models.AssignmentStatusCompleted:
			if txErr = h.Store.SetTicketStatus(c.Request.Context(), tx, assignment.TicketID, models.TicketStatusCompleted); txErr != nil {
				return txErr
			}
			return h.Store.ReleaseWorker(c.Request.Context(), tx, assignment.WorkerID, true)
		case models.AssignmentStatusCancelled:
			if txErr = h.Store.ClearTicketWorker(c.Request.Context(), tx, assignment.TicketID); txErr != nil {
				return txErr
			}
			return h.Store.ReleaseWorker(c.Request.Context(), tx, assignment.WorkerID, false)
		}
		return nil
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update assignment", err.Error())
		return
	}

	ticket, err := h.Store.GetTicket(c.Request.Context(), assignment.TicketID)
	if err == nil {
		evt := stream.Event{Type: stream.EventAssignmentStatus, Data: gin.H{
			"assignment_id": assignment.ID,
			"ticket_id":     assignment.TicketID,
			"worker_id":     assignment.WorkerID,
			"status":        assignment.Status,
			"ticket_status": ticket.Status,
		}}
		h.Broker.Publish(stream.TopicDispatch, evt)
		h.Broker.Publish(stream.TicketTopic(ticket.TrackingToken), evt)

		if h.Notifier != nil && customerVisibleStatus[req.Status] {
			if err := h.Notifier.TicketStatusChanged(c.Request.Context(), ticket); err != nil {
				h.Logger.Warn().Err(err).Int64("ticket_id", ticket.ID).Msg("status notification failed")
			}
		}
	}
	c.JSON(http.StatusOK, assignment)
}
