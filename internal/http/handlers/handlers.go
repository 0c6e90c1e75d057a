package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/dispatch"
	"github.com/fieldforge/backend/internal/notify"
	"github.com/fieldforge/backend/internal/service"
	"github.com/fieldforge/backend/internal/sla"
	"github.com/fieldforge/backend/internal/stream"
)

type Handler struct {
	Store        *db.Store
	Intake       *service.IntakeService
	Dispatch     *service.DispatchService
	Broker       stream.Broker
	Notifier     notify.Notifier
	Validator    *validator.Validate
	Logger       zerolog.Logger
	AdminKey     string
	TrackingBase string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// idParam parses the :id path segment; a non-numeric id writes the 400 and
// reports false.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid id", c.Param("id"))
		return 0, false
	}
	return id, true
}

// writeLookupError translates store failures on single-row lookups: missing
// rows become 404, everything else is a database fault.
func writeLookupError(c *gin.Context, err error, entity string) {
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", entity+" not found", nil)
		return
	}
	writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load "+entity, err.Error())
}

// writeDispatchError maps the dispatch service's sentinel errors onto the
// API's error envelope.
func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket or worker not found", nil)
	case errors.Is(err, service.ErrNoCandidates):
		writeError(c, http.StatusConflict, "NO_ELIGIBLE_WORKERS", "No eligible workers for this ticket", nil)
	case errors.Is(err, service.ErrAlreadyAssigned):
		writeError(c, http.StatusConflict, "ALREADY_ASSIGNED", "Ticket already has a worker", nil)
	case errors.Is(err, service.ErrTicketClosed):
		writeError(c, http.StatusConflict, "TICKET_CLOSED", "Ticket is completed or cancelled", nil)
	case errors.Is(err, service.ErrNoLocation):
		writeError(c, http.StatusConflict, "NO_LOCATION", "Worker has not reported a location", nil)
	case errors.Is(err, dispatch.ErrInvalidInput):
		writeError(c, http.StatusUnprocessableEntity, "INVALID_INPUT", "Scoring input rejected", err.Error())
	case errors.Is(err, sla.ErrInvalidSeverity):
		writeError(c, http.StatusBadRequest, "INVALID_SEVERITY", "Unknown severity", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Dispatch operation failed", err.Error())
	}
}
