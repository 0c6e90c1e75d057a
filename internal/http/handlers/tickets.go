package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/models"
	"github.com/fieldforge/backend/internal/sla"
	"github.com/fieldforge/backend/internal/stream"
)

type CreateTicketRequest struct {
	Title          string   `json:"title" validate:"required,min=3"`
	Description    string   `json:"description"`
	Severity       string   `json:"severity"`
	Address        string   `json:"address"`
	Lat            *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng            *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	SkillsRequired []string `json:"skills_required"`
	CustomerName   string   `json:"customer_name"`
	CustomerPhone  string   `json:"customer_phone"`
	CustomerEmail  string   `json:"customer_email" validate:"omitempty,email"`
	CustomerTier   string   `json:"customer_tier" validate:"omitempty,oneof=standard premium enterprise"`
}

// @Summary Create a service ticket
// @Description Customer intake: persists the ticket, classifies it, stamps the SLA deadline, and geocodes the address
// @Tags tickets
// @Accept json
// @Produce json
// @Param ticket body CreateTicketRequest true "ticket"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/tickets [post]
func (h *Handler) TicketCreate(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	var severity models.Severity
	if req.Severity != "" {
		parsed, ok := models.ParseSeverity(req.Severity)
		if !ok {
			writeError(c, http.StatusBadRequest, "INVALID_SEVERITY", "Unknown severity", req.Severity)
			return
		}
		severity = parsed
	}

	ticket := models.Ticket{
		TrackingToken:  uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		Severity:       severity,
		Status:         models.TicketStatusNew,
		Address:        req.Address,
		Lat:            req.Lat,
		Lng:            req.Lng,
		SkillsRequired: req.SkillsRequired,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		CustomerTier:   req.CustomerTier,
	}

	created, err := h.Store.CreateTicket(c.Request.Context(), ticket)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create ticket", err.Error())
		return
	}

	// Triage failure leaves the ticket in status new; /api/process drains
	// those later. The customer still gets their tracking link.
	triaged, err := h.Intake.IntakeTicket(c.Request.Context(), created)
	if err != nil {
		h.Logger.Error().Err(err).Int64("ticket_id", created.ID).Msg("intake triage failed")
		triaged = created
	}

	c.JSON(http.StatusCreated, gin.H{
		"ticket":       triaged,
		"tracking_url": h.TrackingBase + "/" + triaged.TrackingToken,
	})
}

// @Summary List tickets
// @Tags tickets
// @Produce json
// @Param status query string false "ticket status"
// @Param severity query string false "P1..P4"
// @Param q query string false "search in title, description, customer"
// @Success 200 {object} map[string]any
// @Router /api/tickets [get]
func (h *Handler) TicketsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := db.TicketFilter{
		Status: c.Query("status"),
		Search: c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("severity"); raw != "" {
		severity, ok := models.ParseSeverity(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, "INVALID_SEVERITY", "Unknown severity", raw)
			return
		}
		filter.Severity = string(severity)
	}

	items, err := h.Store.ListTickets(c.Request.Context(), filter)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	if items == nil {
		items = []models.Ticket{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

func (h *Handler) TicketDetails(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ticket, err := h.Store.GetTicket(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err, "Ticket")
		return
	}
	assignments, err := h.Store.ListAssignments(c.Request.Context(), db.AssignmentFilter{TicketID: id})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load assignments", err.Error())
		return
	}
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket, "assignments": assignments})
}

type UpdateTicketRequest struct {
	Title               *string   `json:"title"`
	Description         *string   `json:"description"`
	Severity            *string   `json:"severity"`
	Category            *string   `json:"category"`
	EquipmentType       *string   `json:"equipment_type"`
	Address             *string   `json:"address"`
	Lat                 *float64  `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng                 *float64  `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	SkillsRequired      *[]string `json:"skills_required"`
	TimeEstimateMinutes *int      `json:"time_estimate_minutes"`
	CustomerName        *string   `json:"customer_name"`
	CustomerPhone       *string   `json:"customer_phone"`
	CustomerEmail       *string   `json:"customer_email"`
	CustomerTier        *string   `json:"customer_tier" validate:"omitempty,oneof=standard premium enterprise"`
}

// TicketUpdate edits ticket fields. A severity change recomputes the SLA
// deadline from the original creation time. Status moves through the action
// endpoints, never through here.
func (h *Handler) TicketUpdate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	upd := db.TicketUpdate{
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		EquipmentType:       req.EquipmentType,
		Address:             req.Address,
		Lat:                 req.Lat,
		Lng:                 req.Lng,
		SkillsRequired:      req.SkillsRequired,
		TimeEstimateMinutes: req.TimeEstimateMinutes,
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerEmail:       req.CustomerEmail,
		CustomerTier:        req.CustomerTier,
	}

	if req.Severity != nil {
		severity, ok := models.ParseSeverity(*req.Severity)
		if !ok {
			writeError(c, http.StatusBadRequest, "INVALID_SEVERITY", "Unknown severity", *req.Severity)
			return
		}
		current, err := h.Store.GetTicket(c.Request.Context(), id)
		if err != nil {
			writeLookupError(c, err, "Ticket")
			return
		}
		deadline, err := sla.Deadline(current.CreatedAt, severity)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_SEVERITY", "Unknown severity", err.Error())
			return
		}
		s := string(severity)
		upd.Severity = &s
		upd.SLADeadline = &deadline
	}

	ticket, err := h.Store.UpdateTicket(c.Request.Context(), id, upd)
	if err != nil {
		writeLookupError(c, err, "Ticket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// TicketCancel closes a ticket and voids its open assignments. The assigned
// worker, if any, goes back to available.
func (h *Handler) TicketCancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ticket, err := h.Store.GetTicket(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err, "Ticket")
		return
	}
	if models.TicketStatusTerminal(ticket.Status) {
		writeError(c, http.StatusConflict, "TICKET_CLOSED", "Ticket is completed or cancelled", nil)
		return
	}

	err = h.Store.WithTx(c.Request.Context(), func(tx pgx.Tx) error {
		if err := h.Store.CancelAssignmentsForTicket(c.Request.Context(), tx, id); err != nil {
			return err
		}
		if err := h.Store.SetTicketStatus(c.Request.Context(), tx, id, models.TicketStatusCancelled); err != nil {
			return err
		}
		if ticket.AssignedWorkerID != nil {
			return h.Store.ReleaseWorker(c.Request.Context(), tx, *ticket.AssignedWorkerID, false)
		}
		return nil
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to cancel ticket", err.Error())
		return
	}

	ticket.Status = models.TicketStatusCancelled
	evt := stream.Event{Type: stream.EventTicketStatus, Data: gin.H{"ticket_id": ticket.ID, "status": ticket.Status}}
	h.Broker.Publish(stream.TopicDispatch, evt)
	h.Broker.Publish(stream.TicketTopic(ticket.TrackingToken), evt)
	if h.Notifier != nil {
		if err := h.Notifier.TicketStatusChanged(c.Request.Context(), ticket); err != nil {
			h.Logger.Warn().Err(err).Int64("ticket_id", ticket.ID).Msg("cancel notification failed")
		}
	}
	c.JSON(http.StatusOK, ticket)
}

// TicketAnalyze re-runs classification on one ticket.
func (h *Handler) TicketAnalyze(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ticket, err := h.Intake.Retriage(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err, "Ticket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// @Summary Triage pending tickets
// @Description Re-runs classification, SLA stamping, and geocoding over tickets still in status new
// @Tags tickets
// @Produce json
// @Success 200 {object} service.TriageSummary
// @Router /api/process [post]
func (h *Handler) Process(c *gin.Context) {
	summary, err := h.Intake.ProcessPending(c.Request.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("processing failed")
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Processing failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}
