package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/models"
	"github.com/fieldforge/backend/internal/stream"
)

type CreateWorkerRequest struct {
	Name             string   `json:"name" validate:"required,min=2"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Phone            string   `json:"phone"`
	Skills           []string `json:"skills"`
	SkillLevel       string   `json:"skill_level"`
	Certifications   []string `json:"certifications"`
	Lat              *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng              *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	MaxTicketsPerDay int      `json:"max_tickets_per_day" validate:"gte=0"`
	ServiceAreas     []string `json:"service_areas"`
}

// @Summary Register a field worker
// @Tags workers
// @Accept json
// @Produce json
// @Param worker body CreateWorkerRequest true "worker"
// @Success 201 {object} models.Worker
// @Failure 400 {object} map[string]any
// @Router /api/workers [post]
func (h *Handler) WorkerCreate(c *gin.Context) {
	var req CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	level := req.SkillLevel
	if level == "" {
		level = models.SkillLevelJunior
	}
	if models.SkillLevelRank(level) < 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown skill level", req.SkillLevel)
		return
	}

	worker, err := h.Store.CreateWorker(c.Request.Context(), models.Worker{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Skills:             req.Skills,
		SkillLevel:         level,
		Certifications:     req.Certifications,
		CurrentLat:         req.Lat,
		CurrentLng:         req.Lng,
		AvailabilityStatus: models.AvailabilityOffline,
		MaxTicketsPerDay:   req.MaxTicketsPerDay,
		ServiceAreas:       req.ServiceAreas,
		Active:             true,
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create worker", err.Error())
		return
	}
	c.JSON(http.StatusCreated, worker)
}

// WorkersBulkImport seeds many workers at once, for fleet onboarding.
func (h *Handler) WorkersBulkImport(c *gin.Context) {
	var reqs []CreateWorkerRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if len(reqs) == 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Empty worker list", nil)
		return
	}

	workers := make([]models.Worker, 0, len(reqs))
	for i, req := range reqs {
		if err := h.Validator.Struct(req); err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", gin.H{"index": i, "error": err.Error()})
			return
		}
		level := req.SkillLevel
		if level == "" {
			level = models.SkillLevelJunior
		}
		if models.SkillLevelRank(level) < 0 {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown skill level", gin.H{"index": i, "skill_level": req.SkillLevel})
			return
		}
		workers = append(workers, models.Worker{
			Name:               req.Name,
			Email:              req.Email,
			Phone:              req.Phone,
			Skills:             req.Skills,
			SkillLevel:         level,
			Certifications:     req.Certifications,
			CurrentLat:         req.Lat,
			CurrentLng:         req.Lng,
			AvailabilityStatus: models.AvailabilityOffline,
			MaxTicketsPerDay:   req.MaxTicketsPerDay,
			ServiceAreas:       req.ServiceAreas,
			Active:             true,
		})
	}

	inserted, err := h.Store.BulkInsertWorkers(c.Request.Context(), workers)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to import workers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

func (h *Handler) WorkersList(c *gin.Context) {
	filter := db.WorkerFilter{
		Availability: c.Query("availability"),
		Skill:        c.Query("skill"),
		Search:       c.Query("q"),
		ActiveOnly:   c.DefaultQuery("active", "true") != "false",
	}
	items, err := h.Store.ListWorkers(c.Request.Context(), filter)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list workers", err.Error())
		return
	}
	if items == nil {
		items = []models.Worker{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) WorkerDetails(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	worker, err := h.Store.GetWorker(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err, "Worker")
		return
	}
	c.JSON(http.StatusOK, worker)
}

type UpdateWorkerRequest struct {
	Name             *string   `json:"name"`
	Email            *string   `json:"email" validate:"omitempty,email"`
	Phone            *string   `json:"phone"`
	Skills           *[]string `json:"skills"`
	SkillLevel       *string   `json:"skill_level"`
	Certifications   *[]string `json:"certifications"`
	MaxTicketsPerDay *int      `json:"max_tickets_per_day" validate:"omitempty,gte=0"`
	ServiceAreas     *[]string `json:"service_areas"`
	Active           *bool     `json:"active"`
}

func (h *Handler) WorkerUpdate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if req.SkillLevel != nil && models.SkillLevelRank(*req.SkillLevel) < 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown skill level", *req.SkillLevel)
		return
	}

	worker, err := h.Store.UpdateWorker(c.Request.Context(), id, db.WorkerUpdate{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Skills:           req.Skills,
		SkillLevel:       req.SkillLevel,
		Certifications:   req.Certifications,
		MaxTicketsPerDay: req.MaxTicketsPerDay,
		ServiceAreas:     req.ServiceAreas,
		Active:           req.Active,
	})
	if err != nil {
		writeLookupError(c, err, "Worker")
		return
	}
	c.JSON(http.StatusOK, worker)
}

type WorkerLocationRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// WorkerLocation stores a position report and pushes it to the live map.
func (h *Handler) WorkerLocation(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req WorkerLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	worker, err := h.Store.UpdateWorkerLocation(c.Request.Context(), id, req.Lat, req.Lng)
	if err != nil {
		writeLookupError(c, err, "Worker")
		return
	}

	evt := stream.Event{
		Type: stream.EventWorkerLocation,
		Data: gin.H{"worker_id": worker.ID, "lat": req.Lat, "lng": req.Lng, "status": worker.AvailabilityStatus},
	}
	h.Broker.Publish(stream.TopicDispatch, evt)
	// Customers watching this worker's tickets see the position move too.
	if tickets, err := h.Store.ListTicketsForWorker(c.Request.Context(), id); err == nil {
		for _, t := range tickets {
			h.Broker.Publish(stream.TicketTopic(t.TrackingToken), evt)
		}
	}
	c.JSON(http.StatusOK, worker)
}

type WorkerAvailabilityRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) WorkerAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req WorkerAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if !models.ValidAvailability(req.Status) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown availability status", req.Status)
		return
	}

	worker, err := h.Store.SetWorkerAvailability(c.Request.Context(), id, req.Status)
	if err != nil {
		writeLookupError(c, err, "Worker")
		return
	}
	c.JSON(http.StatusOK, worker)
}

func (h *Handler) WorkerAssignments(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if _, err := h.Store.GetWorker(c.Request.Context(), id); err != nil {
		writeLookupError(c, err, "Worker")
		return
	}
	assignments, err := h.Store.ListAssignments(c.Request.Context(), db.AssignmentFilter{
		WorkerID: id,
		Status:   c.Query("status"),
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list assignments", err.Error())
		return
	}
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	c.JSON(http.StatusOK, gin.H{"worker_id": id, "items": assignments})
}

// @Summary Worker's route for the day
// @Description Nearest-neighbor sequence over the worker's open tickets, with per-leg distances and cumulative ETAs
// @Tags dispatch
// @Produce json
// @Param id path int true "worker id"
// @Success 200 {object} route.Route
// @Failure 409 {object} map[string]any
// @Router /api/workers/{id}/route [get]
func (h *Handler) WorkerRoute(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := h.Dispatch.WorkerRoute(c.Request.Context(), id)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
