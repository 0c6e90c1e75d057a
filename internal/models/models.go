package models

import (
	"strings"
	"time"
)

// Severity is the P1..P4 urgency classification driving SLA windows.
type Severity string

const (
	SeverityP1 Severity = "P1"
	SeverityP2 Severity = "P2"
	SeverityP3 Severity = "P3"
	SeverityP4 Severity = "P4"
)

func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	switch sev {
	case SeverityP1, SeverityP2, SeverityP3, SeverityP4:
		return sev, true
	}
	return "", false
}

const (
	TicketStatusNew        = "new"
	TicketStatusAnalyzing  = "analyzing"
	TicketStatusOpen       = "open"
	TicketStatusAssigned   = "assigned"
	TicketStatusEnRoute    = "en_route"
	TicketStatusInProgress = "in_progress"
	TicketStatusCompleted  = "completed"
	TicketStatusCancelled  = "cancelled"
)

const (
	AssignmentStatusPending    = "pending"
	AssignmentStatusAccepted   = "accepted"
	AssignmentStatusEnRoute    = "en_route"
	AssignmentStatusArrived    = "arrived"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusCompleted  = "completed"
	AssignmentStatusCancelled  = "cancelled"
)

const (
	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
	AvailabilityOffline   = "offline"
	AvailabilityOnBreak   = "on_break"
)

const (
	SkillLevelJunior       = "junior"
	SkillLevelIntermediate = "intermediate"
	SkillLevelSenior       = "senior"
	SkillLevelExpert       = "expert"
)

// SkillLevelRank orders proficiency levels, junior lowest. Unknown levels
// return -1.
func SkillLevelRank(level string) int {
	switch level {
	case SkillLevelJunior:
		return 0
	case SkillLevelIntermediate:
		return 1
	case SkillLevelSenior:
		return 2
	case SkillLevelExpert:
		return 3
	}
	return -1
}

// TicketStatusTerminal reports whether a ticket status admits no further
// transitions.
func TicketStatusTerminal(status string) bool {
	return status == TicketStatusCompleted || status == TicketStatusCancelled
}

func ValidTicketStatus(status string) bool {
	switch status {
	case TicketStatusNew, TicketStatusAnalyzing, TicketStatusOpen,
		TicketStatusAssigned, TicketStatusEnRoute, TicketStatusInProgress,
		TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

func ValidAssignmentStatus(status string) bool {
	switch status {
	case AssignmentStatusPending, AssignmentStatusAccepted,
		AssignmentStatusEnRoute, AssignmentStatusArrived,
		AssignmentStatusInProgress, AssignmentStatusCompleted,
		AssignmentStatusCancelled:
		return true
	}
	return false
}

func ValidAvailability(status string) bool {
	switch status {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityOffline,
		AvailabilityOnBreak:
		return true
	}
	return false
}

type Ticket struct {
	ID                  int64      `json:"id"`
	TrackingToken       string     `json:"tracking_token"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Severity            Severity   `json:"severity"`
	Status              string     `json:"status"`
	Category            string     `json:"category,omitempty"`
	EquipmentType       string     `json:"equipment_type,omitempty"`
	Address             string     `json:"address,omitempty"`
	Lat                 *float64   `json:"lat"`
	Lng                 *float64   `json:"lng"`
	SkillsRequired      []string   `json:"skills_required"`
	TimeEstimateMinutes int        `json:"time_estimate_minutes,omitempty"`
	SLADeadline         *time.Time `json:"sla_deadline"`
	ConfidenceScore     *float64   `json:"confidence_score,omitempty"`
	AssignedWorkerID    *int64     `json:"assigned_worker_id"`
	CustomerName        string     `json:"customer_name,omitempty"`
	CustomerPhone       string     `json:"customer_phone,omitempty"`
	CustomerEmail       string     `json:"customer_email,omitempty"`
	CustomerTier        string     `json:"customer_tier,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

type Worker struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Skills             []string  `json:"skills"`
	SkillLevel         string    `json:"skill_level"`
	Certifications     []string  `json:"certifications,omitempty"`
	CurrentLat         *float64  `json:"current_lat"`
	CurrentLng         *float64  `json:"current_lng"`
	AvailabilityStatus string    `json:"availability_status"`
	MaxTicketsPerDay   int       `json:"max_tickets_per_day"`
	ActiveAssignments  int       `json:"active_assignments"`
	PerformanceRating  float64   `json:"performance_rating"`
	TotalCompleted     int       `json:"total_completed"`
	FirstTimeFixRate   float64   `json:"first_time_fix_rate"`
	ServiceAreas       []string  `json:"service_areas,omitempty"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Assignment struct {
	ID                int64      `json:"id"`
	TicketID          int64      `json:"ticket_id"`
	WorkerID          int64      `json:"worker_id"`
	Status            string     `json:"status"`
	AssignedAt        time.Time  `json:"assigned_at"`
	ScheduledTime     *time.Time `json:"scheduled_time,omitempty"`
	ETA               *time.Time `json:"eta,omitempty"`
	ActualArrival     *time.Time `json:"actual_arrival,omitempty"`
	ActualCompletion  *time.Time `json:"actual_completion,omitempty"`
	TravelDistanceKm  *float64   `json:"travel_distance_km,omitempty"`
	TravelTimeMinutes *float64   `json:"travel_time_minutes,omitempty"`
	SkillMatchScore   *float64   `json:"skill_match_score,omitempty"`
	ProximityScore    *float64   `json:"proximity_score,omitempty"`
	OverallScore      *float64   `json:"overall_score,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// TicketAnalysis is the classifier output attached to a ticket after intake.
type TicketAnalysis struct {
	Severity             Severity `json:"severity"`
	Confidence           float64  `json:"confidence"`
	Category             string   `json:"category"`
	EquipmentType        string   `json:"equipment_type"`
	SkillsRequired       []string `json:"skills_required"`
	TimeEstimateMinutes  int      `json:"time_estimate_minutes"`
	Summary              string   `json:"summary"`
	TroubleshootingSteps []string `json:"troubleshooting_steps,omitempty"`
	ModelVersion         string   `json:"model_version"`
}
