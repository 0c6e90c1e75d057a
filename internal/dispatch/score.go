package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fieldforge/backend/internal/geo"
	"github.com/fieldforge/backend/internal/models"
)

// ErrInvalidInput marks malformed ticket or worker records. The engine
// never substitutes defaults for fields it cannot trust.
var ErrInvalidInput = errors.New("invalid input")

// Weights is the convex combination applied to the four component scores.
// The four fields must sum to 1.
type Weights struct {
	Skill        float64 `json:"skill"`
	Proximity    float64 `json:"proximity"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
}

// Config tunes the scoring engine. Zero-valued fields are replaced with the
// defaults by New.
type Config struct {
	Weights       Weights
	MaxDistanceKm float64 // proximity score reaches zero at this distance
	AvgSpeedKmh   float64 // flat speed for travel-time estimates
	MaxRadiusKm   float64 // ranker cutoff on travel distance, 0 disables
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Skill:        0.40,
			Proximity:    0.30,
			Availability: 0.20,
			Performance:  0.10,
		},
		MaxDistanceKm: 100,
		AvgSpeedKmh:   geo.DefaultSpeedKmh,
	}
}

// CandidateScore is the per-(ticket, worker) scoring result. Component
// scores and Overall are in [0,1]. Travel fields are nil when the worker or
// ticket location is unknown. Never persisted; recomputed on demand.
type CandidateScore struct {
	WorkerID          int64    `json:"worker_id"`
	WorkerName        string   `json:"worker_name,omitempty"`
	SkillScore        float64  `json:"skill_score"`
	ProximityScore    float64  `json:"proximity_score"`
	AvailabilityScore float64  `json:"availability_score"`
	PerformanceScore  float64  `json:"performance_score"`
	Overall           float64  `json:"overall_score"`
	MatchingSkills    []string `json:"matching_skills"`
	MissingSkills     []string `json:"missing_skills"`
	TravelDistanceKm  *float64 `json:"travel_distance_km"`
	TravelTimeMinutes *float64 `json:"travel_time_minutes"`
}

// Engine scores and ranks workers against tickets. It holds no cross-call
// state; concurrent use is safe.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.MaxDistanceKm <= 0 {
		cfg.MaxDistanceKm = def.MaxDistanceKm
	}
	if cfg.AvgSpeedKmh <= 0 {
		cfg.AvgSpeedKmh = def.AvgSpeedKmh
	}
	return &Engine{cfg: cfg}
}

// Score computes the four component scores and their weighted overall for a
// single (ticket, worker) pair. Deterministic; results are not rounded.
func (e *Engine) Score(ticket models.Ticket, worker models.Worker) (CandidateScore, error) {
	if err := validateTicket(ticket); err != nil {
		return CandidateScore{}, err
	}
	if err := validateWorker(worker); err != nil {
		return CandidateScore{}, err
	}

	cs := CandidateScore{WorkerID: worker.ID, WorkerName: worker.Name}
	cs.SkillScore, cs.MatchingSkills, cs.MissingSkills = skillScore(ticket.SkillsRequired, worker)

	// Unknown locations score zero on proximity but stay in the running.
	if ticket.Lat != nil && ticket.Lng != nil && worker.CurrentLat != nil && worker.CurrentLng != nil {
		d := geo.HaversineKm(
			geo.Point{Lat: *worker.CurrentLat, Lng: *worker.CurrentLng},
			geo.Point{Lat: *ticket.Lat, Lng: *ticket.Lng},
		)
		minutes := geo.TravelTimeMinutes(d, e.cfg.AvgSpeedKmh)
		cs.TravelDistanceKm = &d
		cs.TravelTimeMinutes = &minutes
		cs.ProximityScore = proximityScore(d, e.cfg.MaxDistanceKm)
	}

	cs.AvailabilityScore = availabilityScore(worker)
	cs.PerformanceScore = performanceScore(worker)

	cs.Overall = clamp01(e.cfg.Weights.Skill*cs.SkillScore +
		e.cfg.Weights.Proximity*cs.ProximityScore +
		e.cfg.Weights.Availability*cs.AvailabilityScore +
		e.cfg.Weights.Performance*cs.PerformanceScore)
	return cs, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// skillScore is the matched fraction of required skills plus a proficiency
// bonus, capped at 1. An empty requirement set scores 1.
func skillScore(required []string, worker models.Worker) (float64, []string, []string) {
	matching := make([]string, 0, len(required))
	missing := make([]string, 0)
	if len(required) == 0 {
		return 1, matching, missing
	}

	have := make(map[string]struct{}, len(worker.Skills))
	for _, s := range worker.Skills {
		have[normalizeSkill(s)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[normalizeSkill(r)]; ok {
			matching = append(matching, r)
		} else {
			missing = append(missing, r)
		}
	}

	score := float64(len(matching))/float64(len(required)) + skillLevelBonus(worker.SkillLevel)
	if score > 1 {
		score = 1
	}
	return score, matching, missing
}

func skillLevelBonus(level string) float64 {
	switch level {
	case models.SkillLevelIntermediate:
		return 0.05
	case models.SkillLevelSenior:
		return 0.10
	case models.SkillLevelExpert:
		return 0.15
	}
	return 0
}

// proximityScore falls off linearly, reaching zero at maxDistanceKm.
func proximityScore(distanceKm, maxDistanceKm float64) float64 {
	score := 1 - distanceKm/maxDistanceKm
	if score < 0 {
		return 0
	}
	return score
}

// availabilityScore is the status base score scaled down by how close the
// worker is to daily capacity. Zero capacity means capacity is untracked.
func availabilityScore(worker models.Worker) float64 {
	var base float64
	switch worker.AvailabilityStatus {
	case models.AvailabilityAvailable:
		base = 1.0
	case models.AvailabilityBusy:
		base = 0.4
	case models.AvailabilityOnBreak:
		base = 0.2
	case models.AvailabilityOffline:
		return 0
	}
	if worker.MaxTicketsPerDay > 0 {
		load := float64(worker.ActiveAssignments) / float64(worker.MaxTicketsPerDay)
		if load > 1 {
			load = 1
		}
		base *= 1 - load
	}
	return base
}

func performanceScore(worker models.Worker) float64 {
	return 0.6*(worker.PerformanceRating/5) + 0.4*worker.FirstTimeFixRate
}

func validateTicket(t models.Ticket) error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: ticket id %d", ErrInvalidInput, t.ID)
	}
	return nil
}

func validateWorker(w models.Worker) error {
	if w.ID <= 0 {
		return fmt.Errorf("%w: worker id %d", ErrInvalidInput, w.ID)
	}
	if models.SkillLevelRank(w.SkillLevel) < 0 {
		return fmt.Errorf("%w: worker %d skill level %q", ErrInvalidInput, w.ID, w.SkillLevel)
	}
	if !models.ValidAvailability(w.AvailabilityStatus) {
		return fmt.Errorf("%w: worker %d availability %q", ErrInvalidInput, w.ID, w.AvailabilityStatus)
	}
	if w.PerformanceRating < 0 || w.PerformanceRating > 5 {
		return fmt.Errorf("%w: worker %d performance rating %v", ErrInvalidInput, w.ID, w.PerformanceRating)
	}
	if w.FirstTimeFixRate < 0 || w.FirstTimeFixRate > 1 {
		return fmt.Errorf("%w: worker %d first-time fix rate %v", ErrInvalidInput, w.ID, w.FirstTimeFixRate)
	}
	if w.MaxTicketsPerDay < 0 {
		return fmt.Errorf("%w: worker %d max tickets per day %d", ErrInvalidInput, w.ID, w.MaxTicketsPerDay)
	}
	if w.ActiveAssignments < 0 {
		return fmt.Errorf("%w: worker %d active assignments %d", ErrInvalidInput, w.ID, w.ActiveAssignments)
	}
	return nil
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
