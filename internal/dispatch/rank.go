package dispatch

import (
	"fmt"
	"sort"

	"github.com/fieldforge/backend/internal/models"
)

// RankCandidates filters the pool down to eligible workers, scores each
// against the ticket, and orders the result best first. Eligibility excludes
// inactive and offline workers, plus workers beyond MaxRadiusKm when that
// cutoff is configured. An empty result is a valid outcome, not an error; a
// malformed pool member fails the whole call.
func (e *Engine) RankCandidates(ticket models.Ticket, pool []models.Worker) ([]CandidateScore, error) {
	scores := make([]CandidateScore, 0, len(pool))
	for _, w := range pool {
		if !w.Active || w.AvailabilityStatus == models.AvailabilityOffline {
			continue
		}
		cs, err := e.Score(ticket, w)
		if err != nil {
			return nil, fmt.Errorf("score worker %d: %w", w.ID, err)
		}
		if e.cfg.MaxRadiusKm > 0 && cs.TravelDistanceKm != nil && *cs.TravelDistanceKm > e.cfg.MaxRadiusKm {
			continue
		}
		scores = append(scores, cs)
	}
	sortCandidates(scores)
	return scores, nil
}

// sortCandidates orders by overall score descending, then travel distance
// ascending with unknown distances last, then worker ID ascending.
func sortCandidates(scores []CandidateScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Overall != b.Overall {
			return a.Overall > b.Overall
		}
		switch {
		case a.TravelDistanceKm != nil && b.TravelDistanceKm != nil:
			if *a.TravelDistanceKm != *b.TravelDistanceKm {
				return *a.TravelDistanceKm < *b.TravelDistanceKm
			}
		case a.TravelDistanceKm != nil:
			return true
		case b.TravelDistanceKm != nil:
			return false
		}
		return a.WorkerID < b.WorkerID
	})
}
