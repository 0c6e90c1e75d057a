package dispatch

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fieldforge/backend/internal/models"
)

func TestRankEmptyPool(t *testing.T) {
	e := New(DefaultConfig())
	ranked, err := e.RankCandidates(scoreTicket(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 0 {
		t.Fatalf("expected empty result for empty pool, got %d", len(ranked))
	}
}

func TestRankFiltersIneligible(t *testing.T) {
	e := New(DefaultConfig())
	inactive := scoreWorker(1)
	inactive.Active = false
	offline := scoreWorker(2)
	offline.AvailabilityStatus = models.AvailabilityOffline
	good := scoreWorker(3)

	ranked, err := e.RankCandidates(scoreTicket(), []models.Worker{inactive, offline, good})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 1 || ranked[0].WorkerID != 3 {
		t.Fatalf("expected only worker 3 to survive filtering, got %+v", ranked)
	}
}

func TestRankOrdering(t *testing.T) {
	e := New(DefaultConfig())
	poor := scoreWorker(1)
	poor.Skills = []string{"painting"}
	poor.CurrentLng = fptr(0.8)
	poor.PerformanceRating = 2
	poor.FirstTimeFixRate = 0.3

	best := scoreWorker(2)
	best.SkillLevel = models.SkillLevelExpert
	best.PerformanceRating = 5
	best.FirstTimeFixRate = 0.95

	mid := scoreWorker(3)
	mid.CurrentLng = fptr(0.4)

	ranked, err := e.RankCandidates(scoreTicket(), []models.Worker{poor, best, mid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	if ranked[0].WorkerID != 2 || ranked[1].WorkerID != 3 || ranked[2].WorkerID != 1 {
		t.Fatalf("expected order [2 3 1], got [%d %d %d]",
			ranked[0].WorkerID, ranked[1].WorkerID, ranked[2].WorkerID)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Overall > ranked[i-1].Overall {
			t.Fatalf("ranking not descending at index %d", i)
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	e := New(DefaultConfig())
	pool := []models.Worker{scoreWorker(5), scoreWorker(3), scoreWorker(9), scoreWorker(1)}

	first, err := e.RankCandidates(scoreTicket(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.RankCandidates(scoreTicket(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results on repeated calls")
	}
	// Identical workers differ only by ID, so ties resolve by ascending ID.
	for i, want := range []int64{1, 3, 5, 9} {
		if first[i].WorkerID != want {
			t.Fatalf("expected ID order [1 3 5 9], got %d at %d", first[i].WorkerID, i)
		}
	}
}

func TestRankTieBreaks(t *testing.T) {
	scores := []CandidateScore{
		{WorkerID: 4, Overall: 0.8},
		{WorkerID: 3, Overall: 0.8, TravelDistanceKm: fptr(8)},
		{WorkerID: 2, Overall: 0.8, TravelDistanceKm: fptr(3)},
		{WorkerID: 9, Overall: 0.8, TravelDistanceKm: fptr(3)},
		{WorkerID: 1, Overall: 0.9},
	}
	sortCandidates(scores)

	got := make([]int64, len(scores))
	for i, s := range scores {
		got[i] = s.WorkerID
	}
	// Highest overall first; ties by distance with unknown distance last,
	// then by worker ID.
	want := []int64{1, 2, 9, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestRankMaxRadius(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRadiusKm = 50
	e := New(cfg)

	near := scoreWorker(1)
	near.CurrentLng = fptr(0.1) // ~11 km
	far := scoreWorker(2)
	far.CurrentLng = fptr(0.6) // ~67 km
	unknown := scoreWorker(3)
	unknown.CurrentLat = nil
	unknown.CurrentLng = nil

	ranked, err := e.RankCandidates(scoreTicket(), []models.Worker{near, far, unknown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected radius cutoff to drop worker 2, got %+v", ranked)
	}
	if ranked[0].WorkerID != 1 || ranked[1].WorkerID != 3 {
		t.Fatalf("expected [1 3], got [%d %d]", ranked[0].WorkerID, ranked[1].WorkerID)
	}
}

func TestRankMalformedWorkerFailsCall(t *testing.T) {
	e := New(DefaultConfig())
	bad := scoreWorker(2)
	bad.PerformanceRating = 9

	_, err := e.RankCandidates(scoreTicket(), []models.Worker{scoreWorker(1), bad})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
