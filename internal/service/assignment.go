package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/dispatch"
	"github.com/fieldforge/backend/internal/geo"
	"github.com/fieldforge/backend/internal/metrics"
	"github.com/fieldforge/backend/internal/models"
	"github.com/fieldforge/backend/internal/notify"
	"github.com/fieldforge/backend/internal/route"
	"github.com/fieldforge/backend/internal/stream"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNoCandidates    = errors.New("no eligible workers")
	ErrAlreadyAssigned = errors.New("ticket already assigned")
	ErrTicketClosed    = errors.New("ticket is closed")
	ErrNoLocation      = errors.New("worker has no known location")
)

// DispatchService matches tickets with workers and plans their day. The
// scoring itself lives in the dispatch engine; this layer loads state,
// commits the outcome, and announces it.
type DispatchService struct {
	Store          *db.Store
	Engine         *dispatch.Engine
	Broker         stream.Broker
	Notifier       notify.Notifier
	Logger         zerolog.Logger
	SpeedKmh       float64
	CandidateLimit int
}

// Candidates scores every eligible worker against a ticket, best first.
func (s *DispatchService) Candidates(ctx context.Context, ticketID int64, limit int) (models.Ticket, []dispatch.CandidateScore, error) {
	t, err := s.Store.GetTicket(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	workers, err := s.Store.ListWorkers(ctx, db.WorkerFilter{ActiveOnly: true})
	if err != nil {
		return t, nil, err
	}
	scores, err := s.Engine.RankCandidates(t, workers)
	if err != nil {
		return t, nil, err
	}
	if limit <= 0 {
		limit = s.CandidateLimit
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return t, scores, nil
}

// Assign commits a ticket to a worker. With workerID zero the top-ranked
// candidate wins; a concrete workerID is a manual override and skips the
// eligibility filter, though it is still scored for the record.
func (s *DispatchService) Assign(ctx context.Context, ticketID, workerID int64, note string) (models.Assignment, dispatch.CandidateScore, error) {
	t, err := s.Store.GetTicket(ctx, ticketID)
	if err != nil {
		return models.Assignment{}, dispatch.CandidateScore{}, err
	}
	if models.TicketStatusTerminal(t.Status) {
		return models.Assignment{}, dispatch.CandidateScore{}, ErrTicketClosed
	}
	if t.AssignedWorkerID != nil {
		return models.Assignment{}, dispatch.CandidateScore{}, ErrAlreadyAssigned
	}

	mode := "auto"
	var chosen dispatch.CandidateScore
	if workerID > 0 {
		mode = "manual"
		w, err := s.Store.GetWorker(ctx, workerID)
		if err != nil {
			return models.Assignment{}, dispatch.CandidateScore{}, err
		}
		chosen, err = s.Engine.Score(t, w)
		if err != nil {
			return models.Assignment{}, dispatch.CandidateScore{}, err
		}
	} else {
		workers, err := s.Store.ListWorkers(ctx, db.WorkerFilter{ActiveOnly: true})
		if err != nil {
			return models.Assignment{}, dispatch.CandidateScore{}, err
		}
		scores, err := s.Engine.RankCandidates(t, workers)
		if err != nil {
			return models.Assignment{}, dispatch.CandidateScore{}, err
		}
		if len(scores) == 0 {
			metrics.Assignments.WithLabelValues(mode, "no_candidates").Inc()
			return models.Assignment{}, dispatch.CandidateScore{}, ErrNoCandidates
		}
		chosen = scores[0]
	}

	var eta *time.Time
	if chosen.TravelTimeMinutes != nil {
		at := time.Now().UTC().Add(time.Duration(*chosen.TravelTimeMinutes * float64(time.Minute)))
		eta = &at
	}

	assignment := models.Assignment{
		TicketID:          t.ID,
		WorkerID:          chosen.WorkerID,
		Status:            models.AssignmentStatusPending,
		ETA:               eta,
		TravelDistanceKm:  chosen.TravelDistanceKm,
		TravelTimeMinutes: chosen.TravelTimeMinutes,
		SkillMatchScore:   &chosen.SkillScore,
		ProximityScore:    &chosen.ProximityScore,
		OverallScore:      &chosen.Overall,
		Notes:             note,
	}
	err = s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		assignment, txErr = s.Store.CreateAssignment(ctx, tx, assignment)
		if txErr != nil {
			return txErr
		}
		return s.Store.AssignTicketWorker(ctx, tx, t.ID, chosen.WorkerID)
	})
	if err != nil {
		metrics.Assignments.WithLabelValues(mode, "error").Inc()
		return models.Assignment{}, chosen, err
	}
	metrics.Assignments.WithLabelValues(mode, "assigned").Inc()

	t.Status = models.TicketStatusAssigned
	t.AssignedWorkerID = &chosen.WorkerID
	evt := stream.Event{Type: stream.EventTicketAssigned, Data: ticketEvent(t)}
	s.publish(stream.TopicDispatch, evt)
	s.publish(stream.TicketTopic(t.TrackingToken), evt)

	if s.Notifier != nil {
		if w, err := s.Store.GetWorker(ctx, chosen.WorkerID); err == nil {
			if err := s.Notifier.TicketAssigned(ctx, t, w, eta); err != nil {
				s.Logger.Warn().Err(err).Int64("ticket_id", t.ID).Msg("assignment notification failed")
			}
		}
	}
	return assignment, chosen, nil
}

// WorkerRoute sequences a worker's open tickets from their current position.
func (s *DispatchService) WorkerRoute(ctx context.Context, workerID int64) (route.Route, error) {
	w, err := s.Store.GetWorker(ctx, workerID)
	if err != nil {
		return route.Route{}, err
	}
	if w.CurrentLat == nil || w.CurrentLng == nil {
		return route.Route{}, ErrNoLocation
	}
	tickets, err := s.Store.ListTicketsForWorker(ctx, workerID)
	if err != nil {
		return route.Route{}, err
	}

	r := route.SequenceRoute(geo.Point{Lat: *w.CurrentLat, Lng: *w.CurrentLng}, ticketStops(tickets), s.SpeedKmh)
	r.WorkerID = w.ID
	return r, nil
}

// FleetPlan distributes every open geocoded ticket across the workers who
// are on shift and positioned, then sequences each share.
func (s *DispatchService) FleetPlan(ctx context.Context) ([]route.Route, error) {
	workers, err := s.Store.ListWorkers(ctx, db.WorkerFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	fleet := make([]route.FleetWorker, 0, len(workers))
	for _, w := range workers {
		if w.CurrentLat == nil || w.CurrentLng == nil {
			continue
		}
		if w.AvailabilityStatus != models.AvailabilityAvailable && w.AvailabilityStatus != models.AvailabilityBusy {
			continue
		}
		fleet = append(fleet, route.FleetWorker{ID: w.ID, Start: geo.Point{Lat: *w.CurrentLat, Lng: *w.CurrentLng}})
	}

	stops, err := s.openStops(ctx)
	if err != nil {
		return nil, err
	}
	return route.PlanFleet(fleet, stops, s.SpeedKmh), nil
}

// ClusterOpenTickets groups the open geocoded tickets into k zones.
func (s *DispatchService) ClusterOpenTickets(ctx context.Context, k int) ([]route.Cluster, error) {
	stops, err := s.openStops(ctx)
	if err != nil {
		return nil, err
	}
	return route.ClusterTickets(stops, k), nil
}

func (s *DispatchService) openStops(ctx context.Context) ([]route.Stop, error) {
	tickets, err := s.Store.ListTickets(ctx, db.TicketFilter{Status: models.TicketStatusOpen, Limit: 200})
	if err != nil {
		return nil, err
	}
	return ticketStops(tickets), nil
}

func (s *DispatchService) publish(topic string, evt stream.Event) {
	if s.Broker != nil {
		s.Broker.Publish(topic, evt)
	}
}

func ticketStops(tickets []models.Ticket) []route.Stop {
	stops := make([]route.Stop, 0, len(tickets))
	for _, t := range tickets {
		if t.Lat == nil || t.Lng == nil {
			continue
		}
		stops = append(stops, route.Stop{
			ID:    t.ID,
			Point: geo.Point{Lat: *t.Lat, Lng: *t.Lng},
			Label: t.Title,
		})
	}
	return stops
}
