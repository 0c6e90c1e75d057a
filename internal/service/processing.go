package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/geocode"
	"github.com/fieldforge/backend/internal/llm"
	"github.com/fieldforge/backend/internal/metrics"
	"github.com/fieldforge/backend/internal/models"
	"github.com/fieldforge/backend/internal/notify"
	"github.com/fieldforge/backend/internal/sla"
	"github.com/fieldforge/backend/internal/stream"
)

// IntakeService runs the triage pipeline on new tickets: classification,
// SLA stamping, address geocoding, persistence, then customer notification.
type IntakeService struct {
	Store      *db.Store
	Classifier llm.Classifier
	Geocoder   geocode.Geocoder
	Notifier   notify.Notifier
	Broker     stream.Broker
	Logger     zerolog.Logger
}

type TriageSummary struct {
	Processed    int            `json:"processed"`
	Classified   int            `json:"classified"`
	Geocoded     int            `json:"geocoded"`
	Errors       int            `json:"errors"`
	AvgLatencyMs int64          `json:"avg_latency_ms"`
	BySeverity   map[string]int `json:"by_severity"`
}

// IntakeTicket triages a freshly created ticket and announces it. The ticket
// must already be persisted; the triaged copy is returned.
func (s *IntakeService) IntakeTicket(ctx context.Context, t models.Ticket) (models.Ticket, error) {
	triaged, _, err := s.triage(ctx, t)
	if err != nil {
		return t, err
	}

	s.publish(stream.TopicDispatch, stream.Event{Type: stream.EventTicketCreated, Data: ticketEvent(triaged)})
	s.publish(stream.TicketTopic(triaged.TrackingToken), stream.Event{Type: stream.EventTicketCreated, Data: ticketEvent(triaged)})
	if s.Notifier != nil {
		if err := s.Notifier.TicketCreated(ctx, triaged); err != nil {
			s.Logger.Warn().Err(err).Int64("ticket_id", triaged.ID).Msg("created notification failed")
		}
	}
	return triaged, nil
}

// Retriage re-runs classification on one ticket, keeping its current
// status announcements quiet.
func (s *IntakeService) Retriage(ctx context.Context, ticketID int64) (models.Ticket, error) {
	t, err := s.Store.GetTicket(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	triaged, _, err := s.triage(ctx, t)
	return triaged, err
}

// ProcessPending re-runs triage over every ticket still in status new.
// Used to drain the backlog after a classifier outage; no customer
// notifications are re-sent.
func (s *IntakeService) ProcessPending(ctx context.Context) (TriageSummary, error) {
	tickets, err := s.Store.ListTickets(ctx, db.TicketFilter{Status: models.TicketStatusNew, Limit: 200})
	if err != nil {
		return TriageSummary{}, err
	}

	summary := TriageSummary{BySeverity: map[string]int{}}
	var latencyTotal int64
	for _, t := range tickets {
		summary.Processed++
		triaged, latencyMs, err := s.triage(ctx, t)
		if err != nil {
			summary.Errors++
			s.Logger.Error().Err(err).Int64("ticket_id", t.ID).Msg("triage failed")
			continue
		}
		summary.Classified++
		latencyTotal += latencyMs
		summary.BySeverity[string(triaged.Severity)]++
		if triaged.Lat != nil && triaged.Lng != nil {
			summary.Geocoded++
		}
	}
	if summary.Classified > 0 {
		summary.AvgLatencyMs = latencyTotal / int64(summary.Classified)
	}
	return summary, nil
}

func (s *IntakeService) triage(ctx context.Context, t models.Ticket) (models.Ticket, int64, error) {
	analysis, latencyMs, err := s.Classifier.Classify(ctx, llm.Input{
		Title:        t.Title,
		Description:  t.Description,
		CustomerTier: t.CustomerTier,
	})
	if err != nil {
		return t, latencyMs, err
	}

	// A severity picked by the customer at intake outranks the classifier.
	if sev, ok := models.ParseSeverity(string(t.Severity)); ok {
		analysis.Severity = sev
		analysis.Confidence = 1.0
	}
	metrics.Classifications.WithLabelValues(classifierSource(analysis.ModelVersion), string(analysis.Severity)).Inc()

	deadline, err := sla.Deadline(t.CreatedAt, analysis.Severity)
	if err != nil {
		return t, latencyMs, err
	}

	if s.Geocoder != nil && geocode.ShouldGeocode(t, false) {
		lat, lng, display, confidence, geoErr := s.Geocoder.Geocode(ctx, t.Address)
		if geoErr != nil {
			s.Logger.Warn().Err(geoErr).Int64("ticket_id", t.ID).Str("address", t.Address).Msg("geocode failed")
		} else {
			if err := s.Store.UpdateTicketLocation(ctx, t.ID, lat, lng); err != nil {
				return t, latencyMs, err
			}
			t.Lat, t.Lng = &lat, &lng
			s.Logger.Debug().
				Int64("ticket_id", t.ID).
				Str("resolved", display).
				Float64("confidence", confidence).
				Msg("ticket geocoded")
		}
	}

	// Triage opens fresh tickets for dispatch; a ticket already moving
	// through its lifecycle keeps its status on re-analysis.
	status := t.Status
	if status == models.TicketStatusNew || status == models.TicketStatusAnalyzing {
		status = models.TicketStatusOpen
	}
	triaged, err := s.Store.ApplyAnalysis(ctx, t.ID, analysis, &deadline, status)
	if err != nil {
		return t, latencyMs, err
	}
	return triaged, latencyMs, nil
}

func (s *IntakeService) publish(topic string, evt stream.Event) {
	if s.Broker != nil {
		s.Broker.Publish(topic, evt)
	}
}

func classifierSource(modelVersion string) string {
	if strings.HasPrefix(modelVersion, "keyword-rules") {
		return "rules"
	}
	return "openai"
}

func ticketEvent(t models.Ticket) map[string]any {
	data := map[string]any{
		"ticket_id": t.ID,
		"title":     t.Title,
		"severity":  string(t.Severity),
		"status":    t.Status,
		"category":  t.Category,
		"time":      time.Now().UTC(),
	}
	if t.AssignedWorkerID != nil {
		data["worker_id"] = *t.AssignedWorkerID
	}
	if t.SLADeadline != nil {
		data["sla_deadline"] = t.SLADeadline.UTC()
	}
	return data
}
