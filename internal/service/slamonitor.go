package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/notify"
	"github.com/fieldforge/backend/internal/sla"
	"github.com/fieldforge/backend/internal/stream"
)

const (
	defaultSweepInterval = 5 * time.Minute
	defaultWarnWindow    = 30 * time.Minute
	rewarnAfter          = 2 * time.Hour
	warnedRetention      = 24 * time.Hour
)

// SLAMonitor sweeps unfinished tickets whose response deadline is close or
// already past, warns the customer, and pushes an alert onto the dispatch
// feed. A ticket is re-warned only after rewarnAfter, so a stuck breach
// nags rather than floods.
type SLAMonitor struct {
	Store      *db.Store
	Notifier   notify.Notifier
	Broker     stream.Broker
	Logger     zerolog.Logger
	Interval   time.Duration
	WarnWindow time.Duration

	mu     sync.Mutex
	warned map[int64]time.Time
}

// Run blocks until ctx is cancelled.
func (m *SLAMonitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *SLAMonitor) sweep(ctx context.Context) {
	window := m.WarnWindow
	if window <= 0 {
		window = defaultWarnWindow
	}
	now := time.Now().UTC()

	tickets, err := m.Store.SLAAlerts(ctx, now.Add(window))
	if err != nil {
		m.Logger.Error().Err(err).Msg("sla sweep failed")
		return
	}

	for _, t := range tickets {
		if !m.shouldWarn(t.ID, now) {
			continue
		}
		remaining := t.SLADeadline.Sub(now)
		if m.Notifier != nil {
			if err := m.Notifier.SLAWarning(ctx, t, remaining); err != nil {
				// Not marked as warned, so the next sweep retries.
				m.Logger.Warn().Err(err).Int64("ticket_id", t.ID).Msg("sla warning failed")
				continue
			}
		}
		m.markWarned(t.ID, now)

		if m.Broker != nil {
			m.Broker.Publish(stream.TopicDispatch, stream.Event{
				Type: stream.EventSLAWarning,
				Data: map[string]any{
					"ticket_id":         t.ID,
					"severity":          string(t.Severity),
					"sla_deadline":      t.SLADeadline.UTC(),
					"remaining_minutes": sla.Remaining(*t.SLADeadline, now),
					"breached":          sla.Breached(*t.SLADeadline, now),
				},
			})
		}
	}
	m.prune(now)
}

func (m *SLAMonitor) shouldWarn(ticketID int64, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	last, ok := m.warned[ticketID]
	return !ok || now.Sub(last) >= rewarnAfter
}

func (m *SLAMonitor) markWarned(ticketID int64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.warned == nil {
		m.warned = map[int64]time.Time{}
	}
	m.warned[ticketID] = now
}

// prune drops tickets last warned long ago; they are either finished by now
// or due for a fresh warning anyway.
func (m *SLAMonitor) prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, last := range m.warned {
		if now.Sub(last) > warnedRetention {
			delete(m.warned, id)
		}
	}
}
