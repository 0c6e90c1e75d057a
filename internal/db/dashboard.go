package db

import (
	"context"
	"time"

	"github.com/fieldforge/backend/internal/models"
)

type DashboardStats struct {
	TotalTickets       int            `json:"total_tickets"`
	OpenTickets        int            `json:"open_tickets"`
	InProgressTickets  int            `json:"in_progress_tickets"`
	CompletedToday     int            `json:"completed_today"`
	AvgResponseMinutes float64        `json:"avg_response_minutes"`
	SLAComplianceRate  float64        `json:"sla_compliance_rate"`
	ActiveWorkers      int            `json:"active_workers"`
	TotalWorkers       int            `json:"total_workers"`
	TicketsBySeverity  map[string]int `json:"tickets_by_severity"`
	TicketsByStatus    map[string]int `json:"tickets_by_status"`
}

// DashboardStats aggregates the operational counters shown on the dispatch
// board. Compliance defaults to 100 when nothing has completed yet.
func (s *Store) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var st DashboardStats
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('new','analyzing','open')),
			COUNT(*) FILTER (WHERE status IN ('assigned','en_route','in_progress')),
			COUNT(*) FILTER (WHERE status = 'completed' AND completed_at >= date_trunc('day', NOW()))
		FROM tickets`).
		Scan(&st.TotalTickets, &st.OpenTickets, &st.InProgressTickets, &st.CompletedToday)
	if err != nil {
		return st, err
	}

	err = s.Pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (a.assigned_at - t.created_at)) / 60.0), 0)
		FROM assignments a JOIN tickets t ON t.id = a.ticket_id`).
		Scan(&st.AvgResponseMinutes)
	if err != nil {
		return st, err
	}

	var onTime, graded int
	err = s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE completed_at <= sla_deadline), COUNT(*)
		FROM tickets
		WHERE status = 'completed' AND sla_deadline IS NOT NULL AND completed_at IS NOT NULL`).
		Scan(&onTime, &graded)
	if err != nil {
		return st, err
	}
	st.SLAComplianceRate = 100.0
	if graded > 0 {
		st.SLAComplianceRate = float64(onTime) / float64(graded) * 100.0
	}

	err = s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE availability_status IN ('available','busy')), COUNT(*)
		FROM workers WHERE active = TRUE`).
		Scan(&st.ActiveWorkers, &st.TotalWorkers)
	if err != nil {
		return st, err
	}

	st.TicketsBySeverity, err = s.groupTicketCounts(ctx, "severity")
	if err != nil {
		return st, err
	}
	st.TicketsByStatus, err = s.groupTicketCounts(ctx, "status")
	return st, err
}

func (s *Store) groupTicketCounts(ctx context.Context, column string) (map[string]int, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+column+`, COUNT(*) FROM tickets GROUP BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

// WorkersWithLocation returns active workers that have reported a position,
// the worker layer of the live map.
func (s *Store) WorkersWithLocation(ctx context.Context) ([]models.Worker, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+workerColumns+` FROM workers w
		WHERE w.active = TRUE AND w.current_lat IS NOT NULL AND w.current_lng IS NOT NULL
		ORDER BY w.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// TicketsWithLocation returns unfinished geocoded tickets, the ticket layer
// of the live map.
func (s *Store) TicketsWithLocation(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE status NOT IN ('completed','cancelled')
			AND lat IS NOT NULL AND lng IS NOT NULL
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// SLAAlerts lists unfinished tickets whose deadline falls before the cutoff,
// most urgent first. Already-breached tickets are included.
func (s *Store) SLAAlerts(ctx context.Context, cutoff time.Time) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE status NOT IN ('completed','cancelled')
			AND sla_deadline IS NOT NULL AND sla_deadline <= $1
		ORDER BY sla_deadline ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}
