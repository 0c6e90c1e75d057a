package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fieldforge/backend/internal/models"
)

const assignmentColumns = `id, ticket_id, worker_id, status, assigned_at, scheduled_time, eta,
	actual_arrival, actual_completion, travel_distance_km, travel_time_minutes,
	skill_match_score, proximity_score, overall_score, notes`

func scanAssignment(row pgx.Row) (models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.TicketID, &a.WorkerID, &a.Status, &a.AssignedAt,
		&a.ScheduledTime, &a.ETA, &a.ActualArrival, &a.ActualCompletion,
		&a.TravelDistanceKm, &a.TravelTimeMinutes, &a.SkillMatchScore,
		&a.ProximityScore, &a.OverallScore, &a.Notes)
	return a, err
}

// CreateAssignment runs inside the dispatch transaction so the assignment row
// and the ticket's worker pointer commit together.
func (s *Store) CreateAssignment(ctx context.Context, tx pgx.Tx, a models.Assignment) (models.Assignment, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO assignments (ticket_id, worker_id, status, scheduled_time, eta,
			travel_distance_km, travel_time_minutes, skill_match_score, proximity_score,
			overall_score, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+assignmentColumns,
		a.TicketID, a.WorkerID, a.Status, a.ScheduledTime, a.ETA,
		a.TravelDistanceKm, a.TravelTimeMinutes, a.SkillMatchScore, a.ProximityScore,
		a.OverallScore, a.Notes)
	return scanAssignment(row)
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (models.Assignment, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	return scanAssignment(row)
}

type AssignmentFilter struct {
	Status   string
	WorkerID int64
	TicketID int64
	Limit    int
}

func (s *Store) ListAssignments(ctx context.Context, f AssignmentFilter) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	var args []any
	var wheres []string
	if f.Status != "" {
		args = append(args, f.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.WorkerID > 0 {
		args = append(args, f.WorkerID)
		wheres = append(wheres, fmt.Sprintf("worker_id = $%d", len(args)))
	}
	if f.TicketID > 0 {
		args = append(args, f.TicketID)
		wheres = append(wheres, fmt.Sprintf("ticket_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY assigned_at DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListActiveAssignmentsForWorker returns the worker's open workload ordered by
// assignment time, the input for route sequencing.
func (s *Store) ListActiveAssignmentsForWorker(ctx context.Context, workerID int64) ([]models.Assignment, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE worker_id = $1 AND status NOT IN ('completed','cancelled')
		ORDER BY assigned_at ASC`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (s *Store) ActiveCountForWorker(ctx context.Context, workerID int64) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM assignments
		WHERE worker_id = $1 AND status NOT IN ('completed','cancelled')`, workerID).Scan(&n)
	return n, err
}

// SetAssignmentStatus moves an assignment along its lifecycle. Arrival and
// completion timestamps are stamped once and kept on later transitions.
func (s *Store) SetAssignmentStatus(ctx context.Context, tx pgx.Tx, id int64, status string) (models.Assignment, error) {
	var row pgx.Row
	switch status {
	case models.AssignmentStatusArrived:
		row = tx.QueryRow(ctx, `
			UPDATE assignments SET status = $1, actual_arrival = COALESCE(actual_arrival, NOW())
			WHERE id = $2
			RETURNING `+assignmentColumns, status, id)
	case models.AssignmentStatusCompleted:
		row = tx.QueryRow(ctx, `
			UPDATE assignments SET status = $1,
				actual_arrival = COALESCE(actual_arrival, NOW()),
				actual_completion = COALESCE(actual_completion, NOW())
			WHERE id = $2
			RETURNING `+assignmentColumns, status, id)
	default:
		row = tx.QueryRow(ctx, `
			UPDATE assignments SET status = $1 WHERE id = $2
			RETURNING `+assignmentColumns, status, id)
	}
	return scanAssignment(row)
}

// CancelAssignmentsForTicket voids whatever assignments are still open on a
// ticket, part of the ticket-cancel transaction.
func (s *Store) CancelAssignmentsForTicket(ctx context.Context, tx pgx.Tx, ticketID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE assignments SET status = 'cancelled'
		WHERE ticket_id = $1 AND status NOT IN ('completed','cancelled')`, ticketID)
	return err
}

func collectAssignments(rows pgx.Rows) ([]models.Assignment, error) {
	var out []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
