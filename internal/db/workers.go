package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fieldforge/backend/internal/models"
)

// activeAssignmentsExpr counts a worker's assignments that still demand time
// today; completed and cancelled ones do not.
const activeAssignmentsExpr = `(SELECT COUNT(*) FROM assignments a
	WHERE a.worker_id = w.id AND a.status NOT IN ('completed','cancelled'))`

const workerColumns = `w.id, w.name, w.email, w.phone, w.skills, w.skill_level, w.certifications,
	w.current_lat, w.current_lng, w.availability_status, w.max_tickets_per_day,
	w.performance_rating, w.total_completed, w.first_time_fix_rate, w.service_areas,
	w.active, w.created_at, w.updated_at, ` + activeAssignmentsExpr + ` AS active_assignments`

func scanWorker(row pgx.Row) (models.Worker, error) {
	var w models.Worker
	err := row.Scan(&w.ID, &w.Name, &w.Email, &w.Phone, &w.Skills, &w.SkillLevel,
		&w.Certifications, &w.CurrentLat, &w.CurrentLng, &w.AvailabilityStatus,
		&w.MaxTicketsPerDay, &w.PerformanceRating, &w.TotalCompleted, &w.FirstTimeFixRate,
		&w.ServiceAreas, &w.Active, &w.CreatedAt, &w.UpdatedAt, &w.ActiveAssignments)
	return w, err
}

func (s *Store) CreateWorker(ctx context.Context, w models.Worker) (models.Worker, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO workers AS w (name, email, phone, skills, skill_level, certifications,
			current_lat, current_lng, availability_status, max_tickets_per_day,
			performance_rating, total_completed, first_time_fix_rate, service_areas, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING `+workerColumns,
		w.Name, w.Email, w.Phone, skillsOrEmpty(w.Skills), w.SkillLevel,
		skillsOrEmpty(w.Certifications), w.CurrentLat, w.CurrentLng, w.AvailabilityStatus,
		w.MaxTicketsPerDay, w.PerformanceRating, w.TotalCompleted, w.FirstTimeFixRate,
		skillsOrEmpty(w.ServiceAreas), w.Active)
	return scanWorker(row)
}

// BulkInsertWorkers seeds many workers in one round trip.
func (s *Store) BulkInsertWorkers(ctx context.Context, workers []models.Worker) (int64, error) {
	rows := make([][]any, 0, len(workers))
	for _, w := range workers {
		rows = append(rows, []any{w.Name, w.Email, w.Phone, skillsOrEmpty(w.Skills),
			w.SkillLevel, skillsOrEmpty(w.Certifications), w.CurrentLat, w.CurrentLng,
			w.AvailabilityStatus, w.MaxTicketsPerDay, w.PerformanceRating,
			w.FirstTimeFixRate, skillsOrEmpty(w.ServiceAreas), w.Active})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"workers"},
		[]string{"name", "email", "phone", "skills", "skill_level", "certifications",
			"current_lat", "current_lng", "availability_status", "max_tickets_per_day",
			"performance_rating", "first_time_fix_rate", "service_areas", "active"},
		pgx.CopyFromRows(rows))
}

func (s *Store) GetWorker(ctx context.Context, id int64) (models.Worker, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers w WHERE w.id = $1`, id)
	return scanWorker(row)
}

type WorkerFilter struct {
	Availability string
	Skill        string
	Search       string
	ActiveOnly   bool
}

func (s *Store) ListWorkers(ctx context.Context, f WorkerFilter) ([]models.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers w`
	var args []any
	var wheres []string
	if f.Availability != "" {
		args = append(args, f.Availability)
		wheres = append(wheres, fmt.Sprintf("w.availability_status = $%d", len(args)))
	}
	if f.Skill != "" {
		args = append(args, f.Skill)
		wheres = append(wheres, fmt.Sprintf("$%d = ANY(w.skills)", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		wheres = append(wheres, fmt.Sprintf("(w.name ILIKE $%d OR w.email ILIKE $%d)", len(args), len(args)))
	}
	if f.ActiveOnly {
		wheres = append(wheres, "w.active = TRUE")
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY w.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
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

type WorkerUpdate struct {
	Name              *string
	Email             *string
	Phone             *string
	Skills            *[]string
	SkillLevel        *string
	Certifications    *[]string
	MaxTicketsPerDay  *int
	PerformanceRating *float64
	FirstTimeFixRate  *float64
	ServiceAreas      *[]string
	Active            *bool
}

func (s *Store) UpdateWorker(ctx context.Context, id int64, upd WorkerUpdate) (models.Worker, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Skills != nil {
		add("skills", skillsOrEmpty(*upd.Skills))
	}
	if upd.SkillLevel != nil {
		add("skill_level", *upd.SkillLevel)
	}
	if upd.Certifications != nil {
		add("certifications", skillsOrEmpty(*upd.Certifications))
	}
	if upd.MaxTicketsPerDay != nil {
		add("max_tickets_per_day", *upd.MaxTicketsPerDay)
	}
	if upd.PerformanceRating != nil {
		add("performance_rating", *upd.PerformanceRating)
	}
	if upd.FirstTimeFixRate != nil {
		add("first_time_fix_rate", *upd.FirstTimeFixRate)
	}
	if upd.ServiceAreas != nil {
		add("service_areas", skillsOrEmpty(*upd.ServiceAreas))
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}

	if len(sets) == 0 {
		return s.GetWorker(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE workers AS w SET %s WHERE w.id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), workerColumns)
	return scanWorker(s.Pool.QueryRow(ctx, query, args...))
}

func (s *Store) UpdateWorkerLocation(ctx context.Context, id int64, lat, lng float64) (models.Worker, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE workers AS w SET current_lat = $1, current_lng = $2, updated_at = NOW()
		WHERE w.id = $3
		RETURNING `+workerColumns, lat, lng, id)
	return scanWorker(row)
}

func (s *Store) SetWorkerAvailability(ctx context.Context, id int64, status string) (models.Worker, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE workers AS w SET availability_status = $1, updated_at = NOW()
		WHERE w.id = $2
		RETURNING `+workerColumns, status, id)
	return scanWorker(row)
}

// MarkWorkerBusy flips availability inside an assignment transaction.
func (s *Store) MarkWorkerBusy(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE workers SET availability_status = $1, updated_at = NOW() WHERE id = $2`,
		models.AvailabilityBusy, id)
	return err
}

// ReleaseWorker frees a worker after completion or cancellation and, when
// the job completed, credits the completion counter.
func (s *Store) ReleaseWorker(ctx context.Context, tx pgx.Tx, id int64, completed bool) error {
	if completed {
		_, err := tx.Exec(ctx, `
			UPDATE workers SET availability_status = $1, total_completed = total_completed + 1,
				updated_at = NOW()
			WHERE id = $2`, models.AvailabilityAvailable, id)
		return err
	}
	_, err := tx.Exec(ctx,
		`UPDATE workers SET availability_status = $1, updated_at = NOW() WHERE id = $2`,
		models.AvailabilityAvailable, id)
	return err
}
