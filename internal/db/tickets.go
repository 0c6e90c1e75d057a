package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fieldforge/backend/internal/models"
)

const ticketColumns = `id, tracking_token, title, description, severity, status, category,
	equipment_type, address, lat, lng, skills_required, time_estimate_minutes, sla_deadline,
	confidence_score, assigned_worker_id, customer_name, customer_phone, customer_email,
	customer_tier, created_at, updated_at, completed_at`

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var t models.Ticket
	var severity string
	err := row.Scan(&t.ID, &t.TrackingToken, &t.Title, &t.Description, &severity, &t.Status,
		&t.Category, &t.EquipmentType, &t.Address, &t.Lat, &t.Lng, &t.SkillsRequired,
		&t.TimeEstimateMinutes, &t.SLADeadline, &t.ConfidenceScore, &t.AssignedWorkerID,
		&t.CustomerName, &t.CustomerPhone, &t.CustomerEmail, &t.CustomerTier,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt)
	t.Severity = models.Severity(severity)
	return t, err
}

func (s *Store) CreateTicket(ctx context.Context, t models.Ticket) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO tickets (tracking_token, title, description, severity, status, category,
			equipment_type, address, lat, lng, skills_required, time_estimate_minutes,
			sla_deadline, confidence_score, customer_name, customer_phone, customer_email,
			customer_tier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING `+ticketColumns,
		t.TrackingToken, t.Title, t.Description, string(t.Severity), t.Status, t.Category,
		t.EquipmentType, t.Address, t.Lat, t.Lng, skillsOrEmpty(t.SkillsRequired),
		t.TimeEstimateMinutes, t.SLADeadline, t.ConfidenceScore,
		t.CustomerName, t.CustomerPhone, t.CustomerEmail, tierOrStandard(t.CustomerTier))
	return scanTicket(row)
}

func (s *Store) GetTicket(ctx context.Context, id int64) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

func (s *Store) GetTicketByToken(ctx context.Context, token string) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE tracking_token = $1`, token)
	return scanTicket(row)
}

type TicketFilter struct {
	Status   string
	Severity string
	Search   string
	Limit    int
	Offset   int
}

func (s *Store) ListTickets(ctx context.Context, f TicketFilter) ([]models.Ticket, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []any
	var wheres []string
	if f.Status != "" {
		args = append(args, f.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Severity != "" {
		args = append(args, f.Severity)
		wheres = append(wheres, fmt.Sprintf("severity = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		wheres = append(wheres, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR customer_name ILIKE $%d)", len(args), len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// ListTicketsForWorker returns the geocoded tickets on a worker's plate,
// the stop list for route sequencing.
func (s *Store) ListTicketsForWorker(ctx context.Context, workerID int64) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE assigned_worker_id = $1 AND status NOT IN ('completed','cancelled')
			AND lat IS NOT NULL AND lng IS NOT NULL
		ORDER BY id ASC`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]models.Ticket, error) {
	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ApplyAnalysis writes classifier output onto a ticket together with the SLA
// deadline derived from it, and moves the ticket to the given status.
func (s *Store) ApplyAnalysis(ctx context.Context, id int64, a models.TicketAnalysis, deadline *time.Time, status string) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE tickets
		SET severity = $1, category = $2, equipment_type = $3, skills_required = $4,
			time_estimate_minutes = $5, confidence_score = $6, sla_deadline = $7,
			status = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING `+ticketColumns,
		string(a.Severity), a.Category, a.EquipmentType, skillsOrEmpty(a.SkillsRequired),
		a.TimeEstimateMinutes, a.Confidence, deadline, status, id)
	return scanTicket(row)
}

type TicketUpdate struct {
	Title               *string
	Description         *string
	Severity            *string
	Status              *string
	Category            *string
	EquipmentType       *string
	Address             *string
	Lat                 *float64
	Lng                 *float64
	SkillsRequired      *[]string
	TimeEstimateMinutes *int
	SLADeadline         *time.Time
	CustomerName        *string
	CustomerPhone       *string
	CustomerEmail       *string
	CustomerTier        *string
}

// UpdateTicket applies the non-nil fields of upd. A status change to
// completed stamps completed_at.
func (s *Store) UpdateTicket(ctx context.Context, id int64, upd TicketUpdate) (models.Ticket, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Severity != nil {
		add("severity", *upd.Severity)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
		if *upd.Status == models.TicketStatusCompleted {
			sets = append(sets, "completed_at = NOW()")
		}
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.EquipmentType != nil {
		add("equipment_type", *upd.EquipmentType)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.Lat != nil {
		add("lat", *upd.Lat)
	}
	if upd.Lng != nil {
		add("lng", *upd.Lng)
	}
	if upd.SkillsRequired != nil {
		add("skills_required", skillsOrEmpty(*upd.SkillsRequired))
	}
	if upd.TimeEstimateMinutes != nil {
		add("time_estimate_minutes", *upd.TimeEstimateMinutes)
	}
	if upd.SLADeadline != nil {
		add("sla_deadline", *upd.SLADeadline)
	}
	if upd.CustomerName != nil {
		add("customer_name", *upd.CustomerName)
	}
	if upd.CustomerPhone != nil {
		add("customer_phone", *upd.CustomerPhone)
	}
	if upd.CustomerEmail != nil {
		add("customer_email", *upd.CustomerEmail)
	}
	if upd.CustomerTier != nil {
		add("customer_tier", tierOrStandard(*upd.CustomerTier))
	}

	if len(sets) == 0 {
		return s.GetTicket(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), ticketColumns)
	return scanTicket(s.Pool.QueryRow(ctx, query, args...))
}

// UpdateTicketLocation backfills geocoded coordinates. Best-effort path, so
// it deliberately does not touch status or updated_at semantics beyond the
// timestamp bump.
func (s *Store) UpdateTicketLocation(ctx context.Context, id int64, lat, lng float64) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE tickets SET lat = $1, lng = $2, updated_at = NOW() WHERE id = $3`, lat, lng, id)
	return err
}

// SetTicketStatus moves a ticket inside an assignment transition. A move to
// completed also stamps completed_at.
func (s *Store) SetTicketStatus(ctx context.Context, tx pgx.Tx, id int64, status string) error {
	if status == models.TicketStatusCompleted {
		_, err := tx.Exec(ctx,
			`UPDATE tickets SET status = $1, completed_at = NOW(), updated_at = NOW() WHERE id = $2`, status, id)
		return err
	}
	_, err := tx.Exec(ctx,
		`UPDATE tickets SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// AssignTicketWorker points a ticket at its worker and moves it to assigned.
func (s *Store) AssignTicketWorker(ctx context.Context, tx pgx.Tx, ticketID, workerID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE tickets SET assigned_worker_id = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		workerID, models.TicketStatusAssigned, ticketID)
	return err
}

// ClearTicketWorker detaches the worker and reopens the ticket after a
// cancelled assignment.
func (s *Store) ClearTicketWorker(ctx context.Context, tx pgx.Tx, ticketID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE tickets SET assigned_worker_id = NULL, status = $1, updated_at = NOW() WHERE id = $2`,
		models.TicketStatusOpen, ticketID)
	return err
}

func skillsOrEmpty(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}

func tierOrStandard(tier string) string {
	if tier == "" {
		return "standard"
	}
	return tier
}
