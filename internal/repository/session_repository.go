package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schedcore/timetable-api/internal/models"
)

const sessionColumns = `s.id, s.template_id, s.date, s.weekday, s.period, s.room_id, s.course_id, s.group_id, s.professor_id, s.created_at, s.updated_at,
r.name AS room_name, c.name AS course_name, g.name AS group_name, p.first_name || ' ' || p.last_name AS professor_name`

const sessionJoins = `FROM sessions s
JOIN rooms r ON r.id = s.room_id
JOIN courses c ON c.id = s.course_id
JOIN student_groups g ON g.id = s.group_id
JOIN professors p ON p.id = s.professor_id`

// Natural timetable order: date, period, then names for deterministic ties.
const sessionOrder = `ORDER BY s.date ASC, s.period ASC, room_name ASC, group_name ASC, course_name ASC, professor_name ASC`

// SessionRepository provides persistence for materialized sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListByDate returns every session materialized for the date in natural order.
func (r *SessionRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.date = $1 %s", sessionColumns, sessionJoins, sessionOrder)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, date); err != nil {
		return nil, fmt.Errorf("list sessions by date: %w", err)
	}
	return sessions, nil
}

// ListByTemplate returns every session still linked to the template, ordered by date.
func (r *SessionRepository) ListByTemplate(ctx context.Context, templateID string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.template_id = $1 %s", sessionColumns, sessionJoins, sessionOrder)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, templateID); err != nil {
		return nil, fmt.Errorf("list sessions by template: %w", err)
	}
	return sessions, nil
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1", sessionColumns, sessionJoins)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateBatch inserts newly materialized sessions inside one transaction.
// The unique index on (template_id, date) makes concurrent materialization of
// the same date converge on a single set of rows: a loser of the race inserts
// nothing and re-reads what the winner committed.
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create sessions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const query = `INSERT INTO sessions (id, template_id, date, weekday, period, room_id, course_id, group_id, professor_id, created_at, updated_at)
VALUES (:id, :template_id, :date, :weekday, :period, :room_id, :course_id, :group_id, :professor_id, :created_at, :updated_at)
ON CONFLICT (template_id, date) DO NOTHING`
	for i := range sessions {
		payload := sessions[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = sqlx.NamedExecContext(ctx, tx, query, &payload); err != nil {
			err = fmt.Errorf("insert session: %w", err)
			return err
		}
		sessions[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create sessions: %w", err)
	}
	return nil
}

// UpdateSlot moves a single session to a new date/weekday/period/room.
// Course, group, professor and the template link stay untouched.
func (r *SessionRepository) UpdateSlot(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET date = :date, weekday = :weekday, period = :period, room_id = :room_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session slot: %w", err)
	}
	return nil
}

// UpdateProfessor replaces the professor teaching the session.
func (r *SessionRepository) UpdateProfessor(ctx context.Context, id, professorID string) error {
	const query = `UPDATE sessions SET professor_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, professorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update session professor: %w", err)
	}
	return nil
}

// ShiftByTemplate moves the whole materialized footprint of a template in one
// statement: every linked session gets the new weekday/period/room and its
// date shifted by deltaDays. Runs on the caller's transaction so the template
// update and the propagation commit together.
func (r *SessionRepository) ShiftByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string, deltaDays int, weekday time.Weekday, period models.Period, roomID string) error {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE sessions SET date = date + $2, weekday = $3, period = $4, room_id = $5, updated_at = $6 WHERE template_id = $1`
	if _, err := exec.ExecContext(ctx, query, templateID, deltaDays, weekday, period, roomID, time.Now().UTC()); err != nil {
		return fmt.Errorf("shift sessions by template: %w", err)
	}
	return nil
}
