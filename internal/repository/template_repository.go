package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/schedcore/timetable-api/internal/models"
)

const templateColumns = `t.id, t.even_week, t.weekday, t.period, t.room_id, t.course_id, t.group_id, t.professor_id, t.created_at, t.updated_at,
r.name AS room_name, c.name AS course_name, g.name AS group_name, p.first_name || ' ' || p.last_name AS professor_name`

const templateJoins = `FROM timetable_templates t
JOIN rooms r ON r.id = t.room_id
JOIN courses c ON c.id = t.course_id
JOIN student_groups g ON g.id = t.group_id
JOIN professors p ON p.id = t.professor_id`

// TemplateRepository provides read and slot-update access to the recurring
// assignment catalogue. Entries are created by the out-of-band generator.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// ListByOccurrence returns the entries recurring on the given rotation week
// and weekday, across all periods.
func (r *TemplateRepository) ListByOccurrence(ctx context.Context, evenWeek bool, weekday time.Weekday) ([]models.TemplateEntry, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.even_week = $1 AND t.weekday = $2 ORDER BY t.period ASC, room_name ASC", templateColumns, templateJoins)
	var entries []models.TemplateEntry
	if err := r.db.SelectContext(ctx, &entries, query, evenWeek, weekday); err != nil {
		return nil, fmt.Errorf("list templates by occurrence: %w", err)
	}
	return entries, nil
}

// List returns the whole catalogue, optionally narrowed to one weekday.
func (r *TemplateRepository) List(ctx context.Context, weekday *time.Weekday, evenWeek *bool) ([]models.TemplateEntry, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE 1=1", templateColumns, templateJoins)
	var args []interface{}
	if evenWeek != nil {
		args = append(args, *evenWeek)
		query += fmt.Sprintf(" AND t.even_week = $%d", len(args))
	}
	if weekday != nil {
		args = append(args, *weekday)
		query += fmt.Sprintf(" AND t.weekday = $%d", len(args))
	}
	query += " ORDER BY t.even_week ASC, t.weekday ASC, t.period ASC, room_name ASC"

	var entries []models.TemplateEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return entries, nil
}

// FindByID loads a template entry by id.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.TemplateEntry, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.id = $1", templateColumns, templateJoins)
	var entry models.TemplateEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateSlot rewrites the recurring slot of a template: rotation week,
// weekday, period, room, plus the taught triple refreshed from the entry.
// Runs on the caller's transaction during a permanent reschedule.
func (r *TemplateRepository) UpdateSlot(ctx context.Context, exec sqlx.ExtContext, entry *models.TemplateEntry) error {
	if exec == nil {
		exec = r.db
	}
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_templates SET even_week = :even_week, weekday = :weekday, period = :period, room_id = :room_id, course_id = :course_id, group_id = :group_id, professor_id = :professor_id, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("update template slot: %w", err)
	}
	return nil
}
