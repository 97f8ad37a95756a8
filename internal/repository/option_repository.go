package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/schedcore/timetable-api/internal/models"
)

// OptionRepository reads the enumerated universe of reschedule target slots.
// The catalogue is populated once by the generator and treated as read-only.
type OptionRepository struct {
	db *sqlx.DB
}

// NewOptionRepository creates a new option repository.
func NewOptionRepository(db *sqlx.DB) *OptionRepository {
	return &OptionRepository{db: db}
}

const optionSelect = `SELECT o.id, o.weekday, o.period, o.room_id, r.name AS room_name
FROM reschedule_options o
JOIN rooms r ON r.id = o.room_id`

// ListByWeekday returns every candidate slot on the weekday, ordered by
// (period, room).
func (r *OptionRepository) ListByWeekday(ctx context.Context, weekday time.Weekday) ([]models.RescheduleOption, error) {
	query := optionSelect + ` WHERE o.weekday = $1 ORDER BY o.period ASC, room_name ASC`
	var options []models.RescheduleOption
	if err := r.db.SelectContext(ctx, &options, query, weekday); err != nil {
		return nil, fmt.Errorf("list options by weekday: %w", err)
	}
	return options, nil
}

// List returns the full option catalogue ordered by (weekday, period, room).
func (r *OptionRepository) List(ctx context.Context) ([]models.RescheduleOption, error) {
	query := optionSelect + ` ORDER BY o.weekday ASC, o.period ASC, room_name ASC`
	var options []models.RescheduleOption
	if err := r.db.SelectContext(ctx, &options, query); err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	return options, nil
}
