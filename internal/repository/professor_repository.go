package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/schedcore/timetable-api/internal/models"
)

// ProfessorRepository provides persistence for professors.
type ProfessorRepository struct {
	db *sqlx.DB
}

// NewProfessorRepository creates a new professor repository.
func NewProfessorRepository(db *sqlx.DB) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

// List returns all professors ordered by last name, then first name.
func (r *ProfessorRepository) List(ctx context.Context) ([]models.Professor, error) {
	const query = `SELECT id, first_name, last_name, created_at, updated_at FROM professors ORDER BY last_name ASC, first_name ASC`
	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, query); err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}
	return professors, nil
}

// FindByID loads a professor by id.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	const query = `SELECT id, first_name, last_name, created_at, updated_at FROM professors WHERE id = $1`
	var professor models.Professor
	if err := r.db.GetContext(ctx, &professor, query, id); err != nil {
		return nil, err
	}
	return &professor, nil
}

// Rename updates the professor's first and last names.
func (r *ProfessorRepository) Rename(ctx context.Context, id, firstName, lastName string) error {
	const query = `UPDATE professors SET first_name = $2, last_name = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, firstName, lastName, time.Now().UTC()); err != nil {
		return fmt.Errorf("rename professor: %w", err)
	}
	return nil
}
