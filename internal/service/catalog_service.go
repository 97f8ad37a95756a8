package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schedcore/timetable-api/internal/models"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
)

type roomCatalog interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Rename(ctx context.Context, id, name string) error
}

type professorCatalog interface {
	List(ctx context.Context) ([]models.Professor, error)
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	Rename(ctx context.Context, id, firstName, lastName string) error
}

type groupCatalog interface {
	List(ctx context.Context) ([]models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	Rename(ctx context.Context, id, name string) error
}

type courseCatalog interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Rename(ctx context.Context, id, name string) error
}

type templateLister interface {
	List(ctx context.Context, weekday *time.Weekday, evenWeek *bool) ([]models.TemplateEntry, error)
}

// RenameRequest updates the display name of a value entity.
type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

// RenameProfessorRequest updates both name parts of a professor.
type RenameProfessorRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// CatalogService serves the identified value entities the schedule is built
// from. Entities are created by the out-of-band generator; only renames
// happen here.
type CatalogService struct {
	rooms      roomCatalog
	professors professorCatalog
	groups     groupCatalog
	courses    courseCatalog
	templates  templateLister
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCatalogService instantiates CatalogService.
func NewCatalogService(rooms roomCatalog, professors professorCatalog, groups groupCatalog, courses courseCatalog, templates templateLister, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{rooms: rooms, professors: professors, groups: groups, courses: courses, templates: templates, validator: validate, logger: logger}
}

// ListRooms returns every room.
func (s *CatalogService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to list rooms")
	}
	return rooms, nil
}

// ListProfessors returns every professor.
func (s *CatalogService) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	professors, err := s.professors.List(ctx)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to list professors")
	}
	return professors, nil
}

// ListGroups returns every student group.
func (s *CatalogService) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to list groups")
	}
	return groups, nil
}

// ListCourses returns every course.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to list courses")
	}
	return courses, nil
}

// ListTemplates returns the recurring assignment catalogue, optionally
// narrowed to a weekday and a rotation week.
func (s *CatalogService) ListTemplates(ctx context.Context, weekday *time.Weekday, evenWeek *bool) ([]models.TemplateEntry, error) {
	entries, err := s.templates.List(ctx, weekday, evenWeek)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to list templates")
	}
	return entries, nil
}

// RenameRoom updates a room's display name.
func (s *CatalogService) RenameRoom(ctx context.Context, id string, req RenameRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	if _, err := s.rooms.FindByID(ctx, id); err != nil {
		return nil, s.mapLookupErr(err, "room not found")
	}
	if err := s.rooms.Rename(ctx, id, req.Name); err != nil {
		return nil, appErrors.WrapStorage(err, "failed to rename room")
	}
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to reload room")
	}
	return room, nil
}

// RenameProfessor updates a professor's names.
func (s *CatalogService) RenameProfessor(ctx context.Context, id string, req RenameProfessorRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	if _, err := s.professors.FindByID(ctx, id); err != nil {
		return nil, s.mapLookupErr(err, "professor not found")
	}
	if err := s.professors.Rename(ctx, id, req.FirstName, req.LastName); err != nil {
		return nil, appErrors.WrapStorage(err, "failed to rename professor")
	}
	professor, err := s.professors.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to reload professor")
	}
	return professor, nil
}

// RenameGroup updates a group's display name.
func (s *CatalogService) RenameGroup(ctx context.Context, id string, req RenameRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	if _, err := s.groups.FindByID(ctx, id); err != nil {
		return nil, s.mapLookupErr(err, "group not found")
	}
	if err := s.groups.Rename(ctx, id, req.Name); err != nil {
		return nil, appErrors.WrapStorage(err, "failed to rename group")
	}
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to reload group")
	}
	return group, nil
}

// RenameCourse updates a course's display name.
func (s *CatalogService) RenameCourse(ctx context.Context, id string, req RenameRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		return nil, s.mapLookupErr(err, "course not found")
	}
	if err := s.courses.Rename(ctx, id, req.Name); err != nil {
		return nil, appErrors.WrapStorage(err, "failed to rename course")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to reload course")
	}
	return course, nil
}

func (s *CatalogService) mapLookupErr(err error, notFound string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.WrapStorage(err, "lookup failed")
}
