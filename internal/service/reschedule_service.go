package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/schedcore/timetable-api/internal/models"
	"github.com/schedcore/timetable-api/internal/semester"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
)

type templateStore interface {
	templateReader
	FindByID(ctx context.Context, id string) (*models.TemplateEntry, error)
	UpdateSlot(ctx context.Context, exec sqlx.ExtContext, entry *models.TemplateEntry) error
}

type sessionStore interface {
	sessionReader
	ListByTemplate(ctx context.Context, templateID string) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	UpdateSlot(ctx context.Context, session *models.Session) error
	UpdateProfessor(ctx context.Context, id, professorID string) error
	ShiftByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string, deltaDays int, weekday time.Weekday, period models.Period, roomID string) error
}

type optionReader interface {
	ListByWeekday(ctx context.Context, weekday time.Weekday) ([]models.RescheduleOption, error)
}

type professorGetter interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// RescheduleTarget is a reschedule option paired with a concrete date.
// The date fixes both the weekday and the week of the rotation.
type RescheduleTarget struct {
	Date   time.Time     `json:"date" validate:"required"`
	Period models.Period `json:"period" validate:"required"`
	RoomID string        `json:"room_id" validate:"required"`
}

// RescheduleService searches conflict-free alternative slots for a session
// and applies one-off or permanent moves.
type RescheduleService struct {
	templates  templateStore
	sessions   sessionStore
	options    optionReader
	professors professorGetter
	tx         txProvider
	calendar   *semester.Calendar
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewRescheduleService instantiates RescheduleService.
func NewRescheduleService(
	templates templateStore,
	sessions sessionStore,
	options optionReader,
	professors professorGetter,
	tx txProvider,
	calendar *semester.Calendar,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RescheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescheduleService{
		templates:  templates,
		sessions:   sessions,
		options:    options,
		professors: professors,
		tx:         tx,
		calendar:   calendar,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// OptionsFor returns, for every semester date in [start, end], the candidate
// slots the session could move into without double-booking a room, its group
// or its professor. Dates with no valid option map to an empty slice so
// callers can tell "no options" from "date outside range". Keys use the
// ISO date format.
func (s *RescheduleService) OptionsFor(ctx context.Context, sessionID string, start, end time.Time) (map[string][]models.RescheduleOption, error) {
	started := time.Now()
	candidate, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]models.RescheduleOption)
	for _, date := range s.calendar.Dates(start, end) {
		options, err := s.optionsOn(ctx, candidate, date)
		if err != nil {
			return nil, err
		}
		result[date.Format(time.DateOnly)] = options
	}

	if s.metrics != nil {
		s.metrics.ObserveOptionSearch(time.Since(started))
	}
	return result, nil
}

// optionsOn filters the weekday's option universe against the recurring and
// one-off commitments in effect on the date. The candidate's own template and
// session never count as blockers: they are exactly what is being moved.
func (s *RescheduleService) optionsOn(ctx context.Context, candidate *models.Session, date time.Time) ([]models.RescheduleOption, error) {
	weekday := date.Weekday()
	universe, err := s.options.ListByWeekday(ctx, weekday)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to load reschedule options")
	}

	entries, err := s.templates.ListByOccurrence(ctx, s.calendar.EvenWeek(date), weekday)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to load templates")
	}
	daySessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to load sessions")
	}

	type slot struct {
		period models.Period
		roomID string
	}
	busyRooms := make(map[slot]struct{})
	busyPeriods := make(map[models.Period]struct{})

	for _, entry := range entries {
		if s.ownTemplate(candidate, entry.ID) {
			continue
		}
		busyRooms[slot{entry.Period, entry.RoomID}] = struct{}{}
		if entry.GroupID == candidate.GroupID || entry.ProfessorID == candidate.ProfessorID {
			busyPeriods[entry.Period] = struct{}{}
		}
	}
	for _, session := range daySessions {
		if session.ID == candidate.ID {
			continue
		}
		busyRooms[slot{session.Period, session.RoomID}] = struct{}{}
		if session.GroupID == candidate.GroupID || session.ProfessorID == candidate.ProfessorID {
			busyPeriods[session.Period] = struct{}{}
		}
	}

	// Always return a non-nil slice so an option-free date still serializes
	// as [].
	options := make([]models.RescheduleOption, 0, len(universe))
	for _, option := range universe {
		if _, taken := busyPeriods[option.Period]; taken {
			continue
		}
		if _, taken := busyRooms[slot{option.Period, option.RoomID}]; taken {
			continue
		}
		options = append(options, option)
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Less(options[j]) })
	return options, nil
}

// RescheduleOnce moves the single session to the target slot as a one-off
// exception. The owning template and every sibling session stay untouched.
func (s *RescheduleService) RescheduleOnce(ctx context.Context, sessionID string, target RescheduleTarget) (*models.Session, error) {
	candidate, err := s.validateTarget(ctx, sessionID, target)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTargetFree(ctx, candidate, target, false); err != nil {
		return nil, err
	}

	candidate.Date = semester.Normalize(target.Date)
	candidate.Weekday = target.Date.Weekday()
	candidate.Period = target.Period
	candidate.RoomID = target.RoomID
	if err := s.sessions.UpdateSlot(ctx, candidate); err != nil {
		return nil, appErrors.WrapStorage(err, "failed to move session")
	}

	s.cache.Invalidate(ctx, scheduleCachePattern)
	if s.metrics != nil {
		s.metrics.RecordReschedule(RescheduleModeOnce)
	}
	s.logger.Info("session rescheduled once",
		zap.String("session_id", candidate.ID),
		zap.Time("date", candidate.Date),
		zap.Stringer("period", candidate.Period),
	)
	return s.findSession(ctx, candidate.ID)
}

// ReschedulePermanently rewrites the owning template to the target slot and
// moves its whole materialized footprint with it: every linked session takes
// the new weekday/period/room and shifts by the same signed day delta, so
// each instance keeps its offset relative to the one that triggered the move.
// Template update and propagation commit as one transaction.
func (s *RescheduleService) ReschedulePermanently(ctx context.Context, sessionID string, target RescheduleTarget) ([]models.Session, error) {
	candidate, err := s.validateTarget(ctx, sessionID, target)
	if err != nil {
		return nil, err
	}
	if candidate.TemplateID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session is detached from its template")
	}
	entry, err := s.templates.FindByID(ctx, *candidate.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.WrapStorage(err, "failed to load template")
	}
	if err := s.ensureTargetFree(ctx, candidate, target, true); err != nil {
		return nil, err
	}

	targetDate := semester.Normalize(target.Date)
	deltaDays := int(targetDate.Sub(semester.Normalize(candidate.Date)).Hours() / 24)

	entry.EvenWeek = s.calendar.EvenWeek(targetDate)
	entry.Weekday = targetDate.Weekday()
	entry.Period = target.Period
	entry.RoomID = target.RoomID
	// The candidate may have diverged before this call; the template follows it.
	entry.CourseID = candidate.CourseID
	entry.GroupID = candidate.GroupID
	entry.ProfessorID = candidate.ProfessorID

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.templates.UpdateSlot(ctx, tx, entry); err != nil {
		err = appErrors.WrapStorage(err, "failed to update template")
		return nil, err
	}
	if err = s.sessions.ShiftByTemplate(ctx, tx, entry.ID, deltaDays, entry.Weekday, entry.Period, entry.RoomID); err != nil {
		err = appErrors.WrapStorage(err, "failed to propagate template move")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.WrapStorage(err, "failed to commit template move")
		return nil, err
	}

	s.cache.Invalidate(ctx, scheduleCachePattern)
	if s.metrics != nil {
		s.metrics.RecordReschedule(RescheduleModePermanent)
	}
	s.logger.Info("template rescheduled permanently",
		zap.String("template_id", entry.ID),
		zap.Time("target_date", targetDate),
		zap.Int("delta_days", deltaDays),
	)

	moved, err := s.sessions.ListByTemplate(ctx, entry.ID)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to reload moved sessions")
	}
	return moved, nil
}

// Substitute replaces the professor of a single session. No conflict search
// happens here: callers pick from AvailableProfessors first.
func (s *RescheduleService) Substitute(ctx context.Context, sessionID, professorID string) (*models.Session, error) {
	candidate, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.professors.FindByID(ctx, professorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.WrapStorage(err, "failed to load professor")
	}

	if err := s.sessions.UpdateProfessor(ctx, candidate.ID, professorID); err != nil {
		return nil, appErrors.WrapStorage(err, "failed to substitute professor")
	}

	s.cache.Invalidate(ctx, scheduleCachePattern)
	if s.metrics != nil {
		s.metrics.RecordSubstitution()
	}
	return s.findSession(ctx, candidate.ID)
}

func (s *RescheduleService) findSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.WrapStorage(err, "failed to load session")
	}
	return session, nil
}

func (s *RescheduleService) validateTarget(ctx context.Context, sessionID string, target RescheduleTarget) (*models.Session, error) {
	if err := s.validator.Struct(target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule target")
	}
	if !target.Period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid period: %d", target.Period))
	}
	if !s.calendar.IsSemesterDate(target.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target date is not a teaching day of the semester")
	}
	return s.findSession(ctx, sessionID)
}

// ensureTargetFree re-derives the conflict predicates for the target slot
// before mutating anything. Option search already filters these out, but
// callers are not forced through it, so the engine re-checks instead of
// trusting them with the no-double-booking invariant.
func (s *RescheduleService) ensureTargetFree(ctx context.Context, candidate *models.Session, target RescheduleTarget, wholeTemplateMoves bool) error {
	date := semester.Normalize(target.Date)
	weekday := date.Weekday()

	entries, err := s.templates.ListByOccurrence(ctx, s.calendar.EvenWeek(date), weekday)
	if err != nil {
		return appErrors.WrapStorage(err, "failed to load templates")
	}
	for _, entry := range entries {
		if entry.Period != target.Period || s.ownTemplate(candidate, entry.ID) {
			continue
		}
		if entry.RoomID == target.RoomID {
			return s.conflict(models.ConflictRoom, "room is recurringly booked at the target slot", date, target, entry.RoomID, "", "")
		}
		if entry.GroupID == candidate.GroupID {
			return s.conflict(models.ConflictGroup, "group has a recurring class at the target slot", date, target, "", entry.GroupID, "")
		}
		if entry.ProfessorID == candidate.ProfessorID {
			return s.conflict(models.ConflictProfessor, "professor has a recurring class at the target slot", date, target, "", "", entry.ProfessorID)
		}
	}

	daySessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return appErrors.WrapStorage(err, "failed to load sessions")
	}
	for _, session := range daySessions {
		if session.Period != target.Period || session.ID == candidate.ID {
			continue
		}
		// Siblings shift together during a permanent move and vacate their slots.
		if wholeTemplateMoves && session.TemplateID != nil && candidate.TemplateID != nil && *session.TemplateID == *candidate.TemplateID {
			continue
		}
		if session.RoomID == target.RoomID {
			return s.conflict(models.ConflictRoom, "room is booked at the target slot", date, target, session.RoomID, "", "")
		}
		if session.GroupID == candidate.GroupID {
			return s.conflict(models.ConflictGroup, "group already has a class at the target slot", date, target, "", session.GroupID, "")
		}
		if session.ProfessorID == candidate.ProfessorID {
			return s.conflict(models.ConflictProfessor, "professor already has a class at the target slot", date, target, "", "", session.ProfessorID)
		}
	}
	return nil
}

func (s *RescheduleService) ownTemplate(candidate *models.Session, templateID string) bool {
	return candidate.TemplateID != nil && *candidate.TemplateID == templateID
}

func (s *RescheduleService) conflict(dimension, message string, date time.Time, target RescheduleTarget, roomID, groupID, professorID string) error {
	domainErr := &models.SlotConflictError{
		Message: message,
		Conflict: models.SlotConflict{
			Dimension:   dimension,
			Date:        &date,
			EvenWeek:    s.calendar.EvenWeek(date),
			Weekday:     date.Weekday(),
			Period:      target.Period,
			RoomID:      roomID,
			GroupID:     groupID,
			ProfessorID: professorID,
		},
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("reschedule conflict: %s", message))
}
