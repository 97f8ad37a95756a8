package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/schedcore/timetable-api/internal/models"
	"github.com/schedcore/timetable-api/internal/semester"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
)

type templateReader interface {
	ListByOccurrence(ctx context.Context, evenWeek bool, weekday time.Weekday) ([]models.TemplateEntry, error)
}

type sessionReader interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.Session, error)
}

type sessionMaterializer interface {
	sessionReader
	CreateBatch(ctx context.Context, sessions []models.Session) error
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type professorLister interface {
	List(ctx context.Context) ([]models.Professor, error)
}

// SchedulerService materializes the concrete timetable out of the recurring
// template catalogue and answers read queries over it.
type SchedulerService struct {
	templates  templateReader
	sessions   sessionMaterializer
	rooms      roomLister
	professors professorLister
	calendar   *semester.Calendar
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewSchedulerService instantiates SchedulerService.
func NewSchedulerService(
	templates templateReader,
	sessions sessionMaterializer,
	rooms roomLister,
	professors professorLister,
	calendar *semester.Calendar,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *SchedulerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerService{
		templates:  templates,
		sessions:   sessions,
		rooms:      rooms,
		professors: professors,
		calendar:   calendar,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Materialize returns the sessions taking place on the date, generating them
// from the template catalogue on first access. Weekends and dates outside the
// semester yield an empty schedule, not an error. Materialization is
// idempotent: once sessions exist for a date they are returned as stored,
// including any one-off divergence from their templates.
func (s *SchedulerService) Materialize(ctx context.Context, date time.Time) ([]models.Session, error) {
	date = semester.Normalize(date)
	if !s.calendar.IsSemesterDate(date) {
		return nil, nil
	}

	existing, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to load sessions")
	}
	if len(existing) > 0 {
		return existing, nil
	}

	evenWeek := s.calendar.EvenWeek(date)
	entries, err := s.templates.ListByOccurrence(ctx, evenWeek, date.Weekday())
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to load templates")
	}
	if len(entries) == 0 {
		return nil, nil
	}

	generated := lo.Map(entries, func(entry models.TemplateEntry, _ int) models.Session {
		templateID := entry.ID
		return models.Session{
			TemplateID:  &templateID,
			Date:        date,
			Weekday:     entry.Weekday,
			Period:      entry.Period,
			RoomID:      entry.RoomID,
			CourseID:    entry.CourseID,
			GroupID:     entry.GroupID,
			ProfessorID: entry.ProfessorID,
		}
	})

	// Nothing is committed on failure, so the caller may simply retry.
	if err := s.sessions.CreateBatch(ctx, generated); err != nil {
		return nil, appErrors.WrapStorage(err, "failed to store materialized sessions")
	}

	if s.metrics != nil {
		s.metrics.RecordMaterialization(len(generated))
	}
	s.logger.Debug("materialized sessions",
		zap.Time("date", date),
		zap.Bool("even_week", evenWeek),
		zap.Int("count", len(generated)),
	)

	// Re-read so a concurrent materialization of the same date converges on
	// the committed rows regardless of which caller won the insert.
	stored, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to reload sessions")
	}
	return stored, nil
}

// RangeSchedule materializes every semester date in [start, end] and returns
// the concatenated sessions in natural order (date, period, room, group,
// course, professor).
func (s *SchedulerService) RangeSchedule(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	start = semester.Normalize(start)
	end = semester.Normalize(end)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes range start")
	}

	key := rangeCacheKey(start, end)
	var cached []models.Session
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	var schedule []models.Session
	for _, date := range s.calendar.Dates(start, end) {
		sessions, err := s.Materialize(ctx, date)
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, sessions...)
	}
	sort.Slice(schedule, func(i, j int) bool { return schedule[i].Less(schedule[j]) })

	s.cache.Set(ctx, key, schedule)
	return schedule, nil
}

// WeekSchedule returns the schedule of the given 1-based semester week.
func (s *SchedulerService) WeekSchedule(ctx context.Context, week int) ([]models.Session, error) {
	if week < 1 || week > s.calendar.Weeks() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("week out of semester range: %d", week))
	}
	monday, friday := s.calendar.WeekBounds(week)
	return s.RangeSchedule(ctx, monday, friday)
}

// MonthSchedule returns the schedule of the semester days within the month.
func (s *SchedulerService) MonthSchedule(ctx context.Context, month time.Month) ([]models.Session, error) {
	first, last, err := s.calendar.MonthBounds(month)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return s.RangeSchedule(ctx, first, last)
}

// AvailableRooms returns every room free at the given date and period,
// checked against both the recurring templates and the materialized sessions.
func (s *SchedulerService) AvailableRooms(ctx context.Context, date time.Time, period models.Period) ([]models.Room, error) {
	busy, err := s.occupancyAt(ctx, date, period)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to list rooms")
	}
	return lo.Filter(rooms, func(room models.Room, _ int) bool {
		_, taken := busy.rooms[room.ID]
		return !taken
	}), nil
}

// AvailableProfessors returns every professor free at the given date and period.
func (s *SchedulerService) AvailableProfessors(ctx context.Context, date time.Time, period models.Period) ([]models.Professor, error) {
	busy, err := s.occupancyAt(ctx, date, period)
	if err != nil {
		return nil, err
	}
	professors, err := s.professors.List(ctx)
	if err != nil {
		return nil, appErrors.WrapStorage(err, "failed to list professors")
	}
	return lo.Filter(professors, func(professor models.Professor, _ int) bool {
		_, taken := busy.professors[professor.ID]
		return !taken
	}), nil
}

// slotOccupancy is the set of entities committed at one concrete moment.
type slotOccupancy struct {
	rooms      map[string]struct{}
	groups     map[string]struct{}
	professors map[string]struct{}
}

func newSlotOccupancy() slotOccupancy {
	return slotOccupancy{
		rooms:      make(map[string]struct{}),
		groups:     make(map[string]struct{}),
		professors: make(map[string]struct{}),
	}
}

func (o slotOccupancy) addTemplate(entry models.TemplateEntry) {
	o.rooms[entry.RoomID] = struct{}{}
	o.groups[entry.GroupID] = struct{}{}
	o.professors[entry.ProfessorID] = struct{}{}
}

func (o slotOccupancy) addSession(session models.Session) {
	o.rooms[session.RoomID] = struct{}{}
	o.groups[session.GroupID] = struct{}{}
	o.professors[session.ProfessorID] = struct{}{}
}

// occupancyAt collapses the recurring and one-off commitments of one
// (date, period) moment into busy-entity sets.
func (s *SchedulerService) occupancyAt(ctx context.Context, date time.Time, period models.Period) (slotOccupancy, error) {
	date = semester.Normalize(date)
	busy := newSlotOccupancy()

	entries, err := s.templates.ListByOccurrence(ctx, s.calendar.EvenWeek(date), date.Weekday())
	if err != nil {
		return busy, appErrors.WrapStorage(err, "failed to load templates")
	}
	for _, entry := range entries {
		if entry.Period == period {
			busy.addTemplate(entry)
		}
	}

	sessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return busy, appErrors.WrapStorage(err, "failed to load sessions")
	}
	for _, session := range sessions {
		if session.Period == period {
			busy.addSession(session)
		}
	}

	return busy, nil
}

func rangeCacheKey(start, end time.Time) string {
	return fmt.Sprintf("schedule:range:%s:%s", start.Format(time.DateOnly), end.Format(time.DateOnly))
}

// scheduleCachePattern matches every cached timetable view.
const scheduleCachePattern = "schedule:*"
