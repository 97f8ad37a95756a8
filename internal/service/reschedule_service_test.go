package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcore/timetable-api/internal/models"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
)

type fakeTemplateStore struct {
	entries map[string]models.TemplateEntry
	updated *models.TemplateEntry
}

func newFakeTemplateStore(entries ...models.TemplateEntry) *fakeTemplateStore {
	store := &fakeTemplateStore{entries: make(map[string]models.TemplateEntry)}
	for _, entry := range entries {
		store.entries[entry.ID] = entry
	}
	return store
}

func (s *fakeTemplateStore) ListByOccurrence(_ context.Context, evenWeek bool, weekday time.Weekday) ([]models.TemplateEntry, error) {
	var out []models.TemplateEntry
	for _, entry := range s.entries {
		if entry.EvenWeek == evenWeek && entry.Weekday == weekday {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *fakeTemplateStore) FindByID(_ context.Context, id string) (*models.TemplateEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &entry, nil
}

func (s *fakeTemplateStore) UpdateSlot(_ context.Context, _ sqlx.ExtContext, entry *models.TemplateEntry) error {
	copied := *entry
	s.updated = &copied
	s.entries[entry.ID] = copied
	return nil
}

type fakeSessionStore struct {
	sessions map[string]models.Session
}

func newFakeSessionStore(sessions ...models.Session) *fakeSessionStore {
	store := &fakeSessionStore{sessions: make(map[string]models.Session)}
	for _, session := range sessions {
		store.sessions[session.ID] = session
	}
	return store
}

func (s *fakeSessionStore) ListByDate(_ context.Context, date time.Time) ([]models.Session, error) {
	var out []models.Session
	for _, session := range s.sessions {
		if session.Date.Equal(date) {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *fakeSessionStore) ListByTemplate(_ context.Context, templateID string) ([]models.Session, error) {
	var out []models.Session
	for _, session := range s.sessions {
		if session.TemplateID != nil && *session.TemplateID == templateID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *fakeSessionStore) FindByID(_ context.Context, id string) (*models.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

func (s *fakeSessionStore) UpdateSlot(_ context.Context, session *models.Session) error {
	stored := s.sessions[session.ID]
	stored.Date = session.Date
	stored.Weekday = session.Weekday
	stored.Period = session.Period
	stored.RoomID = session.RoomID
	s.sessions[session.ID] = stored
	return nil
}

func (s *fakeSessionStore) UpdateProfessor(_ context.Context, id, professorID string) error {
	stored := s.sessions[id]
	stored.ProfessorID = professorID
	s.sessions[id] = stored
	return nil
}

func (s *fakeSessionStore) ShiftByTemplate(_ context.Context, _ sqlx.ExtContext, templateID string, deltaDays int, weekday time.Weekday, period models.Period, roomID string) error {
	for id, session := range s.sessions {
		if session.TemplateID == nil || *session.TemplateID != templateID {
			continue
		}
		session.Date = session.Date.AddDate(0, 0, deltaDays)
		session.Weekday = weekday
		session.Period = period
		session.RoomID = roomID
		s.sessions[id] = session
	}
	return nil
}

type fakeOptionRepo struct {
	options []models.RescheduleOption
}

func (s *fakeOptionRepo) ListByWeekday(_ context.Context, weekday time.Weekday) ([]models.RescheduleOption, error) {
	var out []models.RescheduleOption
	for _, option := range s.options {
		if option.Weekday == weekday {
			out = append(out, option)
		}
	}
	return out, nil
}

type fakeProfessorGetter struct {
	known map[string]models.Professor
}

func (s *fakeProfessorGetter) FindByID(_ context.Context, id string) (*models.Professor, error) {
	professor, ok := s.known[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &professor, nil
}

// txMock wires a sqlmock-backed database in as the transaction provider; the
// fakes ignore the handed-down executor, so only Begin/Commit are observed.
func txMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func mondaySession(id, templateID string) models.Session {
	tpl := templateID
	return models.Session{
		ID:          id,
		TemplateID:  &tpl,
		Date:        time.Date(2020, time.September, 7, 0, 0, 0, 0, time.UTC),
		Weekday:     time.Monday,
		Period:      models.PeriodFirst,
		RoomID:      "room-1",
		CourseID:    "course-1",
		GroupID:     "group-1",
		ProfessorID: "prof-1",
	}
}

func newTestRescheduler(t *testing.T, templates *fakeTemplateStore, sessions *fakeSessionStore, options *fakeOptionRepo, professors *fakeProfessorGetter, tx txProvider) *RescheduleService {
	t.Helper()
	if options == nil {
		options = &fakeOptionRepo{}
	}
	if professors == nil {
		professors = &fakeProfessorGetter{}
	}
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	return NewRescheduleService(templates, sessions, options, professors, tx, testCalendar(t), cache, nil, nil, nil)
}

func TestOptionsForExcludesBusySlots(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	// Another group's recurring class holds P1/room-1; the candidate's group
	// has a one-off session at P2, blocking the whole period.
	templates := newFakeTemplateStore(models.TemplateEntry{
		ID: "tpl-2", EvenWeek: false, Weekday: time.Monday, Period: models.PeriodFirst,
		RoomID: "room-1", CourseID: "course-2", GroupID: "group-2", ProfessorID: "prof-2",
	})
	other := models.Session{
		ID: "sess-2", Date: candidate.Date, Weekday: time.Monday, Period: models.PeriodSecond,
		RoomID: "room-9", CourseID: "course-3", GroupID: "group-1", ProfessorID: "prof-3",
	}
	sessions := newFakeSessionStore(candidate, other)
	options := &fakeOptionRepo{options: []models.RescheduleOption{
		{ID: "opt-1", Weekday: time.Monday, Period: models.PeriodFirst, RoomID: "room-1", RoomName: "P1"},
		{ID: "opt-2", Weekday: time.Monday, Period: models.PeriodFirst, RoomID: "room-2", RoomName: "P2"},
		{ID: "opt-3", Weekday: time.Monday, Period: models.PeriodSecond, RoomID: "room-2", RoomName: "P2"},
	}}
	svc := newTestRescheduler(t, templates, sessions, options, nil, nil)

	monday := candidate.Date
	result, err := svc.OptionsFor(context.Background(), "sess-1", monday, monday)
	require.NoError(t, err)

	day := result[monday.Format(time.DateOnly)]
	require.Len(t, day, 1)
	assert.Equal(t, "opt-2", day[0].ID)
}

func TestOptionsForExcludesProfessorPeriod(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	// The candidate's professor teaches two recurring classes at P2 in other
	// rooms; the period must disappear from the options no matter the room.
	templates := newFakeTemplateStore(
		models.TemplateEntry{
			ID: "tpl-2", EvenWeek: false, Weekday: time.Monday, Period: models.PeriodSecond,
			RoomID: "room-5", CourseID: "course-2", GroupID: "group-2", ProfessorID: "prof-1",
		},
		models.TemplateEntry{
			ID: "tpl-3", EvenWeek: false, Weekday: time.Monday, Period: models.PeriodSecond,
			RoomID: "room-6", CourseID: "course-3", GroupID: "group-3", ProfessorID: "prof-1",
		},
	)
	options := &fakeOptionRepo{options: []models.RescheduleOption{
		{ID: "opt-1", Weekday: time.Monday, Period: models.PeriodSecond, RoomID: "room-2", RoomName: "P2"},
		{ID: "opt-2", Weekday: time.Monday, Period: models.PeriodSecond, RoomID: "room-3", RoomName: "P3"},
		{ID: "opt-3", Weekday: time.Monday, Period: models.PeriodThird, RoomID: "room-2", RoomName: "P2"},
	}}
	svc := newTestRescheduler(t, templates, newFakeSessionStore(candidate), options, nil, nil)

	monday := candidate.Date
	result, err := svc.OptionsFor(context.Background(), "sess-1", monday, monday)
	require.NoError(t, err)

	day := result[monday.Format(time.DateOnly)]
	require.Len(t, day, 1)
	assert.Equal(t, "opt-3", day[0].ID)
	assert.Equal(t, models.PeriodThird, day[0].Period)
}

func TestOptionsForCoversEverySemesterDate(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	svc := newTestRescheduler(t, newFakeTemplateStore(), newFakeSessionStore(candidate), &fakeOptionRepo{}, nil, nil)

	start := time.Date(2020, time.September, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, time.September, 11, 0, 0, 0, 0, time.UTC)
	result, err := svc.OptionsFor(context.Background(), "sess-1", start, end)
	require.NoError(t, err)

	// Sep 4 precedes the semester and Sep 5-6 is a weekend.
	require.Len(t, result, 5)
	for day, options := range result {
		assert.NotNil(t, options, day)
	}
	assert.NotContains(t, result, "2020-09-04")
	assert.Contains(t, result, "2020-09-07")
}

func TestOptionsForIgnoresOwnCommitments(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	// The candidate's own template occupies P1/room-1; it must not block the
	// very slot the session already holds.
	templates := newFakeTemplateStore(models.TemplateEntry{
		ID: "tpl-1", EvenWeek: false, Weekday: time.Monday, Period: models.PeriodFirst,
		RoomID: "room-1", CourseID: "course-1", GroupID: "group-1", ProfessorID: "prof-1",
	})
	options := &fakeOptionRepo{options: []models.RescheduleOption{
		{ID: "opt-1", Weekday: time.Monday, Period: models.PeriodFirst, RoomID: "room-1", RoomName: "P1"},
	}}
	svc := newTestRescheduler(t, templates, newFakeSessionStore(candidate), options, nil, nil)

	monday := candidate.Date
	result, err := svc.OptionsFor(context.Background(), "sess-1", monday, monday)
	require.NoError(t, err)
	assert.Len(t, result[monday.Format(time.DateOnly)], 1)
}

func TestOptionsForUnknownSession(t *testing.T) {
	svc := newTestRescheduler(t, newFakeTemplateStore(), newFakeSessionStore(), nil, nil, nil)

	_, err := svc.OptionsFor(context.Background(), "missing", time.Now(), time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRescheduleOnceMovesOnlyTheSession(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	sibling := mondaySession("sess-2", "tpl-1")
	sibling.Date = time.Date(2020, time.September, 21, 0, 0, 0, 0, time.UTC)
	sessions := newFakeSessionStore(candidate, sibling)
	templates := newFakeTemplateStore(models.TemplateEntry{
		ID: "tpl-1", EvenWeek: false, Weekday: time.Monday, Period: models.PeriodFirst,
		RoomID: "room-1", CourseID: "course-1", GroupID: "group-1", ProfessorID: "prof-1",
	})
	svc := newTestRescheduler(t, templates, sessions, nil, nil, nil)

	target := RescheduleTarget{
		Date:   time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC),
		Period: models.PeriodThird,
		RoomID: "room-5",
	}
	moved, err := svc.RescheduleOnce(context.Background(), "sess-1", target)
	require.NoError(t, err)
	assert.Equal(t, target.Date, moved.Date)
	assert.Equal(t, time.Thursday, moved.Weekday)
	assert.Equal(t, models.PeriodThird, moved.Period)
	assert.Equal(t, "room-5", moved.RoomID)
	require.NotNil(t, moved.TemplateID, "one-off move keeps the template link")

	untouched, err := sessions.FindByID(context.Background(), "sess-2")
	require.NoError(t, err)
	assert.Equal(t, sibling.Date, untouched.Date)
	assert.Nil(t, templates.updated)
}

func TestRescheduleOnceRejectsOccupiedSlot(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	blocker := models.Session{
		ID: "sess-9", Date: time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC),
		Weekday: time.Thursday, Period: models.PeriodThird, RoomID: "room-5",
		CourseID: "course-9", GroupID: "group-9", ProfessorID: "prof-9",
	}
	sessions := newFakeSessionStore(candidate, blocker)
	svc := newTestRescheduler(t, newFakeTemplateStore(), sessions, nil, nil, nil)

	target := RescheduleTarget{Date: blocker.Date, Period: models.PeriodThird, RoomID: "room-5"}
	_, err := svc.RescheduleOnce(context.Background(), "sess-1", target)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	var conflictErr *models.SlotConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, models.ConflictRoom, conflictErr.Conflict.Dimension)

	stored, err := sessions.FindByID(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, candidate.Date, stored.Date, "rejected move leaves the session in place")
}

func TestRescheduleOnceRejectsGroupDoubleBooking(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	// Same group, different room: the room predicate passes, the group one must not.
	blocker := models.Session{
		ID: "sess-9", Date: time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC),
		Weekday: time.Thursday, Period: models.PeriodThird, RoomID: "room-8",
		CourseID: "course-9", GroupID: "group-1", ProfessorID: "prof-9",
	}
	sessions := newFakeSessionStore(candidate, blocker)
	svc := newTestRescheduler(t, newFakeTemplateStore(), sessions, nil, nil, nil)

	target := RescheduleTarget{Date: blocker.Date, Period: models.PeriodThird, RoomID: "room-5"}
	_, err := svc.RescheduleOnce(context.Background(), "sess-1", target)
	require.Error(t, err)

	var conflictErr *models.SlotConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, models.ConflictGroup, conflictErr.Conflict.Dimension)
}

func TestRescheduleOnceRejectsProfessorDoubleBooking(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	// The professor's other recurring class holds P3 in a different room with a
	// different group: only the professor predicate can trip.
	templates := newFakeTemplateStore(models.TemplateEntry{
		ID: "tpl-9", EvenWeek: false, Weekday: time.Thursday, Period: models.PeriodThird,
		RoomID: "room-8", CourseID: "course-9", GroupID: "group-9", ProfessorID: "prof-1",
	})
	sessions := newFakeSessionStore(candidate)
	svc := newTestRescheduler(t, templates, sessions, nil, nil, nil)

	target := RescheduleTarget{
		Date:   time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC),
		Period: models.PeriodThird,
		RoomID: "room-5",
	}
	_, err := svc.RescheduleOnce(context.Background(), "sess-1", target)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	var conflictErr *models.SlotConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, models.ConflictProfessor, conflictErr.Conflict.Dimension)

	stored, err := sessions.FindByID(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, candidate.Date, stored.Date, "rejected move leaves the session in place")
}

func TestRescheduleOnceRejectsNonSemesterDate(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	svc := newTestRescheduler(t, newFakeTemplateStore(), newFakeSessionStore(candidate), nil, nil, nil)

	target := RescheduleTarget{
		Date:   time.Date(2020, time.September, 12, 0, 0, 0, 0, time.UTC), // Saturday
		Period: models.PeriodFirst,
		RoomID: "room-1",
	}
	_, err := svc.RescheduleOnce(context.Background(), "sess-1", target)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReschedulePermanentlyShiftsWholeFootprint(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	sibling := mondaySession("sess-2", "tpl-1")
	sibling.Date = time.Date(2020, time.September, 21, 0, 0, 0, 0, time.UTC)
	sessions := newFakeSessionStore(candidate, sibling)
	templates := newFakeTemplateStore(models.TemplateEntry{
		ID: "tpl-1", EvenWeek: false, Weekday: time.Monday, Period: models.PeriodFirst,
		RoomID: "room-1", CourseID: "course-1", GroupID: "group-1", ProfessorID: "prof-1",
	})
	db, mock := txMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	svc := newTestRescheduler(t, templates, sessions, nil, nil, db)

	target := RescheduleTarget{
		Date:   time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC), // Monday +3
		Period: models.PeriodSecond,
		RoomID: "room-7",
	}
	moved, err := svc.ReschedulePermanently(context.Background(), "sess-1", target)
	require.NoError(t, err)
	require.Len(t, moved, 2)

	require.NotNil(t, templates.updated)
	assert.Equal(t, time.Thursday, templates.updated.Weekday)
	assert.Equal(t, models.PeriodSecond, templates.updated.Period)
	assert.Equal(t, "room-7", templates.updated.RoomID)
	assert.False(t, templates.updated.EvenWeek)

	byID := make(map[string]models.Session, len(moved))
	for _, session := range moved {
		byID[session.ID] = session
	}
	assert.Equal(t, time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC), byID["sess-1"].Date)
	assert.Equal(t, time.Date(2020, time.September, 24, 0, 0, 0, 0, time.UTC), byID["sess-2"].Date)
	for _, session := range moved {
		assert.Equal(t, time.Thursday, session.Weekday)
		assert.Equal(t, models.PeriodSecond, session.Period)
		assert.Equal(t, "room-7", session.RoomID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReschedulePermanentlyDetachedSession(t *testing.T) {
	detached := mondaySession("sess-1", "tpl-1")
	detached.TemplateID = nil
	svc := newTestRescheduler(t, newFakeTemplateStore(), newFakeSessionStore(detached), nil, nil, nil)

	target := RescheduleTarget{
		Date:   time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC),
		Period: models.PeriodFirst,
		RoomID: "room-1",
	}
	_, err := svc.ReschedulePermanently(context.Background(), "sess-1", target)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReschedulePermanentlyMissingTemplate(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-gone")
	svc := newTestRescheduler(t, newFakeTemplateStore(), newFakeSessionStore(candidate), nil, nil, nil)

	target := RescheduleTarget{
		Date:   time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC),
		Period: models.PeriodFirst,
		RoomID: "room-1",
	}
	_, err := svc.ReschedulePermanently(context.Background(), "sess-1", target)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubstituteReplacesProfessor(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	sessions := newFakeSessionStore(candidate)
	professors := &fakeProfessorGetter{known: map[string]models.Professor{
		"prof-2": {ID: "prof-2", FirstName: "Eva", LastName: "Novak"},
	}}
	svc := newTestRescheduler(t, newFakeTemplateStore(), sessions, nil, professors, nil)

	updated, err := svc.Substitute(context.Background(), "sess-1", "prof-2")
	require.NoError(t, err)
	assert.Equal(t, "prof-2", updated.ProfessorID)
	assert.Equal(t, candidate.Date, updated.Date, "substitution never moves the session")
}

func TestSubstituteUnknownProfessor(t *testing.T) {
	candidate := mondaySession("sess-1", "tpl-1")
	svc := newTestRescheduler(t, newFakeTemplateStore(), newFakeSessionStore(candidate), nil, &fakeProfessorGetter{}, nil)

	_, err := svc.Substitute(context.Background(), "sess-1", "prof-unknown")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
