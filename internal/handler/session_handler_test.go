package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcore/timetable-api/internal/models"
	"github.com/schedcore/timetable-api/internal/service"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
)

type fakeRescheduleSrv struct {
	options      map[string][]models.RescheduleOption
	session      *models.Session
	sessions     []models.Session
	err          error
	onceCalls    int
	permCalls    int
	lastTarget   service.RescheduleTarget
	lastProfID   string
	lastSessions string
}

func (f *fakeRescheduleSrv) OptionsFor(_ context.Context, sessionID string, _, _ time.Time) (map[string][]models.RescheduleOption, error) {
	f.lastSessions = sessionID
	return f.options, f.err
}

func (f *fakeRescheduleSrv) RescheduleOnce(_ context.Context, sessionID string, target service.RescheduleTarget) (*models.Session, error) {
	f.onceCalls++
	f.lastSessions = sessionID
	f.lastTarget = target
	return f.session, f.err
}

func (f *fakeRescheduleSrv) ReschedulePermanently(_ context.Context, sessionID string, target service.RescheduleTarget) ([]models.Session, error) {
	f.permCalls++
	f.lastSessions = sessionID
	f.lastTarget = target
	return f.sessions, f.err
}

func (f *fakeRescheduleSrv) Substitute(_ context.Context, sessionID, professorID string) (*models.Session, error) {
	f.lastSessions = sessionID
	f.lastProfID = professorID
	return f.session, f.err
}

func postJSON(target, body string) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return rec, c
}

func TestSessionHandlerOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRescheduleSrv{options: map[string][]models.RescheduleOption{
		"2020-09-07": {{ID: "opt-1", Weekday: time.Monday, Period: models.PeriodFirst, RoomID: "room-2"}},
		"2020-09-08": {},
	}}
	handler := NewSessionHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/sessions/sess-1/options?start=2020-09-07&end=2020-09-08", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Options(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", srv.lastSessions)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var options map[string][]models.RescheduleOption
	require.NoError(t, json.Unmarshal(envelope.Data, &options))
	require.Len(t, options, 2)
	assert.NotNil(t, options["2020-09-08"], "option-free dates serialize as empty lists")
}

func TestSessionHandlerRescheduleOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRescheduleSrv{session: &models.Session{ID: "sess-1", RoomID: "room-5"}}
	handler := NewSessionHandler(srv)

	rec, c := postJSON("/sessions/sess-1/reschedule", `{"mode":"once","date":"2020-09-10","period":"THIRD","roomId":"room-5"}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Reschedule(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.onceCalls)
	assert.Zero(t, srv.permCalls)
	assert.Equal(t, models.PeriodThird, srv.lastTarget.Period)
	assert.Equal(t, "room-5", srv.lastTarget.RoomID)
	assert.Equal(t, time.Date(2020, time.September, 10, 0, 0, 0, 0, time.UTC), srv.lastTarget.Date)
}

func TestSessionHandlerReschedulePermanent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRescheduleSrv{sessions: []models.Session{{ID: "sess-1"}, {ID: "sess-2"}}}
	handler := NewSessionHandler(srv)

	rec, c := postJSON("/sessions/sess-1/reschedule", `{"mode":"permanent","date":"2020-09-10","period":"2","roomId":"room-7"}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Reschedule(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.permCalls)
	assert.Zero(t, srv.onceCalls)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var moved []models.Session
	require.NoError(t, json.Unmarshal(envelope.Data, &moved))
	assert.Len(t, moved, 2)
}

func TestSessionHandlerRescheduleRejectsUnknownMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRescheduleSrv{}
	handler := NewSessionHandler(srv)

	rec, c := postJSON("/sessions/sess-1/reschedule", `{"mode":"weekly","date":"2020-09-10","period":"1","roomId":"room-1"}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Reschedule(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.onceCalls)
	assert.Zero(t, srv.permCalls)
}

func TestSessionHandlerRescheduleRejectsBadPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(&fakeRescheduleSrv{})

	rec, c := postJSON("/sessions/sess-1/reschedule", `{"mode":"once","date":"2020-09-10","period":"NINTH","roomId":"room-1"}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Reschedule(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandlerReschedulePropagatesConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRescheduleSrv{err: appErrors.Clone(appErrors.ErrConflict, "room is booked at the target slot")}
	handler := NewSessionHandler(srv)

	rec, c := postJSON("/sessions/sess-1/reschedule", `{"mode":"once","date":"2020-09-10","period":"1","roomId":"room-1"}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Reschedule(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "CONFLICT", envelope.Error["code"])
}

func TestSessionHandlerSubstitute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRescheduleSrv{session: &models.Session{ID: "sess-1", ProfessorID: "prof-2"}}
	handler := NewSessionHandler(srv)

	rec, c := postJSON("/sessions/sess-1/substitute", `{"professorId":"prof-2"}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Substitute(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prof-2", srv.lastProfID)
}

func TestSessionHandlerSubstituteRequiresProfessor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(&fakeRescheduleSrv{})

	rec, c := postJSON("/sessions/sess-1/substitute", `{}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Substitute(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
