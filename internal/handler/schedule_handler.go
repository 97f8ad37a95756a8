package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/schedcore/timetable-api/internal/models"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
	"github.com/schedcore/timetable-api/pkg/response"
)

type scheduleService interface {
	RangeSchedule(ctx context.Context, start, end time.Time) ([]models.Session, error)
	WeekSchedule(ctx context.Context, week int) ([]models.Session, error)
	MonthSchedule(ctx context.Context, month time.Month) ([]models.Session, error)
	AvailableRooms(ctx context.Context, date time.Time, period models.Period) ([]models.Room, error)
	AvailableProfessors(ctx context.Context, date time.Time, period models.Period) ([]models.Professor, error)
}

// ScheduleHandler serves the materialized timetable views.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Range godoc
// @Summary Timetable for a date range
// @Tags Schedule
// @Produce json
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Param professorId query string false "Filter by professor"
// @Param groupId query string false "Filter by group"
// @Param roomId query string false "Filter by room"
// @Param courseId query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Range(c *gin.Context) {
	start, ok := dateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := dateQuery(c, "end")
	if !ok {
		return
	}

	sessions, err := h.service.RangeSchedule(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applyFilter(c, sessions), nil)
}

// Day godoc
// @Summary Timetable for one date
// @Tags Schedule
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedule/day/{date} [get]
func (h *ScheduleHandler) Day(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	sessions, err := h.service.RangeSchedule(c.Request.Context(), date, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applyFilter(c, sessions), nil)
}

// Week godoc
// @Summary Timetable for one semester week
// @Tags Schedule
// @Produce json
// @Param week path int true "1-based semester week"
// @Success 200 {object} response.Envelope
// @Router /schedule/week/{week} [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be an integer"))
		return
	}
	sessions, err := h.service.WeekSchedule(c.Request.Context(), week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applyFilter(c, sessions), nil)
}

// Month godoc
// @Summary Timetable for one month of the semester
// @Tags Schedule
// @Produce json
// @Param month path int true "Month number (1-12)"
// @Success 200 {object} response.Envelope
// @Router /schedule/month/{month} [get]
func (h *ScheduleHandler) Month(c *gin.Context) {
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12"))
		return
	}
	sessions, err := h.service.MonthSchedule(c.Request.Context(), time.Month(month))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applyFilter(c, sessions), nil)
}

// AvailableRooms godoc
// @Summary Rooms free at a date and period
// @Tags Availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query string true "Period (1-5 or FIRST..FIFTH)"
// @Success 200 {object} response.Envelope
// @Router /rooms/available [get]
func (h *ScheduleHandler) AvailableRooms(c *gin.Context) {
	date, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	period, ok := periodQuery(c)
	if !ok {
		return
	}
	rooms, err := h.service.AvailableRooms(c.Request.Context(), date, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// AvailableProfessors godoc
// @Summary Professors free at a date and period
// @Tags Availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query string true "Period (1-5 or FIRST..FIFTH)"
// @Success 200 {object} response.Envelope
// @Router /professors/available [get]
func (h *ScheduleHandler) AvailableProfessors(c *gin.Context) {
	date, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	period, ok := periodQuery(c)
	if !ok {
		return
	}
	professors, err := h.service.AvailableProfessors(c.Request.Context(), date, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professors, nil)
}

// applyFilter narrows the materialized sequence to the entity filters of the
// query. Filtering stays on this side of the engine boundary.
func applyFilter(c *gin.Context, sessions []models.Session) []models.Session {
	filter := models.SessionFilter{
		ProfessorID: c.Query("professorId"),
		GroupID:     c.Query("groupId"),
		RoomID:      c.Query("roomId"),
		CourseID:    c.Query("courseId"),
	}
	if filter.Empty() {
		return sessions
	}
	return lo.Filter(sessions, func(session models.Session, _ int) bool {
		return filter.Matches(session)
	})
}
