package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schedcore/timetable-api/internal/models"
	"github.com/schedcore/timetable-api/internal/service"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
	"github.com/schedcore/timetable-api/pkg/response"
)

type rescheduleService interface {
	OptionsFor(ctx context.Context, sessionID string, start, end time.Time) (map[string][]models.RescheduleOption, error)
	RescheduleOnce(ctx context.Context, sessionID string, target service.RescheduleTarget) (*models.Session, error)
	ReschedulePermanently(ctx context.Context, sessionID string, target service.RescheduleTarget) ([]models.Session, error)
	Substitute(ctx context.Context, sessionID, professorID string) (*models.Session, error)
}

// RescheduleRequest is the payload for POST /sessions/:id/reschedule.
type RescheduleRequest struct {
	Mode   string `json:"mode" binding:"required,oneof=once permanent"`
	Date   string `json:"date" binding:"required"`
	Period string `json:"period" binding:"required"`
	RoomID string `json:"roomId" binding:"required"`
}

// SubstituteRequest is the payload for POST /sessions/:id/substitute.
type SubstituteRequest struct {
	ProfessorID string `json:"professorId" binding:"required"`
}

// SessionHandler exposes the per-session mutation endpoints.
type SessionHandler struct {
	service rescheduleService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(svc rescheduleService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Options godoc
// @Summary Conflict-free slots the session could move into
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param start query string true "Search window start (YYYY-MM-DD)"
// @Param end query string true "Search window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/options [get]
func (h *SessionHandler) Options(c *gin.Context) {
	start, ok := dateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := dateQuery(c, "end")
	if !ok {
		return
	}
	options, err := h.service.OptionsFor(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Reschedule godoc
// @Summary Move a session, one-off or for the rest of the semester
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body RescheduleRequest true "Target slot and mode"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/reschedule [post]
func (h *SessionHandler) Reschedule(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule request"))
		return
	}
	target, ok := req.target(c)
	if !ok {
		return
	}

	switch req.Mode {
	case service.RescheduleModeOnce:
		session, err := h.service.RescheduleOnce(c.Request.Context(), c.Param("id"), target)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, session, nil)
	case service.RescheduleModePermanent:
		sessions, err := h.service.ReschedulePermanently(c.Request.Context(), c.Param("id"), target)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, sessions, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "mode must be once or permanent"))
	}
}

// Substitute godoc
// @Summary Replace the professor of a single session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SubstituteRequest true "Replacement professor"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/substitute [post]
func (h *SessionHandler) Substitute(c *gin.Context) {
	var req SubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute request"))
		return
	}
	session, err := h.service.Substitute(c.Request.Context(), c.Param("id"), req.ProfessorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

func (r RescheduleRequest) target(c *gin.Context) (service.RescheduleTarget, bool) {
	date, ok := parseDate(c, "date", r.Date)
	if !ok {
		return service.RescheduleTarget{}, false
	}
	period, err := models.ParsePeriod(r.Period)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period must be 1-5 or FIRST..FIFTH"))
		return service.RescheduleTarget{}, false
	}
	return service.RescheduleTarget{Date: date, Period: period, RoomID: r.RoomID}, true
}
