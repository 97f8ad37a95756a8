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

type catalogService interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListProfessors(ctx context.Context) ([]models.Professor, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListTemplates(ctx context.Context, weekday *time.Weekday, evenWeek *bool) ([]models.TemplateEntry, error)
	RenameRoom(ctx context.Context, id string, req service.RenameRequest) (*models.Room, error)
	RenameProfessor(ctx context.Context, id string, req service.RenameProfessorRequest) (*models.Professor, error)
	RenameGroup(ctx context.Context, id string, req service.RenameRequest) (*models.Group, error)
	RenameCourse(ctx context.Context, id string, req service.RenameRequest) (*models.Course, error)
}

// CatalogHandler exposes the catalogue of rooms, professors, groups, courses
// and the recurring templates.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListRooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// ListProfessors godoc
// @Summary List professors
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professors [get]
func (h *CatalogHandler) ListProfessors(c *gin.Context) {
	professors, err := h.service.ListProfessors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professors, nil)
}

// ListGroups godoc
// @Summary List student groups
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *CatalogHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// ListCourses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ListTemplates godoc
// @Summary List recurring timetable templates
// @Tags Catalog
// @Produce json
// @Param weekday query string false "Weekday name (MONDAY..FRIDAY)"
// @Param evenWeek query bool false "Rotation half"
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	var weekday *time.Weekday
	if raw := c.Query("weekday"); raw != "" {
		day, err := models.ParseWeekday(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekday must be MONDAY..FRIDAY"))
			return
		}
		weekday = &day
	}
	var evenWeek *bool
	if raw := c.Query("evenWeek"); raw != "" {
		even := raw == "true"
		if !even && raw != "false" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "evenWeek must be true or false"))
			return
		}
		evenWeek = &even
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), weekday, evenWeek)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// RenameRoom godoc
// @Summary Rename a room
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param request body service.RenameRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [patch]
func (h *CatalogHandler) RenameRoom(c *gin.Context) {
	var req service.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename request"))
		return
	}
	room, err := h.service.RenameRoom(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// RenameProfessor godoc
// @Summary Rename a professor
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Professor ID"
// @Param request body service.RenameProfessorRequest true "New name parts"
// @Success 200 {object} response.Envelope
// @Router /professors/{id} [patch]
func (h *CatalogHandler) RenameProfessor(c *gin.Context) {
	var req service.RenameProfessorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename request"))
		return
	}
	professor, err := h.service.RenameProfessor(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor, nil)
}

// RenameGroup godoc
// @Summary Rename a student group
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param request body service.RenameRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [patch]
func (h *CatalogHandler) RenameGroup(c *gin.Context) {
	var req service.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename request"))
		return
	}
	group, err := h.service.RenameGroup(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// RenameCourse godoc
// @Summary Rename a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body service.RenameRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [patch]
func (h *CatalogHandler) RenameCourse(c *gin.Context) {
	var req service.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename request"))
		return
	}
	course, err := h.service.RenameCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}
