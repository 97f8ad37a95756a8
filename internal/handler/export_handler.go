package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schedcore/timetable-api/internal/service"
	"github.com/schedcore/timetable-api/pkg/response"
)

type exportService interface {
	Generate(ctx context.Context, start, end time.Time, format string) (*service.ExportResult, error)
}

// ExportHandler serves timetable downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Schedule godoc
// @Summary Download the timetable for a date range
// @Tags Export
// @Produce octet-stream
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /export/schedule [get]
func (h *ExportHandler) Schedule(c *gin.Context) {
	start, ok := dateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := dateQuery(c, "end")
	if !ok {
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	result, err := h.service.Generate(c.Request.Context(), start, end, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
