package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/schedcore/timetable-api/internal/models"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
	"github.com/schedcore/timetable-api/pkg/export"
)

type scheduleReader interface {
	RangeSchedule(ctx context.Context, start, end time.Time) ([]models.Session, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportResult carries a rendered timetable file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a date range of the timetable into downloadable files.
type ExportService struct {
	schedule scheduleReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(schedule scheduleReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{schedule: schedule, csv: csv, pdf: pdf, logger: logger}
}

var exportHeaders = []string{"Date", "Day", "Period", "Time", "Room", "Course", "Group", "Professor"}

// Generate materializes the range and renders it in the requested format.
func (s *ExportService) Generate(ctx context.Context, start, end time.Time, format string) (*ExportResult, error) {
	sessions, err := s.schedule.RangeSchedule(ctx, start, end)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: exportHeaders,
		Rows: lo.Map(sessions, func(session models.Session, _ int) map[string]string {
			return map[string]string{
				"Date":      session.Date.Format(time.DateOnly),
				"Day":       session.Weekday.String(),
				"Period":    session.Period.String(),
				"Time":      session.Period.ClockRange(),
				"Room":      session.RoomName,
				"Course":    session.CourseName,
				"Group":     session.GroupName,
				"Professor": session.ProfessorName,
			}
		}),
	}

	span := fmt.Sprintf("%s_%s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	switch strings.ToLower(format) {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Filename: "timetable_" + span + ".csv", ContentType: "text/csv", Data: data}, nil
	case ExportFormatPDF:
		title := fmt.Sprintf("Timetable %s - %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Filename: "timetable_" + span + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format: %q", format))
	}
}
