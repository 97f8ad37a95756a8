package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schedcore/timetable-api/internal/models"
	appErrors "github.com/schedcore/timetable-api/pkg/errors"
	"github.com/schedcore/timetable-api/pkg/response"
)

// dateQuery parses a required YYYY-MM-DD query parameter. On failure it writes
// the validation response and reports false.
func dateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", name)))
		return time.Time{}, false
	}
	return parseDate(c, name, raw)
}

// dateParam parses a YYYY-MM-DD path parameter.
func dateParam(c *gin.Context, name string) (time.Time, bool) {
	return parseDate(c, name, c.Param(name))
}

func parseDate(c *gin.Context, name, raw string) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must use the YYYY-MM-DD format", name)))
		return time.Time{}, false
	}
	return date, true
}

// periodQuery parses the period query parameter, accepting an ordinal or name.
func periodQuery(c *gin.Context) (models.Period, bool) {
	period, err := models.ParsePeriod(c.Query("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period must be 1-5 or FIRST..FIFTH"))
		return 0, false
	}
	return period, true
}
