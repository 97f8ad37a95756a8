// Package semester provides pure date arithmetic over the configured
// semester boundaries: week parity of the two-week rotation, the
// teaching-day predicate and week/month bounds for timetable views.
package semester

import (
	"errors"
	"fmt"
	"time"

	"github.com/schedcore/timetable-api/internal/models"
)

// Calendar answers date questions for one semester. It holds no state
// beyond the two configured boundary dates.
type Calendar struct {
	start time.Time
	end   time.Time
}

// ErrInvalidBounds indicates the configured semester dates are unusable.
var ErrInvalidBounds = errors.New("semester: end date must be after start date")

// NewCalendar builds a calendar from the configured boundary dates.
// Dates are normalized to UTC midnight.
func NewCalendar(start, end time.Time) (*Calendar, error) {
	start = Normalize(start)
	end = Normalize(end)
	if !end.After(start) {
		return nil, ErrInvalidBounds
	}
	return &Calendar{start: start, end: end}, nil
}

// Normalize strips the clock and time zone from a date.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Start returns the first day of the semester.
func (c *Calendar) Start() time.Time { return c.start }

// End returns the last day of the semester.
func (c *Calendar) End() time.Time { return c.end }

// EvenWeek reports which week of the two-week rotation the date falls in.
// Parity is measured by ISO week number relative to the week immediately
// preceding the semester start, so the semester's first week is odd (false).
// Raw ISO week numbers flip at year boundaries in some calendars; that flip
// is kept as-is.
func (c *Calendar) EvenWeek(date time.Time) bool {
	_, week := Normalize(date).ISOWeek()
	_, ref := c.start.AddDate(0, 0, -7).ISOWeek()
	return (week-ref)%2 == 0
}

// IsSemesterDate reports whether classes may take place on the date:
// a Monday-Friday day within the semester boundaries, inclusive.
func (c *Calendar) IsSemesterDate(date time.Time) bool {
	d := Normalize(date)
	if !models.IsTeachingWeekday(d.Weekday()) {
		return false
	}
	return !d.Before(c.start) && !d.After(c.end)
}

// WeekNumber returns the 1-based semester week the date falls in. Dates
// before the first week yield values below one; callers clamp as needed.
func (c *Calendar) WeekNumber(date time.Time) int {
	days := int(Normalize(date).Sub(c.firstMonday()).Hours() / 24)
	if days < 0 {
		days -= 6
	}
	return days/7 + 1
}

// Weeks returns the semester length in weeks.
func (c *Calendar) Weeks() int {
	return c.WeekNumber(c.end)
}

// WeekBounds returns the Monday and Friday of the given 1-based semester week.
func (c *Calendar) WeekBounds(week int) (monday, friday time.Time) {
	monday = c.firstMonday().AddDate(0, 0, (week-1)*7)
	return monday, monday.AddDate(0, 0, 4)
}

// MonthBounds returns the first and last semester day falling inside the
// given month of the semester's span.
func (c *Calendar) MonthBounds(month time.Month) (first, last time.Time, err error) {
	for d := c.start; !d.After(c.end); d = d.AddDate(0, 0, 1) {
		if d.Month() != month || !c.IsSemesterDate(d) {
			continue
		}
		if first.IsZero() {
			first = d
		}
		last = d
	}
	if first.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("semester: no teaching days in %s", month)
	}
	return first, last, nil
}

// Dates returns every semester date within [from, to] in ascending order.
// Weekends and days outside the semester are skipped, never reported as errors.
func (c *Calendar) Dates(from, to time.Time) []time.Time {
	from = Normalize(from)
	to = Normalize(to)
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if c.IsSemesterDate(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

func (c *Calendar) firstMonday() time.Time {
	offset := (int(c.start.Weekday()) + 6) % 7
	return c.start.AddDate(0, 0, -offset)
}
