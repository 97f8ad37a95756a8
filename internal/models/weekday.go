package models

import (
	"fmt"
	"strings"
	"time"
)

// TeachingWeekdays lists the weekdays classes may occupy, Monday first.
func TeachingWeekdays() []time.Weekday {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
}

// IsTeachingWeekday reports whether the weekday falls inside the Monday-Friday span.
func IsTeachingWeekday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}

// ParseWeekday resolves an upper or mixed case weekday name.
func ParseWeekday(raw string) (time.Weekday, error) {
	needle := strings.ToUpper(strings.TrimSpace(raw))
	for _, d := range TeachingWeekdays() {
		if strings.ToUpper(d.String()) == needle {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown teaching weekday: %q", raw)
}
