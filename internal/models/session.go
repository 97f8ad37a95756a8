package models

import (
	"strings"
	"time"
)

// Session is one concrete, date-stamped class meeting materialized from a
// TemplateEntry. It stays linked to its template even after a one-off
// reschedule so a later permanent reschedule can still find all siblings.
// The (course, group) pair is fixed at creation; only the slot, the
// professor and the date may change afterwards.
type Session struct {
	ID          string       `db:"id" json:"id"`
	TemplateID  *string      `db:"template_id" json:"template_id,omitempty"`
	Date        time.Time    `db:"date" json:"date"`
	Weekday     time.Weekday `db:"weekday" json:"weekday"`
	Period      Period       `db:"period" json:"period"`
	RoomID      string       `db:"room_id" json:"room_id"`
	CourseID    string       `db:"course_id" json:"course_id"`
	GroupID     string       `db:"group_id" json:"group_id"`
	ProfessorID string       `db:"professor_id" json:"professor_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`

	RoomName      string `db:"room_name" json:"room_name,omitempty"`
	CourseName    string `db:"course_name" json:"course_name,omitempty"`
	GroupName     string `db:"group_name" json:"group_name,omitempty"`
	ProfessorName string `db:"professor_name" json:"professor_name,omitempty"`
}

// SessionFilter restricts a schedule view to a single entity. It is applied
// to the already materialized sequence, not pushed into the engine.
type SessionFilter struct {
	ProfessorID string
	GroupID     string
	RoomID      string
	CourseID    string
}

// Empty reports whether no restriction is set.
func (f SessionFilter) Empty() bool {
	return f.ProfessorID == "" && f.GroupID == "" && f.RoomID == "" && f.CourseID == ""
}

// Matches reports whether the session satisfies every set restriction.
func (f SessionFilter) Matches(s Session) bool {
	if f.ProfessorID != "" && s.ProfessorID != f.ProfessorID {
		return false
	}
	if f.GroupID != "" && s.GroupID != f.GroupID {
		return false
	}
	if f.RoomID != "" && s.RoomID != f.RoomID {
		return false
	}
	if f.CourseID != "" && s.CourseID != f.CourseID {
		return false
	}
	return true
}

// Less orders sessions by (date, period, room, group, course, professor),
// the natural display order of a timetable.
func (s Session) Less(other Session) bool {
	if !s.Date.Equal(other.Date) {
		return s.Date.Before(other.Date)
	}
	if s.Period != other.Period {
		return s.Period < other.Period
	}
	if c := strings.Compare(s.RoomName, other.RoomName); c != 0 {
		return c < 0
	}
	if c := strings.Compare(s.GroupName, other.GroupName); c != 0 {
		return c < 0
	}
	if c := strings.Compare(s.CourseName, other.CourseName); c != 0 {
		return c < 0
	}
	return s.ProfessorName < other.ProfessorName
}
