package models

import "time"

// TemplateEntry is one recurring assignment of the two-week rotation: on the
// given week of the rotation, weekday and period, the course is taught to the
// group by the professor in the room.
//
// Within one (even_week, weekday, period) occurrence no two entries may share
// a room, a group or a professor. The initial generator guarantees this and
// every reschedule must preserve it.
type TemplateEntry struct {
	ID          string       `db:"id" json:"id"`
	EvenWeek    bool         `db:"even_week" json:"even_week"`
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

// SlotConflict describes an existing commitment that blocks a slot.
type SlotConflict struct {
	Dimension   string       `json:"dimension"`
	Date        *time.Time   `json:"date,omitempty"`
	EvenWeek    bool         `json:"even_week"`
	Weekday     time.Weekday `json:"weekday"`
	Period      Period       `json:"period"`
	RoomID      string       `json:"room_id,omitempty"`
	GroupID     string       `json:"group_id,omitempty"`
	ProfessorID string       `json:"professor_id,omitempty"`
}

// Conflict dimensions.
const (
	ConflictRoom      = "ROOM"
	ConflictGroup     = "GROUP"
	ConflictProfessor = "PROFESSOR"
)

// SlotConflictError is returned when a requested slot collides with an
// existing recurring or one-off commitment.
type SlotConflictError struct {
	Message  string       `json:"message"`
	Conflict SlotConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *SlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
