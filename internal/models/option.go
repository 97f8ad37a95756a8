package models

import "time"

// RescheduleOption is a candidate (weekday, period, room) slot a session may
// be moved into. It carries no date; pairing it with a target date is what
// fixes the week of the rotation it lands on.
type RescheduleOption struct {
	ID       string       `db:"id" json:"id"`
	Weekday  time.Weekday `db:"weekday" json:"weekday"`
	Period   Period       `db:"period" json:"period"`
	RoomID   string       `db:"room_id" json:"room_id"`
	RoomName string       `db:"room_name" json:"room_name,omitempty"`
}

// Less orders options by (weekday, period, room).
func (o RescheduleOption) Less(other RescheduleOption) bool {
	if o.Weekday != other.Weekday {
		return o.Weekday < other.Weekday
	}
	if o.Period != other.Period {
		return o.Period < other.Period
	}
	return o.RoomName < other.RoomName
}
