package models

import (
	"fmt"
	"strconv"
)

// Period is one of the five fixed daily teaching slots, ordered by start time.
type Period int

const (
	PeriodFirst Period = iota + 1
	PeriodSecond
	PeriodThird
	PeriodFourth
	PeriodFifth
)

// Periods lists every period in ascending order.
func Periods() []Period {
	return []Period{PeriodFirst, PeriodSecond, PeriodThird, PeriodFourth, PeriodFifth}
}

var periodNames = map[Period]string{
	PeriodFirst:  "FIRST",
	PeriodSecond: "SECOND",
	PeriodThird:  "THIRD",
	PeriodFourth: "FOURTH",
	PeriodFifth:  "FIFTH",
}

var periodClocks = map[Period]string{
	PeriodFirst:  "08:30-10:05",
	PeriodSecond: "10:20-11:55",
	PeriodThird:  "12:10-13:45",
	PeriodFourth: "14:00-15:35",
	PeriodFifth:  "15:50-17:25",
}

// Valid reports whether the period is one of the five known slots.
func (p Period) Valid() bool {
	_, ok := periodNames[p]
	return ok
}

func (p Period) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PERIOD(%d)", int(p))
}

// ClockRange returns the wall-clock span of the period for display purposes.
func (p Period) ClockRange() string {
	return periodClocks[p]
}

// ParsePeriod accepts either the ordinal ("1".."5") or the name ("FIRST".."FIFTH").
func ParsePeriod(raw string) (Period, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		p := Period(n)
		if !p.Valid() {
			return 0, fmt.Errorf("period out of range: %d", n)
		}
		return p, nil
	}
	for p, name := range periodNames {
		if name == raw {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period: %q", raw)
}
