package semester

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Autumn 2020: starts Monday 2020-09-07, ends Friday 2020-12-11.
func autumn2020(t *testing.T) *Calendar {
	t.Helper()
	cal, err := NewCalendar(date(2020, time.September, 7), date(2020, time.December, 11))
	require.NoError(t, err)
	return cal
}

func TestNewCalendarRejectsInvertedBounds(t *testing.T) {
	_, err := NewCalendar(date(2020, time.December, 11), date(2020, time.September, 7))
	assert.ErrorIs(t, err, ErrInvalidBounds)

	_, err = NewCalendar(date(2020, time.September, 7), date(2020, time.September, 7))
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestEvenWeekAlternates(t *testing.T) {
	cal := autumn2020(t)

	// The first semester week is odd, then the rotation alternates weekly.
	assert.False(t, cal.EvenWeek(date(2020, time.September, 7)))
	assert.False(t, cal.EvenWeek(date(2020, time.September, 11)))
	assert.True(t, cal.EvenWeek(date(2020, time.September, 14)))
	assert.False(t, cal.EvenWeek(date(2020, time.September, 21)))
	assert.True(t, cal.EvenWeek(date(2020, time.September, 28)))
}

func TestEvenWeekIgnoresClockAndZone(t *testing.T) {
	cal := autumn2020(t)

	loc := time.FixedZone("UTC+5", 5*3600)
	late := time.Date(2020, time.September, 14, 23, 30, 0, 0, loc)
	assert.Equal(t, cal.EvenWeek(date(2020, time.September, 14)), cal.EvenWeek(late))
}

func TestIsSemesterDate(t *testing.T) {
	cal := autumn2020(t)

	assert.True(t, cal.IsSemesterDate(date(2020, time.September, 7)))
	assert.True(t, cal.IsSemesterDate(date(2020, time.December, 11)))
	assert.False(t, cal.IsSemesterDate(date(2020, time.September, 12)), "saturday")
	assert.False(t, cal.IsSemesterDate(date(2020, time.September, 13)), "sunday")
	assert.False(t, cal.IsSemesterDate(date(2020, time.September, 4)), "before start")
	assert.False(t, cal.IsSemesterDate(date(2020, time.December, 14)), "after end")
}

func TestWeekNumberAndBounds(t *testing.T) {
	cal := autumn2020(t)

	assert.Equal(t, 1, cal.WeekNumber(date(2020, time.September, 7)))
	assert.Equal(t, 1, cal.WeekNumber(date(2020, time.September, 11)))
	assert.Equal(t, 2, cal.WeekNumber(date(2020, time.September, 14)))
	assert.Equal(t, 14, cal.WeekNumber(date(2020, time.December, 11)))
	assert.Equal(t, 14, cal.Weeks())

	monday, friday := cal.WeekBounds(2)
	assert.Equal(t, date(2020, time.September, 14), monday)
	assert.Equal(t, date(2020, time.September, 18), friday)
}

func TestWeekBoundsWhenStartMidWeek(t *testing.T) {
	// A semester starting Wednesday still counts its partial week as week 1.
	cal, err := NewCalendar(date(2020, time.September, 9), date(2020, time.December, 11))
	require.NoError(t, err)

	assert.Equal(t, 1, cal.WeekNumber(date(2020, time.September, 9)))
	monday, _ := cal.WeekBounds(1)
	assert.Equal(t, date(2020, time.September, 7), monday)
}

func TestMonthBounds(t *testing.T) {
	cal := autumn2020(t)

	first, last, err := cal.MonthBounds(time.September)
	require.NoError(t, err)
	assert.Equal(t, date(2020, time.September, 7), first)
	assert.Equal(t, date(2020, time.September, 30), last)

	first, last, err = cal.MonthBounds(time.December)
	require.NoError(t, err)
	assert.Equal(t, date(2020, time.December, 1), first)
	assert.Equal(t, date(2020, time.December, 11), last)

	_, _, err = cal.MonthBounds(time.March)
	assert.Error(t, err)
}

func TestDatesSkipsWeekendsAndOutOfRange(t *testing.T) {
	cal := autumn2020(t)

	dates := cal.Dates(date(2020, time.September, 4), date(2020, time.September, 15))
	require.Len(t, dates, 7)
	assert.Equal(t, date(2020, time.September, 7), dates[0])
	assert.Equal(t, date(2020, time.September, 15), dates[6])
	for _, d := range dates {
		assert.True(t, cal.IsSemesterDate(d))
	}
}
