// Package calendar implements the proleptic Gregorian day arithmetic used to turn
// tzdata dates such as "lastSun" or "Sun>=8" into absolute instants.
//
// It does not depend on time.Location: the values computed here are the
// input for building time zone data, so a local clock is modelled as if it was UTC.
package calendar

import "time"

const (
	MillisPerSecond = 1000
	MillisPerMinute = 60 * MillisPerSecond
	MillisPerHour   = 60 * MillisPerMinute
	MillisPerDay    = 24 * MillisPerHour
)

// daysBeforeEpoch is the number of days from 0000-03-01 to 1970-01-01.
const daysBeforeEpoch = 719468

// IsLeap determines if the year is a leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in a given month for a specific year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// EpochDay returns the number of days between 1970-01-01 and the given date.
// The day is allowed to lie outside the month: day 32 of January is February 1st
// and day 0 is the last day of the previous month.
func EpochDay(year int, month time.Month, day int) int64 {
	y := int64(year)
	m := int64(month)
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (m + 9) % 12 // March is 0
	doy := (153*mp+2)/5 + int64(day) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - daysBeforeEpoch
}

// Date is the inverse of EpochDay.
func Date(epochDay int64) (year int, month time.Month, day int) {
	z := epochDay + daysBeforeEpoch
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	y := yoe + era*400
	if m <= 2 {
		y++
	}
	return int(y), time.Month(m), int(d)
}

// Weekday returns the day of the week of the given epoch day.
func Weekday(epochDay int64) time.Weekday {
	// 1970-01-01 was a Thursday.
	return time.Weekday(floorMod(epochDay+int64(time.Thursday), 7))
}

// LastWeekday returns the epoch day of the last given weekday in the month.
func LastWeekday(year int, month time.Month, weekday time.Weekday) int64 {
	last := EpochDay(year, month, DaysInMonth(year, month))
	return last - floorMod(int64(Weekday(last)-weekday), 7)
}

// WeekdayOnOrAfter returns the epoch day of the first given weekday on or after the day.
// The result may fall into the following month or year.
func WeekdayOnOrAfter(year int, month time.Month, day int, weekday time.Weekday) int64 {
	d := EpochDay(year, month, day)
	return d + floorMod(int64(weekday-Weekday(d)), 7)
}

// WeekdayOnOrBefore returns the epoch day of the last given weekday on or before the day.
// The result may fall into the previous month or year.
func WeekdayOnOrBefore(year int, month time.Month, day int, weekday time.Weekday) int64 {
	d := EpochDay(year, month, day)
	return d - floorMod(int64(Weekday(d)-weekday), 7)
}

// Millis returns the milliseconds since the epoch for a time of day on an epoch day.
func Millis(epochDay int64, timeOfDay int) int64 {
	return epochDay*MillisPerDay + int64(timeOfDay)
}

// YearOf returns the calendar year containing the instant.
func YearOf(millis int64) int {
	y, _, _ := Date(floorDiv(millis, MillisPerDay))
	return y
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
