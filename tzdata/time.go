package tzdata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ngrash/go-javazic/internal/calendar"
)

// Year represents a year in the proleptic Gregorian calendar.
type Year int

func (y Year) String() string {
	if y == MinYear {
		return "<indefinite past>"
	}
	if y == MaxYear {
		return "<indefinite future>"
	}
	return strconv.Itoa(int(y))
}

const (
	// MinYear means the indefinite past.
	MinYear = Year(math.MinInt32)
	// MaxYear means the indefinite future.
	MaxYear = Year(math.MaxInt32)
)

// TimeForm tells which clock a time of day is measured on.
type TimeForm int

func (f TimeForm) String() string {
	switch f {
	case WallClock:
		return "WallClock"
	case StandardTime:
		return "StandardTime"
	case UniversalTime:
		return "UniversalTime"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// WallClock is local time including daylight saving.
	WallClock TimeForm = iota
	// StandardTime is local time without daylight saving.
	StandardTime
	// UniversalTime is UT.
	UniversalTime
)

// Time represents a time of day in milliseconds since 00:00, tagged with its clock.
type Time struct {
	Millis int
	Form   TimeForm
}

// WallMillis converts the time of day to wall clock time given the amount of saving
// and the GMT offset in effect.
func (t Time) WallMillis(save, gmtOffset int) int {
	switch t.Form {
	case StandardTime:
		return t.Millis + save
	case UniversalTime:
		return t.Millis + save + gmtOffset
	}
	return t.Millis
}

func (t Time) String() string {
	suffix := map[TimeForm]string{WallClock: "w", StandardTime: "s", UniversalTime: "u"}[t.Form]
	return formatMillis(t.Millis) + suffix
}

// DayForm represents the form of a day in a rule or zone line.
type DayForm int

func (f DayForm) String() string {
	switch f {
	case DayFormNum:
		return "Num"
	case DayFormLast:
		return "Last"
	case DayFormAfter:
		return "After"
	case DayFormBefore:
		return "Before"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// DayFormNum is a fixed day of the month, e.g. "5".
	DayFormNum DayForm = iota
	// DayFormLast is the last weekday of the month, e.g. "lastSun".
	DayFormLast
	// DayFormAfter is the first weekday on or after a day, e.g. "Sun>=8".
	DayFormAfter
	// DayFormBefore is the last weekday on or before a day, e.g. "Sun<=25".
	DayFormBefore
)

// Day represents the ON column of a rule line or the day of an UNTIL column.
type Day struct {
	Form    DayForm
	Num     int
	Weekday time.Weekday
}

// EpochDay returns the epoch day the rule selects in the given month.
// On-or-after and on-or-before rules can select a day in a neighboring month.
func (d Day) EpochDay(year int, month time.Month) int64 {
	switch d.Form {
	case DayFormLast:
		return calendar.LastWeekday(year, month, d.Weekday)
	case DayFormAfter:
		return calendar.WeekdayOnOrAfter(year, month, d.Num, d.Weekday)
	case DayFormBefore:
		return calendar.WeekdayOnOrBefore(year, month, d.Num, d.Weekday)
	}
	return calendar.EpochDay(year, month, d.Num)
}

func (d Day) String() string {
	wd := d.Weekday.String()[:3]
	switch d.Form {
	case DayFormLast:
		return "last" + wd
	case DayFormAfter:
		return fmt.Sprintf("%s>=%d", wd, d.Num)
	case DayFormBefore:
		return fmt.Sprintf("%s<=%d", wd, d.Num)
	}
	return strconv.Itoa(d.Num)
}

// LocalTime returns the instant of the given local date and time of day in
// milliseconds since the epoch, reading the local clock as if it was UTC.
func LocalTime(year int, month time.Month, day Day, millis int) int64 {
	return calendar.Millis(day.EpochDay(year, month), millis)
}

func formatMillis(ms int) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / calendar.MillisPerHour
	m := ms / calendar.MillisPerMinute % 60
	s := ms / calendar.MillisPerSecond % 60
	if s == 0 {
		return fmt.Sprintf("%s%d:%02d", sign, h, m)
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
}

func parseMonth(s string) (time.Month, error) {
	l := strings.ToLower(s)
	if len(l) >= 2 {
		for m := time.January; m <= time.December; m++ {
			long := strings.ToLower(m.String())
			if isAbbrev(l, long, long[:3]) {
				return m, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid month %q", s)
}

func parseWeekday(s string) (time.Weekday, error) {
	l := strings.ToLower(s)
	switch {
	case isAbbrev(l, "sunday", "su"):
		return time.Sunday, nil
	case isAbbrev(l, "monday", "m"):
		return time.Monday, nil
	case isAbbrev(l, "tuesday", "tu"):
		return time.Tuesday, nil
	case isAbbrev(l, "wednesday", "w"):
		return time.Wednesday, nil
	case isAbbrev(l, "thursday", "th"):
		return time.Thursday, nil
	case isAbbrev(l, "friday", "f"):
		return time.Friday, nil
	case isAbbrev(l, "saturday", "sa"):
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// isAbbrev reports whether s abbreviates long using at least the prefix min.
func isAbbrev(s string, long string, min string) bool {
	return strings.HasPrefix(s, min) && strings.HasPrefix(long, s)
}

// parseDay parses the ON column of a rule or the day of an UNTIL column.
//
//	5        the fifth of the month
//	lastSun  the last Sunday in the month
//	Sun>=8   first Sunday on or after the eighth
//	Sun<=25  last Sunday on or before the 25th
func parseDay(s string) (Day, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return Day{Form: DayFormNum, Num: n}, nil
	}
	if rest, ok := strings.CutPrefix(s, "last"); ok {
		wd, err := parseWeekday(rest)
		if err != nil {
			return Day{}, err
		}
		return Day{Form: DayFormLast, Weekday: wd}, nil
	}
	form := DayFormAfter
	wdStr, numStr, ok := strings.Cut(s, ">=")
	if !ok {
		form = DayFormBefore
		wdStr, numStr, ok = strings.Cut(s, "<=")
	}
	if !ok || wdStr == "" || numStr == "" {
		return Day{}, fmt.Errorf("expected weekday<=dayofmonth or weekday>=dayofmonth")
	}
	wd, err := parseWeekday(wdStr)
	if err != nil {
		return Day{}, fmt.Errorf("left part of comparison %q: %w", wdStr, err)
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return Day{}, fmt.Errorf("right part of comparison %q: %w", numStr, err)
	}
	return Day{Form: form, Num: n, Weekday: wd}, nil
}

// parseAt parses an AT column or the time of an UNTIL column.
// The suffixes w, s and u (or g, z) select wall clock, standard and universal time.
func parseAt(s string) (Time, error) {
	form := WallClock
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'w':
			s = s[:n-1]
		case 's':
			form, s = StandardTime, s[:n-1]
		case 'u', 'g', 'z':
			form, s = UniversalTime, s[:n-1]
		}
	}
	ms, err := parseTimeOfDay(s)
	if err != nil {
		return Time{}, err
	}
	return Time{Millis: ms, Form: form}, nil
}

// parseSave parses a SAVE column. The optional s or d suffix does not change the amount.
func parseSave(s string) (int, error) {
	if n := len(s); n > 1 && (s[n-1] == 's' || s[n-1] == 'd') {
		s = s[:n-1]
	}
	return parseTimeOfDay(s)
}

// parseTimeOfDay parses times such as "2", "2:00", "01:28:14", "00:19:32.13",
// "260:00" or "-2:30" into milliseconds. A lone "-" means zero.
func parseTimeOfDay(s string) (int, error) {
	if s == "-" {
		return 0, nil
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 || parts[0] == "" {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour format: %w", err)
	}
	var minutes, seconds, fraction int
	if len(parts) > 1 {
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid minute format: %w", err)
		}
	}
	if len(parts) > 2 {
		secStr, fracStr, _ := strings.Cut(parts[2], ".")
		if seconds, err = strconv.Atoi(secStr); err != nil {
			return 0, fmt.Errorf("invalid second format: %w", err)
		}
		if fracStr != "" {
			// Milliseconds are the finest resolution kept.
			fracStr = (fracStr + "00")[:3]
			if fraction, err = strconv.Atoi(fracStr); err != nil {
				return 0, fmt.Errorf("invalid fractional second format: %w", err)
			}
		}
	}
	ms := hours*calendar.MillisPerHour + minutes*calendar.MillisPerMinute +
		seconds*calendar.MillisPerSecond + fraction
	if neg {
		ms = -ms
	}
	return ms, nil
}
