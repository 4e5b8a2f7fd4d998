package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type date struct {
	Year  int
	Month time.Month
	Day   int
}

func dateOf(epochDay int64) date {
	y, m, d := Date(epochDay)
	return date{y, m, d}
}

func TestEpochDay(t *testing.T) {
	cases := []struct {
		in   date
		want int64
	}{
		{date{1970, time.January, 1}, 0},
		{date{1970, time.January, 2}, 1},
		{date{1969, time.December, 31}, -1},
		{date{2000, time.March, 1}, 11017},
		{date{1900, time.January, 1}, -25567},
		// Day overflows into the next month.
		{date{1970, time.January, 32}, 31},
		// Day zero is the last day of the previous month.
		{date{1970, time.March, 0}, 58},
	}
	for _, c := range cases {
		if got := EpochDay(c.in.Year, c.in.Month, c.in.Day); got != c.want {
			t.Errorf("EpochDay(%+v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	for d := int64(-800000); d <= 800000; d += 997 {
		got := dateOf(d)
		if back := EpochDay(got.Year, got.Month, got.Day); back != d {
			t.Fatalf("EpochDay(Date(%d)) = %d (date %+v)", d, back, got)
		}
	}
}

func TestWeekdayRules(t *testing.T) {
	cases := []struct {
		name string
		got  int64
		want date
	}{
		{"lastSun", LastWeekday(2021, time.March, time.Sunday), date{2021, time.March, 28}},
		// Leap day
		{"Sat>=28 leap", WeekdayOnOrAfter(2020, time.February, 28, time.Saturday), date{2020, time.February, 29}},
		{"lastSat leap", LastWeekday(2020, time.February, time.Saturday), date{2020, time.February, 29}},
		// Leap day in a non-leap year
		{"Sat>=28", WeekdayOnOrAfter(2021, time.February, 28, time.Saturday), date{2021, time.March, 6}},
		// Day of week is on the exact day of month
		{"Sun>=28", WeekdayOnOrAfter(2021, time.March, 28, time.Sunday), date{2021, time.March, 28}},
		// Day of week is later in the same month
		{"Sun>=15", WeekdayOnOrAfter(2021, time.March, 15, time.Sunday), date{2021, time.March, 21}},
		// Day of week is next month
		{"Sun>=30", WeekdayOnOrAfter(2021, time.March, 30, time.Sunday), date{2021, time.April, 4}},
		// Day of week is next year
		{"Dec Sun>=30", WeekdayOnOrAfter(2021, time.December, 30, time.Sunday), date{2022, time.January, 2}},
		{"Sun<=28", WeekdayOnOrBefore(2021, time.March, 28, time.Sunday), date{2021, time.March, 28}},
		{"Sun<=15", WeekdayOnOrBefore(2021, time.March, 15, time.Sunday), date{2021, time.March, 14}},
		// Day of week is last month
		{"Sun<=5", WeekdayOnOrBefore(2021, time.March, 5, time.Sunday), date{2021, time.February, 28}},
		// Day of week is last year
		{"Jan Sun<=2", WeekdayOnOrBefore(2021, time.January, 2, time.Sunday), date{2020, time.December, 27}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if diff := cmp.Diff(c.want, dateOf(c.got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWeekday(t *testing.T) {
	if got := Weekday(0); got != time.Thursday {
		t.Errorf("Weekday(1970-01-01) = %v, want Thursday", got)
	}
	if got := Weekday(EpochDay(1900, time.January, 1)); got != time.Monday {
		t.Errorf("Weekday(1900-01-01) = %v, want Monday", got)
	}
}

func TestYearOf(t *testing.T) {
	if got := YearOf(-1); got != 1969 {
		t.Errorf("YearOf(-1) = %d, want 1969", got)
	}
	if got := YearOf(Millis(EpochDay(2037, time.December, 31), MillisPerDay-1)); got != 2037 {
		t.Errorf("YearOf(end of 2037) = %d, want 2037", got)
	}
}
