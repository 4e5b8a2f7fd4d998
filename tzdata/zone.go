package tzdata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoRule is the RuleRef of a zone record without a rule table.
const NoRule = -1

// Zone is a named zone with its chronological history of zone records.
// Only the last record has no UNTIL time.
type Zone struct {
	Name string
	Recs []ZoneRec
}

// LastRec returns the record in effect at the end of the zone's history.
func (z *Zone) LastRec() *ZoneRec {
	return &z.Recs[len(z.Recs)-1]
}

// ZoneRec is one segment of a zone's history.
type ZoneRec struct {
	// GMTOffset is the standard time offset from UT in milliseconds.
	GMTOffset int
	// RuleName names the rule table the segment observes, empty for a fixed amount of saving.
	RuleName string
	// RuleRef indexes File.Rules. It is NoRule if RuleName is empty.
	RuleRef int
	// DirectSave is the fixed amount of saving in milliseconds of a segment without rules.
	DirectSave int
	Format     string
	Until      Until
}

// HasRuleRef reports whether the record observes a rule table.
func (z *ZoneRec) HasRuleRef() bool {
	return z.RuleRef != NoRule
}

// LocalUntil returns the UNTIL time as a local instant without regard to its clock.
func (z *ZoneRec) LocalUntil() int64 {
	return LocalTime(z.Until.Year, z.Until.Month, z.Until.Day, z.Until.Time.Millis)
}

// LocalUntilWall returns the UNTIL time as a local wall clock instant.
func (z *ZoneRec) LocalUntilWall(save, gmtOffset int) int64 {
	return LocalTime(z.Until.Year, z.Until.Month, z.Until.Day, z.Until.Time.WallMillis(save, gmtOffset))
}

// UntilTime returns the UTC instant of the UNTIL time given the amount of saving in
// effect when the segment ends.
func (z *ZoneRec) UntilTime(save int) int64 {
	t := z.LocalUntil()
	switch z.Until.Time.Form {
	case WallClock:
		t -= int64(z.GMTOffset + save)
	case StandardTime:
		t -= int64(z.GMTOffset)
	}
	return t
}

// UntilParts tells how many of the optional UNTIL columns were present.
type UntilParts int

const (
	UntilYear UntilParts = iota + 1
	UntilMonth
	UntilDay
	UntilTime
)

// Until is the UNTIL column of a zone line. Omitted parts default to January,
// the first of the month and midnight wall clock time.
type Until struct {
	Defined bool
	Year    int
	Month   time.Month
	Day     Day
	Time    Time
	Parts   UntilParts
}

func (u Until) String() string {
	if !u.Defined {
		return "-"
	}
	s := strconv.Itoa(u.Year)
	if u.Parts >= UntilMonth {
		s += " " + u.Month.String()[:3]
	}
	if u.Parts >= UntilDay {
		s += " " + u.Day.String()
	}
	if u.Parts >= UntilTime {
		s += " " + u.Time.String()
	}
	return s
}

// parseZoneNAME parses the NAME column of a zone line.
func parseZoneNAME(s string) (string, error) {
	if strings.HasPrefix(s, "/") || strings.Contains(s, "..") {
		return "", fmt.Errorf("name is not a relative path")
	}
	return s, nil
}

// parseZoneRec parses the columns of a zone line after its name, which are also the
// columns of a continuation line.
//
//	STDOFF  RULES  FORMAT  [UNTIL]
//	1:00    EU     CE%sT   1981 Mar lastSun 1:00u
func parseZoneRec(fields []string) (ZoneRec, error) {
	if len(fields) < 3 {
		return ZoneRec{}, fmt.Errorf("expected at least 3 fields, got %d", len(fields))
	}
	var (
		z    = ZoneRec{RuleRef: NoRule}
		errs error
		err  error
	)
	if z.GMTOffset, err = parseTimeOfDay(fields[0]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("STDOFF %q: %w", fields[0], err))
	}
	if z.RuleName, z.DirectSave, err = parseZoneRULES(fields[1]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("RULES %q: %w", fields[1], err))
	}
	z.Format = fields[2]
	if len(fields) > 3 {
		if z.Until, err = parseUntil(strings.Join(fields[3:], " ")); err != nil {
			errs = errors.Join(errs, fmt.Errorf("UNTIL %q: %w", strings.Join(fields[3:], " "), err))
		}
	}
	return z, errs
}

// parseZoneRULES parses the RULES column: "-" for standard time, an amount of
// saving such as "1:00", or the name of a rule table.
func parseZoneRULES(s string) (name string, save int, err error) {
	if s == "-" {
		return "", 0, nil
	}
	if c := s[0]; c == '-' || (c >= '0' && c <= '9') {
		save, err = parseSave(s)
		return "", save, err
	}
	return s, 0, nil
}

// parseUntil parses the UNTIL column, e.g. "1981 Mar lastSun 1:00u".
func parseUntil(s string) (Until, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 4 {
		return Until{}, fmt.Errorf("expected 1 to 4 fields, got %d", len(fields))
	}
	u := Until{
		Defined: true,
		Month:   time.January,
		Day:     Day{Form: DayFormNum, Num: 1},
		Parts:   UntilParts(len(fields)),
	}
	var err error
	if u.Year, err = strconv.Atoi(fields[0]); err != nil {
		return Until{}, fmt.Errorf("year: %w", err)
	}
	if len(fields) > 1 {
		if u.Month, err = parseMonth(fields[1]); err != nil {
			return Until{}, err
		}
	}
	if len(fields) > 2 {
		if u.Day, err = parseDay(fields[2]); err != nil {
			return Until{}, fmt.Errorf("day: %w", err)
		}
	}
	if len(fields) > 3 {
		if u.Time, err = parseAt(fields[3]); err != nil {
			return Until{}, fmt.Errorf("time: %w", err)
		}
	}
	return u, nil
}
