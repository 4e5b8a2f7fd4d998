package tzdata

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// YearType is the TYPE column of a rule line.
type YearType int

const (
	// AnyYear applies the rule in every year between FROM and TO.
	AnyYear YearType = iota
	// OddYear applies the rule in odd years only.
	OddYear
	// EvenYear applies the rule in even years only.
	EvenYear
)

// RuleRec is one line of a rule table.
type RuleRec struct {
	From   Year
	To     Year
	Type   YearType
	Month  time.Month
	Day    Day
	At     Time
	Save   int // milliseconds
	Letter string
	// LastRule is set if the record applies indefinitely (TO is "max").
	LastRule bool
}

// InYear reports whether the record applies in the given year.
func (r RuleRec) InYear(year int) bool {
	if Year(year) < r.From || Year(year) > r.To {
		return false
	}
	switch r.Type {
	case OddYear:
		return year%2 != 0
	case EvenYear:
		return year%2 == 0
	}
	return true
}

// LocalTime returns the local instant of the record's AT time in the given year
// without regard to the clock the AT time is measured on.
func (r RuleRec) LocalTime(year int) int64 {
	return LocalTime(year, r.Month, r.Day, r.At.Millis)
}

// TransitionTime returns the UTC instant at which the record takes effect in the
// given year, for a zone with gmtOffset whose current amount of saving is save.
func (r RuleRec) TransitionTime(year, gmtOffset, save int) int64 {
	t := r.LocalTime(year)
	switch r.At.Form {
	case WallClock:
		t -= int64(gmtOffset + save)
	case StandardTime:
		t -= int64(gmtOffset)
	}
	return t
}

// IsSameTransition reports whether the UNTIL time of prev, the zone record before the
// one using this rule, denotes the same local instant as this record does in the
// UNTIL year, although both may be written on different clocks. save is the amount of
// saving in effect before the transition.
//
// Known cases are Asia/Ashkhabad in 1991 and Europe/Riga in 1998.
func (r RuleRec) IsSameTransition(prev ZoneRec, save, gmtOffset int) bool {
	if !prev.Until.Defined {
		return false
	}
	var until, transition int64
	if prev.Until.Time.Form != r.At.Form {
		until = prev.LocalUntilWall(save, gmtOffset)
		transition = LocalTime(prev.Until.Year, r.Month, r.Day, r.At.WallMillis(save, gmtOffset))
	} else {
		until = prev.LocalUntil()
		transition = LocalTime(prev.Until.Year, r.Month, r.Day, r.At.Millis)
	}
	return until == transition
}

func (r RuleRec) String() string {
	to := r.To.String()
	if r.LastRule {
		to = "max"
	}
	return fmt.Sprintf("%v-%s %s %v %v save=%s", r.From, to, r.Month.String()[:3], r.Day, r.At, formatMillis(r.Save))
}

// Rule is a named rule table.
type Rule struct {
	Name string
	Recs []RuleRec
}

// Rules returns the records that apply in the given year in chronological order.
//
// Records in the same month are ordered by their local transition time. When three or
// more records apply, each record is compared with its neighbor in that order: if both
// have the same amount of saving, a record that applies indefinitely gives way to its
// dated neighbor. A record that already gave way is not replaced again.
func (r *Rule) Rules(year int) []RuleRec {
	var recs []RuleRec
	for _, rec := range r.Recs {
		if rec.InYear(year) {
			recs = append(recs, rec)
		}
	}
	if len(recs) <= 1 {
		return recs
	}
	before := func(a, b RuleRec) bool {
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.LocalTime(year) < b.LocalTime(year)
	}
	if len(recs) == 2 {
		if before(recs[1], recs[0]) {
			recs[0], recs[1] = recs[1], recs[0]
		}
		return recs
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return before(recs[i], recs[j])
	})
	out := make([]RuleRec, 1, len(recs))
	out[0] = recs[0]
	// keptPrev reports whether recs[i-1] is the last record of out.
	keptPrev := true
	for i := 1; i < len(recs); i++ {
		prev, rec := recs[i-1], recs[i]
		if prev.Save == rec.Save {
			if rec.LastRule {
				keptPrev = false
				continue
			}
			if prev.LastRule && keptPrev {
				out[len(out)-1] = rec
				continue
			}
		}
		out = append(out, rec)
		keptPrev = true
	}
	return out
}

// LastRules returns the records that describe daylight saving time beyond endYear:
// start has a positive amount of saving and end has none.
//
// Records that apply indefinitely are preferred, otherwise the records in effect in
// endYear are used. ok is false if no complete pair exists; inconsistent is set if
// exactly one half of the pair was found.
func (r *Rule) LastRules(endYear int) (start, end RuleRec, ok, inconsistent bool) {
	var s, e *RuleRec
	for i := range r.Recs {
		rec := &r.Recs[i]
		if !rec.LastRule {
			continue
		}
		if rec.Save > 0 {
			s = rec
		} else {
			e = rec
		}
	}
	if s == nil || e == nil {
		for i := range r.Recs {
			rec := &r.Recs[i]
			if Year(endYear) < rec.From || Year(endYear) > rec.To {
				continue
			}
			if s == nil && rec.Save > 0 {
				s = rec
			} else if e == nil && rec.Save == 0 {
				e = rec
			}
		}
	}
	if s == nil || e == nil {
		return RuleRec{}, RuleRec{}, false, s != nil || e != nil
	}
	return *s, *e, true, false
}

// YearRules returns the start and end records that apply in the given year.
func (r *Rule) YearRules(year int) (start, end RuleRec, ok bool) {
	var s, e *RuleRec
	for _, rec := range r.Rules(year) {
		if rec.Save > 0 {
			s = &rec
		} else if e == nil || s != nil {
			e = &rec
		}
	}
	if s == nil || e == nil {
		return RuleRec{}, RuleRec{}, false
	}
	return *s, *e, true
}

// parseRuleLine parses a rule line of the form
//
//	Rule  NAME  FROM  TO    TYPE  IN   ON       AT     SAVE   LETTER/S
//	Rule  US    1967  1973  -     Apr  lastSun  2:00w  1:00d  D
func parseRuleLine(fields []string) (string, RuleRec, error) {
	if len(fields) != 10 {
		return "", RuleRec{}, fmt.Errorf("expected 10 fields, got %d", len(fields))
	}
	var (
		r    RuleRec
		errs error
		err  error
	)
	name, err := parseRuleNAME(fields[1])
	if err != nil {
		errs = errors.Join(errs, fmt.Errorf("NAME %q: %w", fields[1], err))
	}
	if r.From, err = parseRuleFROM(fields[2]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("FROM %q: %w", fields[2], err))
	}
	if r.To, r.LastRule, err = parseRuleTO(fields[3], r.From); err != nil {
		errs = errors.Join(errs, fmt.Errorf("TO %q: %w", fields[3], err))
	}
	if r.Type, err = parseRuleTYPE(fields[4]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("TYPE %q: %w", fields[4], err))
	}
	if r.Month, err = parseMonth(fields[5]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("IN %q: %w", fields[5], err))
	}
	if r.Day, err = parseDay(fields[6]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("ON %q: %w", fields[6], err))
	}
	if r.At, err = parseAt(fields[7]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("AT %q: %w", fields[7], err))
	}
	if r.Save, err = parseSave(fields[8]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("SAVE %q: %w", fields[8], err))
	}
	r.Letter = parseRuleLETTERS(fields[9])
	return name, r, errs
}

// parseRuleNAME parses the NAME column of a rule.
// The name must start with a character that is neither an ASCII digit nor "-" nor "+".
func parseRuleNAME(s string) (string, error) {
	if s[0] >= '0' && s[0] <= '9' {
		return "", fmt.Errorf("name starts with a digit")
	}
	if s[0] == '-' || s[0] == '+' {
		return "", fmt.Errorf("name starts with a sign")
	}
	return s, nil
}

// parseRuleFROM parses the FROM column. The words minimum and maximum may be abbreviated.
func parseRuleFROM(s string) (Year, error) {
	if isAbbrev(s, "minimum", "mi") {
		return MinYear, nil
	}
	if isAbbrev(s, "maximum", "ma") {
		return MaxYear, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return Year(n), nil
}

// parseRuleTO parses the TO column. In addition to the forms of FROM, "only" repeats
// the FROM year. last reports whether the record applies indefinitely.
func parseRuleTO(s string, from Year) (y Year, last bool, err error) {
	switch {
	case isAbbrev(s, "minimum", "mi"):
		return MinYear, false, nil
	case isAbbrev(s, "maximum", "ma"):
		return MaxYear, true, nil
	case isAbbrev(s, "only", "o"):
		return from, false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return Year(n), false, nil
}

func parseRuleTYPE(s string) (YearType, error) {
	switch s {
	case "-", `""`:
		return AnyYear, nil
	case "odd":
		return OddYear, nil
	case "even":
		return EvenYear, nil
	}
	return 0, fmt.Errorf("unsupported year type")
}

// parseRuleLETTERS parses the LETTER/S column; "-" is the empty variable part.
func parseRuleLETTERS(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
