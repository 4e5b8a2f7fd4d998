package zoneinfo

import (
	"time"

	"github.com/ngrash/go-javazic/internal/calendar"
	"github.com/ngrash/go-javazic/zifile"
)

// Zone answers offset queries for one zone. It is immutable and safe for concurrent use.
type Zone struct {
	id   string
	data zifile.Zone
}

// NewZone returns a Zone for decoded zone file content.
func NewZone(id string, data zifile.Zone) *Zone {
	return &Zone{id: id, data: data}
}

// ID returns the name the zone was loaded as.
func (z *Zone) ID() string { return z.id }

// RawOffset returns the standard offset in milliseconds after the last transition.
func (z *Zone) RawOffset() int { return z.data.RawOffset }

// UsesDST reports whether the zone observes daylight saving time after its last transition.
func (z *Zone) UsesDST() bool {
	return z.data.LastRule != nil || (len(z.data.Transitions) == 0 && z.data.LastDSTSaving != 0)
}

// WillGMTOffsetChange reports whether the raw offset changes after the data was compiled.
func (z *Zone) WillGMTOffsetChange() bool { return z.data.WillGMTOffsetChange }

// Checksum returns the checksum of the transition table.
func (z *Zone) Checksum() uint32 { return z.data.CRC32 }

// Offset returns the total offset from UTC and the amount of daylight saving, both in
// milliseconds, at the instant utc milliseconds after the epoch.
func (z *Zone) Offset(utc int64) (offset, dst int) {
	tx := z.data.Transitions
	if len(tx) == 0 {
		return z.extrapolate(utc)
	}
	if utc < tx[0].Time {
		return z.data.RawOffset, 0
	}

	// Binary search for the last transition at or before utc.
	lo, hi := 0, len(tx)
	for hi-lo > 1 {
		m := lo + (hi-lo)/2
		if utc < tx[m].Time {
			hi = m
		} else {
			lo = m
		}
	}
	if lo == len(tx)-1 && z.data.LastRule != nil {
		return z.extrapolate(utc)
	}
	return z.offsets(tx[lo])
}

// OffsetAt is like Offset for a time.Time.
func (z *Zone) OffsetAt(t time.Time) (offset, dst time.Duration) {
	o, d := z.Offset(t.UnixMilli())
	return time.Duration(o) * time.Millisecond, time.Duration(d) * time.Millisecond
}

func (z *Zone) offsets(t zifile.Transition) (offset, dst int) {
	offset = z.data.Offsets[t.OffsetIndex]
	if t.DSTIndex != 0 {
		dst = z.data.Offsets[t.DSTIndex]
	}
	return offset, dst
}

// extrapolate applies the last rule, or the fixed saving of a zone without transitions.
func (z *Zone) extrapolate(utc int64) (offset, dst int) {
	raw := z.data.RawOffset
	r := z.data.LastRule
	if r == nil {
		if len(z.data.Transitions) == 0 {
			return raw + z.data.LastDSTSaving, z.data.LastDSTSaving
		}
		return z.offsets(z.data.Transitions[len(z.data.Transitions)-1])
	}

	save := z.data.LastDSTSaving
	year := calendar.YearOf(utc + int64(raw))
	start := ruleInstant(r.Start, year, raw, 0)
	end := ruleInstant(r.End, year, raw, save)
	var inDST bool
	if start <= end {
		inDST = start <= utc && utc < end
	} else {
		// Southern hemisphere: daylight saving time spans the turn of the year.
		inDST = utc >= start || utc < end
	}
	if inDST {
		return raw + save, save
	}
	return raw, 0
}

// ruleInstant returns the UTC instant of d in year. save is the saving in effect just
// before the instant.
func ruleInstant(d zifile.RuleDate, year, raw, save int) int64 {
	month := time.Month(d.Month + 1)
	var day int64
	switch {
	case d.DayOfWeek == 0:
		day = calendar.EpochDay(year, month, d.Day)
	case d.DayOfWeek > 0:
		day = calendar.LastWeekday(year, month, time.Weekday(d.DayOfWeek-1))
	case d.Day > 0:
		day = calendar.WeekdayOnOrAfter(year, month, d.Day, time.Weekday(-d.DayOfWeek-1))
	default:
		day = calendar.WeekdayOnOrBefore(year, month, -d.Day, time.Weekday(-d.DayOfWeek-1))
	}
	t := calendar.Millis(day, d.Time)
	switch d.Mode {
	case zifile.WallTime:
		return t - int64(raw+save)
	case zifile.StandardTime:
		return t - int64(raw)
	default:
		return t
	}
}
