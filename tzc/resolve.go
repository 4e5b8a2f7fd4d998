package tzc

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ngrash/go-javazic/internal/logging"
	"github.com/ngrash/go-javazic/tzdata"
	"github.com/ngrash/go-javazic/zifile"
)

// knownSameTransitions lists the zones and years in which the UNTIL time of a zone
// record and the first transition of the following record are the same instant
// written on different clocks.
var knownSameTransitions = map[string]int{
	"Asia/Ashkhabad": 1991,
	"Asia/Ashgabat":  1991,
	"Europe/Riga":    1998,
}

// resolver computes the transitions of the zones of one source file.
type resolver struct {
	file   *tzdata.File
	opts   Options
	now    int64
	logger *slog.Logger
}

func newResolver(f *tzdata.File, opts Options) *resolver {
	opts = opts.withDefaults()
	return &resolver{
		file:   f,
		opts:   opts,
		now:    opts.Now.UnixMilli(),
		logger: opts.Logger,
	}
}

// Resolve computes the transitions of zone z of f between opts.StartYear and opts.EndYear
// and returns the optimized result with its checksum.
func Resolve(f *tzdata.File, z *tzdata.Zone, opts Options) (*Timezone, error) {
	return newResolver(f, opts).resolve(z)
}

func (r *resolver) resolve(z *tzdata.Zone) (*Timezone, error) {
	if len(z.Recs) == 0 {
		return nil, fmt.Errorf("zone %s: no zone records", z.Name)
	}
	var (
		startYear = r.opts.StartYear
		endYear   = r.opts.EndYear
		minTime   = tzdata.LocalTime(startYear, time.January, tzdata.Day{Num: 1}, 0)
		tailTime  = tzdata.LocalTime(endYear, time.January, tzdata.Day{Num: 1}, 0)

		tz            = newTimezone(z.Name)
		fromTime      = minTime
		fromYear      = startYear
		currentSave   = 0
		lastGMTOffset int
		prev          *tzdata.ZoneRec
	)
	tz.offsetIndex(z.LastRec().GMTOffset)

	for zi := range z.Recs {
		zrec := &z.Recs[zi]
		gmt := zrec.GMTOffset
		std := zrec.DirectSave

		if prev == nil || gmt != lastGMTOffset {
			tz.setRawOffset(gmt, fromTime, r.now)
			lastGMTOffset = gmt
		}

		rule := r.file.RuleOf(zrec)
		if !zrec.Until.Defined {
			if rule != nil {
				start, end, ok, inconsistent := rule.LastRules(endYear)
				switch {
				case ok:
					tz.setLastRules(start, end)
				case inconsistent:
					r.logger.Warn("rule has no complete pair of last rules", "zone", z.Name, "rule", rule.Name)
				}
			} else if std != 0 {
				tz.LastDSTSaving = std
			}
		}

		if rule == nil {
			if !zrec.Until.Defined || zrec.UntilTime(std) >= fromTime {
				tz.addTransition(fromTime, gmt, std)
			}
			currentSave = std
			if !zrec.Until.Defined {
				if len(tz.Transitions) > 0 {
					if std == 0 {
						tz.DSTType = XDST
					} else {
						tz.DSTType = LastDST
					}
					tz.addTransition(tailTime-int64(gmt), gmt, std)
				} else {
					tz.DSTType = NoDST
				}
				break
			}
		} else {
			currentSave = r.expandRule(tz, z, zrec, prev, rule, fromTime, fromYear, minTime, tailTime, currentSave)
		}

		if zrec.Until.Defined {
			if until := zrec.UntilTime(currentSave); until > fromTime {
				fromTime = until
				fromYear = zrec.Until.Year
			}
		}
		prev = zrec
	}

	if tz.DSTType == DSTUndef {
		tz.DSTType = DST
	}
	if len(tz.Offsets) > zifile.MaxOffsets {
		return nil, fmt.Errorf("zone %s: needs %d distinct offsets, at most %d are supported", z.Name, len(tz.Offsets), zifile.MaxOffsets)
	}
	tz.Optimize()
	tz.Checksum()
	return tz, nil
}

// expandRule adds the transitions of a zone record that observes rule. It returns the
// amount of saving in effect when the record ends.
func (r *resolver) expandRule(
	tz *Timezone, z *tzdata.Zone, zrec, prev *tzdata.ZoneRec, rule *tzdata.Rule,
	fromTime int64, fromYear int, minTime, tailTime int64, currentSave int,
) int {
	gmt := zrec.GMTOffset
	// prevSave is the amount of saving in effect when the previous record ended.
	prevSave := currentSave
	fromTimeUsed := false

	for year := r.opts.StartYear; year <= r.opts.EndYear; year++ {
		if zrec.Until.Defined && year > zrec.Until.Year {
			break
		}
		rules := rule.Rules(year)
		if len(rules) == 0 {
			if year == fromYear {
				tz.addTransition(fromTime, gmt, currentSave)
				fromTimeUsed = true
			}
			if year == r.opts.EndYear && !zrec.Until.Defined {
				if len(tz.Transitions) > 0 {
					// The zone stopped observing daylight saving time.
					tz.DSTType = XDST
					tz.addTransition(tailTime-int64(gmt), gmt, 0)
				} else {
					tz.DSTType = NoDST
				}
			}
			continue
		}
		logging.Trace(r.logger, "expanding rules", "zone", z.Name, "rule", rule.Name, "year", year, "records", len(rules))

		for i, rrec := range rules {
			transition := rrec.TransitionTime(year, gmt, currentSave)
			if zrec.Until.Defined && transition >= zrec.UntilTime(currentSave) {
				// A change of the GMT offset is a transition of its own.
				if !fromTimeUsed && prev != nil && gmt != prev.GMTOffset {
					tz.addTransition(fromTime, gmt, currentSave)
				}
				return currentSave
			}

			if !fromTimeUsed {
				if fromTime <= transition {
					fromTimeUsed = true
					if fromTime != minTime {
						if rrec.IsSameTransition(*prev, prevSave, gmt) {
							if known, ok := knownSameTransitions[z.Name]; !ok || known != year {
								r.logger.Warn("zone record ends at the same instant as the next rule transition",
									"zone", z.Name, "year", year, "rule", rule.Name)
							}
							currentSave = rrec.Save
							tz.addTransition(fromTime, gmt, currentSave)
							continue
						}
						if !prev.HasRuleRef() || prev.RuleRef != zrec.RuleRef || gmt != prev.GMTOffset {
							save := currentSave
							if fromTime == transition {
								save = rrec.Save
							}
							tz.addTransition(fromTime, gmt, save)
						}
					} else {
						tz.addTransition(minTime, gmt, 0)
						tz.addTransition(transition, gmt, rrec.Save)
					}
				} else if year == fromYear && i == len(rules)-1 {
					tz.addTransition(fromTime, gmt, rrec.Save)
					fromTimeUsed = true
				}
			}

			currentSave = rrec.Save
			if fromTime < transition {
				tz.addTransition(transition, gmt, currentSave)
			}
		}
	}
	return currentSave
}

// SingleYear reduces zone z of f to the raw offset and the daylight saving rules
// in effect in year. The result has no transitions.
func SingleYear(f *tzdata.File, z *tzdata.Zone, year int) (*Timezone, error) {
	if len(z.Recs) == 0 {
		return nil, fmt.Errorf("zone %s: no zone records", z.Name)
	}
	zrec := z.LastRec()
	for i := range z.Recs {
		if !z.Recs[i].Until.Defined || z.Recs[i].Until.Year > year {
			zrec = &z.Recs[i]
			break
		}
	}
	tz := newTimezone(z.Name)
	tz.RawOffset = zrec.GMTOffset
	tz.offsetIndex(zrec.GMTOffset)
	tz.DSTType = NoDST
	if rule := f.RuleOf(zrec); rule != nil {
		if start, end, ok := rule.YearRules(year); ok {
			tz.setLastRules(start, end)
			tz.DSTType = DST
		}
	} else if zrec.DirectSave != 0 {
		tz.LastDSTSaving = zrec.DirectSave
		tz.DSTType = LastDST
	}
	tz.Checksum()
	return tz, nil
}
