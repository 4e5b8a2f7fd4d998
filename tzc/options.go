package tzc

import (
	"log/slog"
	"time"

	"github.com/ngrash/go-javazic/internal/logging"
)

const (
	DefaultStartYear = 1900
	DefaultEndYear   = 2037
)

// Options controls a compilation.
type Options struct {
	// StartYear and EndYear bound the years for which transitions are computed.
	// Zero selects DefaultStartYear and DefaultEndYear.
	StartYear int
	EndYear   int
	// SingleYear, if not zero, reduces every zone to the raw offset and the daylight
	// saving rules in effect in that year. No transitions are computed.
	SingleYear int
	// Targets restricts the zones and aliases compiled. All are compiled if nil.
	Targets []string
	// Version is the version of the source data written to the mappings file.
	Version string
	// Now is the time of compilation, which decides whether a change of the raw
	// offset lies in the future. The current time is used if zero.
	Now time.Time
	// Workers is the number of zones resolved concurrently, 1 if not positive.
	Workers int
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.StartYear == 0 {
		o.StartYear = DefaultStartYear
	}
	if o.EndYear == 0 {
		o.EndYear = DefaultEndYear
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// targetSet returns the set of target names, or nil if every name is a target.
func (o Options) targetSet() map[string]bool {
	if o.Targets == nil {
		return nil
	}
	s := make(map[string]bool, len(o.Targets))
	for _, t := range o.Targets {
		s[t] = true
	}
	return s
}
