package zifile

import (
	"errors"
	"fmt"
	"math"
)

// ValidateZone reports every reason why z cannot be encoded.
func ValidateZone(z Zone) error {
	var errs []error

	// Offsets
	if len(z.Offsets) > MaxOffsets {
		errs = append(errs, fmt.Errorf("%d offsets: at most %d are supported", len(z.Offsets), MaxOffsets))
	}
	if len(z.Transitions) > 0 && len(z.Offsets) == 0 {
		errs = append(errs, fmt.Errorf("transitions without offsets"))
	}

	// Transitions
	if n := 8 * len(z.Transitions); n > MaxRecordLength {
		errs = append(errs, fmt.Errorf("%d transitions: record of %d bytes exceeds %d", len(z.Transitions), n, MaxRecordLength))
	}
	for i, t := range z.Transitions {
		if t.Time < MinTransitionTime || t.Time > MaxTransitionTime {
			errs = append(errs, fmt.Errorf("transition %d: time %d out of range", i, t.Time))
		}
		if t.OffsetIndex < 0 || t.OffsetIndex >= len(z.Offsets) || t.OffsetIndex > IndexMask {
			errs = append(errs, fmt.Errorf("transition %d: offset index %d out of range", i, t.OffsetIndex))
		}
		if t.DSTIndex < 0 || t.DSTIndex >= len(z.Offsets) || t.DSTIndex > IndexMask {
			errs = append(errs, fmt.Errorf("transition %d: dst index %d out of range", i, t.DSTIndex))
		}
		if i > 0 && t.Time <= z.Transitions[i-1].Time {
			errs = append(errs, fmt.Errorf("transition %d: time %d not after %d", i, t.Time, z.Transitions[i-1].Time))
		}
	}

	// LastDSTSaving
	if z.LastDSTSaving%1000 != 0 || z.LastDSTSaving/1000 < math.MinInt16 || z.LastDSTSaving/1000 > math.MaxInt16 {
		errs = append(errs, fmt.Errorf("last dst saving %d ms is not representable in 16-bit seconds", z.LastDSTSaving))
	}

	// LastRule
	if r := z.LastRule; r != nil {
		for _, d := range []RuleDate{r.Start, r.End} {
			if d.Month < 0 || d.Month > 11 {
				errs = append(errs, fmt.Errorf("last rule: month %d out of range", d.Month))
			}
			if d.Mode < WallTime || d.Mode > UTCTime {
				errs = append(errs, fmt.Errorf("last rule: invalid time mode %d", d.Mode))
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateMappings reports every reason why m cannot be encoded.
func ValidateMappings(m Mappings) error {
	var errs []error

	if len(m.RawOffsetIndices) != len(m.ZoneIDs) {
		errs = append(errs, fmt.Errorf("inconsistent raw offset indices: zone IDs = %d, indices = %d", len(m.ZoneIDs), len(m.RawOffsetIndices)))
	}
	if len(m.RawOffsets) > math.MaxUint8+1 {
		errs = append(errs, fmt.Errorf("%d raw offsets: at most %d are supported", len(m.RawOffsets), math.MaxUint8+1))
	}
	for i, idx := range m.RawOffsetIndices {
		if int(idx) >= len(m.RawOffsets) {
			errs = append(errs, fmt.Errorf("raw offset index %d of zone %d out of range", idx, i))
		}
	}
	for i := 1; i < len(m.RawOffsets); i++ {
		if m.RawOffsets[i] <= m.RawOffsets[i-1] {
			errs = append(errs, fmt.Errorf("raw offsets not ascending at %d", i))
		}
	}
	for i := 1; i < len(m.ZoneIDs); i++ {
		if m.ZoneIDs[i] <= m.ZoneIDs[i-1] {
			errs = append(errs, fmt.Errorf("zone IDs not sorted at %q", m.ZoneIDs[i]))
		}
	}
	if len(m.Aliases) > math.MaxInt16 {
		errs = append(errs, fmt.Errorf("%d aliases: at most %d are supported", len(m.Aliases), math.MaxInt16))
	}

	names := append(append([]string{}, m.ZoneIDs...), m.ExcludedZones...)
	for a, z := range m.Aliases {
		names = append(names, a, z)
	}
	for _, n := range names {
		if len(n) == 0 || len(n) > math.MaxUint8 {
			errs = append(errs, fmt.Errorf("name %q: length must be 1 to %d bytes", n, math.MaxUint8))
		}
	}

	size := func(names []string) int {
		n := 2
		for _, s := range names {
			n += 1 + len(s)
		}
		return n
	}
	if n := size(m.ZoneIDs); n > MaxRecordLength {
		errs = append(errs, fmt.Errorf("zone IDs: record of %d bytes exceeds %d", n, MaxRecordLength))
	}
	if n := size(m.ExcludedZones); n > MaxRecordLength {
		errs = append(errs, fmt.Errorf("excluded zones: record of %d bytes exceeds %d", n, MaxRecordLength))
	}
	var pairs []string
	for a, z := range m.Aliases {
		pairs = append(pairs, a, z)
	}
	if n := size(pairs); n > MaxRecordLength {
		errs = append(errs, fmt.Errorf("aliases: record of %d bytes exceeds %d", n, MaxRecordLength))
	}
	if n := len(m.Version) + 1; n > MaxRecordLength {
		errs = append(errs, fmt.Errorf("version: record of %d bytes exceeds %d", n, MaxRecordLength))
	}
	return errors.Join(errs...)
}
