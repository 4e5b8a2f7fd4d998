package zifile

import (
	"bytes"
	"fmt"
	"io"
)

// TimeMode tells which clock the time of a last rule is measured on.
type TimeMode int

const (
	WallTime     TimeMode = 0
	StandardTime TimeMode = 1
	UTCTime      TimeMode = 2
)

func (m TimeMode) String() string {
	switch m {
	case WallTime:
		return "wall"
	case StandardTime:
		return "standard"
	case UTCTime:
		return "utc"
	default:
		return fmt.Sprintf("<undefined mode (%d)>", int(m))
	}
}

// RuleDate is one half of a last rule, in the encoding of a yearly daylight saving rule:
// Month is zero based and Day/DayOfWeek select the day.
//
//	Day  DayOfWeek
//	N    0          the N-th day of the month
//	-1   w          the last weekday w
//	N    -w         the first weekday w on or after day N
//	-N   -w         the last weekday w on or before day N
//
// Weekdays count from 1 for Sunday. Time is in milliseconds.
type RuleDate struct {
	Month     int
	Day       int
	DayOfWeek int
	Time      int
	Mode      TimeMode
}

// LastRule describes daylight saving time after the last transition of a zone.
type LastRule struct {
	Start RuleDate
	End   RuleDate
}

func (r LastRule) ints() []int {
	if r.Start.Mode == WallTime && r.End.Mode == WallTime {
		return []int{
			r.Start.Month, r.Start.Day, r.Start.DayOfWeek, r.Start.Time,
			r.End.Month, r.End.Day, r.End.DayOfWeek, r.End.Time,
		}
	}
	return []int{
		r.Start.Month, r.Start.Day, r.Start.DayOfWeek, r.Start.Time, int(r.Start.Mode),
		r.End.Month, r.End.Day, r.End.DayOfWeek, r.End.Time, int(r.End.Mode),
	}
}

func lastRuleFromInts(vs []int) (*LastRule, error) {
	switch len(vs) {
	case 8:
		return &LastRule{
			Start: RuleDate{Month: vs[0], Day: vs[1], DayOfWeek: vs[2], Time: vs[3]},
			End:   RuleDate{Month: vs[4], Day: vs[5], DayOfWeek: vs[6], Time: vs[7]},
		}, nil
	case 10:
		return &LastRule{
			Start: RuleDate{Month: vs[0], Day: vs[1], DayOfWeek: vs[2], Time: vs[3], Mode: TimeMode(vs[4])},
			End:   RuleDate{Month: vs[5], Day: vs[6], DayOfWeek: vs[7], Time: vs[8], Mode: TimeMode(vs[9])},
		}, nil
	}
	return nil, fmt.Errorf("last rule has %d values, want 8 or 10", len(vs))
}

// Zone is the content of a zone file. Offsets are in milliseconds.
type Zone struct {
	// RawOffset is the standard offset from UTC after the last transition.
	RawOffset int
	// LastDSTSaving is the amount of daylight saving of the last rule.
	// It is stored in seconds.
	LastDSTSaving int
	CRC32         uint32
	// Transitions are sorted by time.
	Transitions []Transition
	// Offsets holds total and daylight saving offsets referred to by Transitions.
	Offsets []int
	// LastRule is nil if the zone observes no daylight saving time after its last transition.
	LastRule *LastRule
	// WillGMTOffsetChange is set if the raw offset changes after the time of compilation.
	WillGMTOffsetChange bool
}

// Encode validates the zone and writes it to w.
func (z Zone) Encode(w io.Writer) error {
	if err := ValidateZone(z); err != nil {
		return err
	}
	if err := writeHeader(w, ZoneMagic); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rw := &recordWriter{w: w}
	if len(z.Transitions) > 0 {
		b := make([]byte, 8*len(z.Transitions))
		for i, t := range z.Transitions {
			order.PutUint64(b[8*i:], uint64(t.Pack()))
		}
		rw.write(TagTransition, b)
	}
	if len(z.Offsets) > 0 {
		rw.write(TagOffset, putInt32s(z.Offsets))
	}
	if z.LastRule != nil {
		rw.write(TagSimpleTimeZone, putInt32s(z.LastRule.ints()))
	}
	rw.write(TagRawOffset, putInt32s([]int{z.RawOffset}))
	if z.LastDSTSaving != 0 {
		b := make([]byte, 2)
		order.PutUint16(b, uint16(int16(z.LastDSTSaving/1000)))
		rw.write(TagLastDSTSaving, b)
	}
	b := make([]byte, 4)
	order.PutUint32(b, z.CRC32)
	rw.write(TagCRC32, b)
	if z.WillGMTOffsetChange {
		rw.write(TagGMTOffsetWillChange, []byte{1})
	}
	if rw.err != nil {
		return fmt.Errorf("write records: %w", rw.err)
	}
	return nil
}

// Bytes returns the encoded zone.
func (z Zone) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := z.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadZone reads a zone file from r.
func ReadZone(r io.Reader) (Zone, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Zone{}, err
	}
	return DecodeZone(b)
}

// DecodeZone decodes the content of a zone file.
func DecodeZone(b []byte) (Zone, error) {
	var z Zone
	recs, err := ReadRecords(b, ZoneMagic)
	if err != nil {
		return z, err
	}
	for _, rec := range recs {
		v := rec.Value
		switch rec.Tag {
		case TagTransition:
			if len(v)%8 != 0 {
				return z, fmt.Errorf("%w: transitions of %d bytes", ErrTruncated, len(v))
			}
			z.Transitions = make([]Transition, len(v)/8)
			for i := range z.Transitions {
				z.Transitions[i] = UnpackTransition(int64(order.Uint64(v[8*i:])))
			}
		case TagOffset:
			if z.Offsets, err = getInt32s(v); err != nil {
				return z, fmt.Errorf("offsets: %w", err)
			}
		case TagSimpleTimeZone:
			vs, err := getInt32s(v)
			if err != nil {
				return z, fmt.Errorf("last rule: %w", err)
			}
			if z.LastRule, err = lastRuleFromInts(vs); err != nil {
				return z, err
			}
		case TagRawOffset:
			if len(v) != 4 {
				return z, fmt.Errorf("%w: raw offset of %d bytes", ErrTruncated, len(v))
			}
			z.RawOffset = int(int32(order.Uint32(v)))
		case TagLastDSTSaving:
			if len(v) != 2 {
				return z, fmt.Errorf("%w: last dst saving of %d bytes", ErrTruncated, len(v))
			}
			z.LastDSTSaving = int(int16(order.Uint16(v))) * 1000
		case TagCRC32:
			if len(v) != 4 {
				return z, fmt.Errorf("%w: checksum of %d bytes", ErrTruncated, len(v))
			}
			z.CRC32 = order.Uint32(v)
		case TagGMTOffsetWillChange:
			if len(v) != 1 {
				return z, fmt.Errorf("%w: change flag of %d bytes", ErrTruncated, len(v))
			}
			z.WillGMTOffsetChange = v[0] == 1
		}
	}
	return z, nil
}
