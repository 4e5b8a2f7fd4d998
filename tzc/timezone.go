package tzc

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/ngrash/go-javazic/tzdata"
	"github.com/ngrash/go-javazic/zifile"
)

// DSTType classifies the daylight saving time of a zone after its last transition.
type DSTType int

const (
	// DSTUndef is the state before resolution completes.
	DSTUndef DSTType = iota
	// NoDST means the zone never observed daylight saving time.
	NoDST
	// LastDST means the zone stays on a fixed amount of saving forever.
	LastDST
	// XDST means the zone observed daylight saving time in the past but no longer does.
	XDST
	// DST means the zone observes daylight saving time according to its last rules.
	DST
)

func (t DSTType) String() string {
	switch t {
	case NoDST:
		return "NO_DST"
	case LastDST:
		return "LAST_DST"
	case XDST:
		return "X_DST"
	case DST:
		return "DST"
	default:
		return "UNDEF"
	}
}

// Transition is a change of offset. Offsets are in milliseconds.
type Transition struct {
	Time int64
	// Offset is the total offset from UTC after the transition.
	Offset int
	// DST is the amount of daylight saving after the transition.
	DST int
}

// Timezone is the resolved history of a zone.
type Timezone struct {
	Name        string
	Transitions []Transition
	// Offsets is the offset table. Index 0 holds the final raw offset.
	Offsets   []int
	RawOffset int
	DSTType   DSTType
	// LastRules is empty or holds the records that start and end daylight saving
	// time after the last transition.
	LastRules     []tzdata.RuleRec
	LastDSTSaving int
	CRC32         uint32
	// WillRawOffsetChange is set if the raw offset changes after the time of compilation.
	WillRawOffsetChange bool
}

func newTimezone(name string) *Timezone {
	return &Timezone{Name: name}
}

// offsetIndex returns the index of offset in the offset table, adding it if needed.
func (tz *Timezone) offsetIndex(offset int) int {
	return tz.indexFrom(offset, 0)
}

// dstOffsetIndex is like offsetIndex for an amount of saving. Index 0 is reserved for no saving.
func (tz *Timezone) dstOffsetIndex(save int) int {
	if save == 0 {
		return 0
	}
	return tz.indexFrom(save, 1)
}

func (tz *Timezone) indexFrom(offset, from int) int {
	for i := from; i < len(tz.Offsets); i++ {
		if tz.Offsets[i] == offset {
			return i
		}
	}
	tz.Offsets = append(tz.Offsets, offset)
	return len(tz.Offsets) - 1
}

func (tz *Timezone) addTransition(time int64, gmtOffset, save int) {
	tz.offsetIndex(gmtOffset + save)
	tz.dstOffsetIndex(save)
	tz.Transitions = append(tz.Transitions, Transition{Time: time, Offset: gmtOffset + save, DST: save})
}

// setRawOffset records the raw offset that takes effect at fromTime.
func (tz *Timezone) setRawOffset(offset int, fromTime, now int64) {
	if fromTime > now {
		tz.WillRawOffsetChange = true
	}
	tz.RawOffset = offset
}

func (tz *Timezone) setLastRules(start, end tzdata.RuleRec) {
	tz.LastRules = []tzdata.RuleRec{start, end}
	tz.LastDSTSaving = start.Save
}

// Optimize removes redundant transitions. It is idempotent.
//
// A zone with a single offset loses all its transitions. Otherwise a transition
// sharing its time with its successor is removed, then a transition that does not
// change the offsets of its predecessor. The last transition is always kept.
func (tz *Timezone) Optimize() {
	if len(tz.Offsets) == 1 {
		tz.Transitions = nil
		tz.DSTType = NoDST
		return
	}
	ts := tz.Transitions
	for i := 0; i < len(ts)-1; i++ {
		if ts[i].Time == ts[i+1].Time {
			ts = append(ts[:i], ts[i+1:]...)
			i--
		}
	}
	for i := 0; i < len(ts)-2; i++ {
		if ts[i].Offset == ts[i+1].Offset && ts[i].DST == ts[i+1].DST {
			ts = append(ts[:i+1], ts[i+2:]...)
			i--
		}
	}
	tz.Transitions = ts
}

// Checksum computes the CRC32 of the transitions and stores it in tz.CRC32.
//
// Each transition contributes its local time as eight octets followed by its total
// offset and its amount of saving as four octets each, all big-endian.
func (tz *Timezone) Checksum() uint32 {
	h := crc32.NewIEEE()
	var b [16]byte
	for _, t := range tz.Transitions {
		binary.BigEndian.PutUint64(b[0:], uint64(t.Time+int64(t.Offset)))
		binary.BigEndian.PutUint32(b[8:], uint32(int32(t.Offset)))
		binary.BigEndian.PutUint32(b[12:], uint32(int32(t.DST)))
		h.Write(b[:])
	}
	tz.CRC32 = h.Sum32()
	return tz.CRC32
}

// ZoneFile converts the timezone to the content of its zone file.
func (tz *Timezone) ZoneFile() (zifile.Zone, error) {
	z := zifile.Zone{
		RawOffset:           tz.RawOffset,
		CRC32:               tz.CRC32,
		WillGMTOffsetChange: tz.WillRawOffsetChange,
	}
	if len(tz.Transitions) > 0 {
		if len(tz.Offsets) > zifile.MaxOffsets {
			return zifile.Zone{}, fmt.Errorf("zone %s: %d offsets exceed the limit of %d", tz.Name, len(tz.Offsets), zifile.MaxOffsets)
		}
		z.Offsets = append([]int(nil), tz.Offsets...)
		z.Transitions = make([]zifile.Transition, len(tz.Transitions))
		for i, t := range tz.Transitions {
			z.Transitions[i] = zifile.Transition{
				Time:        t.Time,
				OffsetIndex: tz.offsetIndex(t.Offset),
				DSTIndex:    tz.dstOffsetIndex(t.DST),
			}
		}
	}
	switch tz.DSTType {
	case DST:
		if len(tz.LastRules) == 2 {
			z.LastRule = &zifile.LastRule{
				Start: ruleDate(tz.LastRules[0]),
				End:   ruleDate(tz.LastRules[1]),
			}
			z.LastDSTSaving = tz.LastDSTSaving
		}
	case LastDST:
		z.LastDSTSaving = tz.LastDSTSaving
	}
	if err := zifile.ValidateZone(z); err != nil {
		return zifile.Zone{}, fmt.Errorf("zone %s: %w", tz.Name, err)
	}
	return z, nil
}

// ruleDate converts a rule record to the yearly rule encoding of zone files.
func ruleDate(r tzdata.RuleRec) zifile.RuleDate {
	d := zifile.RuleDate{Month: int(r.Month) - 1, Time: r.At.Millis}
	wd := int(r.Day.Weekday) + 1
	switch r.Day.Form {
	case tzdata.DayFormNum:
		d.Day = r.Day.Num
	case tzdata.DayFormLast:
		d.Day, d.DayOfWeek = -1, wd
	case tzdata.DayFormAfter:
		d.Day, d.DayOfWeek = r.Day.Num, -wd
	case tzdata.DayFormBefore:
		d.Day, d.DayOfWeek = -r.Day.Num, -wd
	}
	switch r.At.Form {
	case tzdata.StandardTime:
		d.Mode = zifile.StandardTime
	case tzdata.UniversalTime:
		d.Mode = zifile.UTCTime
	}
	return d
}
