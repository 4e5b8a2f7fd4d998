package zifile

import "fmt"

// A packed transition is a 64-bit value:
//
//	 63                   12 11   8 7     4 3      0
//	+-----------------------+------+-------+--------+
//	|  UTC time in millis   | zero |  dst  | offset |
//	+-----------------------+------+-------+--------+
//
// The indexes refer to the offset table of the zone. A dst index of zero means the
// transition is not to daylight saving time.
const (
	TransitionTimeShift = 12
	DSTIndexShift       = 4
	IndexMask           = 0xF

	// MaxOffsets is the largest offset table a zone can have.
	MaxOffsets = IndexMask + 1

	// MinTransitionTime and MaxTransitionTime bound the time of a packed transition.
	MinTransitionTime = -1 << (63 - TransitionTimeShift)
	MaxTransitionTime = 1<<(63-TransitionTimeShift) - 1
)

// Transition is a change of the total or daylight saving offset of a zone.
type Transition struct {
	// Time is the instant of the transition in milliseconds since the epoch.
	Time int64
	// OffsetIndex refers to the total offset from UTC after the transition.
	OffsetIndex int
	// DSTIndex refers to the amount of daylight saving after the transition, 0 if none.
	DSTIndex int
}

// Pack returns the wire representation of t. Indexes are truncated to four bits.
func (t Transition) Pack() int64 {
	return t.Time<<TransitionTimeShift |
		int64(t.DSTIndex&IndexMask)<<DSTIndexShift |
		int64(t.OffsetIndex&IndexMask)
}

// UnpackTransition is the inverse of Transition.Pack.
func UnpackTransition(v int64) Transition {
	return Transition{
		Time:        v >> TransitionTimeShift,
		OffsetIndex: int(v & IndexMask),
		DSTIndex:    int(v >> DSTIndexShift & IndexMask),
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("{%d offset=%d dst=%d}", t.Time, t.OffsetIndex, t.DSTIndex)
}
