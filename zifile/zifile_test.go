package zifile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestZone_Encode(t *testing.T) {
	z := Zone{
		RawOffset:           3600000,
		LastDSTSaving:       3600000,
		CRC32:               0xDEADBEEF,
		Transitions:         []Transition{{Time: 1, OffsetIndex: 1, DSTIndex: 0}},
		Offsets:             []int{3600000, 7200000},
		WillGMTOffsetChange: true,
	}
	got, err := z.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		// magic and version
		'j', 'a', 'v', 'a', 'z', 'i', 0, 1,
		// transitions
		4, 0, 8, 0, 0, 0, 0, 0, 0, 0x10, 0x01,
		// offsets
		5, 0, 8, 0x00, 0x36, 0xEE, 0x80, 0x00, 0x6D, 0xDD, 0x00,
		// raw offset
		1, 0, 4, 0x00, 0x36, 0xEE, 0x80,
		// last dst saving in seconds
		2, 0, 2, 0x0E, 0x10,
		// crc32
		3, 0, 4, 0xDE, 0xAD, 0xBE, 0xEF,
		// raw offset will change
		7, 0, 1, 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}
}

func TestZone_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		zone Zone
	}{
		{"fixed", Zone{RawOffset: -18000000}},
		{"wall last rule", Zone{
			RawOffset:     -18000000,
			LastDSTSaving: 3600000,
			CRC32:         42,
			Transitions: []Transition{
				{Time: -2717650800000, OffsetIndex: 1},
				{Time: 2140668000000, OffsetIndex: 2, DSTIndex: 3},
				{Time: 2152155600000, OffsetIndex: 1},
			},
			Offsets: []int{-18000000, -17762000, -14400000, 3600000},
			LastRule: &LastRule{
				Start: RuleDate{Month: 2, Day: 8, DayOfWeek: -1, Time: 7200000},
				End:   RuleDate{Month: 10, Day: 1, DayOfWeek: -1, Time: 7200000},
			},
		}},
		{"utc last rule", Zone{
			RawOffset:     3600000,
			LastDSTSaving: 3600000,
			Transitions:   []Transition{{Time: 0, OffsetIndex: 0}},
			Offsets:       []int{3600000},
			LastRule: &LastRule{
				Start: RuleDate{Month: 2, Day: -1, DayOfWeek: 1, Time: 3600000, Mode: UTCTime},
				End:   RuleDate{Month: 9, Day: -1, DayOfWeek: 1, Time: 3600000, Mode: UTCTime},
			},
			WillGMTOffsetChange: true,
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := c.zone.Bytes()
			if err != nil {
				t.Fatal(err)
			}
			got, err := DecodeZone(b)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.zone, got); diff != "" {
				t.Errorf("DecodeZone() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLastRule_Length(t *testing.T) {
	wall := LastRule{Start: RuleDate{Month: 2}, End: RuleDate{Month: 9}}
	if n := len(wall.ints()); n != 8 {
		t.Errorf("wall clock last rule has %d values, want 8", n)
	}
	mixed := LastRule{Start: RuleDate{Month: 2, Mode: StandardTime}, End: RuleDate{Month: 9}}
	if n := len(mixed.ints()); n != 10 {
		t.Errorf("mixed last rule has %d values, want 10", n)
	}
}

func TestTransition_Pack(t *testing.T) {
	cases := []struct {
		t    Transition
		want int64
	}{
		{Transition{Time: 1, OffsetIndex: 1}, 0x1001},
		{Transition{Time: 1, OffsetIndex: 3, DSTIndex: 2}, 0x1023},
		{Transition{Time: 0, OffsetIndex: 15, DSTIndex: 15}, 0xFF},
		{Transition{Time: -1, OffsetIndex: 0}, -1 << 12},
	}
	for _, c := range cases {
		got := c.t.Pack()
		if got != c.want {
			t.Errorf("%v.Pack() = %#x, want %#x", c.t, got, c.want)
		}
		if got&0xF00 != 0 {
			t.Errorf("%v.Pack() sets reserved bits: %#x", c.t, got)
		}
		if back := UnpackTransition(got); back != c.t {
			t.Errorf("UnpackTransition(%#x) = %v, want %v", got, back, c.t)
		}
	}
	for _, tm := range []int64{MinTransitionTime, -2208988800000, 0, 2145916800000, MaxTransitionTime} {
		tr := Transition{Time: tm, OffsetIndex: 7, DSTIndex: 9}
		if got := UnpackTransition(tr.Pack()); got != tr {
			t.Errorf("round trip of %v = %v", tr, got)
		}
	}
}

func TestMappings_Encode(t *testing.T) {
	m := Mappings{
		Version:          "2024a",
		ZoneIDs:          []string{"A", "B"},
		RawOffsets:       []int{0},
		RawOffsetIndices: []byte{0, 0},
		Aliases:          map[string]string{"C": "A"},
		ExcludedZones:    []string{"D"},
	}
	got, err := m.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		'j', 'a', 'v', 'a', 'z', 'm', 0, 1,
		68, 0, 6, '2', '0', '2', '4', 'a', 0,
		64, 0, 6, 0, 2, 1, 'A', 1, 'B',
		65, 0, 4, 0, 0, 0, 0,
		66, 0, 2, 0, 0,
		67, 0, 6, 0, 1, 1, 'C', 1, 'A',
		69, 0, 4, 0, 1, 1, 'D',
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}

	back, err := DecodeMappings(got)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m, back); diff != "" {
		t.Errorf("DecodeMappings() mismatch (-want +got):\n%s", diff)
	}
	if off, ok := back.RawOffsetOf("B"); !ok || off != 0 {
		t.Errorf("RawOffsetOf(B) = %d, %v", off, ok)
	}
	if _, ok := back.RawOffsetOf("D"); ok {
		t.Error("RawOffsetOf(D) found an excluded zone")
	}
}

func TestDecode_SkipsUnknownTags(t *testing.T) {
	b, err := Zone{RawOffset: 3600000, CRC32: 7}.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	// Insert an unknown record right after the header.
	unknown := []byte{99, 0, 3, 'x', 'y', 'z'}
	b = append(append(append([]byte{}, b[:8]...), unknown...), b[8:]...)

	got, err := DecodeZone(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Zone{RawOffset: 3600000, CRC32: 7}, got); diff != "" {
		t.Errorf("DecodeZone() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Zone{RawOffset: 3600000}.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	badVersion := append([]byte{}, valid...)
	badVersion[7] = 2

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"short magic", []byte("java"), ErrTruncated},
		{"mappings magic", append([]byte("javazm\x00\x01"), valid[8:]...), ErrBadMagic},
		{"other file", []byte("TZif2\x00\x00\x00\x00\x00"), ErrBadMagic},
		{"bad version", badVersion, ErrUnsupportedVersion},
		{"truncated header", valid[:len(valid)-6], ErrTruncated},
		{"truncated value", valid[:len(valid)-1], ErrTruncated},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeZone(c.data)
			if !errors.Is(err, c.want) {
				t.Errorf("DecodeZone() error = %v, want %v", err, c.want)
			}
		})
	}

	if _, err := DecodeMappings(valid); !errors.Is(err, ErrBadMagic) {
		t.Errorf("DecodeMappings(zone file) error = %v, want %v", err, ErrBadMagic)
	}
}

func TestValidateZone(t *testing.T) {
	offsets := make([]int, 17)
	for i := range offsets {
		offsets[i] = i * 60000
	}
	cases := []struct {
		name string
		zone Zone
		want string
	}{
		{"too many offsets", Zone{Offsets: offsets}, "17 offsets"},
		{"offset index", Zone{Offsets: []int{0}, Transitions: []Transition{{OffsetIndex: 1}}}, "offset index 1 out of range"},
		{"dst index", Zone{Offsets: []int{0}, Transitions: []Transition{{DSTIndex: 2}}}, "dst index 2 out of range"},
		{"order", Zone{Offsets: []int{0}, Transitions: []Transition{{Time: 5}, {Time: 5}}}, "not after"},
		{"saving", Zone{LastDSTSaving: 1500}, "not representable"},
		{"no offsets", Zone{Transitions: []Transition{{Time: 1}}}, "transitions without offsets"},
		{"month", Zone{LastRule: &LastRule{Start: RuleDate{Month: 12}}}, "month 12"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateZone(c.zone)
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("ValidateZone() error = %v, want it to contain %q", err, c.want)
			}
			if err := c.zone.Encode(&bytes.Buffer{}); err == nil {
				t.Error("Encode() succeeded for an invalid zone")
			}
		})
	}
}

func TestValidateMappings(t *testing.T) {
	cases := []struct {
		name string
		m    Mappings
		want string
	}{
		{"indices", Mappings{ZoneIDs: []string{"A"}, RawOffsets: []int{0}}, "inconsistent raw offset indices"},
		{"index range", Mappings{ZoneIDs: []string{"A"}, RawOffsets: []int{0}, RawOffsetIndices: []byte{1}}, "out of range"},
		{"unsorted", Mappings{ZoneIDs: []string{"B", "A"}, RawOffsets: []int{0}, RawOffsetIndices: []byte{0, 0}}, "not sorted"},
		{"offsets", Mappings{RawOffsets: []int{1, 0}}, "not ascending"},
		{"long name", Mappings{ExcludedZones: []string{strings.Repeat("x", 256)}}, "length"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateMappings(c.m)
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("ValidateMappings() error = %v, want it to contain %q", err, c.want)
			}
		})
	}
}
