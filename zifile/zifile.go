// Package zifile implements the binary format of compiled time zone files.
//
// A compiled data set is a directory with one file per zone, named after the zone,
// and one ZoneInfoMappings file describing all zones. Both kinds of file start with a
// seven-octet magic and a one-octet version, followed by a sequence of records:
//
//	+-----+-----------+------------------+
//	| tag | length(2) |   value (length) |
//	+-----+-----------+------------------+
//
// All multi-octet values are big-endian. Records appear without padding and readers
// skip records with unknown tags using their length.
package zifile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var order = binary.BigEndian

// Version is the octet following the magic.
type Version byte

// Version1 is the only version of the format.
const Version1 Version = 0x01

func (v Version) String() string {
	if v == Version1 {
		return "1"
	}
	return fmt.Sprintf("<undefined version (%d)>", v)
}

var (
	// ZoneMagic identifies a zone file.
	ZoneMagic = [7]byte{'j', 'a', 'v', 'a', 'z', 'i', 0}
	// MappingsMagic identifies the mappings file.
	MappingsMagic = [7]byte{'j', 'a', 'v', 'a', 'z', 'm', 0}
)

// MappingsFileName is the name of the mappings file in a compiled data directory.
const MappingsFileName = "ZoneInfoMappings"

// Tag identifies the content of a record.
type Tag byte

// Zone file tags.
const (
	TagRawOffset           Tag = 1
	TagLastDSTSaving       Tag = 2
	TagCRC32               Tag = 3
	TagTransition          Tag = 4
	TagOffset              Tag = 5
	TagSimpleTimeZone      Tag = 6
	TagGMTOffsetWillChange Tag = 7
)

// Mappings file tags.
const (
	TagZoneIDs          Tag = 64
	TagRawOffsets       Tag = 65
	TagRawOffsetIndices Tag = 66
	TagZoneAliases      Tag = 67
	TagTZDataVersion    Tag = 68
	TagExcludedZones    Tag = 69
)

func (t Tag) String() string {
	switch t {
	case TagRawOffset:
		return "RawOffset"
	case TagLastDSTSaving:
		return "LastDSTSaving"
	case TagCRC32:
		return "CRC32"
	case TagTransition:
		return "Transition"
	case TagOffset:
		return "Offset"
	case TagSimpleTimeZone:
		return "SimpleTimeZone"
	case TagGMTOffsetWillChange:
		return "GMTOffsetWillChange"
	case TagZoneIDs:
		return "ZoneIDs"
	case TagRawOffsets:
		return "RawOffsets"
	case TagRawOffsetIndices:
		return "RawOffsetIndices"
	case TagZoneAliases:
		return "ZoneAliases"
	case TagTZDataVersion:
		return "TZDataVersion"
	case TagExcludedZones:
		return "ExcludedZones"
	default:
		return fmt.Sprintf("<unknown tag (%d)>", byte(t))
	}
}

var (
	// ErrBadMagic is returned when a file does not start with the expected magic.
	ErrBadMagic = errors.New("zifile: bad magic")
	// ErrUnsupportedVersion is returned for a version other than Version1.
	ErrUnsupportedVersion = errors.New("zifile: unsupported version")
	// ErrTruncated is returned when a file ends inside a header or record.
	ErrTruncated = errors.New("zifile: truncated data")
)

// MaxRecordLength is the largest value a record can hold.
const MaxRecordLength = 0xFFFF

// Record is a tag-length-value record.
type Record struct {
	Tag   Tag
	Value []byte
}

// Write writes the record to w.
func (r Record) Write(w io.Writer) error {
	if len(r.Value) > MaxRecordLength {
		return fmt.Errorf("record %v: value of %d bytes exceeds %d", r.Tag, len(r.Value), MaxRecordLength)
	}
	var head [3]byte
	head[0] = byte(r.Tag)
	order.PutUint16(head[1:], uint16(len(r.Value)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err := w.Write(r.Value)
	return err
}

// writeHeader writes magic and version.
func writeHeader(w io.Writer, magic [7]byte) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	_, err := w.Write([]byte{byte(Version1)})
	return err
}

// ReadRecords checks magic and version of b and returns its records in file order.
func ReadRecords(b []byte, magic [7]byte) ([]Record, error) {
	if len(b) < len(magic)+1 {
		if bytes.HasPrefix(magic[:], b) {
			return nil, ErrTruncated
		}
		return nil, ErrBadMagic
	}
	if !bytes.Equal(b[:len(magic)], magic[:]) {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, b[:len(magic)])
	}
	if v := Version(b[len(magic)]); v != Version1 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedVersion, v)
	}
	b = b[len(magic)+1:]

	var recs []Record
	for len(b) > 0 {
		if len(b) < 3 {
			return nil, fmt.Errorf("%w: record header", ErrTruncated)
		}
		tag := Tag(b[0])
		n := int(order.Uint16(b[1:3]))
		b = b[3:]
		if len(b) < n {
			return nil, fmt.Errorf("%w: record %v needs %d bytes, %d left", ErrTruncated, tag, n, len(b))
		}
		recs = append(recs, Record{Tag: tag, Value: b[:n:n]})
		b = b[n:]
	}
	return recs, nil
}

// recordWriter collects the first error of a sequence of record writes.
type recordWriter struct {
	w   io.Writer
	err error
}

func (rw *recordWriter) write(tag Tag, value []byte) {
	if rw.err != nil {
		return
	}
	rw.err = Record{Tag: tag, Value: value}.Write(rw.w)
}

func putInt32s(vs []int) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		order.PutUint32(b[4*i:], uint32(int32(v)))
	}
	return b
}

func getInt32s(b []byte) ([]int, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of 4", ErrTruncated, len(b))
	}
	vs := make([]int, len(b)/4)
	for i := range vs {
		vs[i] = int(int32(order.Uint32(b[4*i:])))
	}
	return vs, nil
}

// putNames encodes a two-octet count followed by names, each prefixed by a one-octet length.
func putNames(names []string) []byte {
	b := make([]byte, 2, 2+16*len(names))
	order.PutUint16(b, uint16(len(names)))
	for _, n := range names {
		b = append(b, byte(len(n)))
		b = append(b, n...)
	}
	return b
}

func getNames(b []byte) ([]string, []byte, error) {
	if len(b) < 2 {
		return nil, nil, fmt.Errorf("%w: name count", ErrTruncated)
	}
	count := int(order.Uint16(b))
	b = b[2:]
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if len(b) < 1 || len(b) < 1+int(b[0]) {
			return nil, nil, fmt.Errorf("%w: name %d of %d", ErrTruncated, i+1, count)
		}
		n := int(b[0])
		names = append(names, string(b[1:1+n]))
		b = b[1+n:]
	}
	return names, b, nil
}
