package zifile

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// Mappings is the content of the mappings file.
type Mappings struct {
	// Version is the version of the source data, e.g. "2024a".
	Version string
	// ZoneIDs lists the zones and aliases with a stable raw offset, sorted.
	ZoneIDs []string
	// RawOffsets lists the distinct raw offsets in ascending order.
	RawOffsets []int
	// RawOffsetIndices holds the index into RawOffsets of each zone ID.
	RawOffsetIndices []byte
	// Aliases maps an alias to its zone.
	Aliases map[string]string
	// ExcludedZones lists the zones whose raw offset changes in the future.
	ExcludedZones []string
}

// Encode validates the mappings and writes them to w. Aliases are written sorted.
func (m Mappings) Encode(w io.Writer) error {
	if err := ValidateMappings(m); err != nil {
		return err
	}
	if err := writeHeader(w, MappingsMagic); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rw := &recordWriter{w: w}
	rw.write(TagTZDataVersion, append([]byte(m.Version), 0))
	rw.write(TagZoneIDs, putNames(m.ZoneIDs))
	rw.write(TagRawOffsets, putInt32s(m.RawOffsets))
	rw.write(TagRawOffsetIndices, m.RawOffsetIndices)

	aliases := make([]string, 0, len(m.Aliases))
	for a := range m.Aliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	pairs := make([]string, 0, 2*len(aliases))
	for _, a := range aliases {
		pairs = append(pairs, a, m.Aliases[a])
	}
	b := putNames(pairs)
	// The count is the number of pairs.
	order.PutUint16(b, uint16(len(aliases)))
	rw.write(TagZoneAliases, b)

	if len(m.ExcludedZones) > 0 {
		rw.write(TagExcludedZones, putNames(m.ExcludedZones))
	}
	if rw.err != nil {
		return fmt.Errorf("write records: %w", rw.err)
	}
	return nil
}

// Bytes returns the encoded mappings.
func (m Mappings) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadMappings reads a mappings file from r.
func ReadMappings(r io.Reader) (Mappings, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Mappings{}, err
	}
	return DecodeMappings(b)
}

// DecodeMappings decodes the content of a mappings file.
func DecodeMappings(b []byte) (Mappings, error) {
	m := Mappings{Aliases: make(map[string]string)}
	recs, err := ReadRecords(b, MappingsMagic)
	if err != nil {
		return m, err
	}
	for _, rec := range recs {
		v := rec.Value
		switch rec.Tag {
		case TagTZDataVersion:
			m.Version = string(bytes.TrimRight(v, "\x00"))
		case TagZoneIDs:
			if m.ZoneIDs, _, err = getNames(v); err != nil {
				return m, fmt.Errorf("zone IDs: %w", err)
			}
		case TagRawOffsets:
			if m.RawOffsets, err = getInt32s(v); err != nil {
				return m, fmt.Errorf("raw offsets: %w", err)
			}
		case TagRawOffsetIndices:
			m.RawOffsetIndices = append([]byte(nil), v...)
		case TagZoneAliases:
			if len(v) < 2 {
				return m, fmt.Errorf("%w: alias count", ErrTruncated)
			}
			// Rewrite the pair count as a name count to share the name decoder.
			pairs := make([]byte, len(v))
			copy(pairs, v)
			order.PutUint16(pairs, 2*order.Uint16(v))
			names, _, err := getNames(pairs)
			if err != nil {
				return m, fmt.Errorf("aliases: %w", err)
			}
			for i := 0; i+1 < len(names); i += 2 {
				m.Aliases[names[i]] = names[i+1]
			}
		case TagExcludedZones:
			if m.ExcludedZones, _, err = getNames(v); err != nil {
				return m, fmt.Errorf("excluded zones: %w", err)
			}
		}
	}
	return m, nil
}

// RawOffsetOf returns the raw offset of a zone ID listed in ZoneIDs.
func (m Mappings) RawOffsetOf(id string) (int, bool) {
	i := sort.SearchStrings(m.ZoneIDs, id)
	if i == len(m.ZoneIDs) || m.ZoneIDs[i] != id || i >= len(m.RawOffsetIndices) {
		return 0, false
	}
	idx := int(m.RawOffsetIndices[i])
	if idx >= len(m.RawOffsets) {
		return 0, false
	}
	return m.RawOffsets[idx], true
}
