package tzc

import (
	"log/slog"
	"sort"
	"time"

	"github.com/ngrash/go-javazic/internal/logging"
	"github.com/ngrash/go-javazic/tzdata"
	"github.com/ngrash/go-javazic/zifile"
)

// Mappings aggregates the zones and aliases of all source files: the zones grouped by
// their raw offset, the aliases and the zones whose raw offset changes in the future.
type Mappings struct {
	now     int64
	targets map[string]bool
	logger  *slog.Logger

	// rawOffsets is sorted; buckets holds the zone names of each raw offset.
	rawOffsets []int
	buckets    map[int]map[string]bool
	excluded   map[string]bool
	aliases    map[string]string
}

// NewMappings returns empty mappings. A zone is excluded if its raw offset changes
// after now. If targets is not nil, only those zones and aliases are kept.
func NewMappings(now time.Time, targets []string, logger *slog.Logger) *Mappings {
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Mappings{
		now:      now.UnixMilli(),
		logger:   logger,
		buckets:  make(map[int]map[string]bool),
		excluded: make(map[string]bool),
		aliases:  make(map[string]string),
	}
	if targets != nil {
		m.targets = make(map[string]bool, len(targets))
		for _, t := range targets {
			m.targets[t] = true
		}
	}
	return m
}

func (m *Mappings) isTarget(name string) bool {
	return m.targets == nil || m.targets[name]
}

// Add adds the zones and aliases of a source file.
func (m *Mappings) Add(f *tzdata.File) {
	for _, z := range f.Zones {
		if !m.isTarget(z.Name) || len(z.Recs) == 0 {
			continue
		}
		raw := z.LastRec().GMTOffset
		if m.willRawOffsetChange(z, raw) {
			m.excluded[z.Name] = true
			continue
		}
		m.bucket(raw)[z.Name] = true
	}
	for alias, target := range f.Aliases {
		m.aliases[alias] = target
	}
}

func (m *Mappings) willRawOffsetChange(z *tzdata.Zone, raw int) bool {
	for i := range z.Recs {
		zrec := &z.Recs[i]
		if zrec.Until.Defined && zrec.GMTOffset != raw && zrec.UntilTime(0) > m.now {
			return true
		}
	}
	return false
}

// bucket returns the set of zones with the given raw offset, creating it if needed.
func (m *Mappings) bucket(raw int) map[string]bool {
	if b, ok := m.buckets[raw]; ok {
		return b
	}
	i := sort.SearchInts(m.rawOffsets, raw)
	m.rawOffsets = append(m.rawOffsets, 0)
	copy(m.rawOffsets[i+1:], m.rawOffsets[i:])
	m.rawOffsets[i] = raw
	b := make(map[string]bool)
	m.buckets[raw] = b
	return b
}

// leaf follows the alias chain starting at name and returns the first name that is not
// an alias. ok is false if the chain has a cycle.
func (m *Mappings) leaf(name string) (leaf string, ok bool) {
	seen := map[string]bool{name: true}
	for {
		next, isAlias := m.aliases[name]
		if !isAlias {
			return name, true
		}
		if seen[next] {
			return "", false
		}
		seen[next] = true
		name = next
	}
}

// Resolve maps every alias directly to its zone and adds it to the zone's bucket, or to
// the excluded zones if its zone is excluded. Aliases of unknown zones are removed.
func (m *Mappings) Resolve() {
	names := make([]string, 0, len(m.aliases))
	for alias := range m.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)

	resolved := make(map[string]string, len(names))
	for _, alias := range names {
		target := m.aliases[alias]
		leaf, ok := m.leaf(alias)
		if !ok {
			m.logger.Warn("alias chain has a cycle", "alias", alias)
			continue
		}
		if !m.isTarget(alias) {
			m.logger.Info("alias is not a target", "alias", alias, "zone", leaf)
			continue
		}
		if m.excluded[leaf] {
			m.excluded[alias] = true
			resolved[alias] = leaf
			continue
		}
		raw, ok := m.rawOffsetOf(leaf)
		if !ok {
			m.logger.Warn("alias refers to an unknown zone", "alias", alias, "target", target)
			continue
		}
		m.buckets[raw][alias] = true
		resolved[alias] = leaf
	}
	m.aliases = resolved
}

func (m *Mappings) rawOffsetOf(zone string) (int, bool) {
	for _, raw := range m.rawOffsets {
		if m.buckets[raw][zone] {
			return raw, true
		}
	}
	return 0, false
}

// RawOffsets returns the distinct raw offsets in ascending order.
func (m *Mappings) RawOffsets() []int {
	return append([]int(nil), m.rawOffsets...)
}

// ZonesAt returns the sorted zones and aliases with the given raw offset.
func (m *Mappings) ZonesAt(raw int) []string {
	return sortedKeys(m.buckets[raw])
}

// Aliases returns a copy of the alias table.
func (m *Mappings) Aliases() map[string]string {
	a := make(map[string]string, len(m.aliases))
	for k, v := range m.aliases {
		a[k] = v
	}
	return a
}

// ExcludedZones returns the sorted excluded zones and aliases.
func (m *Mappings) ExcludedZones() []string {
	return sortedKeys(m.excluded)
}

// File returns the content of the mappings file.
func (m *Mappings) File(version string) zifile.Mappings {
	index := make(map[string]byte)
	for i, raw := range m.rawOffsets {
		for name := range m.buckets[raw] {
			index[name] = byte(i)
		}
	}
	ids := sortedKeys(index)
	indices := make([]byte, len(ids))
	for i, id := range ids {
		indices[i] = index[id]
	}
	return zifile.Mappings{
		Version:          version,
		ZoneIDs:          ids,
		RawOffsets:       m.RawOffsets(),
		RawOffsetIndices: indices,
		Aliases:          m.Aliases(),
		ExcludedZones:    m.ExcludedZones(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
