// Package zoneinfo reads compiled zone files and the mappings file at run time.
//
// A Store loads files lazily and keeps them for the lifetime of the process. Missing or
// corrupt files never fail a lookup: the affected zone simply has no data.
package zoneinfo

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/ngrash/go-javazic/internal/logging"
	"github.com/ngrash/go-javazic/zifile"
)

// Provider answers zone queries.
type Provider interface {
	// ZoneIDs returns all zone IDs in sorted order, aliases and excluded zones included.
	ZoneIDs() []string
	// ZoneIDsAt returns the zone IDs whose raw offset is rawOffset milliseconds.
	ZoneIDsAt(rawOffset int) []string
	// Alias returns the zone an alias refers to.
	Alias(id string) (string, bool)
	// Zone returns the zone with the given ID or alias.
	Zone(id string) (*Zone, bool)
	// Version returns the tzdata version of the data.
	Version() string
	// ExcludedZones returns the zones whose raw offset changes in the future.
	ExcludedZones() []string
}

var _ Provider = (*Store)(nil)

// Store is a Provider backed by a directory of compiled files.
type Store struct {
	fsys   fs.FS
	logger *slog.Logger

	mappingsOnce sync.Once
	mappings     zifile.Mappings
	mappingsErr  error

	mu sync.Mutex
	// zones caches loaded zones. A nil entry records a zone without data.
	zones map[string]*Zone
}

// NewStore returns a Store reading from fsys. A nil logger discards problems with the data.
func NewStore(fsys fs.FS, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		fsys:   fsys,
		logger: logger,
		zones:  make(map[string]*Zone),
	}
}

var (
	sharedMu sync.Mutex
	shared   = make(map[string]*Store)
)

// Shared returns the process-wide Store for the directory dir.
func Shared(dir string) *Store {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	sharedMu.Lock()
	defer sharedMu.Unlock()
	s, ok := shared[dir]
	if !ok {
		s = NewStore(os.DirFS(dir), slog.Default())
		shared[dir] = s
	}
	return s
}

func (s *Store) loadMappings() (zifile.Mappings, error) {
	s.mappingsOnce.Do(func() {
		b, err := fs.ReadFile(s.fsys, zifile.MappingsFileName)
		if err == nil {
			s.mappings, err = zifile.DecodeMappings(b)
		}
		if err == nil {
			err = zifile.ValidateMappings(s.mappings)
		}
		if err != nil {
			s.logger.Warn("zone mappings unavailable", "err", err)
			s.mappingsErr = err
			s.mappings = zifile.Mappings{Aliases: map[string]string{}}
		}
	})
	return s.mappings, s.mappingsErr
}

// Err returns the error that made the mappings file unavailable, if any.
func (s *Store) Err() error {
	_, err := s.loadMappings()
	return err
}

// ZoneIDs implements Provider.
func (s *Store) ZoneIDs() []string {
	m, _ := s.loadMappings()
	ids := make([]string, 0, len(m.ZoneIDs)+len(m.ExcludedZones))
	ids = append(ids, m.ZoneIDs...)
	ids = append(ids, m.ExcludedZones...)
	sort.Strings(ids)
	return slices.Compact(ids)
}

// ZoneIDsAt implements Provider.
func (s *Store) ZoneIDsAt(rawOffset int) []string {
	m, _ := s.loadMappings()
	var ids []string
	for i, id := range m.ZoneIDs {
		if m.RawOffsets[m.RawOffsetIndices[i]] == rawOffset {
			ids = append(ids, id)
		}
	}
	return ids
}

// Alias implements Provider.
func (s *Store) Alias(id string) (string, bool) {
	m, _ := s.loadMappings()
	target, ok := m.Aliases[id]
	return target, ok
}

// Version implements Provider.
func (s *Store) Version() string {
	m, _ := s.loadMappings()
	return m.Version
}

// ExcludedZones implements Provider.
func (s *Store) ExcludedZones() []string {
	m, _ := s.loadMappings()
	return append([]string(nil), m.ExcludedZones...)
}

// Zone implements Provider. An alias without a file of its own is loaded from the file
// of the zone it refers to.
func (s *Store) Zone(id string) (*Zone, bool) {
	return s.zone(id, true)
}

// zone loads id. Aliases are followed at most once since mapped aliases refer to zones.
func (s *Store) zone(id string, followAlias bool) (*Zone, bool) {
	s.mu.Lock()
	z, cached := s.zones[id]
	s.mu.Unlock()
	if cached {
		return z, z != nil
	}

	z = s.load(id)
	if z == nil && followAlias {
		if target, ok := s.Alias(id); ok {
			if tz, ok := s.zone(target, false); ok {
				z = NewZone(id, tz.data)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.zones[id]; ok {
		return other, other != nil
	}
	s.zones[id] = z
	return z, z != nil
}

func (s *Store) load(id string) *Zone {
	if !fs.ValidPath(id) || id == zifile.MappingsFileName {
		return nil
	}
	b, err := fs.ReadFile(s.fsys, id)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cannot read zone file", "zone", id, "err", err)
		}
		return nil
	}
	data, err := zifile.DecodeZone(b)
	if err == nil {
		err = zifile.ValidateZone(data)
	}
	if err != nil {
		s.logger.Warn("corrupt zone file", "zone", id, "err", err)
		return nil
	}
	return NewZone(id, data)
}
