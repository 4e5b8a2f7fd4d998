// Package tzc compiles parsed tzdata source files into zone files and a mappings file.
//
// Every zone is resolved into a Timezone: the transitions between its offsets from
// StartYear to EndYear, the rules that continue daylight saving time after the last
// transition and a checksum. Mappings then group all zones by their raw offset.
package tzc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ngrash/go-javazic/tzdata"
	"github.com/ngrash/go-javazic/zifile"
)

// Result holds the output of a compilation.
type Result struct {
	// Zones maps zone names to their resolved history.
	Zones    map[string]*Timezone
	Mappings *Mappings
	Version  string
}

// Compile resolves the target zones of files and aggregates their mappings.
// Zones are resolved concurrently by opts.Workers goroutines; the first error
// cancels the remaining work.
func Compile(ctx context.Context, files []*tzdata.File, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if opts.SingleYear == 0 && opts.StartYear > opts.EndYear {
		return nil, fmt.Errorf("start year %d is after end year %d", opts.StartYear, opts.EndYear)
	}
	targets := opts.targetSet()

	type job struct {
		file *tzdata.File
		zone *tzdata.Zone
	}
	var (
		jobs   []job
		origin = make(map[string]string)
	)
	for _, f := range files {
		for _, z := range f.Zones {
			if targets != nil && !targets[z.Name] {
				continue
			}
			if other, dup := origin[z.Name]; dup {
				return nil, fmt.Errorf("zone %s is defined in %s and %s", z.Name, other, f.Name)
			}
			origin[z.Name] = f.Name
			jobs = append(jobs, job{f, z})
		}
	}
	for _, name := range opts.Targets {
		if _, ok := origin[name]; !ok && !isAliasIn(files, name) {
			opts.Logger.Warn("target zone not found", "zone", name)
		}
	}

	var (
		mu    sync.Mutex
		zones = make(map[string]*Timezone, len(jobs))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var (
				tz  *Timezone
				err error
			)
			if opts.SingleYear != 0 {
				tz, err = SingleYear(j.file, j.zone, opts.SingleYear)
			} else {
				tz, err = Resolve(j.file, j.zone, opts)
			}
			if err != nil {
				return err
			}
			opts.Logger.Debug("resolved zone", "zone", tz.Name, "transitions", len(tz.Transitions), "dst", tz.DSTType)
			mu.Lock()
			zones[tz.Name] = tz
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := NewMappings(opts.Now, opts.Targets, opts.Logger)
	for _, f := range files {
		m.Add(f)
	}
	m.Resolve()
	opts.Logger.Info("compiled", "zones", len(zones), "aliases", len(m.aliases), "excluded", len(m.excluded))
	return &Result{Zones: zones, Mappings: m, Version: opts.Version}, nil
}

func isAliasIn(files []*tzdata.File, name string) bool {
	for _, f := range files {
		if _, ok := f.Aliases[name]; ok {
			return true
		}
	}
	return false
}

// ZoneNames returns the names of the compiled zones in sorted order.
func (r *Result) ZoneNames() []string {
	return sortedKeys(r.Zones)
}

// Files encodes the result. It maps slash-separated file names, relative to the output
// directory, to their content.
func (r *Result) Files() (map[string][]byte, error) {
	files := make(map[string][]byte, len(r.Zones)+1)
	for name, tz := range r.Zones {
		z, err := tz.ZoneFile()
		if err != nil {
			return nil, err
		}
		b, err := z.Bytes()
		if err != nil {
			return nil, fmt.Errorf("encode zone %s: %w", name, err)
		}
		files[name] = b
	}
	b, err := r.Mappings.File(r.Version).Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode mappings: %w", err)
	}
	files[zifile.MappingsFileName] = b
	return files, nil
}

// Write writes one file per zone and the mappings file into dir.
func (r *Result) Write(dir string) error {
	files, err := r.Files()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return err
		}
	}
	return nil
}

// CompileBytes parses src as a single source file and returns the encoded result.
func CompileBytes(src []byte, opts Options) (map[string][]byte, error) {
	f, err := tzdata.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	r, err := Compile(context.Background(), []*tzdata.File{f}, opts)
	if err != nil {
		return nil, err
	}
	return r.Files()
}
