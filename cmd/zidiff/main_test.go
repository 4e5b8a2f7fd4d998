package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngrash/go-javazic/zifile"
)

func writeZone(t *testing.T, dir, name string, z zifile.Zone) string {
	t.Helper()
	b, err := z.Bytes()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	zone := zifile.Zone{
		RawOffset:   3600000,
		Offsets:     []int{3600000, 7200000},
		Transitions: []zifile.Transition{{Time: 0}, {Time: 1000, OffsetIndex: 1}},
		CRC32:       1,
	}
	a := writeZone(t, dir, "a", zone)
	zone.CRC32 = 2
	b := writeZone(t, dir, "b", zone)
	zone.RawOffset = 0
	c := writeZone(t, dir, "c", zone)

	m, err := zifile.Mappings{Version: "2024a", Aliases: map[string]string{}}.Bytes()
	require.NoError(t, err)
	mappings := filepath.Join(dir, zifile.MappingsFileName)
	require.NoError(t, os.WriteFile(mappings, m, 0o644))

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"Same", []string{a, a}, false},
		{"Checksum", []string{a, b}, true},
		{"IgnoreChecksum", []string{"--ignore-checksum", a, b}, false},
		{"RawOffset", []string{"--ignore-checksum", a, c}, true},
		{"ZoneAndMappings", []string{a, mappings}, true},
		{"Mappings", []string{mappings, mappings}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			different, err := run(tt.args, &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, different, out.String())
		})
	}
}

func TestRun_Errors(t *testing.T) {
	_, err := run([]string{"only-one"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = run([]string{"does-not-exist", "does-not-exist"}, &bytes.Buffer{})
	assert.Error(t, err)
}
