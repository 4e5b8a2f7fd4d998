// Command ziinfo prints the content of a zone file or a ZoneInfoMappings file.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"

	"github.com/ngrash/go-javazic/zifile"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("ziinfo", pflag.ContinueOnError)
	times := fs.BoolP("times", "t", false, "print transition times as dates")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("Usage: ziinfo [-t] <zone file or ZoneInfoMappings>")
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	z, err := zifile.DecodeZone(b)
	if err == nil {
		if err := zifile.ValidateZone(z); err != nil {
			return fmt.Errorf("invalid zone: %w", err)
		}
		printZone(w, z, *times)
		return nil
	}
	if !errors.Is(err, zifile.ErrBadMagic) {
		return fmt.Errorf("decoding zone: %w", err)
	}
	m, err := zifile.DecodeMappings(b)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	if err := zifile.ValidateMappings(m); err != nil {
		return fmt.Errorf("invalid mappings: %w", err)
	}
	printMappings(w, m)
	return nil
}

func printZone(w io.Writer, z zifile.Zone, times bool) {
	fmt.Fprintln(w, "Zone")
	fmt.Fprintln(w, "  RawOffset =", time.Duration(z.RawOffset)*time.Millisecond)
	fmt.Fprintln(w, "  LastDSTSaving =", time.Duration(z.LastDSTSaving)*time.Millisecond)
	fmt.Fprintf(w, "  CRC32 = %#08x\n", z.CRC32)
	fmt.Fprintln(w, "  WillGMTOffsetChange =", z.WillGMTOffsetChange)
	fmt.Fprintf(w, "  Offsets (%d) = %v\n", len(z.Offsets), z.Offsets)
	if r := z.LastRule; r != nil {
		fmt.Fprintf(w, "  LastRule.Start = %+v\n", r.Start)
		fmt.Fprintf(w, "  LastRule.End = %+v\n", r.End)
	}
	fmt.Fprintf(w, "  Transitions (%d)\n", len(z.Transitions))
	for _, t := range z.Transitions {
		if !times {
			fmt.Fprintln(w, "   ", t)
			continue
		}
		offset := time.Duration(z.Offsets[t.OffsetIndex]) * time.Millisecond
		var dst time.Duration
		if t.DSTIndex != 0 {
			dst = time.Duration(z.Offsets[t.DSTIndex]) * time.Millisecond
		}
		fmt.Fprintf(w, "    %s offset=%v dst=%v\n", time.UnixMilli(t.Time).UTC().Format(time.RFC3339), offset, dst)
	}
	fmt.Fprintln(w)
}

func printMappings(w io.Writer, m zifile.Mappings) {
	fmt.Fprintln(w, "Mappings")
	fmt.Fprintln(w, "  Version =", m.Version)
	fmt.Fprintf(w, "  RawOffsets (%d) = %v\n", len(m.RawOffsets), m.RawOffsets)
	fmt.Fprintf(w, "  ZoneIDs (%d)\n", len(m.ZoneIDs))
	for i, id := range m.ZoneIDs {
		fmt.Fprintf(w, "    %s %v\n", id, time.Duration(m.RawOffsets[m.RawOffsetIndices[i]])*time.Millisecond)
	}
	fmt.Fprintf(w, "  Aliases (%d)\n", len(m.Aliases))
	for _, alias := range sortedKeys(m.Aliases) {
		fmt.Fprintf(w, "    %s -> %s\n", alias, m.Aliases[alias])
	}
	fmt.Fprintf(w, "  ExcludedZones (%d) = %v\n", len(m.ExcludedZones), m.ExcludedZones)
	fmt.Fprintln(w)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
