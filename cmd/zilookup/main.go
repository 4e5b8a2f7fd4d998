// Command zilookup answers offset queries from a directory of compiled zone files.
//
//	zilookup -d zi America/New_York 2024-07-01T12:00:00Z
//	zilookup -d zi --list
//	zilookup -d zi --raw-offset -5h
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/ngrash/go-javazic/internal/logging"
	"github.com/ngrash/go-javazic/zoneinfo"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("zilookup", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.StringP("dir", "d", "zi", "directory of compiled zone files")
	list := fs.Bool("list", false, "list all zone IDs")
	rawOffset := fs.Duration("raw-offset", 0, "list the zone IDs with this raw offset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s := zoneinfo.NewStore(os.DirFS(*dir), logging.New(stderr, slog.LevelWarn))
	switch {
	case *list:
		if err := s.Err(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "# version", s.Version())
		for _, id := range s.ZoneIDs() {
			fmt.Fprintln(stdout, id)
		}
		return nil
	case fs.Changed("raw-offset"):
		if err := s.Err(); err != nil {
			return err
		}
		for _, id := range s.ZoneIDsAt(int(rawOffset.Milliseconds())) {
			fmt.Fprintln(stdout, id)
		}
		return nil
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errors.New("Usage: zilookup [-d dir] <zone> [RFC 3339 time]")
	}
	id := fs.Arg(0)
	t := time.Now()
	if fs.NArg() == 2 {
		var err error
		if t, err = time.Parse(time.RFC3339, fs.Arg(1)); err != nil {
			return err
		}
	}
	z, ok := s.Zone(id)
	if !ok {
		return fmt.Errorf("no data for zone %s", id)
	}
	offset, dst := z.OffsetAt(t)
	fmt.Fprintf(stdout, "%s %s offset=%v dst=%v\n", id, t.UTC().Format(time.RFC3339), offset, dst)
	if target, ok := s.Alias(id); ok {
		fmt.Fprintf(stdout, "%s is an alias of %s\n", id, target)
	}
	if z.WillGMTOffsetChange() {
		fmt.Fprintf(stdout, "%s changes its raw offset in the future\n", id)
	}
	return nil
}
