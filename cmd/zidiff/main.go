// Command zidiff compares two zone files or two ZoneInfoMappings files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/pflag"

	"github.com/ngrash/go-javazic/zifile"
)

func main() {
	different, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	if different {
		os.Exit(1)
	}
}

func run(args []string, w io.Writer) (bool, error) {
	fs := pflag.NewFlagSet("zidiff", pflag.ContinueOnError)
	ignoreChecksum := fs.Bool("ignore-checksum", false, "ignore the CRC32 of zone files")
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	if fs.NArg() != 2 {
		return false, errors.New("Usage: zidiff [--ignore-checksum] <file A> <file B>")
	}

	a, err := decode(fs.Arg(0))
	if err != nil {
		return false, err
	}
	b, err := decode(fs.Arg(1))
	if err != nil {
		return false, err
	}

	var opts []cmp.Option
	if *ignoreChecksum {
		opts = append(opts, cmpopts.IgnoreFields(zifile.Zone{}, "CRC32"))
	}
	if diff := cmp.Diff(a, b, opts...); diff != "" {
		fmt.Fprintln(w, "files are different: -A +B")
		fmt.Fprintln(w, diff)
		return true, nil
	}
	fmt.Fprintln(w, "files are identical")
	return false, nil
}

// decode returns the zifile.Zone or zifile.Mappings stored at path.
func decode(path string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	z, err := zifile.DecodeZone(b)
	if err == nil {
		return z, nil
	}
	if !errors.Is(err, zifile.ErrBadMagic) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := zifile.DecodeMappings(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
