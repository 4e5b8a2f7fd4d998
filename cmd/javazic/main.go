// Command javazic compiles IANA tzdata source files into zone files and a
// ZoneInfoMappings file.
//
// Usage:
//
//	javazic [flags] <source files...>
//	javazic [flags] --archive tzdata2024b.tar.gz
//	javazic [flags] --fetch
package main

import (
	"os"

	"github.com/ngrash/go-javazic/tzdb/ianadist"
)

func main() {
	os.Exit(run(os.Args[1:], ianadist.DefaultClient))
}
