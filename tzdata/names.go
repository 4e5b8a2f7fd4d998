package tzdata

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/ngrash/go-javazic/internal/logging"
)

// ReadZoneNames reads a list of zone names, one per line. Text after # is ignored.
// Names listed more than once are reported to logger and returned once.
func ReadZoneNames(r io.Reader, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	var (
		names []string
		seen  = make(map[string]bool)
	)
	scanner := bufio.NewScanner(r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		fields := splitLine(scanner.Text())
		if fields == nil {
			continue
		}
		name := fields[0]
		if seen[name] {
			logger.Warn("duplicate zone name", "name", name, "line", lineNumber)
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read zone names: %w", err)
	}
	return names, nil
}
