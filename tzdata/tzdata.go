// Package tzdata provides a parser for the time zone source files distributed by IANA
// at https://www.iana.org/time-zones.
//
// Parsing one file yields a File holding its named rule tables, its zones and its links.
// Rule references of zone records are resolved once at the end of parsing; afterwards a
// File is read-only and can be shared between goroutines.
package tzdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// File represents the result of parsing one tzdata source file.
type File struct {
	// Name is the name of the source, usually its path.
	Name string
	// Rules is the arena of rule tables in the order of their first appearance.
	// ZoneRec.RuleRef indexes into it.
	Rules []*Rule
	// Zones holds the zones in the order they appear in the file.
	Zones []*Zone
	// Aliases maps a link name to its target.
	Aliases map[string]string

	ruleIndex map[string]int
	zoneIndex map[string]int
}

// Rule returns the rule table with the given name.
func (f *File) Rule(name string) (*Rule, bool) {
	i, ok := f.ruleIndex[name]
	if !ok {
		return nil, false
	}
	return f.Rules[i], true
}

// Zone returns the zone with the given name.
func (f *File) Zone(name string) (*Zone, bool) {
	i, ok := f.zoneIndex[name]
	if !ok {
		return nil, false
	}
	return f.Zones[i], true
}

// RuleOf returns the rule table a zone record refers to, or nil for records
// with a fixed amount of saving.
func (f *File) RuleOf(z *ZoneRec) *Rule {
	if !z.HasRuleRef() {
		return nil
	}
	return f.Rules[z.RuleRef]
}

func newFile(name string) *File {
	return &File{
		Name:      name,
		Aliases:   make(map[string]string),
		ruleIndex: make(map[string]int),
		zoneIndex: make(map[string]int),
	}
}

// parseError is an error that occurred during parsing.
// It contains the line number and the line where the error occurred.
type parseError struct {
	lineNumber int
	line       string
	err        error
}

// Error returns a string representation of the parse error, implementing the error interface.
func (e *parseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.lineNumber, e.line, e.err)
}

func (e *parseError) Unwrap() error {
	return e.err
}

// ParseFile opens and parses the source file at path.
func ParseFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := ParseNamed(path, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses the content of a tzdata source file.
func Parse(r io.Reader) (*File, error) {
	return ParseNamed("", r)
}

// ParseNamed is like Parse but records name as the File's name.
func ParseNamed(name string, r io.Reader) (*File, error) {
	f := newFile(name)
	scanner := bufio.NewScanner(r)

	var (
		lineNumber int
		// zone is the zone that receives continuation lines, nil if none is expected.
		zone *Zone
		// skipping is set while the continuation lines of an ignored zone are consumed.
		skipping bool
	)
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		fields := splitLine(line)
		if fields == nil {
			continue // skip comment or empty line
		}
		wrap := func(err error) error {
			return &parseError{lineNumber, line, err}
		}

		if zone != nil || skipping {
			rec, err := parseZoneRec(fields)
			if err != nil {
				return nil, wrap(fmt.Errorf("parse zone continuation: %w", err))
			}
			if zone != nil {
				zone.Recs = append(zone.Recs, rec)
			}
			if !rec.Until.Defined {
				zone, skipping = nil, false
			}
			continue
		}

		switch fields[0] {
		case "Zone":
			if len(fields) < 2 {
				return nil, wrap(fmt.Errorf("parse zone: missing name"))
			}
			name, err := parseZoneNAME(fields[1])
			if err != nil {
				return nil, wrap(fmt.Errorf("parse zone: NAME: %w", err))
			}
			rec, err := parseZoneRec(fields[2:])
			if err != nil {
				return nil, wrap(fmt.Errorf("parse zone: %w", err))
			}
			if isSyntheticGMT(name) {
				// "GMT+hh" names collide with custom time zone IDs.
				skipping = rec.Until.Defined
				continue
			}
			if _, dup := f.zoneIndex[name]; dup {
				return nil, wrap(fmt.Errorf("parse zone: duplicate zone name %q", name))
			}
			z := &Zone{Name: name, Recs: []ZoneRec{rec}}
			f.zoneIndex[name] = len(f.Zones)
			f.Zones = append(f.Zones, z)
			if rec.Until.Defined {
				zone = z
			}
		case "Rule":
			name, rec, err := parseRuleLine(fields)
			if err != nil {
				return nil, wrap(fmt.Errorf("parse rule: %w", err))
			}
			i, ok := f.ruleIndex[name]
			if !ok {
				i = len(f.Rules)
				f.ruleIndex[name] = i
				f.Rules = append(f.Rules, &Rule{Name: name})
			}
			f.Rules[i].Recs = append(f.Rules[i].Recs, rec)
		case "Link":
			target, alias, err := parseLinkLine(fields)
			if err != nil {
				return nil, wrap(fmt.Errorf("parse link: %w", err))
			}
			if isSyntheticGMT(alias) {
				continue
			}
			f.Aliases[alias] = target
		default:
			return nil, wrap(fmt.Errorf("unexpected line"))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}
	if zone != nil {
		return nil, fmt.Errorf("zone %s: missing continuation line", zone.Name)
	}
	if err := f.resolveRuleRefs(); err != nil {
		return nil, err
	}
	return f, nil
}

// resolveRuleRefs binds the rule names of all zone records to indexes into the
// rule arena. It is the last step of parsing.
func (f *File) resolveRuleRefs() error {
	var errs []error
	for _, z := range f.Zones {
		for i := range z.Recs {
			rec := &z.Recs[i]
			rec.RuleRef = NoRule
			if rec.RuleName == "" {
				continue
			}
			ref, ok := f.ruleIndex[rec.RuleName]
			if !ok {
				errs = append(errs, fmt.Errorf("zone %s: rule %q not found", z.Name, rec.RuleName))
				continue
			}
			rec.RuleRef = ref
		}
	}
	return errors.Join(errs...)
}

// isSyntheticGMT reports whether name has the "GMT+hh" or "GMT-hh" form.
func isSyntheticGMT(name string) bool {
	return strings.HasPrefix(name, "GMT+") || strings.HasPrefix(name, "GMT-")
}

// splitLine splits a line into its fields.
// It returns nil if the line is a comment or empty.
//
// Fields are separated by white space and an unquoted # starts a comment
// that extends to the end of the line.
func splitLine(line string) []string {
	if i := strings.IndexByte(line, '#'); i != -1 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// parseLinkLine parses a link line of the form
//
//	Link  TARGET           LINK-NAME
func parseLinkLine(fields []string) (target, alias string, err error) {
	if len(fields) != 3 {
		return "", "", fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	return fields[1], fields[2], nil
}
