package smartcode

import (
	"fmt"
	"strconv"
	"strings"
)

// A smart code is the dotted taxonomy tag joining a business object to its
// rule set: HERA.{DOMAIN}.{MODULE}.{TYPE}.{SUBTYPE}.v{N}. All segments are
// upper snake case, N is a positive integer, and the highest N wins on lookup.

const Root = "HERA"

type Code struct {
	Domain  string
	Module  string
	Type    string
	Subtype string
	Version int
}

func (c Code) String() string {
	return fmt.Sprintf("%s.%s.%s.%s.%s.v%d", Root, c.Domain, c.Module, c.Type, c.Subtype, c.Version)
}

// Base returns the code without the version suffix, the key used when
// resolving "highest version wins".
func (c Code) Base() string {
	return fmt.Sprintf("%s.%s.%s.%s.%s", Root, c.Domain, c.Module, c.Type, c.Subtype)
}

func Parse(raw string) (Code, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 6 {
		return Code{}, fmt.Errorf("smart code %q: want 6 dot segments, got %d", raw, len(parts))
	}
	if parts[0] != Root {
		return Code{}, fmt.Errorf("smart code %q: must start with %s", raw, Root)
	}
	for _, seg := range parts[1:5] {
		if !isUpperSnake(seg) {
			return Code{}, fmt.Errorf("smart code %q: segment %q is not upper snake case", raw, seg)
		}
	}
	last := parts[5]
	if !strings.HasPrefix(last, "v") {
		return Code{}, fmt.Errorf("smart code %q: version segment %q must be v{N}", raw, last)
	}
	n, err := strconv.Atoi(last[1:])
	if err != nil || n < 1 {
		return Code{}, fmt.Errorf("smart code %q: version %q is not a positive integer", raw, last)
	}
	return Code{
		Domain:  parts[1],
		Module:  parts[2],
		Type:    parts[3],
		Subtype: parts[4],
		Version: n,
	}, nil
}

func Validate(raw string) error {
	_, err := Parse(raw)
	return err
}

// Latest returns the code with the highest version among candidates sharing
// the same base as the first valid entry. Invalid entries are skipped.
func Latest(candidates []string) (string, bool) {
	best := ""
	bestVersion := 0
	base := ""
	for _, raw := range candidates {
		c, err := Parse(raw)
		if err != nil {
			continue
		}
		if base == "" {
			base = c.Base()
		}
		if c.Base() != base {
			continue
		}
		if c.Version > bestVersion {
			best = raw
			bestVersion = c.Version
		}
	}
	return best, best != ""
}

func isUpperSnake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
