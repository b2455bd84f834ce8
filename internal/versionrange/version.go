package versionrange

import (
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Version is a JDK version such as "17", "17.0.2+8" or "1.8.0_322".
// The raw text is kept so that "17" and "17.0.0" print as written while
// still comparing equal.
type Version struct {
	raw string
	v   *goversion.Version
}

// ParseVersion parses a JDK version string.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("empty version")
	}

	// Legacy update numbers (1.8.0_322) become an extra segment
	normalized := strings.ReplaceAll(s, "_", ".")

	v, err := goversion.NewVersion(normalized)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{raw: s, v: v}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// MajorVersion returns the major-only version n.
func MajorVersion(n int) Version {
	return MustParseVersion(strconv.Itoa(n))
}

func (v Version) String() string { return v.raw }

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool { return v.v == nil }

// Major returns the first numeric segment.
func (v Version) Major() int {
	if v.v == nil {
		return 0
	}
	return v.v.Segments()[0]
}

// IsMajorOnly reports whether the version was written as a bare major number.
func (v Version) IsMajorOnly() bool {
	if v.raw == "" {
		return false
	}
	_, err := strconv.Atoi(v.raw)
	return err == nil
}

// Compare returns -1, 0 or 1. Build metadata does not take part.
func (v Version) Compare(o Version) int {
	switch {
	case v.v == nil && o.v == nil:
		return 0
	case v.v == nil:
		return -1
	case o.v == nil:
		return 1
	}
	return v.v.Compare(o.v)
}

func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// NumericPrefixes returns the shorter dotted prefixes of the numeric part,
// longest first. "17.0.2+8" yields "17.0.2", "17.0" and "17".
func (v Version) NumericPrefixes() []Version {
	if v.v == nil {
		return nil
	}
	core := v.raw
	if i := strings.IndexAny(core, "+-"); i >= 0 {
		core = core[:i]
	}
	parts := strings.FieldsFunc(core, func(r rune) bool { return r == '.' || r == '_' })

	var out []Version
	for n := len(parts); n >= 1; n-- {
		prefix := strings.Join(parts[:n], ".")
		if prefix == v.raw {
			continue
		}
		p, err := ParseVersion(prefix)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
