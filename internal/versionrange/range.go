// Package versionrange implements Maven-style version ranges over JDK
// versions.
//
// A range is either a bare recommended version ("17") or a union of
// restrictions ("[17,18)", "(,11],[17,)"). A bare recommendation carries a
// single unrestricted restriction, so it contains every version while
// [Range.Matches] still compares it by equality.
package versionrange

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidRange is wrapped by every parse failure.
var ErrInvalidRange = errors.New("invalid version range")

// Restriction is one bounded, half-open or unbounded interval. A nil bound
// is unbounded on that side.
type Restriction struct {
	Lower          *Version
	LowerInclusive bool
	Upper          *Version
	UpperInclusive bool
}

// Everything is the restriction that contains all versions.
var Everything = Restriction{}

// ContainsVersion reports whether v lies inside the restriction.
func (r Restriction) ContainsVersion(v Version) bool {
	if r.Lower != nil {
		c := r.Lower.Compare(v)
		if c > 0 || (c == 0 && !r.LowerInclusive) {
			return false
		}
	}
	if r.Upper != nil {
		c := r.Upper.Compare(v)
		if c < 0 || (c == 0 && !r.UpperInclusive) {
			return false
		}
	}
	return true
}

func (r Restriction) String() string {
	if r.Lower != nil && r.Upper != nil && r.LowerInclusive && r.UpperInclusive && r.Lower.Equal(*r.Upper) {
		return "[" + r.Lower.String() + "]"
	}
	var b strings.Builder
	if r.LowerInclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if r.Lower != nil {
		b.WriteString(r.Lower.String())
	}
	b.WriteByte(',')
	if r.Upper != nil {
		b.WriteString(r.Upper.String())
	}
	if r.UpperInclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// Range is an immutable version range.
type Range struct {
	recommended  *Version
	restrictions []Restriction
}

// Parse parses a range spec such as "17", "[17.0.2]", "[17,18)" or
// "(,1.0],[1.2,)".
func Parse(spec string) (*Range, error) {
	process := strings.TrimSpace(spec)
	if process == "" {
		return nil, fmt.Errorf("%w: empty spec", ErrInvalidRange)
	}

	var (
		restrictions []Restriction
		upperBound   *Version
		upperSeen    bool
	)

	for strings.HasPrefix(process, "[") || strings.HasPrefix(process, "(") {
		index := closingIndex(process)
		if index < 0 {
			return nil, fmt.Errorf("%w: unbounded range %q", ErrInvalidRange, spec)
		}

		restriction, err := parseRestriction(process[:index+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRange, spec, err)
		}

		if upperSeen {
			if upperBound == nil || restriction.Lower == nil || restriction.Lower.LessThan(*upperBound) {
				return nil, fmt.Errorf("%w: ranges overlap in %q", ErrInvalidRange, spec)
			}
		}
		restrictions = append(restrictions, restriction)
		upperBound = restriction.Upper
		upperSeen = true

		process = strings.TrimSpace(process[index+1:])
		if strings.HasPrefix(process, ",") {
			process = strings.TrimSpace(process[1:])
		}
	}

	if process != "" {
		if len(restrictions) > 0 {
			return nil, fmt.Errorf("%w: only fully-qualified sets allowed in multiple set scenario: %q", ErrInvalidRange, spec)
		}
		v, err := ParseVersion(process)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		return &Range{recommended: &v, restrictions: []Restriction{Everything}}, nil
	}

	return &Range{restrictions: restrictions}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(spec string) *Range {
	r, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRange builds a range directly from restrictions.
func NewRange(restrictions ...Restriction) *Range {
	return &Range{restrictions: append([]Restriction(nil), restrictions...)}
}

// HalfOpen returns [lower, upper).
func HalfOpen(lower, upper Version) *Range {
	return NewRange(Restriction{Lower: &lower, LowerInclusive: true, Upper: &upper})
}

func closingIndex(s string) int {
	i1 := strings.IndexByte(s, ')')
	i2 := strings.IndexByte(s, ']')
	switch {
	case i1 < 0:
		return i2
	case i2 < 0:
		return i1
	case i1 < i2:
		return i1
	default:
		return i2
	}
}

func parseRestriction(spec string) (Restriction, error) {
	lowerInclusive := strings.HasPrefix(spec, "[")
	upperInclusive := strings.HasSuffix(spec, "]")

	process := strings.TrimSpace(spec[1 : len(spec)-1])

	index := strings.IndexByte(process, ',')
	if index < 0 {
		if !lowerInclusive || !upperInclusive {
			return Restriction{}, fmt.Errorf("single version must be surrounded by []")
		}
		v, err := ParseVersion(process)
		if err != nil {
			return Restriction{}, err
		}
		return Restriction{Lower: &v, LowerInclusive: true, Upper: &v, UpperInclusive: true}, nil
	}

	lowerText := strings.TrimSpace(process[:index])
	upperText := strings.TrimSpace(process[index+1:])
	if lowerText == upperText {
		return Restriction{}, fmt.Errorf("range cannot have identical boundaries")
	}

	r := Restriction{LowerInclusive: lowerInclusive, UpperInclusive: upperInclusive}
	if lowerText != "" {
		v, err := ParseVersion(lowerText)
		if err != nil {
			return Restriction{}, err
		}
		r.Lower = &v
	}
	if upperText != "" {
		v, err := ParseVersion(upperText)
		if err != nil {
			return Restriction{}, err
		}
		r.Upper = &v
	}
	if r.Lower != nil && r.Upper != nil && r.Upper.LessThan(*r.Lower) {
		return Restriction{}, fmt.Errorf("range defies version ordering")
	}
	return r, nil
}

// Recommended returns the recommended version, if the range has one.
func (r *Range) Recommended() (Version, bool) {
	if r.recommended == nil {
		return Version{}, false
	}
	return *r.recommended, true
}

// Restrictions returns a copy of the restriction list.
func (r *Range) Restrictions() []Restriction {
	return append([]Restriction(nil), r.restrictions...)
}

// HasRestrictions is false for a bare recommendation.
func (r *Range) HasRestrictions() bool {
	return len(r.restrictions) > 0 && r.recommended == nil
}

// ContainsVersion reports whether any restriction contains v.
func (r *Range) ContainsVersion(v Version) bool {
	for _, restriction := range r.restrictions {
		if restriction.ContainsVersion(v) {
			return true
		}
	}
	return false
}

// Matches applies toolchain requirement semantics: ranges match by
// containment, a bare recommendation only by equality.
func (r *Range) Matches(v Version) bool {
	if r.recommended != nil {
		return r.recommended.Equal(v)
	}
	return r.ContainsVersion(v)
}

// Restrict returns the intersection of r and other. The recommended version
// of r is kept if it survives, otherwise that of other.
func (r *Range) Restrict(other *Range) *Range {
	var restrictions []Restriction
	if len(r.restrictions) > 0 && len(other.restrictions) > 0 {
		restrictions = intersect(r.restrictions, other.restrictions)
	}

	var recommended *Version
	if len(restrictions) > 0 {
		for _, res := range restrictions {
			if r.recommended != nil && res.ContainsVersion(*r.recommended) {
				recommended = r.recommended
				break
			}
			if recommended == nil && other.recommended != nil && res.ContainsVersion(*other.recommended) {
				recommended = other.recommended
			}
		}
	} else if r.recommended != nil {
		recommended = r.recommended
	} else if other.recommended != nil {
		recommended = other.recommended
	}

	return &Range{recommended: recommended, restrictions: restrictions}
}

func intersect(a, b []Restriction) []Restriction {
	var out []Restriction
	for _, x := range a {
		for _, y := range b {
			if res, ok := overlap(x, y); ok {
				out = append(out, res)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].Lower, out[j].Lower
		switch {
		case li == nil:
			return lj != nil
		case lj == nil:
			return false
		}
		return li.LessThan(*lj)
	})
	return out
}

func overlap(x, y Restriction) (Restriction, bool) {
	res := Restriction{}

	switch {
	case x.Lower == nil:
		res.Lower, res.LowerInclusive = y.Lower, y.LowerInclusive
	case y.Lower == nil:
		res.Lower, res.LowerInclusive = x.Lower, x.LowerInclusive
	default:
		switch c := x.Lower.Compare(*y.Lower); {
		case c > 0:
			res.Lower, res.LowerInclusive = x.Lower, x.LowerInclusive
		case c < 0:
			res.Lower, res.LowerInclusive = y.Lower, y.LowerInclusive
		default:
			res.Lower, res.LowerInclusive = x.Lower, x.LowerInclusive && y.LowerInclusive
		}
	}

	switch {
	case x.Upper == nil:
		res.Upper, res.UpperInclusive = y.Upper, y.UpperInclusive
	case y.Upper == nil:
		res.Upper, res.UpperInclusive = x.Upper, x.UpperInclusive
	default:
		switch c := x.Upper.Compare(*y.Upper); {
		case c < 0:
			res.Upper, res.UpperInclusive = x.Upper, x.UpperInclusive
		case c > 0:
			res.Upper, res.UpperInclusive = y.Upper, y.UpperInclusive
		default:
			res.Upper, res.UpperInclusive = x.Upper, x.UpperInclusive && y.UpperInclusive
		}
	}

	if res.Lower != nil && res.Upper != nil {
		c := res.Lower.Compare(*res.Upper)
		if c > 0 || (c == 0 && !(res.LowerInclusive && res.UpperInclusive)) {
			return Restriction{}, false
		}
	}
	return res, true
}

// String returns the canonical spec.
func (r *Range) String() string {
	if r.recommended != nil {
		return r.recommended.String()
	}
	parts := make([]string, len(r.restrictions))
	for i, res := range r.restrictions {
		parts[i] = res.String()
	}
	return strings.Join(parts, ",")
}
