package translate

import (
	"autojv/internal/versionrange"
)

// Expander lists the versions a concrete JDK version answers to.
type Expander int

const (
	// ExpandKeep answers only to the exact version.
	ExpandKeep Expander = iota
	// ExpandMajorAndFull adds the bare major version.
	ExpandMajorAndFull
	// ExpandAll adds every shorter numeric prefix.
	ExpandAll
)

// Expand returns v followed by its expansions with duplicates removed.
func (e Expander) Expand(v versionrange.Version) []versionrange.Version {
	out := []versionrange.Version{v}
	add := func(x versionrange.Version) {
		for _, existing := range out {
			if existing.String() == x.String() {
				return
			}
		}
		out = append(out, x)
	}

	switch e {
	case ExpandMajorAndFull:
		add(versionrange.MajorVersion(v.Major()))
	case ExpandAll:
		for _, p := range v.NumericPrefixes() {
			add(p)
		}
	}
	return out
}

// MatchesAny reports whether any expansion of v matches r.
func (e Expander) MatchesAny(r *versionrange.Range, v versionrange.Version) bool {
	for _, x := range e.Expand(v) {
		if r.Matches(x) {
			return true
		}
	}
	return false
}
