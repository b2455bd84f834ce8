// Package translate converts between the versions a build declares and the
// versions a JDK is searched for and advertised under.
package translate

import (
	"fmt"
	"strings"

	"autojv/internal/jdk"
	"autojv/internal/versionrange"
)

// Scheme translates requirement ranges into search criteria and installed
// versions into the versions they are registered as.
type Scheme interface {
	Name() string
	TranslateToSearchCriteria(r *versionrange.Range) *versionrange.Range
	ExpandForRegistration(v versionrange.Version) []versionrange.Version
}

// Unmodified searches for exactly what was asked for.
type Unmodified struct{}

func (Unmodified) Name() string { return "unmodified" }

func (Unmodified) TranslateToSearchCriteria(r *versionrange.Range) *versionrange.Range { return r }

func (Unmodified) ExpandForRegistration(v versionrange.Version) []versionrange.Version {
	return []versionrange.Version{v}
}

// MajorAndFull treats a bare major such as "17" as "any 17.x" and registers
// installed JDKs under both their full and major versions.
type MajorAndFull struct{}

func (MajorAndFull) Name() string { return "major-and-full" }

func (MajorAndFull) TranslateToSearchCriteria(r *versionrange.Range) *versionrange.Range {
	rec, ok := r.Recommended()
	if !ok || r.HasRestrictions() || !rec.IsMajorOnly() {
		return r
	}
	major := rec.Major()
	return versionrange.HalfOpen(versionrange.MajorVersion(major), versionrange.MajorVersion(major+1))
}

func (MajorAndFull) ExpandForRegistration(v versionrange.Version) []versionrange.Version {
	return ExpandMajorAndFull.Expand(v)
}

// ParseScheme returns the scheme with the given name. Unknown names are a
// *jdk.RequestError.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "major-and-full", "major_and_full":
		return MajorAndFull{}, nil
	case "unmodified":
		return Unmodified{}, nil
	}
	return nil, &jdk.RequestError{Input: name, Err: fmt.Errorf("unknown version translation scheme")}
}

// TranslateRequirement applies s to the requirement's range.
func TranslateRequirement(s Scheme, req jdk.Requirement) jdk.Requirement {
	if req.Range == nil {
		return req
	}
	return req.WithRange(s.TranslateToSearchCriteria(req.Range))
}
