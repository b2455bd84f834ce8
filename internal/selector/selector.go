// Package selector orders JDK candidates from least to most preferred.
//
// Candidates are compared by vendor preference first, then by version, then
// by archive type. Sorting is stable, so candidates that tie on every key
// keep their input order.
package selector

import (
	"slices"
	"strings"

	"autojv/internal/jdk"
)

// WildcardVendor stands for every vendor that is not listed explicitly.
const WildcardVendor = "*"

// archivePreference lists archive types from most to least preferred.
var archivePreference = []jdk.ArchiveType{jdk.ArchiveZip, jdk.ArchiveTarGz}

// Selector ranks candidates against a vendor preference list.
type Selector struct {
	vendors  *KnownValues[string]
	archives *KnownValues[jdk.ArchiveType]
	listed   int
}

// New creates a selector. vendors is ordered most preferred first and may
// contain WildcardVendor.
func New(vendors []string) *Selector {
	normalized := make([]string, len(vendors))
	for i, v := range vendors {
		normalized[i] = normalizeVendor(v)
	}
	return &Selector{
		vendors:  NewKnownValues(normalized, WildcardVendor),
		archives: NewKnownValues(archivePreference, ""),
		listed:   len(vendors),
	}
}

func normalizeVendor(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Allows reports whether vendor may be used at all. Without a wildcard only
// listed vendors are allowed. An empty list allows everything.
func (s *Selector) Allows(vendor string) bool {
	if s.listed == 0 || s.vendors.HasWildcard() {
		return true
	}
	return s.vendors.Known(normalizeVendor(vendor))
}

// Compare returns a negative number when a is less preferred than b.
func (s *Selector) Compare(a, b jdk.Candidate) int {
	// Earlier in the preference list means more preferred, so invert.
	if c := s.vendors.Compare(normalizeVendor(b.Vendor), normalizeVendor(a.Vendor)); c != 0 {
		return c
	}
	if c := a.Version.Compare(b.Version); c != 0 {
		return c
	}
	return s.archives.Compare(b.ArchiveType, a.ArchiveType)
}

// Sort returns a copy of candidates ordered least to most preferred.
func (s *Selector) Sort(candidates []jdk.Candidate) []jdk.Candidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, s.Compare)
	return sorted
}

// Best returns the most preferred candidate.
func (s *Selector) Best(candidates []jdk.Candidate) (jdk.Candidate, bool) {
	if len(candidates) == 0 {
		return jdk.Candidate{}, false
	}
	sorted := s.Sort(candidates)
	return sorted[len(sorted)-1], true
}

// Filter drops candidates whose vendor is not allowed.
func (s *Selector) Filter(candidates []jdk.Candidate) []jdk.Candidate {
	out := make([]jdk.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if s.Allows(c.Vendor) {
			out = append(out, c)
		}
	}
	return out
}
