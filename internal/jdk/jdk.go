// Package jdk defines the shared vocabulary of the resolver: requirements,
// candidates, resolved archives, installed JDKs and the Source contract that
// every candidate backend implements.
package jdk

import (
	"context"
	"fmt"
	"strings"

	"autojv/internal/versionrange"
)

// ArchiveType is the packaging of a JDK archive.
type ArchiveType string

const (
	ArchiveZip   ArchiveType = "zip"
	ArchiveTarGz ArchiveType = "tar.gz"
)

// ArchiveTypes lists every supported archive type.
var ArchiveTypes = []ArchiveType{ArchiveZip, ArchiveTarGz}

// ParseArchiveType returns false for archive types autojv cannot extract.
func ParseArchiveType(s string) (ArchiveType, bool) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "zip":
		return ArchiveZip, true
	case "tar.gz", "tgz":
		return ArchiveTarGz, true
	}
	return "", false
}

// ReleaseType distinguishes general availability from early access builds.
type ReleaseType string

const (
	ReleaseGA ReleaseType = "ga"
	ReleaseEA ReleaseType = "ea"
)

// ParseReleaseType accepts "ga" or "ea" in any case. Empty means any.
func ParseReleaseType(s string) (ReleaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "ga":
		return ReleaseGA, nil
	case "ea":
		return ReleaseEA, nil
	}
	return "", fmt.Errorf("unknown release type %q", s)
}

// Requirement describes the JDK a caller needs. Zero-valued optional
// fields mean "any".
type Requirement struct {
	Range       *versionrange.Range
	Vendor      string
	OS          OperatingSystem
	Arch        Architecture
	ReleaseType ReleaseType
}

// NewRequirement parses the textual parts of a requirement. Any parse
// failure is a *RequestError.
func NewRequirement(versionSpec, vendor, os, arch, releaseType string) (Requirement, error) {
	rng, err := versionrange.Parse(versionSpec)
	if err != nil {
		return Requirement{}, &RequestError{Input: versionSpec, Err: err}
	}
	req := Requirement{Range: rng, Vendor: strings.TrimSpace(vendor)}

	if os != "" {
		if req.OS, err = ParseOperatingSystem(os); err != nil {
			return Requirement{}, &RequestError{Input: os, Err: err}
		}
	}
	if arch != "" {
		if req.Arch, err = ParseArchitecture(arch); err != nil {
			return Requirement{}, &RequestError{Input: arch, Err: err}
		}
	}
	if req.ReleaseType, err = ParseReleaseType(releaseType); err != nil {
		return Requirement{}, &RequestError{Input: releaseType, Err: err}
	}
	return req, nil
}

// WithRange returns a copy of r with a different version range.
func (r Requirement) WithRange(rng *versionrange.Range) Requirement {
	r.Range = rng
	return r
}

// WithPlatform returns a copy of r restricted to p.
func (r Requirement) WithPlatform(p Platform) Requirement {
	r.OS = p.OS
	r.Arch = p.Arch
	return r
}

func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString("version ")
	if r.Range != nil {
		b.WriteString(r.Range.String())
	} else {
		b.WriteString("any")
	}
	if r.Vendor != "" {
		fmt.Fprintf(&b, ", vendor %s", r.Vendor)
	}
	if r.OS != "" || r.Arch != "" {
		fmt.Fprintf(&b, ", platform %s-%s", r.OS, r.Arch)
	}
	if r.ReleaseType != "" {
		fmt.Fprintf(&b, ", release %s", r.ReleaseType)
	}
	return b.String()
}

// Candidate is a discoverable JDK build that has not been downloaded yet.
type Candidate struct {
	Vendor      string
	Version     versionrange.Version
	OS          OperatingSystem
	Arch        Architecture
	ArchiveType ArchiveType
	ReleaseType ReleaseType

	// Source specific download details.
	ID       string
	URL      string
	Size     int64
	Checksum string

	origin *origin
}

type origin struct {
	source    Source
	candidate Candidate
}

// Tag pairs c with the source that produced it. The returned candidate has
// the same descriptive fields as c.
func Tag(source Source, c Candidate) Candidate {
	tagged := c
	tagged.origin = &origin{source: source, candidate: c}
	return tagged
}

// Origin returns the tagging source and the candidate as that source
// produced it.
func (c Candidate) Origin() (Source, Candidate, bool) {
	if c.origin == nil {
		return nil, Candidate{}, false
	}
	return c.origin.source, c.origin.candidate, true
}

// Platform returns the candidate's OS and architecture.
func (c Candidate) Platform() Platform {
	return Platform{OS: c.OS, Arch: c.Arch}
}

// Equal compares every field, including the origin pair.
func (c Candidate) Equal(o Candidate) bool {
	if c.Vendor != o.Vendor || c.Version.String() != o.Version.String() ||
		c.OS != o.OS || c.Arch != o.Arch ||
		c.ArchiveType != o.ArchiveType || c.ReleaseType != o.ReleaseType ||
		c.ID != o.ID || c.URL != o.URL || c.Size != o.Size || c.Checksum != o.Checksum {
		return false
	}
	switch {
	case c.origin == nil && o.origin == nil:
		return true
	case c.origin == nil || o.origin == nil:
		return false
	}
	return c.origin.source == o.origin.source && c.origin.candidate.Equal(o.origin.candidate)
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s %s %s %s", c.Vendor, c.Version, c.Platform(), c.ArchiveType)
}

// ResolvedArchive is a candidate whose bytes are on local disk.
type ResolvedArchive struct {
	Candidate Candidate
	Path      string
}

// InstalledJdk is a JDK that is usable from a local directory.
type InstalledJdk struct {
	Vendor      string
	Version     versionrange.Version
	OS          OperatingSystem
	Arch        Architecture
	ReleaseType ReleaseType
	Dir         string
}

// Source is a backend that can find, materialize and forget JDK archives.
//
// Search returns an empty slice, not an error, when nothing matches.
// Resolve failures are always fatal for that candidate. Release frees any
// temporary copy Resolve made. Purge removes state the source owns.
type Source interface {
	Search(ctx context.Context, req Requirement) ([]Candidate, error)
	Resolve(ctx context.Context, c Candidate) (ResolvedArchive, error)
	Release(ctx context.Context, archive ResolvedArchive) error
	Purge(ctx context.Context, req Requirement) ([]ResolvedArchive, error)
}
