package throttle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"autojv/internal/fileutil"
	"autojv/internal/jdk"

	"gopkg.in/yaml.v3"
)

// Fingerprint identifies "the same search" for throttling. Two fingerprints
// are the same search only if every field is equal.
type Fingerprint struct {
	VersionRange string `yaml:"versionRange"`
	Vendor       string `yaml:"vendor,omitempty"`
	OS           string `yaml:"operatingSystem,omitempty"`
	Arch         string `yaml:"architecture,omitempty"`
	ReleaseType  string `yaml:"releaseType,omitempty"`
}

// FingerprintOf derives the fingerprint of a requirement.
func FingerprintOf(req jdk.Requirement) Fingerprint {
	fp := Fingerprint{
		Vendor:      req.Vendor,
		OS:          string(req.OS),
		Arch:        string(req.Arch),
		ReleaseType: string(req.ReleaseType),
	}
	if req.Range != nil {
		fp.VersionRange = req.Range.String()
	}
	return fp
}

// Store persists the last time each search was checked remotely.
type Store interface {
	LastCheckTime(ctx context.Context, fp Fingerprint) (time.Time, bool, error)
	SaveLastCheckTime(ctx context.Context, fp Fingerprint, t time.Time) error
}

type searchEntry struct {
	Fingerprint `yaml:",inline"`
	LastUpdated time.Time `yaml:"lastUpdated"`
}

type document struct {
	Searches []searchEntry `yaml:"searches"`
}

// MetadataFile is a Store backed by one YAML document. Writes replace the
// document atomically, so readers never see a partial file. Concurrent
// writers may lose each other's updates.
type MetadataFile struct {
	Path string
}

// NewMetadataFile returns a store that keeps its document at path.
func NewMetadataFile(path string) *MetadataFile {
	return &MetadataFile{Path: path}
}

func (m *MetadataFile) read() (*document, error) {
	data, err := os.ReadFile(m.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, &jdk.ThrottleStoreError{Path: m.Path, Err: err}
	}

	doc := &document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, &jdk.ThrottleStoreError{Path: m.Path, Err: err}
	}
	return doc, nil
}

// LastCheckTime returns the latest recorded check for fp.
func (m *MetadataFile) LastCheckTime(_ context.Context, fp Fingerprint) (time.Time, bool, error) {
	doc, err := m.read()
	if err != nil {
		return time.Time{}, false, err
	}

	var (
		latest time.Time
		found  bool
	)
	for _, e := range doc.Searches {
		if e.Fingerprint != fp {
			continue
		}
		if !found || e.LastUpdated.After(latest) {
			latest = e.LastUpdated
			found = true
		}
	}
	return latest, found, nil
}

// SaveLastCheckTime replaces every record for fp with one at t. A corrupt
// existing document is discarded rather than blocking the write.
func (m *MetadataFile) SaveLastCheckTime(_ context.Context, fp Fingerprint, t time.Time) error {
	doc, err := m.read()
	if err != nil {
		doc = &document{}
	}

	kept := doc.Searches[:0]
	for _, e := range doc.Searches {
		if e.Fingerprint != fp {
			kept = append(kept, e)
		}
	}
	doc.Searches = append(kept, searchEntry{Fingerprint: fp, LastUpdated: t.UTC()})

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode update check document: %w", err)
	}
	return fileutil.WriteFileAtomic(m.Path, data)
}
