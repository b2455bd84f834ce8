package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autojv/internal/jdk"
	"autojv/internal/versionrange"

	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory jdk.Source that counts its calls.
type fakeSource struct {
	name       string
	candidates []jdk.Candidate
	searchErr  error
	purgeErr   error
	dir        string
	delay      time.Duration

	searches atomic.Int32
	resolves atomic.Int32

	mu       sync.Mutex
	released []string
}

func newFakeSource(t *testing.T, name string, candidates ...jdk.Candidate) *fakeSource {
	return &fakeSource{name: name, candidates: candidates, dir: t.TempDir()}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	f.searches.Add(1)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []jdk.Candidate
	for _, c := range f.candidates {
		if req.Range == nil || req.Range.ContainsVersion(c.Version) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSource) Resolve(_ context.Context, c jdk.Candidate) (jdk.ResolvedArchive, error) {
	f.resolves.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	p, err := os.CreateTemp(f.dir, "resolved-*")
	if err != nil {
		return jdk.ResolvedArchive{}, err
	}
	_, _ = p.WriteString(f.name + ":" + c.String())
	p.Close()
	return jdk.ResolvedArchive{Candidate: c, Path: p.Name()}, nil
}

func (f *fakeSource) Release(_ context.Context, a jdk.ResolvedArchive) error {
	f.mu.Lock()
	f.released = append(f.released, a.Path)
	f.mu.Unlock()
	return os.Remove(a.Path)
}

func (f *fakeSource) Purge(_ context.Context, req jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	if f.purgeErr != nil {
		return nil, f.purgeErr
	}
	var out []jdk.ResolvedArchive
	for _, c := range f.candidates {
		out = append(out, jdk.ResolvedArchive{Candidate: c, Path: filepath.Join(f.dir, c.Vendor)})
	}
	return out, nil
}

func cand(vendor, version string) jdk.Candidate {
	return jdk.Candidate{
		Vendor:      vendor,
		Version:     versionrange.MustParseVersion(version),
		OS:          jdk.OSLinux,
		Arch:        jdk.ArchX64,
		ArchiveType: jdk.ArchiveTarGz,
		ReleaseType: jdk.ReleaseGA,
	}
}

func requirement(t *testing.T, spec string) jdk.Requirement {
	t.Helper()
	req, err := jdk.NewRequirement(spec, "", "", "", "")
	require.NoError(t, err)
	return req
}
