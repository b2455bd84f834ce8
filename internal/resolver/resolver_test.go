package resolver

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autojv/internal/installer"
	"autojv/internal/jdk"
	"autojv/internal/repository"
	"autojv/internal/selector"
	"autojv/internal/throttle"
	"autojv/internal/versionrange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJDKArchive(t *testing.T, path, version string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	root := "jdk-" + version + "/"
	files := map[string]string{
		root + "bin/java":  "#!/bin/sh\n",
		root + "bin/javac": "#!/bin/sh\n",
		root + "release":   "JAVA_VERSION=\"" + version + "\"\n",
	}
	for _, name := range []string{root + "bin/java", root + "bin/javac", root + "release"} {
		body := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
			ModTime:  time.Unix(1700000000, 0),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

// archiveSource serves real tar.gz archives for its candidates.
type archiveSource struct {
	t          *testing.T
	candidates []jdk.Candidate
	searchErr  error

	searches atomic.Int32
	resolves atomic.Int32
	releases atomic.Int32
	purged   []jdk.Requirement
}

func (s *archiveSource) Search(_ context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	s.searches.Add(1)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var out []jdk.Candidate
	for _, c := range s.candidates {
		if req.Range != nil && !req.Range.Matches(c.Version) {
			continue
		}
		if req.Vendor != "" && !strings.EqualFold(req.Vendor, c.Vendor) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *archiveSource) Resolve(_ context.Context, c jdk.Candidate) (jdk.ResolvedArchive, error) {
	s.resolves.Add(1)
	p := filepath.Join(s.t.TempDir(), "jdk.tar.gz")
	writeJDKArchive(s.t, p, c.Version.String())
	return jdk.ResolvedArchive{Candidate: c, Path: p}, nil
}

func (s *archiveSource) Release(context.Context, jdk.ResolvedArchive) error {
	s.releases.Add(1)
	return nil
}

func (s *archiveSource) Purge(_ context.Context, req jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	s.purged = append(s.purged, req)
	return nil, nil
}

// memoryStore is an in-memory throttle store.
type memoryStore struct {
	last map[throttle.Fingerprint]time.Time
}

func (m *memoryStore) LastCheckTime(_ context.Context, fp throttle.Fingerprint) (time.Time, bool, error) {
	t, ok := m.last[fp]
	return t, ok, nil
}

func (m *memoryStore) SaveLastCheckTime(_ context.Context, fp throttle.Fingerprint, t time.Time) error {
	m.last[fp] = t
	return nil
}

func candidate(vendor, version string) jdk.Candidate {
	p := jdk.CurrentPlatform()
	return jdk.Candidate{
		Vendor:      vendor,
		Version:     versionrange.MustParseVersion(version),
		OS:          p.OS,
		Arch:        p.Arch,
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

type fixture struct {
	source   *archiveSource
	store    *memoryStore
	resolver *Resolver
}

func newFixture(t *testing.T, policy throttle.Policy, candidates ...jdk.Candidate) *fixture {
	f := &fixture{
		source: &archiveSource{t: t, candidates: candidates},
		store:  &memoryStore{last: map[throttle.Fingerprint]time.Time{}},
	}
	f.resolver = New(Options{
		Selector:     selector.New([]string{"zulu", "*"}),
		Source:       f.source,
		Installation: installer.NewInstallation(t.TempDir()),
		Checker:      throttle.NewChecker(policy, f.store),
	})
	return f
}

func TestPrepareInstallsBestCandidate(t *testing.T) {
	f := newFixture(t, throttle.Never{},
		candidate("temurin", "17.0.9"),
		candidate("zulu", "17.0.1"),
		candidate("zulu", "17.0.2"),
		candidate("zulu", "21.0.1"),
	)

	got, err := f.resolver.Prepare(context.Background(), requirement(t, "17"))
	require.NoError(t, err)
	assert.Equal(t, "zulu", got.Vendor)
	assert.Equal(t, "17.0.2", got.Version.String())
	assert.FileExists(t, filepath.Join(got.Dir, "bin", "javac"))
	assert.EqualValues(t, 1, f.source.resolves.Load())
	assert.EqualValues(t, 1, f.source.releases.Load())
	assert.Len(t, f.store.last, 1)
}

func TestPrepareReusesInstalledWhenNoCheckDue(t *testing.T) {
	f := newFixture(t, throttle.Never{}, candidate("zulu", "17.0.2"))
	ctx := context.Background()

	first, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)

	f.source.candidates = append(f.source.candidates, candidate("zulu", "17.0.3"))
	second, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)
	assert.Equal(t, first.Dir, second.Dir)
	assert.EqualValues(t, 1, f.source.searches.Load())
}

func TestPrepareInstallsNewerWhenCheckDue(t *testing.T) {
	f := newFixture(t, throttle.Always{}, candidate("zulu", "17.0.2"))
	ctx := context.Background()

	_, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)

	f.source.candidates = append(f.source.candidates, candidate("zulu", "17.0.3"))
	got, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)
	assert.Equal(t, "17.0.3", got.Version.String())

	installed, err := f.resolver.Installation().Installed(ctx)
	require.NoError(t, err)
	assert.Len(t, installed, 2)
}

func TestPrepareKeepsInstalledWhenNothingNewer(t *testing.T) {
	f := newFixture(t, throttle.Always{}, candidate("zulu", "17.0.2"))
	ctx := context.Background()

	_, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)
	_, err = f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)

	assert.EqualValues(t, 2, f.source.searches.Load())
	assert.EqualValues(t, 1, f.source.resolves.Load())
}

func TestPrepareNotFound(t *testing.T) {
	f := newFixture(t, throttle.Always{}, candidate("zulu", "11.0.2"))

	_, err := f.resolver.Prepare(context.Background(), requirement(t, "17"))
	require.Error(t, err)
	assert.ErrorIs(t, err, jdk.ErrNotFound)
	var nf *jdk.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, jdk.CurrentPlatform().OS, nf.Requirement.OS)
}

func TestPrepareSearchFailure(t *testing.T) {
	f := newFixture(t, throttle.Always{}, candidate("zulu", "17.0.2"))
	ctx := context.Background()
	boom := errors.New("catalog down")

	f.source.searchErr = boom
	_, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	assert.ErrorIs(t, err, boom)

	f.source.searchErr = nil
	installed, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)

	f.source.searchErr = boom
	got, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)
	assert.Equal(t, installed.Dir, got.Dir)
}

func TestPrepareNotFoundNamesSkippedSources(t *testing.T) {
	f := newFixture(t, throttle.Always{})
	f.resolver.source = repository.NewErrorSuppressing(f.source)
	f.source.searchErr = errors.New("catalog down")

	_, err := f.resolver.Prepare(context.Background(), requirement(t, "17"))
	assert.ErrorIs(t, err, jdk.ErrNotFound)
	var nf *jdk.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 1, nf.Skipped)
	assert.ErrorContains(t, err, "1 source could not be searched")
	assert.Empty(t, f.store.last, "a failed search is not recorded as a check")
}

func TestPrepareVendorFiltersInstalled(t *testing.T) {
	f := newFixture(t, throttle.Never{}, candidate("zulu", "17.0.2"), candidate("temurin", "17.0.1"))
	ctx := context.Background()

	_, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)

	req := requirement(t, "17")
	req.Vendor = "temurin"
	got, err := f.resolver.Prepare(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "temurin", got.Vendor)
}

func TestSearchIsOrdered(t *testing.T) {
	f := newFixture(t, throttle.Never{},
		candidate("temurin", "17.0.9"),
		candidate("zulu", "17.0.2"),
		candidate("zulu", "17.0.1"),
	)
	found, err := f.resolver.Search(context.Background(), requirement(t, "17"))
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "temurin", found[0].Vendor)
	assert.Equal(t, "17.0.2", found[2].Version.String())
}

func TestPurge(t *testing.T) {
	f := newFixture(t, throttle.Never{}, candidate("zulu", "17.0.2"), candidate("zulu", "21.0.1"))
	ctx := context.Background()

	_, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)
	_, err = f.resolver.Prepare(ctx, requirement(t, "21"))
	require.NoError(t, err)

	result, err := f.resolver.Purge(ctx, requirement(t, "17"), PurgeOptions{AllPlatforms: true, JDKs: true})
	require.NoError(t, err)
	assert.Len(t, f.source.purged, len(jdk.WellKnownPlatforms))
	require.Len(t, result.JDKs, 1)
	assert.Equal(t, "17.0.2", result.JDKs[0].Version.String())
	assert.NoDirExists(t, result.JDKs[0].Dir)

	remaining, err := f.resolver.Installation().Installed(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "21.0.1", remaining[0].Version.String())
}

func TestRegistrations(t *testing.T) {
	f := newFixture(t, throttle.Never{}, candidate("zulu", "17.0.2"))
	ctx := context.Background()
	_, err := f.resolver.Prepare(ctx, requirement(t, "17"))
	require.NoError(t, err)

	system := jdk.InstalledJdk{Version: versionrange.MustParseVersion("11.0.20"), Dir: "/usr/lib/jvm/java-11"}
	regs, err := f.resolver.Registrations(ctx, []jdk.InstalledJdk{system})
	require.NoError(t, err)
	require.Len(t, regs, 2)

	assert.False(t, regs[0].System)
	var versions []string
	for _, v := range regs[0].Versions {
		versions = append(versions, v.String())
	}
	assert.Equal(t, []string{"17.0.2", "17"}, versions)
	assert.True(t, regs[1].System)
}
