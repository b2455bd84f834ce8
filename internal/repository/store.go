package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"autojv/internal/fileutil"
	"autojv/internal/jdk"
	"autojv/internal/logging"
	"autojv/internal/translate"
	"autojv/internal/versionrange"

	"gopkg.in/yaml.v3"
)

// ErrNotCached is returned when the store has no artifact for a key.
var ErrNotCached = errors.New("artifact not cached")

const sidecarExt = ".autojv-metadata.yaml"

// Key addresses one archive in the store.
type Key struct {
	Namespace   string
	Vendor      string
	Version     string
	Classifier  string
	ArchiveType jdk.ArchiveType
}

// KeyFor returns the key a candidate is cached under.
func KeyFor(namespace string, c jdk.Candidate) Key {
	return Key{
		Namespace:   namespace,
		Vendor:      c.Vendor,
		Version:     c.Version.String(),
		Classifier:  c.Platform().Classifier(),
		ArchiveType: c.ArchiveType,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s.%s", k.Namespace, k.Vendor, k.Version, k.Classifier, k.ArchiveType)
}

func (k Key) baseName() string {
	return k.Vendor + "-" + k.Version + "-" + k.Classifier
}

// Sidecar records what the store knows about one vendor, version and
// classifier.
type Sidecar struct {
	ArchiveTypes []jdk.ArchiveType `yaml:"archiveTypes"`
	ReleaseType  jdk.ReleaseType   `yaml:"releaseType,omitempty"`
}

// Entry is one cached archive.
type Entry struct {
	Key     Key
	Path    string
	Size    int64
	ModTime time.Time
	Sidecar Sidecar
}

// Candidate rebuilds the candidate an entry was cached for.
func (e Entry) Candidate() (jdk.Candidate, error) {
	v, err := versionrange.ParseVersion(e.Key.Version)
	if err != nil {
		return jdk.Candidate{}, err
	}
	osName, arch, ok := strings.Cut(e.Key.Classifier, "-")
	if !ok {
		return jdk.Candidate{}, fmt.Errorf("malformed classifier %q", e.Key.Classifier)
	}
	return jdk.Candidate{
		Vendor:      e.Key.Vendor,
		Version:     v,
		OS:          jdk.OperatingSystem(osName),
		Arch:        jdk.Architecture(arch),
		ArchiveType: e.Key.ArchiveType,
		ReleaseType: e.Sidecar.ReleaseType,
		Size:        e.Size,
		URL:         fileURL(e.Path),
	}, nil
}

func fileURL(p string) string {
	slashed := filepath.ToSlash(p)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}

func pathFromFileURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a cached archive: %s", raw)
	}
	p := u.Path
	// /C:/Users/...
	if len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

// Store is a directory of downloaded archives laid out as
// <root>/<namespace>/<vendor>/<version>/<vendor>-<version>-<classifier>.<ext>
type Store struct {
	Root string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Root: dir}
}

func (s *Store) dir(k Key) string {
	return filepath.Join(s.Root, k.Namespace, k.Vendor, k.Version)
}

// ArtifactPath returns where the archive for k lives.
func (s *Store) ArtifactPath(k Key) string {
	return filepath.Join(s.dir(k), k.baseName()+"."+string(k.ArchiveType))
}

// SidecarPath returns where the metadata for k lives. It is shared by every
// archive type of the same vendor, version and classifier.
func (s *Store) SidecarPath(k Key) string {
	return filepath.Join(s.dir(k), k.baseName()+sidecarExt)
}

// Find returns the path of a cached archive or ErrNotCached.
func (s *Store) Find(k Key) (string, error) {
	p := s.ArtifactPath(k)
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", k, ErrNotCached)
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", p)
	}
	return p, nil
}

// Install copies src into the store. A concurrent reader sees either no
// artifact or a complete one.
func (s *Store) Install(k Key, src string) (string, error) {
	p := s.ArtifactPath(k)
	if err := fileutil.CopyFileAtomic(p, src); err != nil {
		return "", fmt.Errorf("install %s into cache: %w", k, err)
	}
	return p, nil
}

// ReadSidecar returns the metadata for k or ErrNotCached.
func (s *Store) ReadSidecar(k Key) (Sidecar, error) {
	var sc Sidecar
	data, err := os.ReadFile(s.SidecarPath(k))
	if errors.Is(err, os.ErrNotExist) {
		return sc, fmt.Errorf("%s metadata: %w", k, ErrNotCached)
	}
	if err != nil {
		return sc, err
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parse %s: %w", s.SidecarPath(k), err)
	}
	return sc, nil
}

// WriteSidecar replaces the metadata for k.
func (s *Store) WriteSidecar(k Key, sc Sidecar) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode cache metadata: %w", err)
	}
	return fileutil.WriteFileAtomic(s.SidecarPath(k), data)
}

// recordArchive adds k's archive type to the sidecar.
func (s *Store) recordArchive(k Key, releaseType jdk.ReleaseType) error {
	sc, err := s.ReadSidecar(k)
	if err != nil && !errors.Is(err, ErrNotCached) {
		// Unreadable metadata is rebuilt from scratch.
		sc = Sidecar{}
	}
	if !slices.Contains(sc.ArchiveTypes, k.ArchiveType) {
		sc.ArchiveTypes = append(sc.ArchiveTypes, k.ArchiveType)
		slices.Sort(sc.ArchiveTypes)
	}
	if releaseType != "" {
		sc.ReleaseType = releaseType
	}
	return s.WriteSidecar(k, sc)
}

// Delete removes the archive for k. The sidecar goes with the last archive
// type. It reports whether the archive was removed.
func (s *Store) Delete(k Key) (bool, error) {
	removed := false
	err := os.Remove(s.ArtifactPath(k))
	switch {
	case err == nil:
		removed = true
	case !errors.Is(err, os.ErrNotExist):
		return false, err
	}

	sc, err := s.ReadSidecar(k)
	switch {
	case errors.Is(err, ErrNotCached):
		s.pruneEmpty(k)
		return removed, nil
	case err != nil:
		// Unreadable metadata is rebuilt from the archives still on disk.
		sc = Sidecar{ArchiveTypes: s.archiveTypesOnDisk(k)}
	default:
		sc.ArchiveTypes = slices.DeleteFunc(sc.ArchiveTypes, func(t jdk.ArchiveType) bool { return t == k.ArchiveType })
	}
	if len(sc.ArchiveTypes) > 0 {
		return removed, s.WriteSidecar(k, sc)
	}

	if err := os.Remove(s.SidecarPath(k)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return removed, err
	}
	s.pruneEmpty(k)
	return removed, nil
}

// archiveTypesOnDisk lists the archive types stored for k's vendor, version
// and classifier.
func (s *Store) archiveTypesOnDisk(k Key) []jdk.ArchiveType {
	var out []jdk.ArchiveType
	for _, at := range jdk.ArchiveTypes {
		other := k
		other.ArchiveType = at
		if _, err := s.Find(other); err == nil {
			out = append(out, at)
		}
	}
	slices.Sort(out)
	return out
}

// pruneEmpty removes the version and vendor directories once empty.
func (s *Store) pruneEmpty(k Key) {
	dir := s.dir(k)
	for i := 0; i < 2; i++ {
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Namespaces lists the namespaces that hold any data.
func (s *Store) Namespaces() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// List returns every archive in a namespace.
func (s *Store) List(namespace string) ([]Entry, error) {
	nsDir := filepath.Join(s.Root, namespace)
	vendors, err := os.ReadDir(nsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, vendor := range vendors {
		if !vendor.IsDir() {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(nsDir, vendor.Name()))
		if err != nil {
			return nil, err
		}
		for _, version := range versions {
			if !version.IsDir() {
				continue
			}
			found, err := s.listVersion(namespace, vendor.Name(), version.Name())
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
	}
	return out, nil
}

func (s *Store) listVersion(namespace, vendor, version string) ([]Entry, error) {
	dir := filepath.Join(s.Root, namespace, vendor, version)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	prefix := vendor + "-" + version + "-"
	var out []Entry
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasPrefix(name, prefix) || strings.HasSuffix(name, ".tmp") {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		for _, at := range jdk.ArchiveTypes {
			classifier, ok := strings.CutSuffix(rest, "."+string(at))
			if !ok {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return nil, err
			}
			k := Key{Namespace: namespace, Vendor: vendor, Version: version, Classifier: classifier, ArchiveType: at}
			sc, _ := s.ReadSidecar(k)
			out = append(out, Entry{
				Key:     k,
				Path:    filepath.Join(dir, name),
				Size:    info.Size(),
				ModTime: info.ModTime(),
				Sidecar: sc,
			})
		}
	}
	return out, nil
}

// matchEntries returns the entries of namespace whose candidate satisfies
// req.
func (s *Store) matchEntries(ctx context.Context, namespace string, req jdk.Requirement) ([]Entry, []jdk.Candidate, error) {
	entries, err := s.List(namespace)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.From(ctx)
	var (
		matched    []Entry
		candidates []jdk.Candidate
	)
	for _, e := range entries {
		c, err := e.Candidate()
		if err != nil {
			logger.Debug("Skipping unreadable cache entry", "path", e.Path, "err", err)
			continue
		}
		if req.Vendor != "" && !strings.EqualFold(req.Vendor, c.Vendor) {
			continue
		}
		if !requirementMatches(req, c, translate.ExpandAll) {
			continue
		}
		matched = append(matched, e)
		candidates = append(candidates, c)
	}
	return matched, candidates, nil
}

// purge deletes the archives of namespace that satisfy req.
func (s *Store) purge(ctx context.Context, namespace string, req jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	entries, candidates, err := s.matchEntries(ctx, namespace, req)
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx)
	var purged []jdk.ResolvedArchive
	for i, e := range entries {
		removed, err := s.Delete(e.Key)
		if err != nil {
			return purged, fmt.Errorf("purge %s: %w", e.Key, err)
		}
		if removed {
			logger.Debug("Purged cached archive", "path", e.Path)
			purged = append(purged, jdk.ResolvedArchive{Candidate: candidates[i], Path: e.Path})
		}
	}
	return purged, nil
}

// StoreSource searches archives that are already in the store, so JDKs
// downloaded earlier can be installed without a network connection.
type StoreSource struct {
	store *Store
}

// NewStoreSource returns a source over every namespace of store.
func NewStoreSource(store *Store) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Name() string { return "cache" }

func (s *StoreSource) Search(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	namespaces, err := s.store.Namespaces()
	if err != nil {
		return nil, &jdk.SourceSearchError{Source: s.Name(), Err: err}
	}
	var out []jdk.Candidate
	for _, ns := range namespaces {
		_, candidates, err := s.store.matchEntries(ctx, ns, req)
		if err != nil {
			return nil, &jdk.SourceSearchError{Source: s.Name(), Err: err}
		}
		out = append(out, candidates...)
	}
	return out, nil
}

func (s *StoreSource) Resolve(_ context.Context, c jdk.Candidate) (jdk.ResolvedArchive, error) {
	p, err := pathFromFileURL(c.URL)
	if err == nil {
		_, err = os.Stat(p)
	}
	if err != nil {
		return jdk.ResolvedArchive{}, &jdk.ResolveError{Candidate: c, Err: err}
	}
	return jdk.ResolvedArchive{Candidate: c, Path: p}, nil
}

// Release does nothing: the archive stays in the store.
func (s *StoreSource) Release(context.Context, jdk.ResolvedArchive) error { return nil }

// Purge deletes matching archives from every namespace. Archives a Caching
// source already purged are simply no longer found.
func (s *StoreSource) Purge(ctx context.Context, req jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	namespaces, err := s.store.Namespaces()
	if err != nil {
		return nil, err
	}
	var purged []jdk.ResolvedArchive
	for _, ns := range namespaces {
		found, err := s.store.purge(ctx, ns, req)
		purged = append(purged, found...)
		if err != nil {
			return purged, err
		}
	}
	return purged, nil
}
