package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"autojv/internal/catalog"
	"autojv/internal/installer"
	"autojv/internal/jdk"
	"autojv/internal/logging"
	"autojv/internal/planner"
	"autojv/internal/translate"
	"autojv/internal/versionrange"
)

// CatalogSource searches a remote catalog and downloads its archives.
type CatalogSource struct {
	client     catalog.Client
	downloader *installer.Downloader

	mu        sync.Mutex
	downloads map[string]*installer.Download
}

// NewCatalogSource returns a source backed by client.
func NewCatalogSource(client catalog.Client, downloader *installer.Downloader) *CatalogSource {
	return &CatalogSource{
		client:     client,
		downloader: downloader,
		downloads:  make(map[string]*installer.Download),
	}
}

func (s *CatalogSource) Name() string { return s.client.Name() }

// Search queries the catalog one major version at a time, newest first,
// and stops at the first major with matches.
func (s *CatalogSource) Search(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	units, err := planner.Plan(ctx, req.Range, s.client.MajorVersions)
	if err != nil {
		return nil, &jdk.SourceSearchError{Source: s.Name(), Err: err}
	}

	var vendors []string
	if req.Vendor != "" {
		vendors = catalog.VendorNames(ctx, s.client, req.Vendor)
	}

	logger := logging.From(ctx)
	logger.Debug("Searching catalog", "catalog", s.Name(), "requirement", req.String(), "units", len(units))

	found, err := planner.Execute(ctx, units, func(ctx context.Context, u planner.Unit) ([]jdk.Candidate, error) {
		pkgs, err := s.client.Packages(ctx, catalog.Query{
			Major:       u.Major,
			Vendor:      req.Vendor,
			OS:          req.OS,
			Arch:        req.Arch,
			ReleaseType: req.ReleaseType,
			AllBuilds:   u.AllBuilds,
		})
		if err != nil {
			return nil, err
		}
		var out []jdk.Candidate
		for _, p := range pkgs {
			c, ok := candidateFromPackage(p)
			if !ok {
				logger.Debug("Skipping unusable package", "catalog", s.Name(), "id", p.ID, "version", p.JavaVersion, "archive", p.ArchiveType)
				continue
			}
			if vendors != nil && !slices.Contains(vendors, c.Vendor) {
				logger.Debug("Skipping package of another vendor", "catalog", s.Name(), "id", p.ID, "vendor", c.Vendor)
				continue
			}
			if requirementMatches(req, c, translate.ExpandAll) {
				out = append(out, c)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, &jdk.SourceSearchError{Source: s.Name(), Err: err}
	}
	return found, nil
}

func candidateFromPackage(p catalog.Package) (jdk.Candidate, bool) {
	archiveType, ok := jdk.ParseArchiveType(p.ArchiveType)
	if !ok {
		return jdk.Candidate{}, false
	}
	v, err := versionrange.ParseVersion(p.JavaVersion)
	if err != nil {
		return jdk.Candidate{}, false
	}
	c := jdk.Candidate{
		Vendor:      strings.ToLower(p.Vendor),
		Version:     v,
		OS:          jdk.OperatingSystem(p.OS),
		Arch:        jdk.Architecture(p.Arch),
		ArchiveType: archiveType,
		ID:          p.ID,
		URL:         p.URL,
		Size:        p.Size,
		Checksum:    p.Checksum,
	}
	if o, err := jdk.ParseOperatingSystem(p.OS); err == nil {
		c.OS = o
	}
	// Musl builds are published under the linux OS with a libc marker.
	if c.OS == jdk.OSLinux && strings.EqualFold(p.LibC, "musl") {
		c.OS = jdk.OSAlpineLinux
	}
	if a, err := jdk.ParseArchitecture(p.Arch); err == nil {
		c.Arch = a
	}
	if rt, err := jdk.ParseReleaseType(p.ReleaseStatus); err == nil {
		c.ReleaseType = rt
	}
	return c, true
}

// requirementMatches checks everything but the vendor. Vendors are
// compared by the caller, which knows the synonyms of its source.
func requirementMatches(req jdk.Requirement, c jdk.Candidate, expander translate.Expander) bool {
	if req.Range != nil && !expander.MatchesAny(req.Range, c.Version) {
		return false
	}
	if req.OS != "" && !req.OS.Matches(c.OS) {
		return false
	}
	if req.Arch != "" && !req.Arch.Matches(c.Arch) {
		return false
	}
	if req.ReleaseType != "" && c.ReleaseType != "" && req.ReleaseType != c.ReleaseType {
		return false
	}
	return true
}

// Resolve downloads a candidate to a temporary file and verifies its
// checksum when the catalog published one.
func (s *CatalogSource) Resolve(ctx context.Context, c jdk.Candidate) (jdk.ResolvedArchive, error) {
	link, checksum := c.URL, c.Checksum
	if link == "" {
		info, err := s.client.PackageInfo(ctx, c.ID)
		if err != nil {
			return jdk.ResolvedArchive{}, &jdk.ResolveError{Candidate: c, Err: err}
		}
		link = info.URL
		if checksum == "" && (info.ChecksumType == "" || strings.EqualFold(info.ChecksumType, "sha256")) {
			checksum = info.Checksum
		}
	}

	logger := logging.From(ctx)
	logger.Info("Downloading JDK", "vendor", c.Vendor, "version", c.Version.String(), "platform", c.Platform().String())

	dl, err := s.downloader.Download(ctx, link)
	if err != nil {
		return jdk.ResolvedArchive{}, &jdk.ResolveError{Candidate: c, Err: err}
	}
	if checksum != "" {
		if err := installer.VerifyChecksum(dl.Path, checksum); err != nil {
			_ = dl.Close()
			return jdk.ResolvedArchive{}, &jdk.ResolveError{Candidate: c, Err: err}
		}
		logger.Debug("Checksum verified", "path", dl.Path)
	}

	s.mu.Lock()
	s.downloads[dl.Path] = dl
	s.mu.Unlock()
	return jdk.ResolvedArchive{Candidate: c, Path: dl.Path}, nil
}

// Release deletes the temporary download behind archive.
func (s *CatalogSource) Release(_ context.Context, archive jdk.ResolvedArchive) error {
	s.mu.Lock()
	dl, ok := s.downloads[archive.Path]
	delete(s.downloads, archive.Path)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := dl.Close(); err != nil {
		return fmt.Errorf("release %s: %w", archive.Path, err)
	}
	return nil
}

// Purge does nothing: a catalog source keeps no state.
func (s *CatalogSource) Purge(context.Context, jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	return nil, nil
}
