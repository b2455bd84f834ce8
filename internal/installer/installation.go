package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autojv/internal/fileutil"
	"autojv/internal/jdk"
	"autojv/internal/logging"
	"autojv/internal/versionrange"

	"gopkg.in/yaml.v3"
)

const metadataExt = ".yaml"

// Metadata is stored next to every installed JDK directory.
type Metadata struct {
	Vendor      string              `yaml:"vendor"`
	Version     string              `yaml:"version"`
	OS          jdk.OperatingSystem `yaml:"os"`
	Arch        jdk.Architecture    `yaml:"arch"`
	ReleaseType jdk.ReleaseType     `yaml:"release_type,omitempty"`
	InstalledAt time.Time           `yaml:"installed_at"`
}

// MetadataFor describes the JDK a candidate unpacks to.
func MetadataFor(c jdk.Candidate) Metadata {
	return Metadata{
		Vendor:      c.Vendor,
		Version:     c.Version.String(),
		OS:          c.OS,
		Arch:        c.Arch,
		ReleaseType: c.ReleaseType,
		InstalledAt: time.Now().UTC(),
	}
}

// DirName is the directory a JDK is installed to, "vendor-version-os-arch".
func (m Metadata) DirName() string {
	name := fmt.Sprintf("%s-%s-%s-%s", m.Vendor, m.Version, m.OS, m.Arch)
	return strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(name)
}

// Installation manages the JDKs autojv installed under Root.
type Installation struct {
	Root string
}

// NewInstallation returns an installation rooted at dir.
func NewInstallation(dir string) *Installation {
	return &Installation{Root: dir}
}

// Install extracts archive into Root and writes its metadata. Existing
// installations are never overwritten.
func (i *Installation) Install(ctx context.Context, archive jdk.ResolvedArchive, meta Metadata) (jdk.InstalledJdk, error) {
	logger := logging.From(ctx)

	if err := os.MkdirAll(i.Root, 0o755); err != nil {
		return jdk.InstalledJdk{}, fmt.Errorf("failed to create installation directory: %w", err)
	}
	finalPath := filepath.Join(i.Root, meta.DirName())
	if _, err := os.Lstat(finalPath); err == nil {
		return jdk.InstalledJdk{}, fmt.Errorf("JDK directory %s already exists", finalPath)
	}

	staging, err := os.MkdirTemp(i.Root, ".install-")
	if err != nil {
		return jdk.InstalledJdk{}, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(staging)

	extracted := filepath.Join(staging, "jdk")
	logger.Debug("Extracting JDK", "archive", archive.Path, "type", archive.Candidate.ArchiveType)
	if err := ExtractArchive(archive.Path, archive.Candidate.ArchiveType, extracted); err != nil {
		return jdk.InstalledJdk{}, fmt.Errorf("extraction failed: %w", err)
	}

	if err := os.Rename(extracted, finalPath); err != nil {
		return jdk.InstalledJdk{}, fmt.Errorf("failed to move JDK to final location: %w", err)
	}
	if err := writeMetadata(finalPath+metadataExt, meta); err != nil {
		_ = os.RemoveAll(finalPath)
		return jdk.InstalledJdk{}, err
	}

	logger.Info("Installed JDK", "vendor", meta.Vendor, "version", meta.Version, "dir", finalPath)
	return toInstalled(finalPath, meta)
}

// Installed lists installed JDKs. Unreadable metadata files are skipped
// with a warning.
func (i *Installation) Installed(ctx context.Context) ([]jdk.InstalledJdk, error) {
	entries, err := os.ReadDir(i.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", i.Root, err)
	}

	logger := logging.From(ctx)
	var jdks []jdk.InstalledJdk
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), metadataExt) {
			continue
		}
		metaPath := filepath.Join(i.Root, e.Name())
		meta, err := readMetadata(metaPath)
		if err != nil {
			logger.Warn("Failed to read local JDK metadata file", "path", metaPath, "err", err)
			continue
		}
		dir := strings.TrimSuffix(metaPath, metadataExt)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Warn("JDK directory does not exist for metadata file", "dir", dir, "metadata", metaPath)
			continue
		}
		installed, err := toInstalled(dir, meta)
		if err != nil {
			logger.Warn("Failed to read local JDK metadata file", "path", metaPath, "err", err)
			continue
		}
		jdks = append(jdks, installed)
	}
	return jdks, nil
}

// Delete removes an installed JDK directory and its metadata.
func (i *Installation) Delete(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	metaPath := filepath.Clean(dir) + metadataExt
	if _, err := os.Stat(metaPath); err != nil {
		return fmt.Errorf("missing metadata file for JDK %s: %w", dir, err)
	}
	if err := os.Remove(metaPath); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func toInstalled(dir string, meta Metadata) (jdk.InstalledJdk, error) {
	v, err := versionrange.ParseVersion(meta.Version)
	if err != nil {
		return jdk.InstalledJdk{}, err
	}
	return jdk.InstalledJdk{
		Vendor:      meta.Vendor,
		Version:     v,
		OS:          meta.OS,
		Arch:        meta.Arch,
		ReleaseType: meta.ReleaseType,
		Dir:         dir,
	}, nil
}

func readMetadata(p string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(p)
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, err
	}
	if meta.Vendor == "" || meta.Version == "" {
		return meta, fmt.Errorf("metadata %s is missing vendor or version", p)
	}
	return meta, nil
}

func writeMetadata(p string, meta Metadata) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := fileutil.WriteFileAtomic(p, data); err != nil {
		return fmt.Errorf("error writing JDK metadata file %s: %w", p, err)
	}
	return nil
}
