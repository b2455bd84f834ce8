package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"autojv/internal/jdk"
)

// ErrNoJDK is returned for archives without a bin/java and bin/javac pair.
var ErrNoJDK = errors.New("archive does not contain a JDK")

// ExtractArchive unpacks the JDK inside an archive into dest, which must not
// exist yet. Only the JDK home is extracted: wrapper directories such as
// "jdk-17.0.2+8/" or macOS "Contents/Home/" are stripped.
func ExtractArchive(archivePath string, archiveType jdk.ArchiveType, dest string) error {
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("extraction target %s already exists", dest)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var err error
	switch archiveType {
	case jdk.ArchiveZip:
		err = extractZip(archivePath, dest)
	case jdk.ArchiveTarGz:
		err = extractTarGz(archivePath, dest)
	default:
		err = fmt.Errorf("unsupported archive type %q", archiveType)
	}
	if err != nil {
		_ = os.RemoveAll(dest)
		return err
	}
	return nil
}

// FindJDKRoot returns the shallowest directory among archive entry names
// that holds both bin/java and bin/javac. The empty string means the
// archive root.
func FindJDKRoot(names []string) (string, error) {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[cleanEntryName(n)] = true
	}

	best, bestDepth := "", -1
	for n := range present {
		var home string
		var exe string
		switch {
		case n == "bin/java" || strings.HasSuffix(n, "/bin/java"):
			home = strings.TrimSuffix(n, "bin/java")
		case n == "bin/java.exe" || strings.HasSuffix(n, "/bin/java.exe"):
			home, exe = strings.TrimSuffix(n, "bin/java.exe"), ".exe"
		default:
			continue
		}
		if !present[home+"bin/javac"+exe] {
			continue
		}
		depth := strings.Count(home, "/")
		if bestDepth < 0 || depth < bestDepth || (depth == bestDepth && home < best) {
			best, bestDepth = home, depth
		}
	}
	if bestDepth < 0 {
		return "", ErrNoJDK
	}
	return best, nil
}

func cleanEntryName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimPrefix(name, "./")
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// target maps an entry below root to a path inside dest. ok is false for
// entries outside root.
func target(dest, root, name string) (p string, ok bool, err error) {
	name = cleanEntryName(name)
	if root != "" {
		if !strings.HasPrefix(name+"/", root) {
			return "", false, nil
		}
		name = strings.TrimPrefix(strings.TrimPrefix(name, strings.TrimSuffix(root, "/")), "/")
	}
	if name == "" {
		return dest, true, nil
	}
	p = filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(p, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", false, fmt.Errorf("archive entry %q escapes the target directory", name)
	}
	return p, true, nil
}

// safeLink rejects symlinks pointing outside dest.
func safeLink(dest, linkPath, linkTarget string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("symlink %s has absolute target %q", linkPath, linkTarget)
	}
	resolved := filepath.Join(filepath.Dir(linkPath), filepath.FromSlash(linkTarget))
	if !strings.HasPrefix(resolved, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("symlink %s escapes the target directory", linkPath)
	}
	return nil
}

type dirTime struct {
	path  string
	mtime time.Time
}

// restoreDirTimes runs last: writing files bumps directory mtimes.
func restoreDirTimes(dirs []dirTime) {
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i].path) > len(dirs[j].path) })
	for _, d := range dirs {
		_ = os.Chtimes(d.path, d.mtime, d.mtime)
	}
}

func writeFile(p string, r io.Reader, mode os.FileMode, mtime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm()|0o200)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	_, err = io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to extract file: %w", err)
	}
	if err := os.Chmod(p, mode.Perm()); err != nil {
		return err
	}
	if !mtime.IsZero() {
		_ = os.Chtimes(p, mtime, mtime)
	}
	return nil
}

func extractZip(zipPath, dest string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	root, err := FindJDKRoot(names)
	if err != nil {
		return err
	}

	var dirs []dirTime
	for _, file := range reader.File {
		p, ok, err := target(dest, root, file.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		mode := file.Mode()

		switch {
		case file.FileInfo().IsDir():
			if err := os.MkdirAll(p, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			dirs = append(dirs, dirTime{p, file.Modified})
		case mode&os.ModeSymlink != 0:
			if err := extractZipSymlink(file, dest, p); err != nil {
				return err
			}
		default:
			rc, err := file.Open()
			if err != nil {
				return fmt.Errorf("failed to open file in zip: %w", err)
			}
			perm := mode
			if perm.Perm() == 0 {
				perm = 0o644
			}
			err = writeFile(p, rc, perm, file.Modified)
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	restoreDirTimes(dirs)
	return nil
}

func extractZipSymlink(file *zip.File, dest, p string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file in zip: %w", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return err
	}
	return makeSymlink(dest, p, string(b))
}

func makeSymlink(dest, p, linkTarget string) error {
	if err := safeLink(dest, p, linkTarget); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.Symlink(linkTarget, p)
}

func openTarGz(p string) (*tar.Reader, func() error, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return tar.NewReader(gz), func() error {
		gz.Close()
		return f.Close()
	}, nil
}

// extractTarGz reads the archive twice: once to locate the JDK home and once
// to extract it.
func extractTarGz(archivePath, dest string) error {
	tr, closeFn, err := openTarGz(archivePath)
	if err != nil {
		return err
	}
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			closeFn()
			return fmt.Errorf("failed to read archive: %w", err)
		}
		names = append(names, hdr.Name)
	}
	closeFn()

	root, err := FindJDKRoot(names)
	if err != nil {
		return err
	}

	tr, closeFn, err = openTarGz(archivePath)
	if err != nil {
		return err
	}
	defer closeFn()

	var dirs []dirTime
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		p, ok, err := target(dest, root, hdr.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(p, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			dirs = append(dirs, dirTime{p, hdr.ModTime})
		case tar.TypeReg:
			if err := writeFile(p, tr, hdr.FileInfo().Mode(), hdr.ModTime); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := makeSymlink(dest, p, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			src, ok, err := target(dest, root, hdr.Linkname)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("hard link %s points outside the JDK home", hdr.Name)
			}
			if err := os.Link(src, p); err != nil {
				return fmt.Errorf("failed to create link: %w", err)
			}
		}
	}
	restoreDirTimes(dirs)
	return nil
}
