package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"autojv/internal/jdk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
	mode os.FileMode
	link string
}

func writeZip(t *testing.T, entries []entry) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "jdk.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		h := &zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC)}
		mode := e.mode
		if mode == 0 {
			mode = 0o644
		}
		if e.name[len(e.name)-1] == '/' {
			mode = os.ModeDir | 0o755
		}
		h.SetMode(mode)
		w, err := zw.CreateHeader(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return p
}

func writeTarGz(t *testing.T, entries []entry) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "jdk.tar.gz")
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		h := &tar.Header{Name: e.name, Mode: int64(e.mode), ModTime: time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC)}
		switch {
		case e.link != "":
			h.Typeflag = tar.TypeSymlink
			h.Linkname = e.link
		case e.name[len(e.name)-1] == '/':
			h.Typeflag = tar.TypeDir
			h.Mode = 0o755
		default:
			h.Typeflag = tar.TypeReg
			h.Size = int64(len(e.body))
			if h.Mode == 0 {
				h.Mode = 0o644
			}
		}
		require.NoError(t, tw.WriteHeader(h))
		if h.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return p
}

func jdkEntries(prefix string) []entry {
	return []entry{
		{name: prefix + "release", body: `JAVA_VERSION="17.0.2"`},
		{name: prefix + "bin/", mode: os.ModeDir},
		{name: prefix + "bin/java", body: "#!/bin/sh", mode: 0o755},
		{name: prefix + "bin/javac", body: "#!/bin/sh", mode: 0o755},
		{name: prefix + "lib/modules", body: "modules"},
	}
}

func TestFindJDKRoot(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		want    string
		wantErr bool
	}{
		{name: "top level", names: []string{"bin/java", "bin/javac"}, want: ""},
		{name: "wrapped", names: []string{"jdk-17/", "jdk-17/bin/java", "jdk-17/bin/javac"}, want: "jdk-17/"},
		{name: "windows", names: []string{"jdk/bin/java.exe", "jdk/bin/javac.exe"}, want: "jdk/"},
		{
			name: "shallowest wins",
			names: []string{
				"jdk/Contents/Home/bin/java", "jdk/Contents/Home/bin/javac",
				"jdk/Contents/Home/jre/bin/java", "jdk/Contents/Home/jre/bin/javac",
			},
			want: "jdk/Contents/Home/",
		},
		{name: "jre only", names: []string{"jre/bin/java"}, wantErr: true},
		{name: "dot prefix", names: []string{"./jdk/bin/java", "./jdk/bin/javac"}, want: "jdk/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindJDKRoot(tt.names)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJDK)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractZip(t *testing.T) {
	archive := writeZip(t, append(jdkEntries("jdk-17.0.2+8/"), entry{name: "README", body: "outside"}))
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, ExtractArchive(archive, jdk.ArchiveZip, dest))

	assert.FileExists(t, filepath.Join(dest, "bin", "java"))
	assert.FileExists(t, filepath.Join(dest, "lib", "modules"))
	assert.NoFileExists(t, filepath.Join(dest, "README"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dest, "bin", "java"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}
}

func TestExtractTarGz(t *testing.T) {
	entries := jdkEntries("jdk-21.jdk/Contents/Home/")
	entries = append(entries, entry{name: "jdk-21.jdk/Contents/Home/lib/current", link: "modules"})
	archive := writeTarGz(t, entries)
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, ExtractArchive(archive, jdk.ArchiveTarGz, dest))

	assert.FileExists(t, filepath.Join(dest, "bin", "javac"))
	release, err := os.ReadFile(filepath.Join(dest, "release"))
	require.NoError(t, err)
	assert.Equal(t, `JAVA_VERSION="17.0.2"`, string(release))

	info, err := os.Stat(filepath.Join(dest, "lib", "modules"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC)))

	if runtime.GOOS != "windows" {
		link, err := os.Readlink(filepath.Join(dest, "lib", "current"))
		require.NoError(t, err)
		assert.Equal(t, "modules", link)
	}
}

func TestExtractRejectsEscapingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	entries := append(jdkEntries(""), entry{name: "lib/evil", link: "../../../etc/passwd"})
	archive := writeTarGz(t, entries)
	dest := filepath.Join(t.TempDir(), "out")

	err := ExtractArchive(archive, jdk.ArchiveTarGz, dest)
	require.Error(t, err)
	assert.NoDirExists(t, dest)
}

func TestExtractWithoutJDK(t *testing.T) {
	archive := writeZip(t, []entry{{name: "docs/index.html", body: "<html>"}})
	err := ExtractArchive(archive, jdk.ArchiveZip, filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, ErrNoJDK)
}

func TestExtractRefusesExistingTarget(t *testing.T) {
	archive := writeZip(t, jdkEntries(""))
	dest := t.TempDir()
	assert.Error(t, ExtractArchive(archive, jdk.ArchiveZip, dest))
}
