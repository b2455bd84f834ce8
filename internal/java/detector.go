// Package java finds JDKs that were installed without autojv.
package java

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"autojv/internal/logging"
)

var (
	versionOutputRe = regexp.MustCompile(`(?:openjdk|java)?\s*version\s+"([^"]+)"`)
	jdkDirRe        = regexp.MustCompile(`jdk-?(\d+(?:\.\d+)*(?:_\d+)?)`)
	legacyJdkDirRe  = regexp.MustCompile(`jdk(1\.\d+\.\d+_\d+)`)
	javaDirRe       = regexp.MustCompile(`java-?(\d+(?:\.\d+)*)`)
)

// Detector finds Java installations on the system
type Detector struct {
	standardPaths []string
	searchPaths   []string
	customPaths   []string
	// VersionTimeout bounds each "java -version" run.
	VersionTimeout time.Duration
}

// NewDetector creates a detector that scans the platform's usual JDK
// locations plus searchPaths, and checks each of customPaths directly.
func NewDetector(searchPaths, customPaths []string) *Detector {
	return &Detector{
		standardPaths:  standardPaths(runtime.GOOS),
		searchPaths:    searchPaths,
		customPaths:    customPaths,
		VersionTimeout: 5 * time.Second,
	}
}

func standardPaths(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			"C:\\Program Files\\Java",
			"C:\\Program Files (x86)\\Java",
			"C:\\Program Files\\Eclipse Adoptium",
			"C:\\Program Files\\Eclipse Foundation",
			"C:\\Program Files\\Zulu",
			"C:\\Program Files\\Amazon Corretto",
			"C:\\Program Files\\Microsoft",
		}
	case "darwin":
		paths := []string{"/Library/Java/JavaVirtualMachines"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, "Library", "Java", "JavaVirtualMachines"))
		}
		return paths
	default:
		paths := []string{"/usr/lib/jvm", "/usr/java", "/opt/java", "/opt/jdk"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".sdkman", "candidates", "java"))
		}
		return paths
	}
}

// FindAll finds all Java installations (auto-detected + custom), sorted by
// path.
func (d *Detector) FindAll(ctx context.Context) []Version {
	logger := logging.From(ctx)
	seen := make(map[string]Version)

	searchPaths := append(append([]string(nil), d.standardPaths...), d.searchPaths...)
	for _, basePath := range searchPaths {
		entries, err := os.ReadDir(basePath)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			home, ok := d.javaHome(filepath.Join(basePath, entry.Name()))
			if !ok {
				continue
			}
			key := strings.ToLower(home)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = Version{Version: d.GetVersion(ctx, home), Path: home}
		}
	}

	for _, customPath := range d.customPaths {
		home, ok := d.javaHome(customPath)
		if !ok {
			logger.Debug("Custom path is not a Java installation", "path", customPath)
			continue
		}
		// Custom wins over auto-detected.
		seen[strings.ToLower(home)] = Version{Version: d.GetVersion(ctx, home), Path: home, IsCustom: true}
	}

	versions := make([]Version, 0, len(seen))
	for _, v := range seen {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Path < versions[j].Path })
	return versions
}

// javaHome returns the JDK home for path, looking inside macOS bundles.
func (d *Detector) javaHome(path string) (string, bool) {
	path = filepath.Clean(path)
	for _, home := range []string{path, filepath.Join(path, "Contents", "Home")} {
		if d.IsValidJavaPath(home) {
			return home, true
		}
	}
	return "", false
}

// IsValidJavaPath checks if a path is a valid Java installation
func (d *Detector) IsValidJavaPath(path string) bool {
	return javaExecutable(path) != ""
}

func javaExecutable(home string) string {
	for _, name := range []string{"java", "java.exe"} {
		p := filepath.Join(home, "bin", name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// IsValidSearchPath checks if a path is a valid directory to search for Java installations
func (d *Detector) IsValidSearchPath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// GetVersion extracts the version from a Java installation path
func (d *Detector) GetVersion(ctx context.Context, javaPath string) string {
	if exe := javaExecutable(javaPath); exe != "" {
		versionCtx, cancel := context.WithTimeout(ctx, d.VersionTimeout)
		defer cancel()
		output, err := exec.CommandContext(versionCtx, exe, "-version").CombinedOutput()
		if err == nil {
			if version := parseVersionOutput(string(output)); version != "" {
				return version
			}
		}
	}

	// Fallback: extract from directory name
	dir := javaPath
	if filepath.Base(dir) == "Home" && filepath.Base(filepath.Dir(dir)) == "Contents" {
		dir = filepath.Dir(filepath.Dir(dir))
	}
	return parseVersionFromDirName(filepath.Base(dir))
}

// parseVersionOutput parses the output of 'java -version'
func parseVersionOutput(output string) string {
	matches := versionOutputRe.FindStringSubmatch(output)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// parseVersionFromDirName extracts version from directory names like "jdk-17" or "jdk1.8.0_322"
func parseVersionFromDirName(dirName string) string {
	dirName = strings.ToLower(dirName)

	for _, re := range []*regexp.Regexp{legacyJdkDirRe, jdkDirRe, javaDirRe} {
		if matches := re.FindStringSubmatch(dirName); len(matches) > 1 {
			return matches[1]
		}
	}

	// Return dir name as-is if no pattern matches
	return dirName
}
