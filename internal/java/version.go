package java

import (
	"fmt"
	"path/filepath"
	"strings"

	"autojv/internal/jdk"
	"autojv/internal/versionrange"
)

// Version represents a Java installation
type Version struct {
	Version  string // Version string (e.g., "17.0.1", "1.8.0_322")
	Path     string // Full path to Java installation
	IsCustom bool   // Whether this is from custom paths or auto-detected
}

// Installed describes the installation as a JDK of the current platform.
// Legacy "1.x" versions are reported by their real major, so 1.8.0_322
// becomes 8.0.322.
func (v Version) Installed() (jdk.InstalledJdk, error) {
	text := v.Version
	if rest, ok := strings.CutPrefix(text, "1."); ok && strings.Contains(rest, ".") {
		text = rest
	}
	parsed, err := versionrange.ParseVersion(text)
	if err != nil {
		return jdk.InstalledJdk{}, fmt.Errorf("java at %s: %w", v.Path, err)
	}
	p := jdk.CurrentPlatform()
	return jdk.InstalledJdk{
		Vendor:  vendorFromPath(v.Path),
		Version: parsed,
		OS:      p.OS,
		Arch:    p.Arch,
		Dir:     v.Path,
	}, nil
}

var pathVendors = []struct{ marker, vendor string }{
	{"zulu", "zulu"},
	{"corretto", "corretto"},
	{"liberica", "liberica"},
	{"temurin", "temurin"},
	{"adoptium", "temurin"},
	{"microsoft", "microsoft"},
	{"graalvm", "graalvm_community"},
	{"semeru", "semeru"},
}

// vendorFromPath guesses the vendor from well-known directory names. It
// returns "" when nothing matches.
func vendorFromPath(p string) string {
	lower := strings.ToLower(filepath.ToSlash(p))
	for _, pv := range pathVendors {
		if strings.Contains(lower, pv.marker) {
			return pv.vendor
		}
	}
	return ""
}
