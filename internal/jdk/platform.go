package jdk

import (
	"fmt"
	"runtime"
	"strings"
)

// Architecture is a canonical CPU architecture name as used by the catalogs.
type Architecture string

const (
	ArchX64     Architecture = "x64"
	ArchX86     Architecture = "x86"
	ArchAarch64 Architecture = "aarch64"
	ArchArm     Architecture = "arm"
	ArchPPC64LE Architecture = "ppc64le"
	ArchS390X   Architecture = "s390x"
	ArchRISCV64 Architecture = "riscv64"
)

var archSynonyms = map[string]Architecture{
	"x64":     ArchX64,
	"amd64":   ArchX64,
	"x86_64":  ArchX64,
	"x86-64":  ArchX64,
	"x86":     ArchX86,
	"386":     ArchX86,
	"i386":    ArchX86,
	"i586":    ArchX86,
	"i686":    ArchX86,
	"x32":     ArchX86,
	"aarch64": ArchAarch64,
	"arm64":   ArchAarch64,
	"arm":     ArchArm,
	"arm32":   ArchArm,
	"armv7":   ArchArm,
	"aarch32": ArchArm,
	"ppc64le": ArchPPC64LE,
	"s390x":   ArchS390X,
	"riscv64": ArchRISCV64,
}

// ParseArchitecture maps a name or synonym to its canonical architecture.
func ParseArchitecture(s string) (Architecture, error) {
	if a, ok := archSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return "", fmt.Errorf("unknown architecture %q", s)
}

// Matches reports whether two architecture names denote the same CPU.
func (a Architecture) Matches(other Architecture) bool {
	return canonicalArch(a) == canonicalArch(other)
}

func canonicalArch(a Architecture) Architecture {
	if c, ok := archSynonyms[strings.ToLower(string(a))]; ok {
		return c
	}
	return a
}

// OperatingSystem is a canonical OS name as used by the catalogs.
type OperatingSystem string

const (
	OSLinux       OperatingSystem = "linux"
	OSWindows     OperatingSystem = "windows"
	OSMacOS       OperatingSystem = "macos"
	OSAlpineLinux OperatingSystem = "alpine_linux"
	OSAIX         OperatingSystem = "aix"
	OSSolaris     OperatingSystem = "solaris"
)

var osSynonyms = map[string]OperatingSystem{
	"linux":        OSLinux,
	"windows":      OSWindows,
	"win":          OSWindows,
	"macos":        OSMacOS,
	"mac":          OSMacOS,
	"darwin":       OSMacOS,
	"osx":          OSMacOS,
	"alpine_linux": OSAlpineLinux,
	"alpine-linux": OSAlpineLinux,
	"alpine":       OSAlpineLinux,
	"aix":          OSAIX,
	"solaris":      OSSolaris,
	"sunos":        OSSolaris,
}

// ParseOperatingSystem maps a name or synonym to its canonical OS.
func ParseOperatingSystem(s string) (OperatingSystem, error) {
	if o, ok := osSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return o, nil
	}
	return "", fmt.Errorf("unknown operating system %q", s)
}

// Matches reports whether two OS names denote the same system.
func (o OperatingSystem) Matches(other OperatingSystem) bool {
	return canonicalOS(o) == canonicalOS(other)
}

func canonicalOS(o OperatingSystem) OperatingSystem {
	if c, ok := osSynonyms[strings.ToLower(string(o))]; ok {
		return c
	}
	return o
}

// Platform is an OS and architecture pair.
type Platform struct {
	OS   OperatingSystem
	Arch Architecture
}

// Classifier returns the "os-arch" string used for cache keys.
func (p Platform) Classifier() string {
	return string(p.OS) + "-" + string(p.Arch)
}

func (p Platform) String() string { return p.Classifier() }

// WellKnownPlatforms are the platforms most catalogs publish builds for.
var WellKnownPlatforms = []Platform{
	{OSLinux, ArchX64},
	{OSLinux, ArchAarch64},
	{OSMacOS, ArchX64},
	{OSMacOS, ArchAarch64},
	{OSWindows, ArchX64},
	{OSWindows, ArchAarch64},
}

// CurrentPlatform returns the platform this process runs on.
func CurrentPlatform() Platform {
	p := Platform{OS: OperatingSystem(runtime.GOOS), Arch: Architecture(runtime.GOARCH)}
	if o, err := ParseOperatingSystem(runtime.GOOS); err == nil {
		p.OS = o
	}
	if a, err := ParseArchitecture(runtime.GOARCH); err == nil {
		p.Arch = a
	}
	return p
}
