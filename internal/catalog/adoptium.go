package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"autojv/internal/jdk"
	"autojv/internal/logging"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultAdoptiumURL is the Eclipse Adoptium API base.
const DefaultAdoptiumURL = "https://api.adoptium.net/v3"

// adoptiumVendor is the only vendor Adoptium publishes.
const adoptiumVendor = "temurin"

// Adoptium caps page_size at 20. adoptiumMaxPages bounds a runaway listing.
const (
	adoptiumPageSize = 20
	adoptiumMaxPages = 50
)

// adoptiumAliases are the other names Temurin goes by.
var adoptiumAliases = []string{"adoptium", "adoptopenjdk", "eclipse"}

// Adoptium is a client for the Eclipse Adoptium API. It only serves
// Temurin builds.
type Adoptium struct {
	baseURL string
	http    *retryablehttp.Client
}

// NewAdoptium creates an Adoptium client.
func NewAdoptium(opts Options) *Adoptium {
	base := opts.BaseURL
	if base == "" {
		base = DefaultAdoptiumURL
	}
	return &Adoptium{
		baseURL: strings.TrimSuffix(base, "/"),
		http:    NewHTTPClient(opts),
	}
}

func (a *Adoptium) Name() string { return "adoptium" }

// adoptiumReleasesResponse represents the API response for available releases
type adoptiumReleasesResponse struct {
	AvailableLTSReleases     []int `json:"available_lts_releases"`
	AvailableReleases        []int `json:"available_releases"`
	MostRecentLTS            int   `json:"most_recent_lts"`
	MostRecentFeatureRelease int   `json:"most_recent_feature_release"`
}

type adoptiumPackage struct {
	Link     string `json:"link"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
	Name     string `json:"name"`
}

type adoptiumBinary struct {
	Architecture string          `json:"architecture"`
	OS           string          `json:"os"`
	ImageType    string          `json:"image_type"`
	Package      adoptiumPackage `json:"package"`
}

// adoptiumRelease is one entry of assets/feature_releases
type adoptiumRelease struct {
	ReleaseName string           `json:"release_name"`
	ReleaseType string           `json:"release_type"`
	Binaries    []adoptiumBinary `json:"binaries"`
	VersionData struct {
		OpenJDKVersion string `json:"openjdk_version"`
		Semver         string `json:"semver"`
		Major          int    `json:"major"`
	} `json:"version_data"`
}

// adoptiumAssetResponse represents the API response for assets/latest
type adoptiumAssetResponse struct {
	Binary  adoptiumBinary `json:"binary"`
	Version struct {
		OpenJDKVersion string `json:"openjdk_version"`
		Semver         string `json:"semver"`
		Major          int    `json:"major"`
	} `json:"version"`
}

// VendorNames accepts Temurin under any of its names.
func (a *Adoptium) VendorNames(_ context.Context, vendor string) []string {
	v := strings.ToLower(vendor)
	if v == adoptiumVendor || slices.Contains(adoptiumAliases, v) {
		return []string{adoptiumVendor, v}
	}
	return []string{v}
}

// MajorVersions fetches available feature releases. If the API cannot be
// reached a built-in list is returned instead.
func (a *Adoptium) MajorVersions(ctx context.Context) ([]int, error) {
	var releasesResp adoptiumReleasesResponse
	if err := getJSON(ctx, a.http, a.baseURL+"/info/available_releases", &releasesResp); err != nil {
		logger := logging.From(ctx)
		logger.Warn("Adoptium release list unavailable, using fallback versions", "err", err)
		return fallbackMajors(), nil
	}
	return sortedUnique(releasesResp.AvailableReleases), nil
}

// fallbackMajors returns a hardcoded list of versions as fallback
func fallbackMajors() []int {
	return []int{8, 11, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25}
}

// Packages lists Temurin JDK builds for one feature release.
func (a *Adoptium) Packages(ctx context.Context, q Query) ([]Package, error) {
	if q.Vendor != "" && !slices.Contains(a.VendorNames(ctx, q.Vendor), adoptiumVendor) {
		return nil, nil
	}
	if q.Major <= 0 {
		return nil, fmt.Errorf("adoptium queries need a major version")
	}

	params := url.Values{}
	params.Set("image_type", "jdk")
	params.Set("vendor", "eclipse")
	if q.Arch != "" {
		params.Set("architecture", adoptiumArch(q.Arch))
	}
	if q.OS != "" {
		params.Set("os", adoptiumOS(q.OS))
	}

	if !q.AllBuilds && q.ReleaseType != jdk.ReleaseEA {
		return a.latest(ctx, q.Major, params)
	}

	releaseType := "ga"
	if q.ReleaseType == jdk.ReleaseEA {
		releaseType = "ea"
	}
	params.Set("jvm_impl", "hotspot")
	params.Set("page_size", strconv.Itoa(adoptiumPageSize))
	params.Set("sort_order", "DESC")

	var packages []Package
	for page := 0; page < adoptiumMaxPages; page++ {
		params.Set("page", strconv.Itoa(page))
		u := fmt.Sprintf("%s/assets/feature_releases/%d/%s?%s", a.baseURL, q.Major, releaseType, params.Encode())
		var releases []adoptiumRelease
		err := getJSON(ctx, a.http, u, &releases)
		// Adoptium answers 404 for a page past the last one.
		if page > 0 && errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}

		for _, r := range releases {
			for _, b := range r.Binaries {
				if b.ImageType != "" && b.ImageType != "jdk" {
					continue
				}
				packages = append(packages, a.toPackage(b, r.VersionData.Semver, r.VersionData.OpenJDKVersion, r.VersionData.Major, r.ReleaseType))
			}
		}
		if len(releases) < adoptiumPageSize {
			break
		}
	}
	return packages, nil
}

func (a *Adoptium) latest(ctx context.Context, major int, params url.Values) ([]Package, error) {
	u := fmt.Sprintf("%s/assets/latest/%d/hotspot?%s", a.baseURL, major, params.Encode())
	var assets []adoptiumAssetResponse
	if err := getJSON(ctx, a.http, u, &assets); err != nil {
		return nil, err
	}

	packages := make([]Package, 0, len(assets))
	for _, asset := range assets {
		if asset.Binary.ImageType != "" && asset.Binary.ImageType != "jdk" {
			continue
		}
		packages = append(packages, a.toPackage(asset.Binary, asset.Version.Semver, asset.Version.OpenJDKVersion, asset.Version.Major, "ga"))
	}
	return packages, nil
}

func (a *Adoptium) toPackage(b adoptiumBinary, semverText, openjdkVersion string, major int, releaseType string) Package {
	return Package{
		ID:            b.Package.Name,
		Vendor:        adoptiumVendor,
		JavaVersion:   javaVersion(semverText, openjdkVersion),
		Major:         major,
		OS:            fromAdoptiumOS(b.OS),
		Arch:          fromAdoptiumArch(b.Architecture),
		ArchiveType:   archiveTypeFromName(b.Package.Name),
		ReleaseStatus: releaseType,
		Filename:      b.Package.Name,
		URL:           b.Package.Link,
		Size:          b.Package.Size,
		Checksum:      b.Package.Checksum,
	}
}

// javaVersion prefers the semver form, which Adoptium also uses for Java 8
// ("8.0.392+8" rather than "1.8.0_392-b08").
func javaVersion(semverText, openjdkVersion string) string {
	if v, err := semver.NewVersion(semverText); err == nil {
		s := strconv.FormatUint(v.Major(), 10) + "." + strconv.FormatUint(v.Minor(), 10) + "." + strconv.FormatUint(v.Patch(), 10)
		if v.Prerelease() != "" {
			s += "-" + v.Prerelease()
		}
		if build, _, _ := strings.Cut(v.Metadata(), "."); build != "" {
			s += "+" + build
		}
		return s
	}
	return openjdkVersion
}

func archiveTypeFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"):
		return "tar.gz"
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	}
	if i := strings.LastIndex(lower, "."); i >= 0 {
		return lower[i+1:]
	}
	return ""
}

// PackageInfo is not needed for Adoptium: every package carries its link.
func (a *Adoptium) PackageInfo(ctx context.Context, id string) (*PackageInfo, error) {
	return nil, fmt.Errorf("adoptium package %s: %w", id, ErrNotFound)
}

// Map canonical names to Adoptium's
func adoptiumArch(arch jdk.Architecture) string {
	if arch == jdk.ArchX86 {
		return "x32"
	}
	return string(arch)
}

func fromAdoptiumArch(arch string) string {
	if arch == "x32" {
		return string(jdk.ArchX86)
	}
	return arch
}

func adoptiumOS(os jdk.OperatingSystem) string {
	switch os {
	case jdk.OSMacOS:
		return "mac"
	case jdk.OSAlpineLinux:
		return "alpine-linux"
	}
	return string(os)
}

func fromAdoptiumOS(os string) string {
	switch os {
	case "mac":
		return string(jdk.OSMacOS)
	case "alpine-linux":
		return string(jdk.OSAlpineLinux)
	}
	return os
}
