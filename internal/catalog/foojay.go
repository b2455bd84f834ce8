package catalog

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"autojv/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultFoojayURL is the Foojay Disco API base.
const DefaultFoojayURL = "https://api.foojay.io/disco/v3.0"

// Foojay is a client for the Foojay Disco API.
type Foojay struct {
	baseURL string
	http    *retryablehttp.Client

	mu            sync.Mutex
	distributions []foojayDistribution
}

// NewFoojay creates a Foojay client.
func NewFoojay(opts Options) *Foojay {
	base := opts.BaseURL
	if base == "" {
		base = DefaultFoojayURL
	}
	return &Foojay{
		baseURL: strings.TrimSuffix(base, "/"),
		http:    NewHTTPClient(opts),
	}
}

func (f *Foojay) Name() string { return "foojay" }

type foojayPackagesResponse struct {
	Result  []foojayPackage `json:"result"`
	Message string          `json:"message"`
}

type foojayPackage struct {
	ID                   string `json:"id"`
	ArchiveType          string `json:"archive_type"`
	Distribution         string `json:"distribution"`
	MajorVersion         int    `json:"major_version"`
	JavaVersion          string `json:"java_version"`
	DistributionVersion  string `json:"distribution_version"`
	ReleaseStatus        string `json:"release_status"`
	OperatingSystem      string `json:"operating_system"`
	LibCType             string `json:"lib_c_type"`
	Architecture         string `json:"architecture"`
	PackageType          string `json:"package_type"`
	DirectlyDownloadable bool   `json:"directly_downloadable"`
	Filename             string `json:"filename"`
	Size                 int64  `json:"size"`
	Links                struct {
		PkgInfoURI          string `json:"pkg_info_uri"`
		PkgDownloadRedirect string `json:"pkg_download_redirect"`
	} `json:"links"`
}

type foojayMajorVersionsResponse struct {
	Result []struct {
		MajorVersion  int    `json:"major_version"`
		TermOfSupport string `json:"term_of_support"`
		Maintained    bool   `json:"maintained"`
	} `json:"result"`
}

type foojayDistribution struct {
	Name         string   `json:"name"`
	APIParameter string   `json:"api_parameter"`
	Synonyms     []string `json:"synonyms"`
	Versions     []string `json:"versions"`
}

type foojayDistributionsResponse struct {
	Result []foojayDistribution `json:"result"`
}

type foojayPackageInfoResponse struct {
	Result []struct {
		Filename          string `json:"filename"`
		DirectDownloadURI string `json:"direct_download_uri"`
		DownloadSiteURI   string `json:"download_site_uri"`
		Checksum          string `json:"checksum"`
		ChecksumType      string `json:"checksum_type"`
	} `json:"result"`
}

// Packages queries directly downloadable JDK packages.
func (f *Foojay) Packages(ctx context.Context, q Query) ([]Package, error) {
	params := url.Values{}
	if q.Major > 0 {
		params.Set("version", strconv.Itoa(q.Major))
	}
	if q.AllBuilds {
		params.Set("latest", "all_of_version")
	} else {
		params.Set("latest", "available")
	}
	var vendors []string
	if q.Vendor != "" {
		params.Set("distribution", f.resolveDistribution(ctx, q.Vendor))
		vendors = f.VendorNames(ctx, q.Vendor)
	}
	if q.Arch != "" {
		params.Set("architecture", string(q.Arch))
	}
	if q.OS != "" {
		params.Set("operating_system", string(q.OS))
	}
	if q.ReleaseType != "" {
		params.Set("release_status", string(q.ReleaseType))
	}
	params.Add("archive_type", "zip")
	params.Add("archive_type", "tar.gz")
	params.Set("package_type", "jdk")
	params.Set("directly_downloadable", "true")
	params.Set("free_to_use_in_production", "true")

	var resp foojayPackagesResponse
	if err := getJSON(ctx, f.http, f.baseURL+"/packages?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	packages := make([]Package, 0, len(resp.Result))
	for _, p := range resp.Result {
		if !graalVMMajorMatches(p) {
			continue
		}
		// Foojay ignores a distribution it does not know and answers for
		// every vendor.
		if vendors != nil && !slices.Contains(vendors, strings.ToLower(p.Distribution)) {
			continue
		}
		packages = append(packages, Package{
			ID:                  p.ID,
			Vendor:              p.Distribution,
			JavaVersion:         p.JavaVersion,
			DistributionVersion: p.DistributionVersion,
			Major:               p.MajorVersion,
			OS:                  p.OperatingSystem,
			Arch:                p.Architecture,
			ArchiveType:         p.ArchiveType,
			ReleaseStatus:       p.ReleaseStatus,
			LibC:                p.LibCType,
			Filename:            p.Filename,
			Size:                p.Size,
		})
	}
	return packages, nil
}

// graalVMMajorMatches drops GraalVM builds listed under a Java major that
// does not match the Java version they actually ship.
func graalVMMajorMatches(p foojayPackage) bool {
	if !strings.HasPrefix(strings.ToLower(p.Distribution), "graalvm") {
		return true
	}
	major, _, _ := strings.Cut(p.JavaVersion, ".")
	major, _, _ = strings.Cut(major, "-")
	major, _, _ = strings.Cut(major, "+")
	n, err := strconv.Atoi(major)
	return err == nil && n == p.MajorVersion
}

// MajorVersions lists every major version Foojay knows, ascending. If the
// major versions endpoint fails, the majors are derived from the
// distributions' version lists instead.
func (f *Foojay) MajorVersions(ctx context.Context) ([]int, error) {
	var resp foojayMajorVersionsResponse
	err := getJSON(ctx, f.http, f.baseURL+"/major_versions?ea=true&ga=true&maintained=false", &resp)
	if err == nil && len(resp.Result) > 0 {
		majors := make([]int, 0, len(resp.Result))
		for _, r := range resp.Result {
			majors = append(majors, r.MajorVersion)
		}
		return sortedUnique(majors), nil
	}

	logger := logging.From(ctx)
	logger.Debug("Major versions unavailable, deriving from distributions", "err", err)

	dists, derr := f.fetchDistributions(ctx, true)
	if derr != nil {
		if err == nil {
			err = derr
		}
		return nil, fmt.Errorf("failed to list major versions: %w", err)
	}
	var majors []int
	for _, d := range dists {
		for _, v := range d.Versions {
			head, _, _ := strings.Cut(v, ".")
			head, _, _ = strings.Cut(head, "-")
			head, _, _ = strings.Cut(head, "+")
			if n, err := strconv.Atoi(head); err == nil && n > 0 {
				majors = append(majors, n)
			}
		}
	}
	return sortedUnique(majors), nil
}

func sortedUnique(in []int) []int {
	sort.Ints(in)
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func (f *Foojay) fetchDistributions(ctx context.Context, withVersions bool) ([]foojayDistribution, error) {
	var resp foojayDistributionsResponse
	u := fmt.Sprintf("%s/distributions?include_versions=%t&include_synonyms=true", f.baseURL, withVersions)
	if err := getJSON(ctx, f.http, u, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// distribution finds the distribution vendor names by API parameter, name
// or synonym.
func (f *Foojay) distribution(ctx context.Context, vendor string) (foojayDistribution, bool) {
	f.mu.Lock()
	dists := f.distributions
	f.mu.Unlock()

	if dists == nil {
		fetched, err := f.fetchDistributions(ctx, false)
		if err != nil {
			logger := logging.From(ctx)
			logger.Debug("Could not list distributions", "err", err)
			return foojayDistribution{}, false
		}
		f.mu.Lock()
		f.distributions = fetched
		f.mu.Unlock()
		dists = fetched
	}

	for _, d := range dists {
		if strings.EqualFold(d.APIParameter, vendor) || strings.EqualFold(d.Name, vendor) {
			return d, true
		}
		for _, s := range d.Synonyms {
			if strings.EqualFold(s, vendor) {
				return d, true
			}
		}
	}
	return foojayDistribution{}, false
}

// resolveDistribution maps a vendor name or synonym to the API parameter
// Foojay expects. Unknown vendors are passed through unchanged.
func (f *Foojay) resolveDistribution(ctx context.Context, vendor string) string {
	if d, ok := f.distribution(ctx, vendor); ok {
		return d.APIParameter
	}
	return vendor
}

// VendorNames returns vendor together with the API parameter, name and
// synonyms of its distribution, lowercased.
func (f *Foojay) VendorNames(ctx context.Context, vendor string) []string {
	names := []string{strings.ToLower(vendor)}
	d, ok := f.distribution(ctx, vendor)
	if !ok {
		return names
	}
	names = append(names, strings.ToLower(d.APIParameter), strings.ToLower(d.Name))
	for _, s := range d.Synonyms {
		names = append(names, strings.ToLower(s))
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// PackageInfo fetches download details of a package.
func (f *Foojay) PackageInfo(ctx context.Context, id string) (*PackageInfo, error) {
	var resp foojayPackageInfoResponse
	if err := getJSON(ctx, f.http, f.baseURL+"/ids/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 || resp.Result[0].DirectDownloadURI == "" {
		return nil, fmt.Errorf("download information for package %s: %w", id, ErrNotFound)
	}
	r := resp.Result[0]
	return &PackageInfo{
		Filename:     r.Filename,
		URL:          r.DirectDownloadURI,
		Checksum:     r.Checksum,
		ChecksumType: r.ChecksumType,
	}, nil
}
