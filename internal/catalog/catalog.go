// Package catalog talks to remote JDK catalogs.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"autojv/internal/jdk"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrNotFound is returned for HTTP 404 responses.
var ErrNotFound = errors.New("not found")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d for %s", e.Code, e.URL)
}

// Query selects packages from a catalog. Zero-valued fields are unfiltered.
type Query struct {
	Major       int
	Vendor      string
	OS          jdk.OperatingSystem
	Arch        jdk.Architecture
	ReleaseType jdk.ReleaseType
	// AllBuilds asks for every build of Major instead of only the latest.
	AllBuilds bool
}

// Package describes one downloadable JDK build as a catalog reports it.
type Package struct {
	ID                  string
	Vendor              string
	JavaVersion         string
	DistributionVersion string
	Major               int
	OS                  string
	Arch                string
	ArchiveType         string
	ReleaseStatus       string
	LibC                string
	Filename            string
	URL                 string
	Size                int64
	Checksum            string
}

// PackageInfo holds the download details of a package.
type PackageInfo struct {
	Filename     string
	URL          string
	Checksum     string
	ChecksumType string
}

// Client is a remote JDK catalog.
type Client interface {
	Name() string
	Packages(ctx context.Context, q Query) ([]Package, error)
	MajorVersions(ctx context.Context) ([]int, error)
	PackageInfo(ctx context.Context, id string) (*PackageInfo, error)
}

// VendorAliaser is implemented by clients that know which distribution
// names a vendor is published under.
type VendorAliaser interface {
	VendorNames(ctx context.Context, vendor string) []string
}

// VendorNames returns the lowercased vendor names a package may carry and
// still belong to vendor. Clients without alias knowledge accept vendor
// itself only.
func VendorNames(ctx context.Context, c Client, vendor string) []string {
	if a, ok := c.(VendorAliaser); ok {
		return a.VendorNames(ctx, vendor)
	}
	return []string{strings.ToLower(vendor)}
}

// Options configures the HTTP side of a client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Retries int
	Logger  *log.Logger
}

// NewHTTPClient returns a retrying HTTP client for catalog and download
// traffic.
func NewHTTPClient(opts Options) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient = cleanhttp.DefaultPooledClient()
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	if opts.Retries >= 0 {
		c.RetryMax = opts.Retries
	}
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	// Hand the last response back so callers can report its status.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Logger != nil {
		c.Logger = leveledLogger{opts.Logger}
	} else {
		c.Logger = nil
	}
	return c
}

// leveledLogger adapts a charmbracelet logger to retryablehttp.
type leveledLogger struct{ l *log.Logger }

func (a leveledLogger) Error(msg string, kv ...interface{}) { a.l.Error(msg, kv...) }
func (a leveledLogger) Warn(msg string, kv ...interface{})  { a.l.Warn(msg, kv...) }
func (a leveledLogger) Info(msg string, kv ...interface{})  { a.l.Debug(msg, kv...) }
func (a leveledLogger) Debug(msg string, kv ...interface{}) { a.l.Debug(msg, kv...) }

func checkStatus(url string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{URL: url, Code: resp.StatusCode}
	}
	return nil
}

func getJSON(ctx context.Context, client *retryablehttp.Client, url string, v any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", url, err)
	}
	return nil
}
