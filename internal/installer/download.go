// Package installer downloads JDK archives and unpacks them into the
// autojv home.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"autojv/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	// ErrNotFound is returned when the server has no such file.
	ErrNotFound = errors.New("download not found")
	// ErrTruncated matches any *TruncatedDownloadError.
	ErrTruncated = errors.New("download truncated")
)

// TruncatedDownloadError reports a body shorter or longer than announced.
type TruncatedDownloadError struct {
	URL      string
	Expected int64
	Actual   int64
}

func (e *TruncatedDownloadError) Error() string {
	return fmt.Sprintf("incomplete download of %s: got %d bytes, expected %d", e.URL, e.Actual, e.Expected)
}

func (e *TruncatedDownloadError) Is(target error) bool { return target == ErrTruncated }

// maxResumes bounds the range requests issued after a short read.
const maxResumes = 3

// ProgressFunc receives the bytes written so far and the expected total,
// which is -1 when unknown.
type ProgressFunc func(downloaded, total int64)

// Downloader fetches archives to local files.
type Downloader struct {
	Client *retryablehttp.Client
	// TempDir holds downloads. Empty means os.TempDir().
	TempDir    string
	OnProgress ProgressFunc
}

// NewDownloader creates a downloader with the given client.
func NewDownloader(client *retryablehttp.Client) *Downloader {
	return &Downloader{Client: client}
}

// Download is a file on local disk. Close removes it if it is temporary.
type Download struct {
	URL       string
	Path      string
	Size      int64
	temporary bool
}

// Temporary reports whether Close deletes the file.
func (d *Download) Temporary() bool { return d.temporary }

func (d *Download) Close() error {
	if !d.temporary {
		return nil
	}
	if err := os.Remove(d.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Download fetches rawURL. file:// URLs are returned in place.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*Download, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid download URL %q: %w", rawURL, err)
	}
	if u.Scheme == "file" {
		return localFile(rawURL, u)
	}

	logger := logging.From(ctx)
	logger.Debug("Downloading", "url", rawURL)

	resp, err := d.get(ctx, rawURL, 0)
	if err != nil {
		return nil, err
	}

	out, err := os.CreateTemp(d.TempDir, "autojv-*-"+downloadName(u))
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	dl := &Download{URL: rawURL, Path: out.Name(), temporary: true}
	fail := func(err error) (*Download, error) {
		_ = out.Close()
		_ = dl.Close()
		return nil, err
	}

	totalSize := resp.ContentLength
	var written int64
	var progress *ProgressWriter
	for attempt := 0; ; attempt++ {
		if resp.StatusCode == http.StatusOK {
			// A full body replaces whatever was written before.
			if written > 0 {
				logger.Debug("Server ignored range request, restarting", "url", rawURL)
				if _, err := out.Seek(0, io.SeekStart); err != nil {
					resp.Body.Close()
					return fail(fmt.Errorf("failed to write file: %w", err))
				}
				if err := out.Truncate(0); err != nil {
					resp.Body.Close()
					return fail(fmt.Errorf("failed to write file: %w", err))
				}
			}
			written = 0
			totalSize = resp.ContentLength
			progress = nil
		}

		var w io.Writer = out
		if d.OnProgress != nil {
			if progress == nil {
				progress = NewProgressWriter(totalSize, d.OnProgress)
			}
			w = io.MultiWriter(out, progress)
		}

		n, err := io.Copy(w, resp.Body)
		resp.Body.Close()
		written += n

		var pathErr *os.PathError
		switch {
		case err != nil && errors.As(err, &pathErr):
			return fail(fmt.Errorf("failed to write file: %w", err))
		case ctx.Err() != nil:
			return fail(ctx.Err())
		case err != nil && totalSize < 0:
			return fail(fmt.Errorf("failed to download: %w", err))
		}
		if totalSize < 0 || written == totalSize {
			break
		}
		if written > totalSize || attempt == maxResumes {
			return fail(&TruncatedDownloadError{URL: rawURL, Expected: totalSize, Actual: written})
		}

		logger.Debug("Resuming download", "url", rawURL, "offset", written, "total", totalSize)
		if resp, err = d.get(ctx, rawURL, written); err != nil {
			return fail(err)
		}
	}

	if err := out.Close(); err != nil {
		_ = dl.Close()
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	dl.Size = written
	logger.Debug("Downloaded", "url", rawURL, "path", dl.Path, "bytes", written)
	return dl, nil
}

// get requests rawURL from offset onwards. The response is either 200 with
// the whole file or 206 starting exactly at offset.
func (d *Downloader) get(ctx context.Context, rawURL string, offset int64) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
		if cr := resp.Header.Get("Content-Range"); !strings.HasPrefix(cr, fmt.Sprintf("bytes %d-", offset)) {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected content range %q resuming at %d", cr, offset)
		}
		return resp, nil
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
}

func localFile(rawURL string, u *url.URL) (*Download, error) {
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	// file:///C:/jdk.zip
	if len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &Download{URL: rawURL, Path: p, Size: info.Size()}, nil
}

func downloadName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	return strings.ReplaceAll(name, string(os.PathSeparator), "_")
}

// VerifyChecksum verifies the SHA256 checksum of a file
func VerifyChecksum(filePath string, expectedChecksum string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}

	actualChecksum := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}

	return nil
}
