// Package ianadist downloads and extracts tzdb source files distributed by IANA.
//
// Releases are downloaded from the [IANA data server]. Clients are advised
// to store the [ETags] returned by [Client.Latest] and pass them to subsequent
// calls to avoid downloading the same data multiple times.
//
// [ETags]: https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/ETag
// [IANA data server]: https://www.iana.org/time-zones
package ianadist

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ngrash/go-javazic/tzdata"
)

// SourceFiles maps tzdb source file names to file contents.
// Every file starts with one of the headers of data and link files:
//
//	# tzdb data for
//	# tzdb links for
type SourceFiles map[string][]byte

// Release is an unpacked IANA time zone database release.
type Release struct {
	// Version is the version of the release, for example "2024b".
	Version string
	// Files holds the Rule, Zone and Link sources of the release.
	Files SourceFiles
}

// Names returns the names of the source files in sorted order.
func (r *Release) Names() []string {
	names := make([]string, 0, len(r.Files))
	for name := range r.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse parses every source file of the release in the order of Names.
func (r *Release) Parse() ([]*tzdata.File, error) {
	var files []*tzdata.File
	for _, name := range r.Names() {
		f, err := tzdata.ParseNamed(name, bytes.NewReader(r.Files[name]))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// DefaultClient is used by the top-level functions of this package.
var DefaultClient = &Client{}

// Client downloads releases of the IANA time zone database.
// The zero value is ready to use.
type Client struct {
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	//
	// Tests replace it with a client whose http.RoundTripper returns canned responses.
	// Timeouts are also controlled by the context passed to each method.
	HTTPClient *http.Client
	// BaseURL overrides the address of the IANA data server.
	BaseURL string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return c.BaseURL
}

const (
	defaultBaseURL = "https://data.iana.org/time-zones/"
	// latestPath is the latest release relative to the base URL.
	latestPath = "tzdata-latest.tar.gz"
	// releasePathFormat is a specific release relative to the base URL.
	releasePathFormat = "releases/tzdata%s.tar.gz"
	versionFilename   = "version"
	emptyEtag         = ""
)

// sourceHeaders identify the files a release ships Rule, Zone and Link lines in.
// Other files, such as zone.tab, start with "# tzdb " as well but are not sources.
var sourceHeaders = []string{"# tzdb data for", "# tzdb links for"}

var versionPattern = regexp.MustCompile(`^[0-9]{4}[a-z]+$`)

// ErrNoSourceFiles is returned for archives without tzdb source files.
var ErrNoSourceFiles = errors.New("no tzdb source files found")

func isSource(header []byte) bool {
	for _, h := range sourceHeaders {
		if bytes.HasPrefix(header, []byte(h)) {
			return true
		}
	}
	return false
}

// ReadArchive unpacks a release from r, which must contain a gzip-compressed tar
// archive as found at https://data.iana.org/time-zones/releases/.
func ReadArchive(r io.Reader) (*Release, error) {
	gunzip, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read gzip: %w", err)
	}
	tr := tar.NewReader(gunzip)

	result := Release{Files: make(SourceFiles)}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := path.Clean(header.Name)

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		if name == versionFilename {
			result.Version = strings.TrimSpace(string(data))
			if result.Version == "" {
				return nil, fmt.Errorf("empty version file")
			}
			continue
		}
		if isSource(data) {
			result.Files[name] = data
		}
	}

	if len(result.Files) == 0 {
		return nil, ErrNoSourceFiles
	}
	if result.Version == "" {
		return nil, fmt.Errorf("no version found")
	}
	return &result, nil
}

// Latest downloads the latest release with DefaultClient.
func Latest(ctx context.Context, etag string) (*Release, string, error) {
	return DefaultClient.Latest(ctx, etag)
}

// Latest downloads and unpacks the latest release.
//
// If the server responds with 304 Not Modified, the returned ETag is the same
// as the input and the returned Release and error are both nil.
// If an error is returned, the returned ETag is empty.
func (c *Client) Latest(ctx context.Context, etag string) (*Release, string, error) {
	return c.fetch(ctx, latestPath, etag)
}

// Download downloads the release with the given version with DefaultClient.
func Download(ctx context.Context, version string) (*Release, error) {
	return DefaultClient.Release(ctx, version)
}

// Release downloads and unpacks the release with the given version, for example "2024b".
func (c *Client) Release(ctx context.Context, version string) (*Release, error) {
	if !versionPattern.MatchString(version) {
		return nil, fmt.Errorf("invalid tzdb version %q", version)
	}
	r, _, err := c.fetch(ctx, fmt.Sprintf(releasePathFormat, version), emptyEtag)
	if err != nil {
		return nil, err
	}
	if r.Version != version {
		return nil, fmt.Errorf("release %s contains version %s", version, r.Version)
	}
	return r, nil
}

func (c *Client) fetch(ctx context.Context, p, etag string) (*Release, string, error) {
	u, err := url.JoinPath(c.baseURL(), p)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("join URL: %w", err)
	}
	body, newEtag, err := c.downloadIfNoneMatch(ctx, u, etag)
	if err != nil {
		return nil, emptyEtag, err
	}
	if body == nil {
		return nil, etag, nil
	}
	defer func() {
		// Drain and close the body so the connection can be reused.
		_, _ = io.Copy(io.Discard, body)
		_ = body.Close()
	}()

	release, err := ReadArchive(body)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("%s: %w", u, err)
	}
	return release, newEtag, nil
}

// downloadIfNoneMatch requests u, sending etag if it is not empty.
//
// If the server responds with 304 Not Modified, the returned body and error are
// both nil and the returned ETag is the input. Otherwise the caller must read and
// close the returned body.
func (c *Client) downloadIfNoneMatch(ctx context.Context, u, etag string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("create request for %q: %w", u, err)
	}
	if etag != emptyEtag {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("GET %q: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusNotModified {
			return nil, etag, nil
		}
		return nil, emptyEtag, fmt.Errorf("response for %q: unexpected status: %s", u, resp.Status)
	}
	return resp.Body, resp.Header.Get("etag"), nil
}
