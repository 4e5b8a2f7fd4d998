package ianadist

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// roundTripperFunc is a function that implements the http.RoundTripper interface.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func fakeClient(fn roundTripperFunc) *http.Client {
	return &http.Client{Transport: fn}
}

const (
	africa = `# tzdb data for Africa and environs
Zone	Africa/Abidjan	-0:16:08 -	LMT	1912
			 0:00	-	GMT
`
	backward = `# tzdb links for backward compatibility
Link	Africa/Abidjan	Africa/Accra
`
	zoneTab = "# tzdb timezone descriptions (deprecated version)\nCI\t+0519-00402\tAfrica/Abidjan\n"
)

// makeArchive returns a gzip-compressed tar archive of files, in order.
func makeArchive(t *testing.T, files ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	if err := tw.WriteHeader(&tar.Header{Name: "docs/", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		hdr := &tar.Header{Name: f[0], Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(f[1]))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(f[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func releaseArchive(t *testing.T, version string) []byte {
	return makeArchive(t,
		[2]string{"version", version + "\n"},
		[2]string{"africa", africa},
		[2]string{"backward", backward},
		[2]string{"zone.tab", zoneTab},
		[2]string{"README", "README for tzdb\n"},
	)
}

func TestReadArchive(t *testing.T) {
	release, err := ReadArchive(bytes.NewReader(releaseArchive(t, "2024b")))
	if err != nil {
		t.Fatalf("ReadArchive(...): unexpected error: %v", err)
	}
	if release.Version != "2024b" {
		t.Errorf("Version = %q, want %q", release.Version, "2024b")
	}
	if diff := cmp.Diff([]string{"africa", "backward"}, release.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if got := string(release.Files["backward"]); got != backward {
		t.Errorf("Files[backward] = %q, want %q", got, backward)
	}
}

func TestReadArchive_Errors(t *testing.T) {
	tests := []struct {
		name    string
		archive []byte
	}{
		{"NotGzip", []byte("plain text")},
		{"NoSources", makeArchive(t, [2]string{"version", "2024b\n"}, [2]string{"zone.tab", zoneTab})},
		{"NoVersion", makeArchive(t, [2]string{"africa", africa})},
		{"EmptyVersion", makeArchive(t, [2]string{"version", "\n"}, [2]string{"africa", africa})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadArchive(bytes.NewReader(tt.archive)); err == nil {
				t.Error("ReadArchive(...): expected error")
			}
		})
	}

	_, err := ReadArchive(bytes.NewReader(tests[1].archive))
	if !errors.Is(err, ErrNoSourceFiles) {
		t.Errorf("ReadArchive(...) = %v, want %v", err, ErrNoSourceFiles)
	}
}

func TestRelease_Parse(t *testing.T) {
	release, err := ReadArchive(bytes.NewReader(releaseArchive(t, "2024b")))
	if err != nil {
		t.Fatal(err)
	}
	files, err := release.Parse()
	if err != nil {
		t.Fatalf("Parse(): unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Parse() returned %d files, want 2", len(files))
	}
	if files[0].Name != "africa" {
		t.Errorf("files[0].Name = %q, want %q", files[0].Name, "africa")
	}
	if _, ok := files[0].Zone("Africa/Abidjan"); !ok {
		t.Error("Africa/Abidjan not parsed")
	}
	if diff := cmp.Diff(map[string]string{"Africa/Accra": "Africa/Abidjan"}, files[1].Aliases); diff != "" {
		t.Errorf("Aliases mismatch (-want +got):\n%s", diff)
	}
}

func TestLatest(t *testing.T) {
	const (
		testEtag  = "test-etag"
		emptyEtag = ""
	)
	data := releaseArchive(t, "2024b")
	httpClient := fakeClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Errorf("unexpected method %q", req.Method)
		}
		if req.URL.String() != "https://data.iana.org/time-zones/tzdata-latest.tar.gz" {
			t.Errorf("unexpected URL %q", req.URL)
		}
		if req.Header.Get("If-None-Match") == testEtag {
			return &http.Response{StatusCode: http.StatusNotModified, Body: http.NoBody}, nil
		}
		resp := &http.Response{
			Body:       io.NopCloser(bytes.NewReader(data)),
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
		}
		resp.Header.Set("etag", testEtag)
		return resp, nil
	})
	DefaultClient = &Client{HTTPClient: httpClient}
	t.Cleanup(func() { DefaultClient = &Client{} })

	ctx := context.Background()
	release, gotEtag, err := Latest(ctx, emptyEtag)
	if err != nil {
		t.Fatalf("Latest(%q) returned unexpected error: %v", emptyEtag, err)
	}
	if gotEtag != testEtag {
		t.Errorf("Latest(%q) returned ETag %q, want %q", emptyEtag, gotEtag, testEtag)
	}
	if release.Version != "2024b" {
		t.Errorf("Latest(%q) returned version %q", emptyEtag, release.Version)
	}

	release, newEtag, err := Latest(ctx, gotEtag)
	if err != nil {
		t.Errorf("Latest(%q) returned unexpected error: %v", gotEtag, err)
	}
	if newEtag != testEtag {
		t.Errorf("Latest(%q) returned ETag %q, want %q", gotEtag, newEtag, testEtag)
	}
	if release != nil {
		t.Errorf("Latest(%q) returned a release", gotEtag)
	}
}

func TestClient_Release(t *testing.T) {
	archives := map[string][]byte{
		"/tz/releases/tzdata2024b.tar.gz": releaseArchive(t, "2024b"),
		"/tz/releases/tzdata2023c.tar.gz": releaseArchive(t, "2024a"),
	}
	c := &Client{
		BaseURL: "https://mirror.example/tz/",
		HTTPClient: fakeClient(func(req *http.Request) (*http.Response, error) {
			data, ok := archives[req.URL.Path]
			if !ok {
				return &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found", Body: http.NoBody}, nil
			}
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(data))}, nil
		}),
	}
	ctx := context.Background()

	release, err := c.Release(ctx, "2024b")
	if err != nil {
		t.Fatalf("Release(2024b): unexpected error: %v", err)
	}
	if release.Version != "2024b" {
		t.Errorf("Release(2024b) returned version %q", release.Version)
	}

	for _, version := range []string{"2023c", "1999z", "latest", "../2024b"} {
		if _, err := c.Release(ctx, version); err == nil {
			t.Errorf("Release(%q): expected error", version)
		}
	}
}
