package docs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// DocsRsURL is where rustdoc JSON is fetched from by default.
const DocsRsURL = "https://docs.rs"

var ErrCrateNotFound = errors.New("crate not found on docs.rs")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Fetcher downloads rustdoc JSON from a docs.rs compatible host.
type Fetcher struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

// Fetched is one downloaded crate. Version is the version docs.rs served,
// taken from the final URL after redirects, or empty when it cannot tell.
type Fetched struct {
	Data    []byte
	Version string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		BaseURL:   DocsRsURL,
		Client:    &http.Client{Timeout: 60 * time.Second},
		UserAgent: "oxidoc/0.1.0",
	}
}

// Fetch downloads rustdoc JSON for name@version. An empty version or
// "latest" lets docs.rs pick the newest release. Bodies are decompressed
// when they carry the zstd frame magic and returned as is otherwise.
func (f *Fetcher) Fetch(ctx context.Context, name, version string) (*Fetched, error) {
	if version == "" {
		version = "latest"
	}
	url := fmt.Sprintf("%s/crate/%s/%s/json", strings.TrimSuffix(f.BaseURL, "/"), name, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s@%s: %w", name, version, ErrCrateNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("docs.rs returned %d for %s@%s: %s", resp.StatusCode, name, version, string(body))
	}

	data, err := readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rustdoc JSON for %s@%s: %w", name, version, err)
	}
	return &Fetched{Data: data, Version: servedVersion(resp.Request.URL.Path, name)}, nil
}

func readBody(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))
	if !bytes.Equal(head, zstdMagic) {
		return io.ReadAll(br)
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// servedVersion reads the version out of a /crate/<name>/<version>/json
// path. docs.rs redirects "latest" to the concrete release.
func servedVersion(urlPath, name string) string {
	dir, file := path.Split(strings.TrimSuffix(urlPath, "/"))
	if file != "json" {
		return ""
	}
	dir, version := path.Split(strings.TrimSuffix(dir, "/"))
	if version == "" || version == "latest" || !strings.HasSuffix(strings.TrimSuffix(dir, "/"), "/crate/"+name) {
		return ""
	}
	return version
}
