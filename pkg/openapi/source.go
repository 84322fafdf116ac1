package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrHTTPDisabled is returned for URL sources when the Reader has no client.
var ErrHTTPDisabled = errors.New("openapi: http sources are disabled")

// SourceKind enumerates where a document is read from.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies a document location.
type Source struct {
	Kind     SourceKind
	Location string
}

// ParseSource treats http and https locations as URLs and anything else as a
// file path.
func ParseSource(location string) Source {
	location = strings.TrimSpace(location)
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Source{Kind: SourceKindURL, Location: location}
	}
	return Source{Kind: SourceKindFile, Location: filepath.Clean(location)}
}

// Reader fetches documents from files, an fs.FS or HTTP.
type Reader struct {
	fsys fs.FS
	http *http.Client
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithFileSystem enables SourceKindFS.
func WithFileSystem(fsys fs.FS) ReaderOption {
	return func(r *Reader) {
		r.fsys = fsys
	}
}

// WithHTTPClient enables SourceKindURL.
func WithHTTPClient(client *http.Client) ReaderOption {
	return func(r *Reader) {
		r.http = client
	}
}

// NewReader builds a Reader. Without options only local files are readable.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read returns the raw document bytes.
func (r *Reader) Read(ctx context.Context, src Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.Location == "" {
		return nil, errors.New("openapi: source location is required")
	}
	switch src.Kind {
	case SourceKindFile:
		data, err := os.ReadFile(src.Location)
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", src.Location, err)
		}
		return data, nil
	case SourceKindFS:
		if r.fsys == nil {
			return nil, errors.New("openapi: filesystem is not configured")
		}
		data, err := fs.ReadFile(r.fsys, src.Location)
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", src.Location, err)
		}
		return data, nil
	case SourceKindURL:
		if r.http == nil {
			return nil, ErrHTTPDisabled
		}
		return r.fetch(ctx, src.Location)
	default:
		return nil, fmt.Errorf("openapi: unsupported source kind %q", src.Kind)
	}
}

func (r *Reader) fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openapi: fetch %s: unexpected status %d", location, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openapi: read body: %w", err)
	}
	return data, nil
}

// Load reads and validates the document at src.
func (r *Reader) Load(ctx context.Context, src Source) (*openapi3.T, error) {
	data, err := r.Read(ctx, src)
	if err != nil {
		return nil, err
	}
	return Load(ctx, data)
}
