package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// maxAssetSize bounds a single asset read.
const maxAssetSize = 32 * 1024 * 1024

// ErrNoSource is returned when neither a directory nor a base URL is set.
var ErrNoSource = errors.New("no asset directory or base URL configured")

// FetcherConfig configures where assets are read from. When both Dir and
// BaseURL are set the directory is tried first.
type FetcherConfig struct {
	Dir     string
	BaseURL string
	Catalog *Catalog

	// HTTP client, defaults to one with a 30s timeout
	Client *http.Client

	Logger *log.Logger
}

// Fetcher reads asset bytes for a source.
type Fetcher struct {
	dir     string
	base    *url.URL
	catalog *Catalog
	client  *http.Client
	logger  *log.Logger
}

// NewFetcher creates a fetcher. A nil catalog uses the built-in one.
func NewFetcher(config FetcherConfig) (*Fetcher, error) {
	f := &Fetcher{
		dir:     config.Dir,
		catalog: config.Catalog,
		client:  config.Client,
		logger:  config.Logger,
	}

	if config.BaseURL != "" {
		base, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid asset base URL: %w", err)
		}
		if base.Scheme != "http" && base.Scheme != "https" {
			return nil, fmt.Errorf("invalid asset base URL scheme %q", base.Scheme)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		f.base = base
	}
	if f.dir == "" && f.base == nil {
		return nil, ErrNoSource
	}

	if f.catalog == nil {
		c, err := DefaultCatalog()
		if err != nil {
			return nil, err
		}
		f.catalog = c
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: 30 * time.Second}
	}
	if f.logger == nil {
		f.logger = log.Default()
	}
	return f, nil
}

// Fetch returns the bytes of source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	target, err := f.catalog.Resolve(source)
	if err != nil {
		return nil, err
	}
	if isURL(target) {
		return f.get(ctx, target)
	}

	if f.dir != "" {
		data, err := f.read(target)
		if err == nil || f.base == nil || !errors.Is(err, fs.ErrNotExist) {
			return data, err
		}
		f.logger.Debug("asset not on disk, trying base URL", "path", target)
	}
	return f.get(ctx, f.base.ResolveReference(&url.URL{Path: target}).String())
}

func (f *Fetcher) read(rel string) ([]byte, error) {
	file, err := os.Open(filepath.Join(f.dir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to open asset: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("asset %s larger than %d bytes", rel, maxAssetSize)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("asset request failed: %s: %s", target, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("asset %s larger than %d bytes", target, maxAssetSize)
	}
	f.logger.Debug("asset downloaded", "url", target, "bytes", len(data))
	return data, nil
}
