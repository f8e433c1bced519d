package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Synthesizer produces encoded speech for text in a base language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// PrefetchOptions controls a prefetch run.
type PrefetchOptions struct {
	// Lang is the base language passed to the synthesizer
	Lang string

	// IDs limits the run to these phrases; empty means every phrase
	IDs []string

	// Force re-downloads files that already exist
	Force bool

	// Concurrency is the number of parallel requests (defaults to 2)
	Concurrency int

	// Interval is the minimum spacing between requests (defaults to 200ms)
	Interval time.Duration
}

// Report summarizes a prefetch run.
type Report struct {
	Downloaded []string
	Skipped    []string
	Failed     map[string]error
	Bytes      int64
}

// Prefetcher writes catalog phrases to an asset directory.
type Prefetcher struct {
	synth   Synthesizer
	catalog *Catalog
	dir     string
	logger  *log.Logger
}

// NewPrefetcher creates a prefetcher writing into dir.
func NewPrefetcher(synth Synthesizer, catalog *Catalog, dir string, logger *log.Logger) *Prefetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Prefetcher{synth: synth, catalog: catalog, dir: dir, logger: logger}
}

// Run synthesizes the selected phrases. Failures of single phrases are
// collected in the report; the returned error is set only when the run as
// a whole could not proceed.
func (p *Prefetcher) Run(ctx context.Context, opts PrefetchOptions) (Report, error) {
	report := Report{Failed: map[string]error{}}

	entries, err := p.selection(opts.IDs)
	if err != nil {
		return report, err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return report, fmt.Errorf("failed to create asset directory: %w", err)
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.Interval <= 0 {
		opts.Interval = 200 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(opts.Interval), 1)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, e := range entries {
		dst := filepath.Join(p.dir, filepath.FromSlash(e.File))
		if !opts.Force {
			if _, err := os.Stat(dst); err == nil {
				report.Skipped = append(report.Skipped, e.ID)
				continue
			}
		}

		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			n, err := p.fetchOne(gctx, e, dst, opts.Lang)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.logger.Warn("failed to prefetch phrase", "id", e.ID, "err", err)
				report.Failed[e.ID] = err
				return nil
			}
			p.logger.Info("downloaded", "id", e.ID, "file", e.File, "bytes", n)
			report.Downloaded = append(report.Downloaded, e.ID)
			report.Bytes += n
			return nil
		})
	}

	err = g.Wait()
	sort.Strings(report.Downloaded)
	if err != nil {
		return report, fmt.Errorf("prefetch interrupted: %w", err)
	}
	return report, nil
}

func (p *Prefetcher) selection(ids []string) ([]Entry, error) {
	if len(ids) == 0 {
		return p.catalog.Kind(KindPhrase), nil
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, ok := p.catalog.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, id)
		}
		if e.Kind != KindPhrase {
			return nil, fmt.Errorf("%s is a %s, not a phrase", id, e.Kind)
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *Prefetcher) fetchOne(ctx context.Context, e Entry, dst, lang string) (int64, error) {
	data, err := p.synth.Synthesize(ctx, e.Text, lang)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, errors.New("synthesizer returned no audio")
	}
	if err := writeFileAtomic(dst, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// writeFileAtomic writes data to a temp file and renames it into place so a
// cancelled run never leaves a truncated asset behind.
func writeFileAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".prefetch-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move asset into place: %w", err)
	}
	return nil
}
