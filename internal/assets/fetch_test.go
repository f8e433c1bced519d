package assets

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, cfg FetcherConfig) *Fetcher {
	t.Helper()
	cfg.Logger = log.New(io.Discard)
	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	return f
}

func TestFetcherRequiresSource(t *testing.T) {
	_, err := NewFetcher(FetcherConfig{})
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = NewFetcher(FetcherConfig{BaseURL: "ftp://example.com/audio"})
	assert.Error(t, err)
}

func TestFetchFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "benar.mp3"), []byte("benar"), 0o644))

	f := newTestFetcher(t, FetcherConfig{Dir: dir})

	for _, source := range []string{"benar", "/audio/benar.mp3", "benar.mp3"} {
		data, err := f.Fetch(context.Background(), source)
		require.NoError(t, err, source)
		assert.Equal(t, "benar", string(data))
	}

	_, err := f.Fetch(context.Background(), "salah")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = f.Fetch(context.Background(), "/audio/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFetchFromBaseURL(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/game/audio/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote:" + r.URL.Path))
	}))
	defer srv.Close()

	f := newTestFetcher(t, FetcherConfig{BaseURL: srv.URL + "/game/audio"})

	data, err := f.Fetch(context.Background(), "bg_splash")
	require.NoError(t, err)
	assert.Equal(t, "remote:/game/audio/bg_splash.wav", string(data))

	_, err = f.Fetch(context.Background(), "missing.mp3")
	assert.ErrorContains(t, err, "404")

	data, err = f.Fetch(context.Background(), srv.URL+"/elsewhere.mp3")
	require.NoError(t, err)
	assert.Equal(t, "remote:/elsewhere.mp3", string(data))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/game/audio/bg_splash.wav", "/game/audio/missing.mp3", "/elsewhere.mp3"}, paths)
}

func TestFetchFallsBackToBaseURL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "click.mp3"), []byte("local"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, FetcherConfig{Dir: dir, BaseURL: srv.URL})

	data, err := f.Fetch(context.Background(), "click")
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	data, err = f.Fetch(context.Background(), "wrong")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := newTestFetcher(t, FetcherConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "click")
	assert.ErrorIs(t, err, context.Canceled)
}
