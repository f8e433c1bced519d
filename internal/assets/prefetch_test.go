package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	mu    sync.Mutex
	calls map[string]string // text -> lang
	fail  map[string]bool
}

func (s *fakeSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]string{}
	}
	s.calls[text] = lang
	if s.fail[text] {
		return nil, errors.New("503 Service Unavailable")
	}
	return []byte("mp3:" + text), nil
}

const testCatalog = `language: id-ID
entries:
  - {id: benar, kind: phrase, file: benar.mp3, text: Benar sekali}
  - {id: salah, kind: phrase, file: salah.mp3, text: "Hmm, coba lagi ya"}
  - {id: hebat, kind: phrase, file: sub/hebat.mp3, text: "MasyaAllah, Hebat!"}
  - {id: click, kind: effect, file: click.mp3}
`

func newTestPrefetcher(t *testing.T, synth Synthesizer) (*Prefetcher, string) {
	t.Helper()
	c, err := ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "audio")
	return NewPrefetcher(synth, c, dir, log.New(io.Discard)), dir
}

func fastOptions() PrefetchOptions {
	return PrefetchOptions{Lang: "id", Interval: time.Millisecond, Concurrency: 4}
}

func TestPrefetchDownloadsPhrases(t *testing.T) {
	synth := &fakeSynth{}
	p, dir := newTestPrefetcher(t, synth)

	report, err := p.Run(context.Background(), fastOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"benar", "hebat", "salah"}, report.Downloaded)
	assert.Empty(t, report.Failed)
	assert.Equal(t, int64(len("mp3:Benar sekali")+len("mp3:Hmm, coba lagi ya")+len("mp3:MasyaAllah, Hebat!")), report.Bytes)

	data, err := os.ReadFile(filepath.Join(dir, "sub", "hebat.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "mp3:MasyaAllah, Hebat!", string(data))
	assert.Equal(t, "id", synth.calls["Benar sekali"])
	assert.NotContains(t, synth.calls, "", "effects are not synthesized")
}

func TestPrefetchSkipsExisting(t *testing.T) {
	synth := &fakeSynth{}
	p, dir := newTestPrefetcher(t, synth)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "benar.mp3"), []byte("old"), 0o644))

	report, err := p.Run(context.Background(), fastOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"benar"}, report.Skipped)
	assert.NotContains(t, synth.calls, "Benar sekali")

	opts := fastOptions()
	opts.Force = true
	opts.IDs = []string{"benar"}
	report, err = p.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"benar"}, report.Downloaded)

	data, err := os.ReadFile(filepath.Join(dir, "benar.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "mp3:Benar sekali", string(data))
}

func TestPrefetchCollectsFailures(t *testing.T) {
	synth := &fakeSynth{fail: map[string]bool{"Hmm, coba lagi ya": true}}
	p, dir := newTestPrefetcher(t, synth)

	report, err := p.Run(context.Background(), fastOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"benar", "hebat"}, report.Downloaded)
	require.Contains(t, report.Failed, "salah")
	_, err = os.Stat(filepath.Join(dir, "salah.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrefetchRejectsUnknownIDs(t *testing.T) {
	p, _ := newTestPrefetcher(t, &fakeSynth{})

	opts := fastOptions()
	opts.IDs = []string{"nope"}
	_, err := p.Run(context.Background(), opts)
	assert.ErrorIs(t, err, ErrUnknownAsset)

	opts.IDs = []string{"click"}
	_, err = p.Run(context.Background(), opts)
	assert.ErrorContains(t, err, "not a phrase")
}

func TestPrefetchCancelled(t *testing.T) {
	p, _ := newTestPrefetcher(t, &fakeSynth{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, fastOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Downloaded)
}
