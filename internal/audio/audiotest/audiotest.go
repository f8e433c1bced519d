// Package audiotest provides recording doubles for the capabilities consumed
// by audio.Service. None of them produce sound.
package audiotest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/codec"
)

// ErrCorrupt is returned by Decoder for data equal to Corrupt.
var ErrCorrupt = errors.New("corrupt audio")

// Corrupt is audio data the Decoder refuses.
var Corrupt = []byte("corrupt")

// RemoteCall records one Synthesize request.
type RemoteCall struct {
	Text string
	Lang string
}

// Remote is a scripted remote synthesizer. Its audio is "tts:" + text.
type Remote struct {
	// Delay before answering; the call returns early if ctx ends first.
	Delay time.Duration
	// Err is returned instead of audio.
	Err error
	// Audio overrides the returned bytes.
	Audio []byte

	mu    sync.Mutex
	calls []RemoteCall
}

// Synthesize implements audio.RemoteSynthesizer.
func (r *Remote) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, RemoteCall{Text: text, Lang: lang})
	delay, err, data := r.Delay, r.Err, r.Audio
	r.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}
	return []byte("tts:" + text), nil
}

// Calls returns the recorded requests.
func (r *Remote) Calls() []RemoteCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RemoteCall(nil), r.calls...)
}

// Local is a scripted local synthesizer.
type Local struct {
	// Unavailable makes Available report false.
	Unavailable bool
	// Duration each utterance takes; cancellation ends it early.
	Duration time.Duration

	mu        sync.Mutex
	spoken    []audio.Utterance
	completed []audio.Utterance
}

// Available implements audio.LocalSynthesizer.
func (l *Local) Available() bool {
	return !l.Unavailable
}

// Speak implements audio.LocalSynthesizer.
func (l *Local) Speak(ctx context.Context, u audio.Utterance) error {
	l.mu.Lock()
	l.spoken = append(l.spoken, u)
	l.mu.Unlock()

	if l.Duration > 0 {
		select {
		case <-time.After(l.Duration):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	l.mu.Lock()
	l.completed = append(l.completed, u)
	l.mu.Unlock()
	return nil
}

// Spoken returns every utterance that was started.
func (l *Local) Spoken() []audio.Utterance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]audio.Utterance(nil), l.spoken...)
}

// Completed returns the utterances that finished without cancellation.
func (l *Local) Completed() []audio.Utterance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]audio.Utterance(nil), l.completed...)
}

// Fetcher serves assets from a map and counts fetches per source.
type Fetcher struct {
	// Assets maps source ids to bytes. Missing ids fail with fs.ErrNotExist.
	Assets map[string][]byte
	// Delay before answering.
	Delay time.Duration

	mu     sync.Mutex
	counts map[string]int
}

// NewFetcher serves each source as its own name, so any id resolves.
func NewFetcher() *Fetcher {
	return &Fetcher{}
}

// Fetch implements audio.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	f.mu.Lock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[source]++
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.Assets == nil {
		return []byte("asset:" + source), nil
	}
	data, ok := f.Assets[source]
	if !ok {
		return nil, fmt.Errorf("%s: %w", source, fs.ErrNotExist)
	}
	return data, nil
}

// Count returns how many times source was fetched.
func (f *Fetcher) Count(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[source]
}

// Total returns the number of fetches across all sources.
func (f *Fetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.counts {
		n += c
	}
	return n
}

// Decoder turns any data into a silent clip and remembers which data each
// clip came from.
type Decoder struct {
	// Length of the produced clips, 20ms when zero.
	Length time.Duration

	mu      sync.Mutex
	sources map[*codec.Clip]string
}

// Decode implements audio.Decoder.
func (d *Decoder) Decode(data []byte) (*codec.Clip, error) {
	if bytes.Equal(data, Corrupt) {
		return nil, ErrCorrupt
	}
	length := d.Length
	if length <= 0 {
		length = 20 * time.Millisecond
	}
	clip := codec.Silence(44100, length)

	d.mu.Lock()
	if d.sources == nil {
		d.sources = make(map[*codec.Clip]string)
	}
	d.sources[clip] = string(data)
	d.mu.Unlock()
	return clip, nil
}

// SourceOf returns the data clip was decoded from.
func (d *Decoder) SourceOf(clip *codec.Clip) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sources[clip]
}

// Start records one Output.Start call.
type Start struct {
	Clip    *codec.Clip
	Options audio.PlayOptions
	Track   *Track
}

// Output records started tracks. Tracks end after Length unless Hold is set
// or they loop.
type Output struct {
	// Length of every non-looping track, 10ms when zero.
	Length time.Duration
	// Hold keeps tracks playing until stopped.
	Hold bool
	// Err makes Start fail.
	Err error
	// Entered, when set, receives a value as Start begins, and Start then
	// blocks until Release is closed. It stands in for a slow render.
	Entered chan<- struct{}
	Release <-chan struct{}

	mu     sync.Mutex
	starts []Start
}

// Start implements audio.Output.
func (o *Output) Start(clip *codec.Clip, opts audio.PlayOptions) (audio.Track, error) {
	if o.Entered != nil {
		o.Entered <- struct{}{}
	}
	if o.Release != nil {
		<-o.Release
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Err != nil {
		return nil, o.Err
	}

	t := &Track{done: make(chan struct{}), volume: opts.Volume}
	o.starts = append(o.starts, Start{Clip: clip, Options: opts, Track: t})

	if !o.Hold && !opts.Loop {
		length := o.Length
		if length <= 0 {
			length = 10 * time.Millisecond
		}
		time.AfterFunc(length, t.end)
	}
	return t, nil
}

// Starts returns every recorded start.
func (o *Output) Starts() []Start {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Start(nil), o.starts...)
}

// Playing returns the starts whose track has not ended.
func (o *Output) Playing() []Start {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []Start
	for _, s := range o.starts {
		if !s.Track.Ended() {
			out = append(out, s)
		}
	}
	return out
}

// Track is a recorded playback.
type Track struct {
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	volume  float64
	stopped bool
}

// Stop implements audio.Track.
func (t *Track) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.end()
}

// Done implements audio.Track.
func (t *Track) Done() <-chan struct{} {
	return t.done
}

// SetVolume implements audio.Track.
func (t *Track) SetVolume(volume float64) {
	t.mu.Lock()
	t.volume = volume
	t.mu.Unlock()
}

// Volume returns the track's last gain.
func (t *Track) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Stopped reports whether Stop was called.
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Ended reports whether the track finished or was stopped.
func (t *Track) Ended() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Track) end() {
	t.once.Do(func() { close(t.done) })
}
