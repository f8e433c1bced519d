package audio

import (
	"context"

	"github.com/sahabat-saleh/suara/internal/codec"
)

// RemoteSynthesizer converts text to encoded speech audio over the network.
// Implementations must honour ctx cancellation and deadlines.
type RemoteSynthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// LocalSynthesizer speaks an utterance with a voice available on this host.
// Speak blocks until the utterance finishes or ctx is cancelled.
type LocalSynthesizer interface {
	Speak(ctx context.Context, u Utterance) error
	Available() bool
}

// Utterance is a request to the local speech synthesizer.
type Utterance struct {
	Text  string
	Lang  string  // full language tag, e.g. "id-ID"
	Rate  float64 // 1.0 is the synthesizer's default speaking rate
	Pitch float64 // 1.0 is the synthesizer's default pitch
}

// Fetcher loads an encoded audio asset by source id.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// Decoder turns encoded audio into a playable clip.
type Decoder interface {
	Decode(data []byte) (*codec.Clip, error)
}

// Output starts playback of decoded clips. Every call to Start creates an
// independent track so effects may overlap.
type Output interface {
	Start(clip *codec.Clip, opts PlayOptions) (Track, error)
}

// Track is a single playing clip.
type Track interface {
	// Stop halts playback. It is safe to call more than once.
	Stop()
	// Done is closed once playback has finished or been stopped.
	Done() <-chan struct{}
	// SetVolume adjusts the track's gain in the range [0, 1].
	SetVolume(volume float64)
}

// PlayOptions controls how a clip is played.
type PlayOptions struct {
	Rate   float64 // speed multiplier; pitch follows
	Volume float64 // gain in the range [0, 1]
	Loop   bool    // restart from the beginning on completion until stopped
}
