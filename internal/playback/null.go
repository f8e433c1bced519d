package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/codec"
)

// Null simulates playback without producing sound. Tracks finish after the
// clip's duration scaled by the playback rate, and looping tracks run until
// stopped. It backs the "null" output driver and headless environments.
type Null struct {
	logger *log.Logger

	nextID  atomic.Uint64
	started atomic.Int64
	closed  atomic.Bool

	mu     sync.Mutex
	tracks map[uint64]*track
}

// NewNull creates a null device.
func NewNull(logger *log.Logger) *Null {
	if logger == nil {
		logger = log.Default()
	}
	return &Null{
		logger: logger,
		tracks: make(map[uint64]*track),
	}
}

// Start begins simulated playback of clip.
func (n *Null) Start(clip *codec.Clip, opts audio.PlayOptions) (audio.Track, error) {
	if n.closed.Load() {
		return nil, ErrClosed
	}

	speed := opts.Rate
	if speed <= 0 {
		speed = 1
	}
	length := time.Duration(float64(clip.Duration()) / speed)

	t := newTrack(n.nextID.Add(1), opts.Volume)
	var timer *time.Timer
	t.onStop = func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		delete(n.tracks, t.id)
	}

	n.mu.Lock()
	n.tracks[t.id] = t
	if !opts.Loop {
		timer = time.AfterFunc(length, t.finish)
	}
	n.mu.Unlock()
	n.started.Add(1)

	n.logger.Debug("null playback", "track", t.id, "length", length, "rate", speed, "volume", t.Volume(), "loop", opts.Loop)
	return t, nil
}

// Active returns the number of simulated tracks still playing.
func (n *Null) Active() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.tracks)
}

// Started returns how many tracks have been started.
func (n *Null) Started() int {
	return int(n.started.Load())
}

// Close stops every simulated track.
func (n *Null) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}

	n.mu.Lock()
	tracks := make([]*track, 0, len(n.tracks))
	for _, t := range n.tracks {
		tracks = append(tracks, t)
	}
	n.mu.Unlock()

	for _, t := range tracks {
		t.Stop()
	}
	return nil
}
