package playback

import (
	"sync"
)

// track holds the completion bookkeeping shared by every device.
type track struct {
	id   uint64
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	volume  float64
	onStop  func()
	setGain func(float64)
}

func newTrack(id uint64, volume float64) *track {
	return &track{
		id:     id,
		done:   make(chan struct{}),
		volume: clampVolume(volume),
	}
}

// Stop halts playback and releases the track's resources.
func (t *track) Stop() {
	t.finish()
}

// Done is closed when the track has finished or been stopped.
func (t *track) Done() <-chan struct{} {
	return t.done
}

// SetVolume adjusts the gain of a playing track.
func (t *track) SetVolume(volume float64) {
	volume = clampVolume(volume)

	t.mu.Lock()
	t.volume = volume
	setGain := t.setGain
	t.mu.Unlock()

	if setGain != nil {
		setGain(volume)
	}
}

// Volume returns the track's current gain.
func (t *track) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *track) finish() {
	t.once.Do(func() {
		t.mu.Lock()
		onStop := t.onStop
		t.mu.Unlock()

		if onStop != nil {
			onStop()
		}
		close(t.done)
	})
}

func (t *track) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
