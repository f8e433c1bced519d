package playback

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/codec"
)

// ErrClosed is returned when starting a track on a closed device.
var ErrClosed = errors.New("output device is closed")

// completionPoll is how often a track checks whether oto has drained it.
const completionPoll = 20 * time.Millisecond

// Config contains configuration for the oto device.
type Config struct {
	SampleRate int // 44100 or 48000 Hz only
	BufferSize int // device buffer in bytes
}

// DefaultConfig returns the default device configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		BufferSize: 8192,
	}
}

// validateConfig validates the device configuration.
func validateConfig(config Config) error {
	// OTO only supports specific sample rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}

	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}

	return nil
}

// Device plays clips on the system sound card. Each Start creates its own
// oto player, and oto mixes the players together.
type Device struct {
	context    *oto.Context
	sampleRate int
	logger     *log.Logger

	nextID atomic.Uint64
	closed atomic.Bool

	mu     sync.Mutex
	tracks map[uint64]*track
}

// NewDevice opens the sound card. Only one device may exist per process.
func NewDevice(config Config, logger *log.Logger) (*Device, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	const channels, bytesPerSample = 2, 2
	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*channels*bytesPerSample),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	logger.Debug("audio device ready", "sample_rate", config.SampleRate, "buffer", config.BufferSize)

	return &Device{
		context:    ctx,
		sampleRate: config.SampleRate,
		logger:     logger,
		tracks:     make(map[uint64]*track),
	}, nil
}

// Start renders clip at the device rate and begins playing it.
func (d *Device) Start(clip *codec.Clip, opts audio.PlayOptions) (audio.Track, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	speed := opts.Rate
	if speed <= 0 {
		speed = 1
	}
	pcm, err := codec.Render(clip, d.sampleRate, speed)
	if err != nil {
		return nil, err
	}

	stream := newPCMStream(pcm, opts.Loop)
	player := d.context.NewPlayer(stream)
	if player == nil {
		stream.Close()
		return nil, errors.New("failed to create oto player")
	}

	t := newTrack(d.nextID.Add(1), opts.Volume)
	player.SetVolume(t.Volume())

	var playerMu sync.Mutex
	t.setGain = func(v float64) {
		playerMu.Lock()
		defer playerMu.Unlock()
		player.SetVolume(v)
	}
	t.onStop = func() {
		playerMu.Lock()
		player.Pause()
		if err := player.Close(); err != nil {
			d.logger.Debug("failed to close player", "err", err)
		}
		playerMu.Unlock()

		stream.Close()
		d.forget(t.id)
	}

	d.mu.Lock()
	d.tracks[t.id] = t
	d.mu.Unlock()

	player.Play()
	go d.watch(t, func() bool {
		playerMu.Lock()
		defer playerMu.Unlock()
		return player.IsPlaying()
	})

	return t, nil
}

// watch finishes t once oto has drained its stream.
func (d *Device) watch(t *track, playing func() bool) {
	ticker := time.NewTicker(completionPoll)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if !playing() {
				t.finish()
				return
			}
		}
	}
}

func (d *Device) forget(id uint64) {
	d.mu.Lock()
	delete(d.tracks, id)
	d.mu.Unlock()
}

// Active returns the number of tracks currently playing.
func (d *Device) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tracks)
}

// SampleRate returns the device's output rate.
func (d *Device) SampleRate() int {
	return d.sampleRate
}

// Close stops every track. The oto context itself lives until the process
// exits since oto v3 has no way to release it.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}

	d.mu.Lock()
	tracks := make([]*track, 0, len(d.tracks))
	for _, t := range d.tracks {
		tracks = append(tracks, t)
	}
	d.mu.Unlock()

	for _, t := range tracks {
		t.Stop()
	}
	return nil
}
