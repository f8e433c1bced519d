package audio

import (
	"sync"

	"github.com/google/uuid"
)

// Music is a handle to a looping background track. It is returned before the
// track has loaded; stopping it early cancels playback before it starts.
type Music struct {
	id     string
	source string
	svc    *Service

	mu      sync.Mutex
	track   Track
	volume  float64
	stopped bool

	done     chan struct{}
	doneOnce sync.Once
}

// PlayBackgroundMusic starts source looping at volume in [0, 1] and returns
// its handle, or nil when audio is disabled. Music always plays at normal
// speed and is not affected by StopAll.
func (s *Service) PlayBackgroundMusic(source string, volume float64) *Music {
	if source == "" {
		return nil
	}
	if !s.accepting() {
		s.logDropped("play_background_music", source)
		return nil
	}

	m := &Music{
		id:     uuid.NewString(),
		source: source,
		svc:    s,
		volume: clampVolume(volume),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.music[m.id] = m
	s.mu.Unlock()

	go s.playMusic(m)
	return m
}

func (s *Service) playMusic(m *Music) {
	defer m.finish()

	clip, err := s.load(m.source)
	if err != nil {
		s.logFailure("failed to load music", err, "source", m.source)
		return
	}

	m.mu.Lock()
	stopped := m.stopped
	volume := m.volume
	m.mu.Unlock()
	if stopped || !s.accepting() {
		return
	}

	track, err := s.output.Start(clip, PlayOptions{Rate: 1, Volume: volume, Loop: true})
	if err != nil {
		s.logFailure("failed to play music", newError(CodeAssetLoadFailure, "output refused clip", err), "source", m.source)
		return
	}

	// Stop, SetVolume and mute may have happened while the track started.
	m.mu.Lock()
	if m.stopped || !s.accepting() {
		m.mu.Unlock()
		track.Stop()
		return
	}
	m.track = track
	if m.volume != volume {
		track.SetVolume(m.volume)
	}
	m.mu.Unlock()

	s.logger.Debug("music started", "id", m.id, "source", m.source, "volume", m.volume)

	select {
	case <-track.Done():
	case <-s.base.Done():
		track.Stop()
	}
}

// ID returns the handle's unique id.
func (m *Music) ID() string {
	return m.id
}

// Source returns the source the music was started with.
func (m *Music) Source() string {
	return m.source
}

// Active reports whether the music is loading or playing.
func (m *Music) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.stopped
}

// Playing reports whether the track has started and not been stopped.
func (m *Music) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.stopped && m.track != nil
}

// Volume returns the current gain.
func (m *Music) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// SetVolume changes the gain, also for music that is still loading.
func (m *Music) SetVolume(volume float64) {
	volume = clampVolume(volume)

	m.mu.Lock()
	m.volume = volume
	t := m.track
	m.mu.Unlock()

	if t != nil {
		t.SetVolume(volume)
	}
}

// Stop stops the music. It is safe to call more than once.
func (m *Music) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	t := m.track
	m.mu.Unlock()

	if t != nil {
		t.Stop()
	}
	m.svc.forgetMusic(m)
}

// Done is closed once the music has stopped or failed to load.
func (m *Music) Done() <-chan struct{} {
	return m.done
}

func (m *Music) finish() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	m.svc.forgetMusic(m)
	m.doneOnce.Do(func() { close(m.done) })
}

func (s *Service) forgetMusic(m *Music) {
	s.mu.Lock()
	delete(s.music, m.id)
	s.mu.Unlock()
}
