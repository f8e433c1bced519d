package audio

import (
	"errors"

	"github.com/google/uuid"

	"github.com/sahabat-saleh/suara/internal/codec"
)

// errStale reports a playback request that was stopped or superseded while
// its track was starting.
var errStale = errors.New("playback request is stale")

type sessionKind int

const (
	kindEffect sessionKind = iota
	kindNarration
)

func (k sessionKind) String() string {
	if k == kindNarration {
		return "narration"
	}
	return "effect"
}

// session is one playing effect or narration clip.
type session struct {
	id     string
	kind   sessionKind
	source string
	track  Track
	opts   PlayOptions
}

// startSession starts clip on the output and registers the session. The
// output may render the whole clip first, so it runs without s.mu; live is
// then called with s.mu held and the track is stopped if the request went
// stale in the meantime.
func (s *Service) startSession(kind sessionKind, source string, clip *codec.Clip, opts PlayOptions, live func(*session) bool) (*session, error) {
	track, err := s.output.Start(clip, opts)
	if err != nil {
		return nil, err
	}
	sess := &session{
		id:     uuid.NewString(),
		kind:   kind,
		source: source,
		track:  track,
		opts:   opts,
	}

	s.mu.Lock()
	if !live(sess) {
		s.mu.Unlock()
		track.Stop()
		return nil, errStale
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Debug("playback started", "kind", kind, "source", source, "rate", opts.Rate, "volume", opts.Volume)
	return sess, nil
}

// awaitSession blocks until the session's track ends, then unregisters it.
func (s *Service) awaitSession(sess *session) {
	select {
	case <-sess.track.Done():
	case <-s.base.Done():
		sess.track.Stop()
	}

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}

// beginWorkLocked counts a pending request for Wait (must be called with
// s.mu held).
func (s *Service) beginWorkLocked() {
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

func (s *Service) endWork() {
	s.mu.Lock()
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
	s.mu.Unlock()
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
