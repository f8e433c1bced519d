package audio

import (
	"errors"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sahabat-saleh/suara/internal/codec"
)

// Cue names a stock feedback sound.
type Cue string

const (
	CueClick   Cue = "click"
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
)

// PlaySound plays a short effect at volume in [0, 1]. The current narration
// is cut off, but other effects keep playing and may overlap.
func (s *Service) PlaySound(source string, volume float64) {
	if source == "" {
		return
	}
	if !s.accepting() {
		s.logDropped("play_sound", source)
		return
	}
	rate := s.VoiceStyle().profile().effectRate

	s.mu.Lock()
	stale := s.supersedeNarrationLocked()
	epoch := s.epoch
	s.beginWorkLocked()
	s.mu.Unlock()

	if stale != nil {
		stale.Stop()
	}
	go func() {
		defer s.endWork()
		s.playEffect(source, PlayOptions{Rate: rate, Volume: clampVolume(volume)}, epoch)
	}()
}

// PlayInstruction plays an instruction clip and remembers it for
// ReplayInstruction.
func (s *Service) PlayInstruction(source string) {
	if source == "" {
		return
	}
	if !s.accepting() {
		s.logDropped("play_instruction", source)
		return
	}

	s.mu.Lock()
	s.lastInstruction = source
	s.mu.Unlock()

	s.PlaySound(source, DefaultEffectVolume)
}

// ReplayInstruction plays the most recent instruction again, if any.
func (s *Service) ReplayInstruction() {
	if !s.accepting() {
		s.logDropped("replay_instruction", "")
		return
	}

	s.mu.Lock()
	last := s.lastInstruction
	s.mu.Unlock()

	if last == "" {
		s.logger.Debug("no instruction to replay")
		return
	}
	s.PlaySound(last, DefaultEffectVolume)
}

// LastInstruction returns the source of the most recent instruction.
func (s *Service) LastInstruction() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInstruction
}

// PlayCue plays a stock feedback sound.
func (s *Service) PlayCue(c Cue) {
	source := s.cues[c]
	if source == "" {
		source = string(c)
	}
	s.PlaySound(source, DefaultEffectVolume)
}

// supersedeNarrationLocked cancels the current narration and detaches its
// playback session, returning the track to stop (must be called with s.mu
// held).
func (s *Service) supersedeNarrationLocked() Track {
	n := s.narration
	if n == nil {
		return nil
	}
	n.cancel(ErrSuperseded)
	s.narration = nil

	if sess, ok := s.sessions[n.session]; ok {
		delete(s.sessions, n.session)
		return sess.track
	}
	return nil
}

func (s *Service) playEffect(source string, opts PlayOptions, epoch uint64) {
	clip, err := s.load(source)
	if err != nil {
		s.logFailure("failed to load sound", err, "source", source)
		return
	}

	// live must be called with s.mu held.
	live := func(*session) bool { return s.epoch == epoch && s.accepting() }

	s.mu.Lock()
	ok := live(nil)
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("sound dropped after stop", "source", source)
		return
	}

	sess, err := s.startSession(kindEffect, source, clip, opts, live)
	if errors.Is(err, errStale) {
		s.logger.Debug("sound dropped after stop", "source", source)
		return
	}
	if err != nil {
		s.logFailure("failed to play sound", newError(CodeAssetLoadFailure, "output refused clip", err), "source", source)
		return
	}

	s.awaitSession(sess)
}

// load returns the decoded clip for source, fetching and decoding it at most
// once. Concurrent loads of the same source share one fetch.
func (s *Service) load(source string) (*codec.Clip, error) {
	if v, ok := s.decoded.Get(source); ok {
		return v.(*codec.Clip), nil
	}

	v, err, shared := s.loads.Do(source, func() (any, error) {
		if v, ok := s.decoded.Get(source); ok {
			return v, nil
		}

		ctx, span := s.tracer.Start(s.base, "audio.load", trace.WithAttributes(attribute.String("source", source)))
		defer span.End()

		data, err := s.fetcher.Fetch(ctx, source)
		if err != nil {
			err = newError(CodeAssetLoadFailure, "failed to fetch "+source, err)
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, "fetch failed")
			return nil, err
		}

		clip, err := s.decoder.Decode(data)
		if err != nil {
			err = newError(CodeAssetLoadFailure, "failed to decode "+source, err)
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, "decode failed")
			return nil, err
		}

		s.decoded.Set(source, clip, gocache.NoExpiration)
		span.SetAttributes(attribute.Int("frames", clip.Len()))
		return clip, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("shared in-flight load", "source", source)
	}
	return v.(*codec.Clip), nil
}
