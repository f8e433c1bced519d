package audio

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NarrationState reports what the current narration is doing.
type NarrationState int

const (
	StateIdle NarrationState = iota
	StateSpeakingRemote
	StateSpeakingFallback
)

func (st NarrationState) String() string {
	switch st {
	case StateSpeakingRemote:
		return "speaking (remote)"
	case StateSpeakingFallback:
		return "speaking (local)"
	default:
		return "idle"
	}
}

// narration is one Speak request. state and session are guarded by
// Service.mu.
type narration struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	state   NarrationState
	session string
}

// Speak narrates text in lang, a tag such as "id-ID". Everything except
// background music is stopped first. Remote synthesis is tried under a
// deadline and the local synthesizer is used if it fails. The stylized voice
// always uses the local synthesizer.
func (s *Service) Speak(text, lang string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if !s.accepting() {
		s.logDropped("speak", text)
		return
	}
	if lang == "" {
		lang = s.language
	}
	style := s.VoiceStyle()

	ctx, cancel := context.WithCancelCause(s.base)
	n := &narration{ctx: ctx, cancel: cancel}

	s.mu.Lock()
	// SetEnabled(false) may have stopped everything since the check above.
	if !s.accepting() {
		s.mu.Unlock()
		cancel(ErrSuperseded)
		s.logDropped("speak", text)
		return
	}
	tracks := s.stopAllLocked()
	s.narration = n
	s.beginWorkLocked()
	s.mu.Unlock()

	for _, t := range tracks {
		t.Stop()
	}

	go func() {
		defer s.endWork()
		s.narrate(n, text, lang, style)
	}()
}

// NarrationState returns the state of the current narration.
func (s *Service) NarrationState() NarrationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.narration == nil {
		return StateIdle
	}
	return s.narration.state
}

func (s *Service) narrate(n *narration, text, lang string, style VoiceStyle) {
	ctx, span := s.tracer.Start(n.ctx, "audio.speak", trace.WithAttributes(
		attribute.String("lang", lang),
		attribute.String("style", style.String()),
	))
	defer span.End()
	defer s.finishNarration(n)

	if style == StyleNormal && s.remote != nil {
		s.setNarrationState(n, StateSpeakingRemote)
		err := s.speakRemote(ctx, n, text, lang)
		if err == nil {
			span.SetAttributes(attribute.String("path", "remote"), attribute.String("outcome", "completed"))
			return
		}
		if ctx.Err() != nil {
			span.SetAttributes(attribute.String("path", "remote"), attribute.String("outcome", "superseded"))
			return
		}
		if CodeOf(err) == CodeDisabled {
			span.SetAttributes(attribute.String("path", "remote"), attribute.String("outcome", "dropped"))
			s.logDropped("speak", text)
			return
		}
		span.RecordError(err)
		s.logFailure("remote narration failed, falling back to local speech", err, "lang", lang)
	}

	if err := s.checkNarration(n); err != nil {
		span.SetAttributes(attribute.String("outcome", "dropped"))
		s.logDropped("speak", text)
		return
	}
	s.setNarrationState(n, StateSpeakingFallback)
	span.SetAttributes(attribute.String("path", "fallback"))

	err := s.speakLocal(ctx, text, lang, style)
	switch {
	case ctx.Err() != nil:
		span.SetAttributes(attribute.String("outcome", "superseded"))
	case err != nil:
		span.SetAttributes(attribute.String("outcome", "failed"))
		span.SetStatus(otelcodes.Error, err.Error())
		if CodeOf(err) == CodeUnsupportedCapability {
			s.logger.Debug("narration skipped", "code", CodeUnsupportedCapability, "err", err)
		} else {
			s.logFailure("local narration failed", err, "lang", lang)
		}
	default:
		span.SetAttributes(attribute.String("outcome", "completed"))
	}
}

// speakRemote synthesizes text remotely and plays it to completion.
func (s *Service) speakRemote(ctx context.Context, n *narration, text, lang string) error {
	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	data, err := s.remote.Synthesize(rctx, text, BaseLanguage(lang))
	cancel()
	if err != nil {
		return newError(CodeRemoteUnavailable, "remote synthesis failed", err)
	}

	clip, err := s.decoder.Decode(data)
	if err != nil {
		return newError(CodeRemoteUnavailable, "remote audio could not be decoded", err)
	}

	if err := s.checkNarration(n); err != nil {
		return err
	}
	sess, err := s.startSession(kindNarration, "speech:"+text, clip, PlayOptions{Rate: 1, Volume: 1}, func(sess *session) bool {
		if !s.currentLocked(n) {
			return false
		}
		n.session = sess.id
		return true
	})
	if errors.Is(err, errStale) {
		return s.narrationGone(n)
	}
	if err != nil {
		return newError(CodeRemoteUnavailable, "failed to start narration playback", err)
	}

	select {
	case <-sess.track.Done():
	case <-ctx.Done():
		sess.track.Stop()
	}

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	return context.Cause(ctx)
}

// speakLocal speaks text with the on-device synthesizer using the style's
// voice profile.
func (s *Service) speakLocal(ctx context.Context, text, lang string, style VoiceStyle) error {
	if s.local == nil || !s.local.Available() {
		return newError(CodeUnsupportedCapability, "no local speech synthesizer", nil)
	}

	p := style.profile()
	return s.local.Speak(ctx, Utterance{
		Text:  text,
		Lang:  lang,
		Rate:  p.speechRate,
		Pitch: p.speechPitch,
	})
}

// currentLocked reports whether n may still make sound (must be called with
// s.mu held).
func (s *Service) currentLocked(n *narration) bool {
	return s.narration == n && n.ctx.Err() == nil && s.accepting()
}

// checkNarration returns nil while n may still make sound, and otherwise why
// it may not.
func (s *Service) checkNarration(n *narration) error {
	s.mu.Lock()
	ok := s.currentLocked(n)
	s.mu.Unlock()
	if ok {
		return nil
	}
	return s.narrationGone(n)
}

func (s *Service) narrationGone(n *narration) error {
	if n.ctx.Err() != nil {
		return context.Cause(n.ctx)
	}
	if !s.accepting() {
		return newError(CodeDisabled, "audio disabled during narration", nil)
	}
	return ErrSuperseded
}

func (s *Service) setNarrationState(n *narration, st NarrationState) {
	s.mu.Lock()
	n.state = st
	s.mu.Unlock()
	s.logger.Debug("narration state", "state", st)
}

// finishNarration clears the narration slot if n still holds it.
func (s *Service) finishNarration(n *narration) {
	s.mu.Lock()
	if s.narration == n {
		s.narration = nil
	}
	s.mu.Unlock()
	n.cancel(nil)
}
