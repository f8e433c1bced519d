package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRemoteTimeout bounds remote synthesis before falling back.
	DefaultRemoteTimeout = 800 * time.Millisecond

	// DefaultEffectVolume is the gain used by instructions and cues.
	DefaultEffectVolume = 1.0

	// DefaultMusicVolume is the gain background music is usually played at.
	DefaultMusicVolume = 0.3

	tracerName = "github.com/sahabat-saleh/suara/internal/audio"
)

// Options configures a Service.
type Options struct {
	// Output plays decoded clips. Required.
	Output Output
	// Decoder turns fetched or synthesized bytes into clips. Required.
	Decoder Decoder
	// Fetcher loads static assets. Required.
	Fetcher Fetcher

	// Remote synthesizes speech over the network. Optional; without it all
	// narration uses the local synthesizer.
	Remote RemoteSynthesizer
	// Local synthesizes speech on this host. Optional; without it fallback
	// narration is silently skipped.
	Local LocalSynthesizer

	// Language is the default narration language tag, "id-ID" when empty.
	Language string
	// RemoteTimeout bounds remote synthesis, DefaultRemoteTimeout when zero.
	RemoteTimeout time.Duration
	// Style is the initial voice style.
	Style VoiceStyle
	// Disabled starts the service muted.
	Disabled bool
	// Cues maps cue names to source ids. Unmapped cues use their own name.
	Cues map[Cue]string

	Logger *log.Logger
	Tracer trace.Tracer
}

// Service is the audio coordinator. Create one with New and share it.
type Service struct {
	remote  RemoteSynthesizer
	local   LocalSynthesizer
	fetcher Fetcher
	decoder Decoder
	output  Output

	language      string
	remoteTimeout time.Duration
	cues          map[Cue]string
	logger        *log.Logger
	tracer        trace.Tracer

	enabled atomic.Bool
	style   atomic.Int32
	closed  atomic.Bool

	// base is cancelled by Close and parents every background operation.
	base   context.Context
	cancel context.CancelCauseFunc

	mu              sync.Mutex
	epoch           uint64 // bumped by StopAll to invalidate pending loads
	narration       *narration
	sessions        map[string]*session
	music           map[string]*Music
	lastInstruction string

	// pending counts loads, effects and narration but not music. idle is
	// closed whenever pending is zero.
	pending int
	idle    chan struct{}

	decoded *gocache.Cache
	loads   singleflight.Group
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Output == nil {
		return nil, newError(CodeUnsupportedCapability, "no audio output configured", nil)
	}
	if opts.Decoder == nil {
		return nil, newError(CodeUnsupportedCapability, "no audio decoder configured", nil)
	}
	if opts.Fetcher == nil {
		return nil, newError(CodeUnsupportedCapability, "no asset fetcher configured", nil)
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	cues := map[Cue]string{CueClick: "click", CueCorrect: "correct", CueWrong: "wrong"}
	for c, id := range opts.Cues {
		cues[c] = id
	}

	base, cancel := context.WithCancelCause(context.Background())
	s := &Service{
		remote:        opts.Remote,
		local:         opts.Local,
		fetcher:       opts.Fetcher,
		decoder:       opts.Decoder,
		output:        opts.Output,
		language:      opts.Language,
		remoteTimeout: opts.RemoteTimeout,
		cues:          cues,
		logger:        opts.Logger,
		tracer:        opts.Tracer,
		base:          base,
		cancel:        cancel,
		sessions:      make(map[string]*session),
		music:         make(map[string]*Music),
		decoded:       gocache.New(gocache.NoExpiration, 0),
	}
	s.idle = make(chan struct{})
	close(s.idle)
	s.enabled.Store(!opts.Disabled)
	s.style.Store(int32(opts.Style))

	if s.local == nil || !s.local.Available() {
		s.logger.Debug("local speech unavailable; fallback narration is silent")
	}
	return s, nil
}

// Enabled reports whether audio is on.
func (s *Service) Enabled() bool {
	return s.enabled.Load()
}

// SetEnabled turns audio on or off. Turning it off silences everything,
// background music included, and drops requests still loading.
func (s *Service) SetEnabled(enabled bool) {
	prev := s.enabled.Swap(enabled)
	if prev != enabled {
		s.logger.Info("audio enabled changed", "enabled", enabled)
	}
	if !enabled {
		s.StopAll()
		s.StopMusic()
	}
}

// VoiceStyle returns the current voice style.
func (s *Service) VoiceStyle() VoiceStyle {
	return VoiceStyle(s.style.Load())
}

// SetVoiceStyle changes the voice style for subsequent requests. Audio that
// is already playing keeps its original style.
func (s *Service) SetVoiceStyle(style VoiceStyle) {
	if VoiceStyle(s.style.Swap(int32(style))) != style {
		s.logger.Info("voice style changed", "style", style)
	}
}

// StopAll silences the current narration and every effect, and drops
// requests whose asset is still loading. Background music keeps playing.
func (s *Service) StopAll() {
	s.mu.Lock()
	tracks := s.stopAllLocked()
	s.mu.Unlock()

	for _, t := range tracks {
		t.Stop()
	}
}

// stopAllLocked invalidates pending work and detaches every non-music
// session, returning the tracks the caller must stop after unlocking.
func (s *Service) stopAllLocked() []Track {
	s.epoch++
	if s.narration != nil {
		s.narration.cancel(ErrSuperseded)
		s.narration = nil
	}

	tracks := make([]Track, 0, len(s.sessions))
	for id, sess := range s.sessions {
		tracks = append(tracks, sess.track)
		delete(s.sessions, id)
	}
	return tracks
}

// StopMusic stops every background music session.
func (s *Service) StopMusic() {
	s.mu.Lock()
	handles := make([]*Music, 0, len(s.music))
	for _, m := range s.music {
		handles = append(handles, m)
	}
	s.mu.Unlock()

	for _, m := range handles {
		m.Stop()
	}
}

// Wait blocks until every pending load, effect and narration has finished,
// or ctx is done. Requests made while waiting are waited for as well.
// Background music is not waited for.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops all audio and rejects further requests.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.StopAll()
	s.StopMusic()
	s.cancel(ErrClosed)
	s.logger.Debug("audio service closed")
	return nil
}

// Stats is a snapshot of the service's state.
type Stats struct {
	Enabled         bool
	Style           VoiceStyle
	Narration       NarrationState
	Sessions        int // playing effects and narration
	Music           int // background music handles not yet stopped
	Decoded         int // entries in the decoded clip cache
	LastInstruction string
}

// Stats returns a snapshot of the service's state.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Enabled:         s.Enabled(),
		Style:           s.VoiceStyle(),
		Narration:       StateIdle,
		Sessions:        len(s.sessions),
		Music:           len(s.music),
		Decoded:         s.decoded.ItemCount(),
		LastInstruction: s.lastInstruction,
	}
	if s.narration != nil {
		st.Narration = s.narration.state
	}
	return st
}

// accepting reports whether new requests should be started.
func (s *Service) accepting() bool {
	return s.enabled.Load() && !s.closed.Load()
}

// logDropped logs a request dropped because the service is muted or closed.
func (s *Service) logDropped(op, source string) {
	reason := "audio disabled"
	if s.closed.Load() {
		reason = "service closed"
	}
	s.logger.Debug("request dropped", "op", op, "source", source, "code", CodeDisabled, "reason", reason)
}

// logFailure logs a failure with its taxonomy code.
func (s *Service) logFailure(msg string, err error, keyvals ...any) {
	if errors.Is(err, context.Canceled) {
		s.logger.Debug(msg, append(keyvals, "err", err)...)
		return
	}
	s.logger.Warn(msg, append(keyvals, "code", CodeOf(err), "err", err)...)
}
