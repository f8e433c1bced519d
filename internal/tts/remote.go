package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/sahabat-saleh/suara/internal/cache"
)

const (
	// DefaultEndpoint is the Google Translate speech endpoint.
	DefaultEndpoint = "https://translate.google.com/translate_tts"

	// maxTextLength is the endpoint's per-request character limit.
	maxTextLength = 200

	// maxAudioSize bounds the response body.
	maxAudioSize = 5 * 1024 * 1024

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) suara"
)

// RemoteConfig holds configuration for the remote synthesizer.
type RemoteConfig struct {
	// Endpoint URL, defaults to DefaultEndpoint
	Endpoint string

	// Rate limit requests per minute to avoid being blocked (defaults to 50)
	RequestsPerMinute int

	// HTTP client, defaults to one with a 10s timeout. Per-call deadlines
	// come from the context.
	Client *http.Client

	// Cache for synthesized audio (optional)
	Cache *cache.Manager

	Logger *log.Logger
}

// Remote synthesizes speech with the Google Translate endpoint. It returns
// MP3 bytes and never plays anything itself.
type Remote struct {
	endpoint    *url.URL
	client      *http.Client
	rateLimiter *rate.Limiter
	cache       *cache.Manager
	logger      *log.Logger
}

// NewRemote creates a remote synthesizer.
func NewRemote(config RemoteConfig) (*Remote, error) {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	endpoint, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint scheme %q", endpoint.Scheme)
	}

	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 50
	}
	if config.Client == nil {
		config.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	// Narration waits on the limiter under a short deadline, so a few
	// back-to-back phrases must pass without waiting for a refill.
	burst := max(1, config.RequestsPerMinute/10)

	return &Remote{
		endpoint:    endpoint,
		client:      config.Client,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), burst),
		cache:       config.Cache,
		logger:      config.Logger,
	}, nil
}

// Synthesize returns MP3 audio of text spoken in lang, a base language code
// such as "id".
func (r *Remote) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); n > maxTextLength {
		return nil, fmt.Errorf("%w: %d characters (max %d)", ErrTextTooLong, n, maxTextLength)
	}

	key := cache.GenerateKey(text, lang)
	if r.cache != nil {
		if audio, level, ok := r.cache.Get(key); ok {
			r.logger.Debug("speech cache hit", "level", level, "lang", lang)
			return audio, nil
		}
	}

	// Rate limit to avoid being blocked
	if err := r.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	audio, err := r.fetch(ctx, text, lang)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Put(key, audio); err != nil {
			r.logger.Debug("failed to cache speech", "err", err)
		}
	}
	return audio, nil
}

func (r *Remote) fetch(ctx context.Context, text, lang string) ([]byte, error) {
	u := *r.endpoint
	q := u.Query()
	q.Set("ie", "UTF-8")
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("q", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read remote audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	if len(audio) > maxAudioSize {
		return nil, fmt.Errorf("remote audio too large: more than %d bytes", maxAudioSize)
	}

	r.logger.Debug("remote synthesis done", "lang", lang, "bytes", len(audio), "took", time.Since(start))
	return audio, nil
}
