package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/sahabat-saleh/suara/internal/assets"
	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/cache"
	"github.com/sahabat-saleh/suara/internal/codec"
	"github.com/sahabat-saleh/suara/internal/config"
	"github.com/sahabat-saleh/suara/internal/playback"
	"github.com/sahabat-saleh/suara/internal/tts"
)

// outputDevice is an audio output that holds OS resources.
type outputDevice interface {
	audio.Output
	Close() error
}

// runtime owns everything a command needs to make sound.
type runtime struct {
	catalog *assets.Catalog
	fetcher *assets.Fetcher
	cache   *cache.Manager
	remote  *tts.Remote // nil when remote synthesis is disabled
	local   *tts.Local
	output  outputDevice
	svc     *audio.Service
}

// newRuntime builds the audio service and its capabilities from cfg.
func newRuntime(cfg config.Config, logger *log.Logger) (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	if cfg.Assets.Catalog != "" {
		rt.catalog, err = assets.LoadCatalog(cfg.Assets.Catalog)
	} else {
		rt.catalog, err = assets.DefaultCatalog()
	}
	if err != nil {
		return nil, err
	}

	rt.fetcher, err = assets.NewFetcher(assets.FetcherConfig{
		Dir:     cfg.Assets.Dir,
		BaseURL: cfg.Assets.BaseURL,
		Catalog: rt.catalog,
		Logger:  logger.WithPrefix("assets"),
	})
	if err != nil {
		return nil, err
	}

	if rt.remote, err = newRemote(cfg, logger, rt); err != nil {
		return nil, err
	}

	rt.local = tts.NewLocal(tts.LocalConfig{
		Command: cfg.Local.Command,
		Voice:   cfg.Local.Voice,
		Logger:  logger.WithPrefix("local"),
	})

	switch cfg.Output.Driver {
	case "null":
		rt.output = playback.NewNull(logger.WithPrefix("output"))
	default:
		device, err := playback.NewDevice(playback.Config{
			SampleRate: cfg.Output.SampleRate,
			BufferSize: cfg.Output.BufferSize,
		}, logger.WithPrefix("output"))
		if err != nil {
			return nil, fmt.Errorf("unable to open audio device (try --output null): %w", err)
		}
		rt.output = device
	}

	opts := audio.Options{
		Output:        rt.output,
		Decoder:       codec.Decoder{},
		Fetcher:       rt.fetcher,
		Local:         rt.local,
		Language:      cfg.Language,
		RemoteTimeout: cfg.Remote.Timeout,
		Style:         cfg.Style(),
		Disabled:      !cfg.Enabled,
		Logger:        logger.WithPrefix("audio"),
	}
	// A nil *tts.Remote must not become a non-nil interface.
	if rt.remote != nil {
		opts.Remote = rt.remote
	}

	rt.svc, err = audio.New(opts)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// newRemote creates the remote synthesizer and its cache, or returns nil
// when remote synthesis is disabled.
func newRemote(cfg config.Config, logger *log.Logger, rt *runtime) (*tts.Remote, error) {
	if !cfg.Remote.Enabled {
		return nil, nil
	}

	var err error
	rt.cache, err = cache.NewManager(cache.Config{
		MemoryCapacity:   cfg.Remote.Cache.MemoryCapacity,
		DiskPath:         cfg.Remote.Cache.Dir,
		DiskCapacity:     cfg.Remote.Cache.DiskCapacity,
		CompressionLevel: cfg.Remote.Cache.CompressionLevel,
	})
	if err != nil {
		return nil, err
	}

	return tts.NewRemote(tts.RemoteConfig{
		Endpoint:          cfg.Remote.Endpoint,
		RequestsPerMinute: cfg.Remote.RequestsPerMinute,
		Cache:             rt.cache,
		Logger:            logger.WithPrefix("remote"),
	})
}

// Close stops all audio and releases the device and caches.
func (rt *runtime) Close() error {
	var errs []error
	if rt.svc != nil {
		errs = append(errs, rt.svc.Close())
	}
	if rt.output != nil {
		errs = append(errs, rt.output.Close())
	}
	if rt.cache != nil {
		errs = append(errs, rt.cache.Close())
	}
	return errors.Join(errs...)
}
