package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadFromViper overlays every key set in v on the defaults and validates
// the result. Keys are set when they come from a flag, the environment or
// the config file.
func LoadFromViper(v *viper.Viper) (Config, error) {
	cfg := Default()

	if v.IsSet("enabled") {
		cfg.Enabled = v.GetBool("enabled")
	}
	if v.IsSet("voice_style") {
		cfg.VoiceStyle = v.GetString("voice_style")
	}
	if v.IsSet("language") {
		cfg.Language = v.GetString("language")
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}

	// Assets
	if v.IsSet("assets.dir") {
		cfg.Assets.Dir = v.GetString("assets.dir")
	}
	if v.IsSet("assets.base_url") {
		cfg.Assets.BaseURL = v.GetString("assets.base_url")
	}
	if v.IsSet("assets.catalog") {
		cfg.Assets.Catalog = v.GetString("assets.catalog")
	}

	// Remote synthesis
	if v.IsSet("remote.enabled") {
		cfg.Remote.Enabled = v.GetBool("remote.enabled")
	}
	if v.IsSet("remote.endpoint") {
		cfg.Remote.Endpoint = v.GetString("remote.endpoint")
	}
	if v.IsSet("remote.timeout") {
		cfg.Remote.Timeout = v.GetDuration("remote.timeout")
	}
	if v.IsSet("remote.requests_per_minute") {
		cfg.Remote.RequestsPerMinute = v.GetInt("remote.requests_per_minute")
	}
	if v.IsSet("remote.cache.memory_capacity") {
		cfg.Remote.Cache.MemoryCapacity = v.GetInt64("remote.cache.memory_capacity")
	}
	if v.IsSet("remote.cache.dir") {
		cfg.Remote.Cache.Dir = v.GetString("remote.cache.dir")
	}
	if v.IsSet("remote.cache.disk_capacity") {
		cfg.Remote.Cache.DiskCapacity = v.GetInt64("remote.cache.disk_capacity")
	}
	if v.IsSet("remote.cache.compression_level") {
		cfg.Remote.Cache.CompressionLevel = v.GetInt("remote.cache.compression_level")
	}

	// Local synthesis
	if v.IsSet("local.command") {
		cfg.Local.Command = v.GetString("local.command")
	}
	if v.IsSet("local.voice") {
		cfg.Local.Voice = v.GetString("local.voice")
	}

	// Output
	if v.IsSet("output.driver") {
		cfg.Output.Driver = v.GetString("output.driver")
	}
	if v.IsSet("output.sample_rate") {
		cfg.Output.SampleRate = v.GetInt("output.sample_rate")
	}
	if v.IsSet("output.buffer_size") {
		cfg.Output.BufferSize = v.GetInt("output.buffer_size")
	}

	// Volumes
	if v.IsSet("volume.effects") {
		cfg.Volume.Effects = v.GetFloat64("volume.effects")
	}
	if v.IsSet("volume.music") {
		cfg.Volume.Music = v.GetFloat64("volume.music")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
