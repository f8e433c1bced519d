// Package config holds suara's typed configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sahabat-saleh/suara/internal/audio"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "SUARA_"

// Config contains all suara configuration options. The env names mirror the
// viper keys, so SUARA_REMOTE_TIMEOUT sets remote.timeout.
type Config struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED" envDefault:"true"`
	VoiceStyle string `yaml:"voice_style" env:"VOICE_STYLE" envDefault:"normal"`
	Language   string `yaml:"language" env:"LANGUAGE" envDefault:"id-ID"`
	Debug      bool   `yaml:"debug" env:"DEBUG" envDefault:"false"`

	Assets AssetsConfig `yaml:"assets" envPrefix:"ASSETS_"`
	Remote RemoteConfig `yaml:"remote" envPrefix:"REMOTE_"`
	Local  LocalConfig  `yaml:"local" envPrefix:"LOCAL_"`
	Output OutputConfig `yaml:"output" envPrefix:"OUTPUT_"`
	Volume VolumeConfig `yaml:"volume" envPrefix:"VOLUME_"`
}

// AssetsConfig says where static audio is found.
type AssetsConfig struct {
	Dir     string `yaml:"dir" env:"DIR" envDefault:"public/audio"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Catalog string `yaml:"catalog" env:"CATALOG"` // empty uses the built-in catalog
}

// RemoteConfig configures remote speech synthesis.
type RemoteConfig struct {
	Enabled           bool          `yaml:"enabled" env:"ENABLED" envDefault:"true"`
	Endpoint          string        `yaml:"endpoint" env:"ENDPOINT" envDefault:"https://translate.google.com/translate_tts"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT" envDefault:"800ms"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE" envDefault:"50"`

	Cache CacheConfig `yaml:"cache" envPrefix:"CACHE_"`
}

// CacheConfig configures the synthesis cache.
type CacheConfig struct {
	MemoryCapacity   int64  `yaml:"memory_capacity" env:"MEMORY_CAPACITY" envDefault:"16777216"`
	Dir              string `yaml:"dir" env:"DIR"` // empty disables the disk tier
	DiskCapacity     int64  `yaml:"disk_capacity" env:"DISK_CAPACITY" envDefault:"268435456"`
	CompressionLevel int    `yaml:"compression_level" env:"COMPRESSION_LEVEL" envDefault:"3"`
}

// LocalConfig configures the on-device synthesizer.
type LocalConfig struct {
	Command string `yaml:"command" env:"COMMAND"` // empty autodetects
	Voice   string `yaml:"voice" env:"VOICE"`
}

// OutputConfig configures the audio device.
type OutputConfig struct {
	Driver     string `yaml:"driver" env:"DRIVER" envDefault:"oto"`
	SampleRate int    `yaml:"sample_rate" env:"SAMPLE_RATE" envDefault:"44100"`
	BufferSize int    `yaml:"buffer_size" env:"BUFFER_SIZE" envDefault:"8192"`
}

// VolumeConfig holds default gains.
type VolumeConfig struct {
	Effects float64 `yaml:"effects" env:"EFFECTS" envDefault:"1.0"`
	Music   float64 `yaml:"music" env:"MUSIC" envDefault:"0.3"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var cfg Config
	// An empty environment leaves only the envDefault values.
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{},
	}); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Style returns the parsed voice style.
func (c Config) Style() audio.VoiceStyle {
	s, _ := audio.ParseVoiceStyle(c.VoiceStyle)
	return s
}

// Validate checks the configuration and normalizes case-insensitive values.
func (c *Config) Validate() error {
	style, err := audio.ParseVoiceStyle(c.VoiceStyle)
	if err != nil {
		return err
	}
	c.VoiceStyle = style.String()

	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("language cannot be empty")
	}

	if c.Remote.Timeout < 100*time.Millisecond || c.Remote.Timeout > 10*time.Second {
		return fmt.Errorf("remote.timeout must be between 100ms and 10s, got %v", c.Remote.Timeout)
	}
	if c.Remote.RequestsPerMinute < 1 {
		return fmt.Errorf("remote.requests_per_minute must be positive, got %d", c.Remote.RequestsPerMinute)
	}
	if c.Remote.Enabled && c.Remote.Endpoint == "" {
		return fmt.Errorf("remote.endpoint cannot be empty")
	}
	if c.Remote.Cache.MemoryCapacity < 0 || c.Remote.Cache.DiskCapacity < 0 {
		return fmt.Errorf("remote.cache capacities cannot be negative")
	}
	if c.Remote.Cache.CompressionLevel < 0 || c.Remote.Cache.CompressionLevel > 22 {
		return fmt.Errorf("remote.cache.compression_level must be between 0 and 22, got %d", c.Remote.Cache.CompressionLevel)
	}

	c.Output.Driver = strings.ToLower(c.Output.Driver)
	validDrivers := []string{"oto", "null"}
	driverValid := false
	for _, d := range validDrivers {
		if c.Output.Driver == d {
			driverValid = true
			break
		}
	}
	if !driverValid {
		return fmt.Errorf("invalid output driver '%s': must be one of %v", c.Output.Driver, validDrivers)
	}
	if c.Output.SampleRate != 44100 && c.Output.SampleRate != 48000 {
		return fmt.Errorf("invalid sample rate %d: must be 44100 or 48000", c.Output.SampleRate)
	}
	if c.Output.BufferSize < 1 {
		return fmt.Errorf("output.buffer_size must be positive, got %d", c.Output.BufferSize)
	}

	if c.Volume.Effects < 0 || c.Volume.Effects > 1 {
		return fmt.Errorf("volume.effects must be between 0.0 and 1.0, got %f", c.Volume.Effects)
	}
	if c.Volume.Music < 0 || c.Volume.Music > 1 {
		return fmt.Errorf("volume.music must be between 0.0 and 1.0, got %f", c.Volume.Music)
	}

	if c.Assets.Dir == "" && c.Assets.BaseURL == "" {
		return fmt.Errorf("one of assets.dir or assets.base_url is required")
	}
	return nil
}
