package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahabat-saleh/suara/internal/audio"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "normal", cfg.VoiceStyle)
	assert.Equal(t, "id-ID", cfg.Language)
	assert.Equal(t, "public/audio", cfg.Assets.Dir)
	assert.Equal(t, 800*time.Millisecond, cfg.Remote.Timeout)
	assert.Equal(t, 50, cfg.Remote.RequestsPerMinute)
	assert.Equal(t, int64(16*1024*1024), cfg.Remote.Cache.MemoryCapacity)
	assert.Equal(t, "oto", cfg.Output.Driver)
	assert.Equal(t, 44100, cfg.Output.SampleRate)
	assert.Equal(t, 0.3, cfg.Volume.Music)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "chipmunk alias", mutate: func(c *Config) { c.VoiceStyle = "Chipmunk" }},
		{name: "upper case driver", mutate: func(c *Config) { c.Output.Driver = "NULL" }},
		{name: "base url only", mutate: func(c *Config) { c.Assets.Dir = ""; c.Assets.BaseURL = "https://game.example/audio" }},
		{name: "bad style", mutate: func(c *Config) { c.VoiceStyle = "robot" }, wantErr: "voice style"},
		{name: "timeout too short", mutate: func(c *Config) { c.Remote.Timeout = 10 * time.Millisecond }, wantErr: "remote.timeout"},
		{name: "timeout too long", mutate: func(c *Config) { c.Remote.Timeout = time.Minute }, wantErr: "remote.timeout"},
		{name: "bad driver", mutate: func(c *Config) { c.Output.Driver = "alsa" }, wantErr: "output driver"},
		{name: "bad sample rate", mutate: func(c *Config) { c.Output.SampleRate = 22050 }, wantErr: "sample rate"},
		{name: "loud effects", mutate: func(c *Config) { c.Volume.Effects = 1.5 }, wantErr: "volume.effects"},
		{name: "negative music", mutate: func(c *Config) { c.Volume.Music = -0.1 }, wantErr: "volume.music"},
		{name: "no assets", mutate: func(c *Config) { c.Assets.Dir = "" }, wantErr: "assets"},
		{name: "no language", mutate: func(c *Config) { c.Language = " " }, wantErr: "language"},
		{name: "compression", mutate: func(c *Config) { c.Remote.Cache.CompressionLevel = 30 }, wantErr: "compression_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := Default()
	cfg.VoiceStyle = "chipmunk"
	cfg.Output.Driver = "Null"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "stylized", cfg.VoiceStyle)
	assert.Equal(t, audio.StyleStylized, cfg.Style())
	assert.Equal(t, "null", cfg.Output.Driver)
}

func TestLoadFromViperFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
enabled: false
voice_style: stylized
remote:
  timeout: 1.5s
  cache:
    dir: /tmp/suara-cache
output:
  driver: "null"
volume:
  music: 0.5
`)))

	cfg, err := LoadFromViper(v)
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, audio.StyleStylized, cfg.Style())
	assert.Equal(t, 1500*time.Millisecond, cfg.Remote.Timeout)
	assert.Equal(t, "/tmp/suara-cache", cfg.Remote.Cache.Dir)
	assert.Equal(t, "null", cfg.Output.Driver)
	assert.Equal(t, 0.5, cfg.Volume.Music)

	// Unset keys keep their defaults.
	assert.Equal(t, "id-ID", cfg.Language)
	assert.Equal(t, 50, cfg.Remote.RequestsPerMinute)
}

func TestLoadFromViperEnv(t *testing.T) {
	t.Setenv("SUARA_REMOTE_TIMEOUT", "2s")
	t.Setenv("SUARA_VOICE_STYLE", "chipmunk")

	v := viper.New()
	v.SetEnvPrefix("suara")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "stylized", cfg.VoiceStyle)
}

func TestLoadFromViperInvalid(t *testing.T) {
	v := viper.New()
	v.Set("output.sample_rate", 8000)

	_, err := LoadFromViper(v)
	assert.ErrorContains(t, err, "invalid configuration")
}
