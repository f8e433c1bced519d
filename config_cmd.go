package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
)

const defaultConfig = `# Turn all audio on or off. Applied live while the soundboard runs.
enabled: true
# Voice style: normal or stylized (the chipmunk voice). Applied live.
voice_style: "normal"
# Default narration language
language: "id-ID"
# Log debug messages
debug: false

# Where the game's audio files live
assets:
  dir: "public/audio"
  # base_url: "https://example.com/audio"
  # catalog: "/path/to/catalog.yaml"

# Remote speech synthesis
remote:
  enabled: true
  endpoint: "https://translate.google.com/translate_tts"
  # Give up and use the local voice after this long (100ms to 10s)
  timeout: "800ms"
  requests_per_minute: 50
  cache:
    memory_capacity: 16777216
    # Leave empty to keep synthesized speech in memory only
    # dir: "~/.cache/suara/speech"
    disk_capacity: 268435456
    compression_level: 3

# On-device speech, used when remote synthesis fails
local:
  # Autodetected when empty: espeak-ng, espeak, spd-say, say or PowerShell
  # command: "espeak-ng"
  # voice: "id"

# Audio device
output:
  # oto plays through the sound card, null plays silently
  driver: "oto"
  sample_rate: 44100
  buffer_size: 8192

# Default gains (0.0 to 1.0)
volume:
  effects: 1.0
  music: 0.3
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the suara config file",
	Long:    paragraph(fmt.Sprintf("\n%s the suara config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("suara config\nsuara config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// Editing must work even when the current file does not validate.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		file := configFile
		if file == "" {
			file = defaultConfigFile
		}
		if err := ensureConfigFile(file); err != nil {
			return err
		}

		c, err := editor.Cmd("Suara", file)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", file)
		return nil
	},
}

func ensureConfigFile(file string) error {
	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
