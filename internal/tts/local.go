package tts

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sahabat-saleh/suara/internal/audio"
)

// speechKind identifies the command line dialect of a speech program.
type speechKind int

const (
	kindNone speechKind = iota
	kindESpeak
	kindSpdSay
	kindSay
	kindPowerShell
)

// espeakDefaultWPM is espeak's and say's default speaking rate in words per minute.
const espeakDefaultWPM = 175

// LocalConfig holds configuration for the local synthesizer.
type LocalConfig struct {
	// Command overrides speech program detection (e.g. "espeak-ng")
	Command string

	// Voice is passed to programs that accept a voice name
	Voice string

	Logger *log.Logger
}

// Local speaks through the operating system's speech program. It is the
// fallback voice when remote synthesis is unavailable.
type Local struct {
	path   string
	kind   speechKind
	voice  string
	logger *log.Logger

	// run executes the speech program and blocks until it exits.
	run func(ctx context.Context, name string, args ...string) error
}

// NewLocal detects a speech program. The result is usable even when none is
// found; Available then reports false.
func NewLocal(config LocalConfig) *Local {
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	l := &Local{voice: config.Voice, logger: config.Logger, run: runCommand}
	if config.Command != "" {
		if path, err := exec.LookPath(config.Command); err == nil {
			l.path, l.kind = path, kindFor(path)
		} else {
			config.Logger.Warn("configured speech command not found", "command", config.Command, "err", err)
		}
	} else {
		l.path, l.kind = detectSpeechCommand()
	}

	if l.kind == kindNone {
		config.Logger.Debug("no local speech command available")
	} else {
		config.Logger.Debug("local speech command", "path", l.path)
	}
	return l
}

// Available reports whether a speech program was found.
func (l *Local) Available() bool {
	return l.kind != kindNone
}

// Speak runs the speech program and waits for it to finish. Cancelling ctx
// kills the program.
func (l *Local) Speak(ctx context.Context, u audio.Utterance) error {
	if !l.Available() {
		return ErrNoSpeechCommand
	}
	if strings.TrimSpace(u.Text) == "" {
		return ErrEmptyText
	}

	err := l.run(ctx, l.path, l.args(u)...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("local speech failed: %w", err)
	}
	return nil
}

// args builds the argument list for the detected program.
func (l *Local) args(u audio.Utterance) []string {
	rate, pitch := u.Rate, u.Pitch
	if rate <= 0 {
		rate = 1
	}
	if pitch <= 0 {
		pitch = 1
	}
	lang := audio.BaseLanguage(u.Lang)

	switch l.kind {
	case kindESpeak:
		voice := lang
		if l.voice != "" {
			voice = l.voice
		}
		return []string{
			"-v", voice,
			"-s", strconv.Itoa(int(math.Round(espeakDefaultWPM * rate))),
			"-p", strconv.Itoa(clampInt(int(math.Round(50*pitch)), 0, 99)),
			"--", u.Text,
		}
	case kindSpdSay:
		return []string{
			"-w",
			"-l", lang,
			"-r", strconv.Itoa(clampInt(int(math.Round((rate-1)*100)), -100, 100)),
			"-p", strconv.Itoa(clampInt(int(math.Round((pitch-1)*100)), -100, 100)),
			"--", u.Text,
		}
	case kindSay:
		args := []string{"-r", strconv.Itoa(int(math.Round(espeakDefaultWPM * rate)))}
		if l.voice != "" {
			args = append(args, "-v", l.voice)
		}
		return append(args, u.Text)
	case kindPowerShell:
		// System.Speech rates run from -10 to 10 with 0 as normal.
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Speech; "+
				"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; "+
				"$s.Rate = %d; $s.Speak('%s')",
			clampInt(int(math.Round((rate-1)*10)), -10, 10),
			strings.ReplaceAll(u.Text, "'", "''"),
		)
		return []string{"-NoProfile", "-NonInteractive", "-Command", script}
	}
	return nil
}

// detectSpeechCommand finds a speech program for the current platform.
func detectSpeechCommand() (string, speechKind) {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"say"}
	case "linux", "freebsd", "openbsd":
		candidates = []string{"espeak-ng", "espeak", "spd-say"}
	case "windows":
		candidates = []string{"powershell.exe"}
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, kindFor(path)
		}
	}
	return "", kindNone
}

func kindFor(path string) speechKind {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	switch name {
	case "espeak", "espeak-ng":
		return kindESpeak
	case "spd-say":
		return kindSpdSay
	case "say":
		return kindSay
	case "powershell", "pwsh":
		return kindPowerShell
	}
	return kindNone
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
