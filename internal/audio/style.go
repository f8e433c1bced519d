package audio

import (
	"fmt"
	"strings"
)

// VoiceStyle selects how narration and effects sound.
type VoiceStyle int32

const (
	// StyleNormal uses remote speech at a slightly slow, child friendly pace.
	StyleNormal VoiceStyle = iota
	// StyleStylized is the playful chipmunk voice: faster, higher and always
	// produced by the local synthesizer.
	StyleStylized
)

// voiceProfile holds the playback parameters for a style.
type voiceProfile struct {
	effectRate  float64 // playback rate for effects and instructions
	speechRate  float64 // local synthesizer rate
	speechPitch float64 // local synthesizer pitch
}

var profiles = map[VoiceStyle]voiceProfile{
	StyleNormal:   {effectRate: 1.0, speechRate: 0.9, speechPitch: 1.1},
	StyleStylized: {effectRate: 1.25, speechRate: 1.1, speechPitch: 1.6},
}

func (s VoiceStyle) profile() voiceProfile {
	if p, ok := profiles[s]; ok {
		return p
	}
	return profiles[StyleNormal]
}

// String returns the style's configuration name.
func (s VoiceStyle) String() string {
	switch s {
	case StyleNormal:
		return "normal"
	case StyleStylized:
		return "stylized"
	default:
		return fmt.Sprintf("VoiceStyle(%d)", int32(s))
	}
}

// ParseVoiceStyle parses a style name. "chipmunk" is accepted as an alias
// for the stylized voice.
func ParseVoiceStyle(s string) (VoiceStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return StyleNormal, nil
	case "stylized", "chipmunk":
		return StyleStylized, nil
	}
	return StyleNormal, fmt.Errorf("unknown voice style %q (want normal or stylized)", s)
}

// Toggle returns the other style.
func (s VoiceStyle) Toggle() VoiceStyle {
	if s == StyleStylized {
		return StyleNormal
	}
	return StyleStylized
}
