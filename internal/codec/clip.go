package codec

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
)

// renderChunk is the number of frames pulled from a streamer per iteration.
const renderChunk = 512

// Clip is a fully decoded audio asset held in memory.
type Clip struct {
	format beep.Format
	buf    *beep.Buffer
}

// NewClip drains s into memory and returns it as a clip.
func NewClip(format beep.Format, s beep.Streamer) (*Clip, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", format.SampleRate)
	}

	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode samples: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("audio contains no samples")
	}

	return &Clip{format: format, buf: buf}, nil
}

// Silence returns a silent clip of the given length. It is mostly useful in
// tests and for the null output driver.
func Silence(sampleRate int, d time.Duration) *Clip {
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 2, Precision: 2}
	n := format.SampleRate.N(d)
	if n < 1 {
		n = 1
	}
	buf := beep.NewBuffer(format)
	buf.Append(beep.Silence(n))
	return &Clip{format: format, buf: buf}
}

// Format returns the clip's native format.
func (c *Clip) Format() beep.Format {
	return c.format
}

// Len returns the number of frames in the clip.
func (c *Clip) Len() int {
	return c.buf.Len()
}

// Duration returns the clip's length at its native rate.
func (c *Clip) Duration() time.Duration {
	return c.format.SampleRate.D(c.buf.Len())
}

// Streamer returns a fresh streamer positioned at the start of the clip.
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buf.Streamer(0, c.buf.Len())
}

// Render converts the clip to interleaved signed 16-bit little endian stereo
// PCM at sampleRate. A speed above 1 shortens the clip and raises its pitch.
func Render(c *Clip, sampleRate int, speed float64) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid output sample rate %d", sampleRate)
	}
	if speed <= 0 {
		return nil, fmt.Errorf("invalid playback speed %v", speed)
	}

	var s beep.Streamer = c.Streamer()
	ratio := float64(c.format.SampleRate) / float64(sampleRate) * speed
	if ratio != 1 {
		s = beep.ResampleRatio(4, ratio, s)
	}

	estimate := int(float64(c.Len())/ratio) + renderChunk
	out := make([]byte, 0, estimate*4)
	samples := make([][2]float64, renderChunk)
	for {
		n, ok := s.Stream(samples)
		for _, frame := range samples[:n] {
			out = appendFrame(out, frame)
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to render clip: %w", err)
	}

	return out, nil
}

func appendFrame(out []byte, frame [2]float64) []byte {
	for _, v := range frame {
		sample := int16(clampUnit(v) * 32767)
		out = append(out, byte(sample), byte(sample>>8))
	}
	return out
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
