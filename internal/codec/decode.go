package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/hajimehoshi/go-mp3"
)

// Container identifies an encoded audio format.
type Container string

const (
	ContainerUnknown Container = ""
	ContainerMP3     Container = "mp3"
	ContainerWAV     Container = "wav"
)

// ErrUnknownFormat is returned when the data is neither MP3 nor WAV.
var ErrUnknownFormat = errors.New("unrecognised audio format")

// Sniff inspects the leading bytes of data and reports its container.
func Sniff(data []byte) Container {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return ContainerWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ContainerMP3
	}
	return ContainerUnknown
}

// Decoder decodes encoded audio by sniffing its container.
type Decoder struct{}

// Decode decodes MP3 or WAV data into a clip.
func (Decoder) Decode(data []byte) (*Clip, error) {
	switch Sniff(data) {
	case ContainerMP3:
		return DecodeMP3(data)
	case ContainerWAV:
		return DecodeWAV(data)
	}
	return nil, ErrUnknownFormat
}

// DecodeMP3 decodes MPEG audio. go-mp3 always yields 16-bit stereo.
func DecodeMP3(data []byte) (*Clip, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}

	format := beep.Format{SampleRate: beep.SampleRate(d.SampleRate()), NumChannels: 2, Precision: 2}
	return NewClip(format, &pcmStreamer{data: pcm})
}

// DecodeWAV decodes a RIFF/WAVE file.
func DecodeWAV(data []byte) (*Clip, error) {
	s, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open wav stream: %w", err)
	}
	defer s.Close()

	return NewClip(format, s)
}

// pcmStreamer reads interleaved signed 16-bit little endian stereo frames.
type pcmStreamer struct {
	data []byte
	pos  int
}

func (p *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	const frameSize = 4
	for n < len(samples) && p.pos+frameSize <= len(p.data) {
		l := int16(uint16(p.data[p.pos]) | uint16(p.data[p.pos+1])<<8)
		r := int16(uint16(p.data[p.pos+2]) | uint16(p.data[p.pos+3])<<8)
		samples[n][0] = float64(l) / 32768
		samples[n][1] = float64(r) / 32768
		p.pos += frameSize
		n++
	}
	return n, n > 0
}

func (p *pcmStreamer) Err() error {
	return nil
}
