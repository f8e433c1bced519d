package playback

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/codec"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"48k", Config{SampleRate: 48000, BufferSize: 4096}, false},
		{"unsupported rate", Config{SampleRate: 22050, BufferSize: 4096}, true},
		{"zero buffer", Config{SampleRate: 44100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPCMStream(t *testing.T) {
	t.Run("plays once", func(t *testing.T) {
		s := newPCMStream([]byte{1, 2, 3, 4}, false)
		got, err := io.ReadAll(s)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4}, got)
	})

	t.Run("loops until closed", func(t *testing.T) {
		s := newPCMStream([]byte{1, 2}, true)
		buf := make([]byte, 2)
		for i := 0; i < 3; i++ {
			n, err := s.Read(buf)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, []byte{1, 2}, buf)
		}

		s.Close()
		_, err := s.Read(buf)
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestTrackStopIsIdempotent(t *testing.T) {
	stops := 0
	tr := newTrack(1, 0.5)
	tr.onStop = func() { stops++ }

	tr.Stop()
	tr.Stop()

	assert.Equal(t, 1, stops)
	assert.True(t, tr.finished())
}

func TestTrackVolumeIsClamped(t *testing.T) {
	var applied []float64
	tr := newTrack(1, 3)
	tr.setGain = func(v float64) { applied = append(applied, v) }
	assert.Equal(t, 1.0, tr.Volume())

	tr.SetVolume(-1)
	tr.SetVolume(0.3)

	assert.Equal(t, []float64{0, 0.3}, applied)
	assert.Equal(t, 0.3, tr.Volume())
}

func TestNullTrackFinishes(t *testing.T) {
	n := NewNull(log.New(io.Discard))
	clip := codec.Silence(44100, 40*time.Millisecond)

	tr, err := n.Start(clip, audio.PlayOptions{Rate: 1, Volume: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, n.Active())

	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("track did not finish")
	}
	assert.Zero(t, n.Active())
	assert.Equal(t, 1, n.Started())
}

func TestNullRateShortensPlayback(t *testing.T) {
	n := NewNull(log.New(io.Discard))
	clip := codec.Silence(44100, 400*time.Millisecond)

	start := time.Now()
	tr, err := n.Start(clip, audio.PlayOptions{Rate: 4, Volume: 1})
	require.NoError(t, err)
	<-tr.Done()

	assert.Less(t, time.Since(start), 350*time.Millisecond)
}

func TestNullLoopRunsUntilStopped(t *testing.T) {
	n := NewNull(log.New(io.Discard))
	clip := codec.Silence(44100, 10*time.Millisecond)

	tr, err := n.Start(clip, audio.PlayOptions{Rate: 1, Volume: 0.3, Loop: true})
	require.NoError(t, err)

	select {
	case <-tr.Done():
		t.Fatal("looping track finished on its own")
	case <-time.After(60 * time.Millisecond):
	}

	tr.Stop()
	<-tr.Done()
	assert.Zero(t, n.Active())
}

func TestNullClose(t *testing.T) {
	n := NewNull(log.New(io.Discard))
	clip := codec.Silence(44100, time.Second)

	a, err := n.Start(clip, audio.PlayOptions{Rate: 1, Volume: 1})
	require.NoError(t, err)
	b, err := n.Start(clip, audio.PlayOptions{Rate: 1, Volume: 1, Loop: true})
	require.NoError(t, err)

	require.NoError(t, n.Close())
	<-a.Done()
	<-b.Done()

	_, err = n.Start(clip, audio.PlayOptions{Rate: 1, Volume: 1})
	assert.ErrorIs(t, err, ErrClosed)
}

// getTestDevice opens the sound card or skips when none is present.
// oto permits a single context per process, so the device is shared.
var sharedDevice *Device

func getTestDevice(t *testing.T) *Device {
	t.Helper()
	if sharedDevice != nil {
		return sharedDevice
	}
	d, err := NewDevice(DefaultConfig(), log.New(io.Discard))
	if err != nil {
		t.Skipf("Skipping test: cannot create audio device (no audio device?): %v", err)
	}
	sharedDevice = d
	return d
}

func TestDeviceOverlappingTracks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping audio device test in short mode")
	}
	d := getTestDevice(t)
	clip := codec.Silence(22050, 100*time.Millisecond)

	a, err := d.Start(clip, audio.PlayOptions{Rate: 1, Volume: 0})
	require.NoError(t, err)
	b, err := d.Start(clip, audio.PlayOptions{Rate: 1.25, Volume: 0})
	require.NoError(t, err)

	a.Stop()
	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("second track never finished")
	}
	<-a.Done()
	assert.Zero(t, d.Active())
}
