package audio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahabat-saleh/suara/internal/audio"
)

func startMusic(t *testing.T, f *fixture, source string, volume float64) *audio.Music {
	t.Helper()
	m := f.svc.PlayBackgroundMusic(source, volume)
	require.NotNil(t, m)
	require.Eventually(t, m.Playing, 2*time.Second, 5*time.Millisecond)
	return m
}

func TestMusicLoopsAtNormalRate(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.output.Hold = true })
	f.svc.SetVoiceStyle(audio.StyleStylized)

	m := startMusic(t, f, "bg_splash", 0.7)

	starts := f.output.Starts()
	require.Len(t, starts, 1)
	assert.Equal(t, audio.PlayOptions{Rate: 1, Volume: 0.7, Loop: true}, starts[0].Options)
	assert.Equal(t, "bg_splash", m.Source())
	assert.NotEmpty(t, m.ID())
	assert.Equal(t, 1, f.svc.Stats().Music)
}

func TestMusicSurvivesStopAll(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.output.Hold = true })

	m := startMusic(t, f, "bg_splash", 0.3)
	track := f.output.Starts()[0].Track

	f.svc.Speak("Ayo mulai!", "id-ID")
	f.svc.PlaySound("click", 1)
	f.svc.StopAll()

	assert.False(t, track.Stopped())
	assert.True(t, m.Playing())
}

func TestMuteStopsMusic(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.output.Hold = true })

	m := startMusic(t, f, "bg_splash", 0.3)
	track := f.output.Starts()[0].Track

	f.svc.SetEnabled(false)

	assert.True(t, track.Stopped())
	assert.False(t, m.Active())
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("music handle never completed")
	}
	assert.Zero(t, f.svc.Stats().Music)
}

func TestStopMusic(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.output.Hold = true })

	a := startMusic(t, f, "bg_sound_win", 0.3)
	b := startMusic(t, f, "bg_sound_lose", 0.3)

	f.svc.StopMusic()

	assert.False(t, a.Active())
	assert.False(t, b.Active())
	for _, s := range f.output.Starts() {
		assert.True(t, s.Track.Stopped())
	}
	assert.True(t, f.svc.Enabled(), "StopMusic does not mute")
}

func TestMusicStopBeforeLoad(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.fetcher.Delay = 50 * time.Millisecond })

	m := f.svc.PlayBackgroundMusic("bg_splash", 0.3)
	require.NotNil(t, m)
	assert.True(t, m.Active())
	assert.False(t, m.Playing())

	m.Stop()
	m.Stop()
	<-m.Done()

	assert.Empty(t, f.output.Starts())
	assert.Zero(t, f.svc.Stats().Music)
}

func TestMusicSetVolume(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.output.Hold = true })

	m := startMusic(t, f, "bg_splash", 0.3)
	m.SetVolume(0.8)
	assert.Equal(t, 0.8, f.output.Starts()[0].Track.Volume())
	assert.Equal(t, 0.8, m.Volume())

	m.SetVolume(2)
	assert.Equal(t, 1.0, m.Volume())
}

func TestMusicLoadFailure(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.fetcher.Assets = map[string][]byte{} })

	m := f.svc.PlayBackgroundMusic("missing", 0.3)
	require.NotNil(t, m)

	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("failed music never completed")
	}
	assert.False(t, m.Active())
	assert.Empty(t, f.output.Starts())
}

func TestMusicStoppedWhileStarting(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, func(f *fixture, _ *audio.Options) {
		f.output.Entered = entered
		f.output.Release = release
	})

	m := f.svc.PlayBackgroundMusic("bg_splash", 0.3)
	require.NotNil(t, m)
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("music never reached the output")
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		m.Stop()
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked while the track was starting")
	}

	close(release)
	<-m.Done()
	starts := f.output.Starts()
	require.Len(t, starts, 1)
	assert.True(t, starts[0].Track.Stopped())
	assert.False(t, m.Playing())
}

func TestMusicVolumeChangedWhileStarting(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, func(f *fixture, _ *audio.Options) {
		f.output.Entered = entered
		f.output.Release = release
	})

	m := f.svc.PlayBackgroundMusic("bg_splash", 0.3)
	require.NotNil(t, m)
	<-entered
	m.SetVolume(0.8)
	close(release)

	require.Eventually(t, m.Playing, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.8, f.output.Starts()[0].Track.Volume())
}
