package audio_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/audio/audiotest"
)

func TestPlaySoundUsesStyleRate(t *testing.T) {
	f := newFixture(t)

	f.svc.PlaySound("click", 1)
	f.wait(t)
	f.svc.SetVoiceStyle(audio.StyleStylized)
	f.svc.PlaySound("click", 0.5)
	f.wait(t)

	starts := f.output.Starts()
	require.Len(t, starts, 2)
	assert.Equal(t, audio.PlayOptions{Rate: 1, Volume: 1}, starts[0].Options)
	assert.Equal(t, audio.PlayOptions{Rate: 1.25, Volume: 0.5}, starts[1].Options)
}

func TestPlaySoundClampsVolume(t *testing.T) {
	f := newFixture(t)

	f.svc.PlaySound("loud", 4)
	f.svc.PlaySound("quiet", -1)
	f.wait(t)

	volumes := map[string]float64{}
	for _, s := range f.output.Starts() {
		volumes[f.decoder.SourceOf(s.Clip)] = s.Options.Volume
	}
	assert.Equal(t, map[string]float64{"asset:loud": 1, "asset:quiet": 0}, volumes)
}

func TestEffectsOverlap(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.output.Hold = true })

	f.svc.PlaySound("correct", 1)
	f.svc.PlaySound("bg_sound_win", 0.3)

	require.Eventually(t, func() bool { return len(f.output.Playing()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.svc.Stats().Sessions)
}

func TestPlaySoundSupersedesNarration(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.output.Hold = true })

	f.svc.Speak("Susun gerakan sholat!", "id-ID")
	require.Eventually(t, func() bool { return len(f.output.Playing()) == 1 }, 2*time.Second, 5*time.Millisecond)
	narration := f.output.Starts()[0]

	f.svc.PlaySound("click", 1)
	assert.True(t, narration.Track.Stopped())
	assert.Equal(t, audio.StateIdle, f.svc.NarrationState())

	require.Eventually(t, func() bool {
		playing := f.output.Playing()
		return len(playing) == 1 && f.decoder.SourceOf(playing[0].Clip) == "asset:click"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCacheHitSkipsFetch(t *testing.T) {
	f := newFixture(t)

	f.svc.PlaySound("benar", 1)
	f.wait(t)
	f.svc.PlaySound("benar", 1)
	f.wait(t)

	assert.Equal(t, 1, f.fetcher.Count("benar"))
	assert.Len(t, f.output.Starts(), 2)
	assert.Equal(t, 1, f.svc.Stats().Decoded)
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) { f.fetcher.Delay = 40 * time.Millisecond })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.PlaySound("hijaiyah_alif", 1)
		}()
	}
	wg.Wait()
	f.wait(t)

	assert.Equal(t, 1, f.fetcher.Count("hijaiyah_alif"))
	assert.Len(t, f.output.Starts(), 10)
}

func TestLoadFailureIsDropped(t *testing.T) {
	f := newFixture(t, func(f *fixture, _ *audio.Options) {
		f.fetcher.Assets = map[string][]byte{
			"click":  []byte("click"),
			"broken": audiotest.Corrupt,
		}
	})

	f.svc.PlaySound("missing", 1)
	f.svc.PlaySound("broken", 1)
	f.svc.PlaySound("click", 1)
	f.wait(t)

	assert.Equal(t, []string{"click"}, f.sources(f.output.Starts()))
	assert.Equal(t, 1, f.svc.Stats().Decoded, "failed loads are not cached")

	// A failed load is retried on the next request.
	f.svc.PlaySound("missing", 1)
	f.wait(t)
	assert.Equal(t, 2, f.fetcher.Count("missing"))
}

func TestInstructionReplay(t *testing.T) {
	f := newFixture(t)

	f.svc.PlayInstruction("susun_gerakan")
	f.wait(t)
	assert.Equal(t, "susun_gerakan", f.svc.LastInstruction())

	f.svc.ReplayInstruction()
	f.wait(t)
	f.svc.ReplayInstruction()
	f.wait(t)

	assert.Equal(t, []string{"asset:susun_gerakan", "asset:susun_gerakan", "asset:susun_gerakan"}, f.sources(f.output.Starts()))
	assert.Equal(t, 1, f.fetcher.Count("susun_gerakan"))
}

func TestInstructionSlotIsOverwritten(t *testing.T) {
	f := newFixture(t)

	f.svc.PlayInstruction("pertama")
	f.svc.PlayInstruction("kedua")
	f.wait(t)
	f.svc.ReplayInstruction()
	f.wait(t)

	starts := f.output.Starts()
	require.NotEmpty(t, starts)
	assert.Equal(t, "asset:kedua", f.decoder.SourceOf(starts[len(starts)-1].Clip))
	assert.Equal(t, "kedua", f.svc.Stats().LastInstruction)
}

func TestReplayWithoutInstruction(t *testing.T) {
	f := newFixture(t)

	f.svc.ReplayInstruction()
	f.wait(t)

	assert.Empty(t, f.output.Starts())
	assert.Zero(t, f.fetcher.Total())
}

func TestStopAllKeepsInstruction(t *testing.T) {
	f := newFixture(t)

	f.svc.PlayInstruction("pilih_pakaian")
	f.svc.StopAll()
	f.wait(t)
	f.svc.ReplayInstruction()
	f.wait(t)

	assert.Equal(t, []string{"asset:pilih_pakaian"}, f.sources(f.output.Starts()))
}

func TestPlayCue(t *testing.T) {
	f := newFixture(t, func(_ *fixture, o *audio.Options) {
		o.Cues = map[audio.Cue]string{audio.CueCorrect: "/audio/correct.wav"}
	})

	f.svc.PlayCue(audio.CueCorrect)
	f.svc.PlayCue(audio.CueWrong)
	f.wait(t)

	assert.Equal(t, 1, f.fetcher.Count("/audio/correct.wav"))
	assert.Equal(t, 1, f.fetcher.Count("wrong"))
}
