package audio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sahabat-saleh/suara/internal/audio"
)

// TestAtMostOneNarrationAudible issues random Speak sequences, optionally
// followed by StopAll, and checks that only the last narration is left
// playing and that nothing survives a trailing StopAll.
func TestAtMostOneNarrationAudible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := buildFixture(rt, func(f *fixture, _ *audio.Options) { f.output.Hold = true })
		defer f.svc.Close()

		texts := rapid.SliceOfN(rapid.SampledFrom([]string{"wudu", "niat", "sholat", "berbagi", "hebat"}), 1, 8).Draw(rt, "texts")
		stopAfter := rapid.Bool().Draw(rt, "stopAfter")

		for _, text := range texts {
			f.svc.Speak(text, "id-ID")
		}
		if stopAfter {
			f.svc.StopAll()
		}

		want := "tts:" + texts[len(texts)-1]
		require.Eventually(rt, func() bool {
			playing := f.output.Playing()
			if stopAfter {
				return len(playing) == 0 && f.svc.Stats().Sessions == 0
			}
			return len(playing) == 1 && f.decoder.SourceOf(playing[0].Clip) == want
		}, 2*time.Second, 2*time.Millisecond)

		// Give superseded pipelines a moment; none of them may start late.
		time.Sleep(5 * time.Millisecond)
		playing := f.output.Playing()
		require.LessOrEqual(rt, len(playing), 1)
		if !stopAfter {
			require.Equal(rt, want, f.decoder.SourceOf(playing[0].Clip))
		}
	})
}

// TestEffectsNeverOutliveStopAll checks that any mix of effects started
// before StopAll is silent afterwards, whether loaded or still loading.
func TestEffectsNeverOutliveStopAll(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := buildFixture(rt, func(f *fixture, _ *audio.Options) {
			f.output.Hold = true
			f.fetcher.Delay = time.Duration(rapid.IntRange(0, 3).Draw(rt, "delayMs")) * time.Millisecond
		})
		defer f.svc.Close()

		sources := rapid.SliceOfN(rapid.SampledFrom([]string{"click", "correct", "wrong", "benar"}), 1, 6).Draw(rt, "sources")
		for _, s := range sources {
			f.svc.PlaySound(s, 1)
		}
		f.svc.StopAll()

		quiet := make(chan struct{})
		go func() {
			defer close(quiet)
			for f.svc.Stats().Sessions > 0 || len(f.output.Playing()) > 0 {
				time.Sleep(time.Millisecond)
			}
		}()
		select {
		case <-quiet:
		case <-time.After(2 * time.Second):
			rt.Fatalf("effects still playing after StopAll: %d", len(f.output.Playing()))
		}
	})
}
