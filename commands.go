package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sahabat-saleh/suara/internal/assets"
	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/tts"
)

// drainTimeout bounds how long a command waits for audio to finish.
const drainTimeout = 2 * time.Minute

var (
	speakCmd = &cobra.Command{
		Use:   "speak TEXT...",
		Short: "Speak a sentence",
		Long: paragraph(fmt.Sprintf("\n%s a sentence with the remote voice, falling back to the local voice when the network is slow or down.", keyword("Speak"))),
		Example: paragraph("suara speak Ayo kita belajar wudu!\nsuara speak --style stylized Hore!\nsuara speak --lang en-US Hello"),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				// The --lang flag already feeds the configured language.
				rt.svc.Speak(strings.Join(args, " "), "")
				return drain(ctx, rt.svc)
			})
		},
	}

	playCmd = &cobra.Command{
		Use:   "play SOURCE...",
		Short: "Play sound effects or instructions",
		Long: paragraph(fmt.Sprintf("\n%s catalog ids, /audio/ paths, file names or URLs. Sources overlap like effects in the game.", keyword("Play"))),
		Example: paragraph("suara play click\nsuara play --instruction susun_gerakan\nsuara play /audio/benar.mp3 hebat\nsuara play --cue correct"),
		Args: func(cmd *cobra.Command, args []string) error {
			if cue, _ := cmd.Flags().GetString("cue"); cue != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			instruction, _ := cmd.Flags().GetBool("instruction")
			cue, _ := cmd.Flags().GetString("cue")
			volume, _ := cmd.Flags().GetFloat64("volume")
			if !cmd.Flags().Changed("volume") {
				volume = cfg.Volume.Effects
			}

			return withService(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				switch {
				case cue != "":
					rt.svc.PlayCue(audio.Cue(cue))
				case instruction:
					for _, source := range args {
						rt.svc.PlayInstruction(source)
					}
				default:
					for _, source := range args {
						rt.svc.PlaySound(source, volume)
					}
				}
				return drain(ctx, rt.svc)
			})
		},
	}

	musicCmd = &cobra.Command{
		Use:   "music SOURCE",
		Short: "Loop background music",
		Long: paragraph(fmt.Sprintf("\n%s background music until interrupted or until --duration has passed.", keyword("Loop"))),
		Example: paragraph("suara music bg_splash\nsuara music --volume 0.5 --duration 30s bg_sound_win"),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volume, _ := cmd.Flags().GetFloat64("volume")
			if !cmd.Flags().Changed("volume") {
				volume = cfg.Volume.Music
			}
			duration, _ := cmd.Flags().GetDuration("duration")

			return withService(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				m := rt.svc.PlayBackgroundMusic(args[0], volume)
				if m == nil {
					return errors.New("audio is disabled")
				}

				var timeout <-chan time.Time
				if duration > 0 {
					timer := time.NewTimer(duration)
					defer timer.Stop()
					timeout = timer.C
				}

				select {
				case <-m.Done():
					return fmt.Errorf("music %s stopped; see the log for the cause", args[0])
				case <-timeout:
				case <-ctx.Done():
				}
				m.Stop()
				return nil
			})
		},
	}

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "List the asset catalog",
		Long: paragraph(fmt.Sprintf("\n%s every phrase, effect and music asset, and whether its file is present.", keyword("List"))),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")
			group, _ := cmd.Flags().GetString("group")
			return printCatalog(cmd.OutOrStdout(), catalog, cfg.Assets.Dir, assets.Kind(kind), group)
		},
	}

	prefetchCmd = &cobra.Command{
		Use:   "prefetch [ID...]",
		Short: "Download catalog phrases into the asset directory",
		Long: paragraph(fmt.Sprintf("\n%s the spoken phrases of the catalog with the remote voice and store them as MP3 files in the asset directory. Existing files are kept unless --force is given.", keyword("Synthesize"))),
		Example: paragraph("suara prefetch\nsuara prefetch --force benar salah"),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			return runPrefetch(cmd.Context(), cmd.OutOrStdout(), args, force, concurrency)
		},
	}
)

func init() {
	playCmd.Flags().Bool("instruction", false, "remember the sources for replay")
	playCmd.Flags().String("cue", "", "play a feedback cue (click, correct or wrong)")
	playCmd.Flags().Float64("volume", 1, "gain between 0 and 1")

	musicCmd.Flags().Float64("volume", audio.DefaultMusicVolume, "gain between 0 and 1")
	musicCmd.Flags().Duration("duration", 0, "stop after this long (0 plays until interrupted)")

	catalogCmd.Flags().String("kind", "", "only list phrase, effect or music entries")
	catalogCmd.Flags().String("group", "", "only list phrases of this group")

	prefetchCmd.Flags().Bool("force", false, "download files that already exist")
	prefetchCmd.Flags().Int("concurrency", 2, "parallel downloads")
}

// withService runs fn with a fresh runtime and always closes it.
func withService(ctx context.Context, fn func(context.Context, *runtime) error) error {
	rt, err := newRuntime(cfg, log.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("Could not release audio", "err", err)
		}
	}()
	return fn(ctx, rt)
}

// drain waits until the service has nothing left to play. An interrupt
// stops playback instead of failing the command.
func drain(ctx context.Context, svc *audio.Service) error {
	wctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	err := svc.Wait(wctx)
	if err != nil && ctx.Err() != nil {
		svc.StopAll()
		return nil
	}
	return err
}

func loadCatalog() (*assets.Catalog, error) {
	if cfg.Assets.Catalog != "" {
		return assets.LoadCatalog(cfg.Assets.Catalog)
	}
	return assets.DefaultCatalog()
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

func printCatalog(w io.Writer, catalog *assets.Catalog, dir string, kind assets.Kind, group string) error {
	var present, missing int
	var total int64

	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-22s %-7s %-9s %9s  %s", "ID", "KIND", "GROUP", "SIZE", "TEXT")))
	for _, e := range catalog.Entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		if group != "" && e.Group != group {
			continue
		}

		size := missingStyle.Render(fmt.Sprintf("%9s", "missing"))
		if dir != "" {
			if fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(e.File))); err == nil {
				size = fmt.Sprintf("%9s", humanize.Bytes(uint64(fi.Size()))) //nolint:gosec
				present++
				total += fi.Size()
			} else {
				missing++
			}
		}

		_, _ = fmt.Fprintf(w, "%-22s %-7s %-9s %s  %s\n", e.ID, e.Kind, e.Group, size, faint(e.Text))
	}

	_, _ = fmt.Fprintf(w, "\n%d present (%s), %d missing in %s\n", present, humanize.Bytes(uint64(total)), missing, dir) //nolint:gosec
	return nil
}

func runPrefetch(ctx context.Context, w io.Writer, ids []string, force bool, concurrency int) error {
	if cfg.Assets.Dir == "" {
		return errors.New("prefetch needs assets.dir")
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	remote, err := tts.NewRemote(tts.RemoteConfig{
		Endpoint:          cfg.Remote.Endpoint,
		RequestsPerMinute: cfg.Remote.RequestsPerMinute,
		Logger:            log.Default().WithPrefix("remote"),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	p := assets.NewPrefetcher(remote, catalog, cfg.Assets.Dir, log.Default().WithPrefix("prefetch"))
	report, err := p.Run(ctx, assets.PrefetchOptions{
		Lang:        audio.BaseLanguage(catalog.Language),
		IDs:         ids,
		Force:       force,
		Concurrency: concurrency,
	})

	_, _ = fmt.Fprintf(w, "%s %d phrases (%s) in %s, %d skipped, %d failed\n",
		keyword("Downloaded"), len(report.Downloaded), humanize.Bytes(uint64(report.Bytes)), //nolint:gosec
		time.Since(start).Round(time.Millisecond), len(report.Skipped), len(report.Failed))
	for id, ferr := range report.Failed {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", missingStyle.Render(id), ferr)
	}

	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d phrases failed", len(report.Failed))
	}
	return nil
}
