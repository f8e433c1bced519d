// Package main provides the entry point for the suara CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/sahabat-saleh/suara/internal/config"
	"github.com/sahabat-saleh/suara/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	tracing           bool

	// cfg is loaded by the root command's PersistentPreRunE.
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "suara",
		Short: "Narration, sound effects and music for the Sahabat Saleh games",
		Long: paragraph(
			fmt.Sprintf("\nNarration, sound effects and music for the Sahabat Saleh games. Without a subcommand %s opens the soundboard.", keyword("suara")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if mute, _ := cmd.Flags().GetBool("mute"); mute {
		viper.Set("enabled", false)
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
	}

	var err error
	cfg, err = config.LoadFromViper(viper.GetViper())
	if err != nil {
		return err
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if tracing {
		shutdown, err := setupTracing(os.Stderr)
		if err != nil {
			return err
		}
		cobra.OnFinalize(func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("Could not flush traces", "err", err)
			}
		})
	}
	log.Debug("Configuration loaded", "file", viper.ConfigFileUsed(), "driver", cfg.Output.Driver, "style", cfg.VoiceStyle)
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
		return errors.New("the soundboard needs a terminal; see suara --help for subcommands")
	}
	return runTUI(cmd.Context())
}

func runTUI(ctx context.Context) error {
	closer, err := setupLog()
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	rt, err := newRuntime(cfg, log.Default())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	p := ui.NewProgram(ctx, ui.Config{
		Service:      rt.svc,
		Catalog:      rt.catalog,
		Language:     cfg.Language,
		EffectVolume: cfg.Volume.Effects,
		MusicVolume:  cfg.Volume.Music,
		ConfigFile:   viper.ConfigFileUsed(),
	})

	watchConfig(rt.svc, func() { p.Send(ui.ConfigReloadedMsg{}) })

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.SetOutput(os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	defaults := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigFile))
	flags.BoolVar(&tracing, "trace", false, "write OpenTelemetry spans to stderr")
	flags.Bool("debug", false, "log debug messages")
	flags.String("output", defaults.Output.Driver, "audio output driver (oto or null)")
	flags.String("style", defaults.VoiceStyle, "voice style (normal or stylized)")
	flags.String("lang", defaults.Language, "narration language tag")
	flags.String("assets", defaults.Assets.Dir, "directory holding the game's audio")
	flags.Bool("mute", false, "start with audio disabled")

	// Config bindings
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("output.driver", flags.Lookup("output"))
	_ = viper.BindPFlag("voice_style", flags.Lookup("style"))
	_ = viper.BindPFlag("language", flags.Lookup("lang"))
	_ = viper.BindPFlag("assets.dir", flags.Lookup("assets"))

	rootCmd.AddCommand(configCmd, manCmd, speakCmd, playCmd, musicCmd, catalogCmd, prefetchCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "suara")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "suara")}, dirs...)
	}

	if c := os.Getenv("SUARA_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("suara")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("suara")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		defaultConfigFile = used
		return
	}

	defaultConfigFile = filepath.Join(dirs[0], "suara.yml")
}
