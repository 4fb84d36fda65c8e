// Package cli provides the command-line interface for dragon.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/javanstorm/dragon/internal/config"
)

var (
	// v holds settings bound from flags, environment and settings.yaml.
	v = viper.New()

	settings  *config.Settings
	logger    = slog.New(slog.NewTextHandler(io.Discard, nil))
	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   "dragon",
	Short: "dragon - WSL environments from container images",
	Long: `dragon turns container images into WSL instances and keeps them in sync.

Each environment is declared once with "dragon new". dragon pulls the image,
imports its filesystem as a WSL instance named <name>-<tag> and adds a
Windows Terminal profile that opens it. Later, "dragon update" asks the
registry for the newest tag and "dragon upgrade" moves the environment to it.

Environments are kept in a YAML store (see --config).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip settings for commands that don't need them
		switch cmd.Name() {
		case "version", "completion", "help":
			return nil
		}
		return loadSettings(cmd.ErrOrStderr())
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "environment store file (default: "+defaultStorePath()+")")
	flags.StringP("terminal-settings", "t", "", "Windows Terminal settings.json to register profiles in")
	flags.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	// Flag names use dashes, settings keys use underscores.
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("terminal_settings", flags.Lookup("terminal-settings"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

// loadSettings resolves settings and builds the logger for this invocation.
func loadSettings(logOut io.Writer) error {
	s, err := config.Load(v)
	if err != nil {
		return err
	}
	// An explicitly empty flag value falls back to the default store.
	if s.ConfigPath == "" {
		s.ConfigPath = defaultStorePath()
	}

	level, err := levelFor(verbosity, s.LogLevel)
	if err != nil {
		return err
	}

	settings = s
	logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	logger.Debug("settings loaded", "config", s.ConfigPath, "terminal_settings", s.TerminalSettings)
	return nil
}

// levelFor maps the -v count to a log level. A non-empty override wins.
func levelFor(count int, override string) (slog.Level, error) {
	if override != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(override))); err != nil {
			return 0, fmt.Errorf("invalid log level %q: %w", override, err)
		}
		return level, nil
	}

	switch {
	case count <= 0:
		return slog.LevelWarn, nil
	case count == 1:
		return slog.LevelInfo, nil
	default:
		return slog.LevelDebug, nil
	}
}

func defaultStorePath() string {
	return config.DefaultSettings().ConfigPath
}
