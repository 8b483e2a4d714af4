// Package main provides the entry point for manifold, a command line tool that
// fits a circle through the 2-D projection of clustered data and steers points
// around it in the original feature space. Data comes from a synthetic
// generator, a CSV/JSON file, or text embeddings stored in Qdrant.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alDuncanson/manifold/config"
	"github.com/alDuncanson/manifold/metrics"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags, defaults to "dev" for local builds
var version = "dev"

// app carries the resolved configuration to every subcommand.
type app struct {
	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("manifold failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "manifold",
		Short: "Steer points around the circular manifold of clustered data",
		Long: `manifold projects high-dimensional data to the plane (PCA, kernel PCA or
UMAP), fits a circle through the projected cluster centers, and moves points
along that circle by mapping 2-D displacements back into feature space.

Configuration is read from --config (YAML), then MANIFOLD_* environment
variables, then flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human-readable console logs")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "manifold %s\n", version)
		},
	})

	rootCmd.AddCommand(
		a.steerCommand(),
		a.fitCommand(),
		a.viewCommand(),
		a.embedCommand(),
		memoryCommand(),
		convertCommand(),
		bannerCommand(),
	)

	return rootCmd
}

// setup resolves configuration and logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfigOrDefault(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	a.cfg = cfg

	pretty, _ := cmd.Flags().GetBool("log-pretty")
	if err := setupLogging(cfg.LogLevel, pretty); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cmd.Context(), cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server stopped")
			}
		}()
	}

	return nil
}

func setupLogging(level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}

// errNoData is returned when a source yields nothing to work with.
var errNoData = errors.New("no data")
