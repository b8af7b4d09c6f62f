package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/JPM1118/spritegif/internal/config"
	"github.com/JPM1118/spritegif/internal/ctxlog"
)

var (
	configPath string
	logLevel   string
	logFile    string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "spritegif [image]...",
	Short: "spritegif turns spritesheets into animated GIFs",
	Long: `spritegif slices a spritesheet into a rows x cols grid of frames,
previews the animation in the terminal and exports it as a GIF.

Run with an image to open the interactive preview.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFrom(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.Logging.File = logFile
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runPreview(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file")
	addPlaybackFlags(rootCmd)
	addPreviewFlags(rootCmd)
	addExportFlags(rootCmd)
}

// Execute runs the root command with a context cancelled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// newLogger builds the command logger. Output goes to the configured log
// file, or to fallback when none is set. The returned close func is never nil.
func newLogger(fallback io.Writer) (*slog.Logger, func() error, error) {
	w := fallback
	closeFn := func() error { return nil }
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, f.Close
	}
	logger, err := ctxlog.New(w, cfg.Logging.Level)
	if err != nil {
		closeFn()
		return nil, func() error { return nil }, err
	}
	return logger, closeFn, nil
}

// commandContext attaches a logger to the command's context.
func commandContext(cmd *cobra.Command, fallback io.Writer) (context.Context, func() error, error) {
	logger, closeFn, err := newLogger(fallback)
	if err != nil {
		return nil, closeFn, err
	}
	return ctxlog.WithLogger(cmd.Context(), logger), closeFn, nil
}
