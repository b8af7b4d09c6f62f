package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/encode"
	"github.com/JPM1118/spritegif/internal/export"
	"github.com/JPM1118/spritegif/internal/notify"
	"github.com/JPM1118/spritegif/internal/optimize"
	"github.com/JPM1118/spritegif/internal/render"
	"github.com/JPM1118/spritegif/internal/tui"
	"github.com/JPM1118/spritegif/internal/watch"
)

var (
	watchSource bool
	autoplay    bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <image>...",
	Short: "Preview the animation in the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd, args)
	},
}

func init() {
	addPlaybackFlags(previewCmd)
	addPreviewFlags(previewCmd)
	addExportFlags(previewCmd)
	rootCmd.AddCommand(previewCmd)
}

func addPreviewFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&watchSource, "watch", "w", false, "reload the image when the file changes")
	cmd.Flags().BoolVar(&autoplay, "play", false, "start playing as soon as the image is loaded")
}

func runPreview(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal, so logs go to the log file or nowhere.
	ctx, closeLog, err := commandContext(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := ctxlog.FromContext(ctx)

	p, err := resolvePlayback(cmd)
	if err != nil {
		return err
	}
	path, err := acceptSource(ctx, args)
	if err != nil {
		return err
	}

	lossyLevel, err := resolveLossy(cmd)
	if err != nil {
		return err
	}
	opt, err := optimize.Select(resolveOptimize(cmd), cfg.Export.OptimizeLevel, lossyLevel)
	if err != nil {
		logger.Warn("optimization disabled", "err", err)
	}
	exporter := export.New(encode.NewAdapter(nil, resolveQuality(cmd)), opt, resolveOutputDir(cmd))

	var bell *notify.Bell
	if cfg.Notifications.TerminalBell {
		bell = notify.NewBell(os.Stderr, cfg.Notifications.BellDebounce.Duration, notify.KindExported, notify.KindExportFailed)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var updates <-chan watch.Update
	var rescan func()
	if watchSource {
		w := watch.New(path, watch.Config{PollInterval: cfg.Watch.PollInterval.Duration})
		w.Start(ctx)
		updates = w.Updates()
		rescan = w.TriggerNow
	}

	model, err := tui.NewStudio(tui.Options{
		Path:         path,
		Params:       p,
		Exporter:     exporter,
		Surface:      render.NewSurface(os.Stdout),
		Bell:         bell,
		Updates:      updates,
		Rescan:       rescan,
		TickInterval: cfg.Preview.TickInterval.Duration,
		Autoplay:     autoplay,
		Context:      ctx,
	})
	if err != nil {
		return err
	}

	logger.Info("preview started", "path", path, "watch", updates != nil)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}
