package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/encode"
	"github.com/JPM1118/spritegif/internal/export"
	"github.com/JPM1118/spritegif/internal/optimize"
)

var (
	outputFile  string
	outputDir   string
	optimizeGIF bool
	lossy       int
)

var exportCmd = &cobra.Command{
	Use:   "export <image>...",
	Short: "Encode the animation to a GIF file (non-interactive)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, closeLog, err := commandContext(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		sess, err := loadSession(ctx, cmd, args)
		if err != nil {
			return err
		}
		snap, err := sess.Snapshot()
		if err != nil {
			return err
		}

		lossyLevel, err := resolveLossy(cmd)
		if err != nil {
			return err
		}
		opt, err := optimize.Select(resolveOptimize(cmd), cfg.Export.OptimizeLevel, lossyLevel)
		if err != nil {
			return err
		}
		exporter := export.New(encode.NewAdapter(nil, resolveQuality(cmd)), opt, resolveOutputDir(cmd))

		var saved export.Saved
		if outputFile != "" {
			saved, err = exporter.ExportTo(ctx, snap, outputFile)
		} else {
			saved, err = exporter.Export(ctx, snap)
		}
		if err != nil {
			return err
		}

		ctxlog.FromContext(ctx).Debug("export finished",
			"elapsed", saved.Finished.Sub(saved.Started), "quality", exporter.Encoder.Quality())
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %d frames, %dx%d)\n",
			saved.Path, export.FormatSize(saved.Size), saved.Frames, snap.Width, snap.Height)
		return nil
	},
}

func init() {
	addPlaybackFlags(exportCmd)
	addExportFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default animation_<unix-ms>.gif in the output dir)")
	rootCmd.AddCommand(exportCmd)
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "directory for generated file names")
	cmd.Flags().BoolVar(&optimizeGIF, "optimize", false, "shrink the GIF with gifsicle")
	cmd.Flags().IntVar(&lossy, "lossy", 0, fmt.Sprintf("gifsicle lossy compression 0-%d, used with --optimize", optimize.MaxLossy))
}

func resolveOutputDir(cmd *cobra.Command) string {
	if cmd.Flags().Changed("output-dir") {
		return outputDir
	}
	return cfg.Export.OutputDir
}

func resolveLossy(cmd *cobra.Command) (int, error) {
	if !cmd.Flags().Changed("lossy") {
		return cfg.Export.Lossy, nil
	}
	if lossy < 0 || lossy > optimize.MaxLossy {
		return 0, fmt.Errorf("--lossy must be between 0 and %d, got %d", optimize.MaxLossy, lossy)
	}
	return lossy, nil
}

func resolveOptimize(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("optimize") {
		return optimizeGIF
	}
	return cfg.Export.Optimize
}
