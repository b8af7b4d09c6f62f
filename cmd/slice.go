package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/render"
)

var sliceDir string

var sliceCmd = &cobra.Command{
	Use:   "slice <image>...",
	Short: "Write each sequenced frame as a PNG",
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
		if err := os.MkdirAll(sliceDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		scale := sess.Params().Scale
		frames := sess.Sequenced()
		for i, fr := range frames {
			path := filepath.Join(sliceDir, fmt.Sprintf("frame_%03d.png", i))
			if err := writePNG(path, render.Scale(fr.Image, scale)); err != nil {
				return err
			}
			ctxlog.FromContext(ctx).Debug("frame written", "path", path, "cell", fr.Index)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames to %s\n", len(frames), sliceDir)
		return nil
	},
}

func init() {
	addPlaybackFlags(sliceCmd)
	sliceCmd.Flags().StringVar(&sliceDir, "out", "frames", "directory to write frames into")
	rootCmd.AddCommand(sliceCmd)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
