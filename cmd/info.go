package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JPM1118/spritegif/internal/encode"
	"github.com/JPM1118/spritegif/internal/sequence"
	"github.com/JPM1118/spritegif/internal/sheet"
)

var infoCmd = &cobra.Command{
	Use:   "info <image>...",
	Short: "Print how the image will be sliced and encoded (non-interactive)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, closeLog, err := commandContext(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		sess, err := loadSession(ctx, cmd, args)
		if err != nil {
			return err
		}
		src := sess.Source()
		p := sess.Params()
		snap, err := sess.Snapshot()
		if err != nil {
			return err
		}
		cw, ch := sheet.CellSize(src.Width(), src.Height(), p.Grid)

		order := make([]string, 0, len(snap.Frames))
		for _, f := range snap.Frames {
			order = append(order, strconv.Itoa(f.Index))
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tVALUE")
		fmt.Fprintln(w, "─────\t─────")
		fmt.Fprintf(w, "source\t%s (%s)\n", filepath.Base(src.Path), src.Format)
		fmt.Fprintf(w, "size\t%dx%d\n", src.Width(), src.Height())
		fmt.Fprintf(w, "grid\t%d rows x %d cols\n", p.Grid.Rows, p.Grid.Cols)
		fmt.Fprintf(w, "cell\t%dx%d\n", cw, ch)
		fmt.Fprintf(w, "direction\t%s\n", p.Direction)
		fmt.Fprintf(w, "sequence\t%s\n", strings.Join(order, " "))
		fmt.Fprintf(w, "frames\t%d cells, %d played\n", p.Grid.Cells(), sequence.Len(p.Grid.Cells(), p.Direction))
		fmt.Fprintf(w, "delay\t%dms\n", p.DelayMillis())
		fmt.Fprintf(w, "loop\t%s (gif loop count %d)\n", p.LoopMode, encode.LoopCount(p.LoopMode))
		fmt.Fprintf(w, "output\t%dx%d at %.1fx\n", snap.Width, snap.Height, p.Scale)
		return w.Flush()
	},
}

func init() {
	addPlaybackFlags(infoCmd)
	rootCmd.AddCommand(infoCmd)
}
