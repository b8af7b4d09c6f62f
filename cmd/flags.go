package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/encode"
	"github.com/JPM1118/spritegif/internal/params"
	"github.com/JPM1118/spritegif/internal/session"
	"github.com/JPM1118/spritegif/internal/sheet"
)

// playbackFlags mirror the parameter store. Only flags the user set
// override the config file.
type playbackFlags struct {
	rows      int
	cols      int
	duration  float64
	loop      string
	direction string
	scale     float64
	quality   int
}

var pf playbackFlags

func addPlaybackFlags(cmd *cobra.Command) {
	d := params.Defaults()
	f := cmd.Flags()
	f.IntVar(&pf.rows, "rows", d.Grid.Rows, fmt.Sprintf("grid rows (%d-%d)", params.MinGrid, params.MaxGrid))
	f.IntVar(&pf.cols, "cols", d.Grid.Cols, fmt.Sprintf("grid columns (%d-%d)", params.MinGrid, params.MaxGrid))
	f.Float64Var(&pf.duration, "duration", d.Duration, "seconds per frame (0.1-5.0)")
	f.StringVar(&pf.loop, "loop", string(d.LoopMode), "loop mode (once, infinite)")
	f.StringVar(&pf.direction, "direction", string(d.Direction), "play direction (forward, reverse, pingpong)")
	f.Float64Var(&pf.scale, "scale", d.Scale, "output scale (0.1-2.0)")
	f.IntVar(&pf.quality, "quality", encode.DefaultQuality, fmt.Sprintf("palette sampling stride (%d best, %d fastest)", encode.MinQuality, encode.MaxQuality))
}

// resolvePlayback merges changed flags over the configured defaults.
func resolvePlayback(cmd *cobra.Command) (params.Playback, error) {
	c := cfg.Defaults
	f := cmd.Flags()
	if f.Changed("rows") {
		c.Rows = pf.rows
	}
	if f.Changed("cols") {
		c.Cols = pf.cols
	}
	if f.Changed("duration") {
		c.Duration = pf.duration
	}
	if f.Changed("loop") {
		c.LoopMode = pf.loop
	}
	if f.Changed("direction") {
		c.Direction = pf.direction
	}
	if f.Changed("scale") {
		c.Scale = pf.scale
	}
	merged := cfg
	merged.Defaults = c
	return merged.Playback()
}

func resolveQuality(cmd *cobra.Command) int {
	if cmd.Flags().Changed("quality") {
		return pf.quality
	}
	return cfg.Export.Quality
}

// acceptSource picks the first supported image from args.
func acceptSource(ctx context.Context, args []string) (string, error) {
	path, err := sheet.Accept(args)
	if err != nil {
		return "", err
	}
	for _, a := range args {
		if a == path {
			break
		}
		ctxlog.FromContext(ctx).Debug("skipping unsupported file", "path", a)
	}
	return path, nil
}

// loadSession accepts, decodes and slices the source named by args.
func loadSession(ctx context.Context, cmd *cobra.Command, args []string) (session.Session, error) {
	p, err := resolvePlayback(cmd)
	if err != nil {
		return session.Session{}, err
	}
	path, err := acceptSource(ctx, args)
	if err != nil {
		return session.Session{}, err
	}
	src, err := sheet.Load(path)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := session.New(p)
	if err != nil {
		return session.Session{}, err
	}
	return sess.WithSource(src)
}
