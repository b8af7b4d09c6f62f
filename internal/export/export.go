package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/encode"
	"github.com/JPM1118/spritegif/internal/optimize"
	"github.com/JPM1118/spritegif/internal/session"
)

// Filename returns the download name for an export started at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("animation_%d.gif", t.UnixMilli())
}

// Saved describes a written export.
type Saved struct {
	Path     string
	Size     int
	Frames   int
	Started  time.Time
	Finished time.Time
}

// Exporter turns session snapshots into files on disk.
type Exporter struct {
	Encoder   *encode.Adapter
	Optimizer optimize.Optimizer
	OutputDir string
	Now       func() time.Time
}

// New creates an exporter writing generated filenames into dir.
func New(enc *encode.Adapter, opt optimize.Optimizer, dir string) *Exporter {
	if opt == nil {
		opt = optimize.Nop{}
	}
	return &Exporter{
		Encoder:   enc,
		Optimizer: opt,
		OutputDir: dir,
		Now:       time.Now,
	}
}

// Export encodes snap and writes it as animation_<unix-ms>.gif in OutputDir.
func (e *Exporter) Export(ctx context.Context, snap session.Snapshot) (Saved, error) {
	started := e.Now()
	return e.write(ctx, snap, filepath.Join(e.OutputDir, Filename(started)), started)
}

// ExportTo encodes snap and writes it to path.
func (e *Exporter) ExportTo(ctx context.Context, snap session.Snapshot, path string) (Saved, error) {
	return e.write(ctx, snap, path, e.Now())
}

func (e *Exporter) write(ctx context.Context, snap session.Snapshot, path string, started time.Time) (Saved, error) {
	logger := ctxlog.FromContext(ctx)

	if len(snap.Frames) == 0 {
		return Saved{}, fmt.Errorf("export: %w", session.ErrNoSourceImage)
	}

	data, err := e.Encoder.EncodeSnapshot(ctx, snap)
	if err != nil {
		return Saved{}, err
	}

	optimized, err := e.Optimizer.Optimize(ctx, data)
	if err != nil {
		logger.Warn("optimization failed, keeping unoptimized output", slog.Any("error", err))
	} else {
		data = optimized
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Saved{}, fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Saved{}, fmt.Errorf("write %s: %w", path, err)
	}

	saved := Saved{
		Path:     path,
		Size:     len(data),
		Frames:   len(snap.Frames),
		Started:  started,
		Finished: e.Now(),
	}
	logger.Info("export saved", slog.String("path", path), slog.Int("bytes", saved.Size), slog.Int("frames", saved.Frames))
	return saved, nil
}

// FormatSize renders a byte count the way the export banner shows it.
func FormatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
