package encode

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/params"
	"github.com/JPM1118/spritegif/internal/session"
	"github.com/JPM1118/spritegif/internal/sheet"
	"github.com/disintegration/gift"
)

// Adapter feeds sequenced frames into a codec.
type Adapter struct {
	newCodec NewCodecFunc
	quality  int
}

// NewAdapter creates an adapter around a codec constructor. A nil
// constructor selects the GIF codec.
func NewAdapter(newCodec NewCodecFunc, quality int) *Adapter {
	if newCodec == nil {
		newCodec = NewGIF
	}
	return &Adapter{newCodec: newCodec, quality: clampQuality(quality)}
}

// Quality returns the palette sampling interval passed to codecs.
func (a *Adapter) Quality() int {
	return a.quality
}

// EncodeSnapshot encodes an export snapshot.
func (a *Adapter) EncodeSnapshot(ctx context.Context, snap session.Snapshot) ([]byte, error) {
	return a.Encode(ctx, snap.Frames, snap.Params.Duration, snap.Width, snap.Height, snap.Params.LoopMode)
}

// Encode scales every frame to width x height and submits it to a fresh
// codec in order, each with a delay of round(frameDuration*1000) ms, then
// waits for the codec's single result.
//
// Cancelling ctx stops the wait but not the codec; the render still runs to
// completion in the background.
func (a *Adapter) Encode(ctx context.Context, frames []sheet.Frame, frameDuration float64, width, height int, loop params.LoopMode) ([]byte, error) {
	if len(frames) == 0 {
		return nil, session.ErrNoSourceImage
	}
	if err := params.ValidateDuration(frameDuration); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)

	codec, err := a.newCodec(Options{
		Width:     width,
		Height:    height,
		Quality:   a.quality,
		LoopCount: LoopCount(loop),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	delay := params.Playback{Duration: frameDuration}.DelayMillis()
	resize := gift.New(gift.Resize(width, height, gift.NearestNeighborResampling))

	for i, f := range frames {
		canvas := image.NewRGBA(resize.Bounds(f.Image.Bounds()))
		resize.Draw(canvas, f.Image)
		if err := codec.AddFrame(canvas, delay); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %v", ErrEncode, i, err)
		}
	}
	logger.Debug("frames submitted", slog.Int("frames", len(frames)), slog.Int("delay_ms", delay),
		slog.Int("width", width), slog.Int("height", height))

	results := codec.Render()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-results:
		if !ok {
			return nil, fmt.Errorf("%w: codec closed without a result", ErrEncode)
		}
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, res.Err)
		}
		logger.Info("animation encoded", slog.Int("bytes", len(res.Data)))
		return res.Data, nil
	}
}

// LoopCount maps a loop mode onto the GIF loop count convention.
func LoopCount(m params.LoopMode) int {
	if m == params.LoopOnce {
		return -1
	}
	return 0
}
