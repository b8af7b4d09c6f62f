package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"math"
)

// GIF is a Codec producing an animated GIF with a local palette per frame.
type GIF struct {
	opts     Options
	anim     gif.GIF
	rendered bool
}

var _ Codec = (*GIF)(nil)

// NewGIF creates a GIF codec. It satisfies NewCodecFunc.
func NewGIF(opts Options) (Codec, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("gif: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Width > math.MaxUint16 || opts.Height > math.MaxUint16 {
		return nil, fmt.Errorf("gif: size %dx%d exceeds format limit", opts.Width, opts.Height)
	}
	opts.Quality = clampQuality(opts.Quality)
	return &GIF{
		opts: opts,
		anim: gif.GIF{
			LoopCount: opts.LoopCount,
			Config:    image.Config{Width: opts.Width, Height: opts.Height},
		},
	}, nil
}

// AddFrame quantizes img and appends it with the given delay.
func (g *GIF) AddFrame(img image.Image, delayMS int) error {
	if g.rendered {
		return errors.New("gif: frame added after render")
	}
	b := img.Bounds()
	if b.Dx() != g.opts.Width || b.Dy() != g.opts.Height {
		return fmt.Errorf("gif: frame is %dx%d, want %dx%d", b.Dx(), b.Dy(), g.opts.Width, g.opts.Height)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(b)
		draw.Draw(rgba, b, img, b.Min, draw.Src)
	}

	pal := buildPalette(rgba, g.opts.Quality)
	g.anim.Image = append(g.anim.Image, toPaletted(rgba, pal))
	g.anim.Delay = append(g.anim.Delay, centiseconds(delayMS))
	g.anim.Disposal = append(g.anim.Disposal, gif.DisposalBackground)
	return nil
}

// Render encodes the frames in the background.
func (g *GIF) Render() <-chan Result {
	out := make(chan Result, 1)
	if g.rendered {
		out <- Result{Err: errors.New("gif: already rendered")}
		close(out)
		return out
	}
	g.rendered = true

	anim := g.anim
	go func() {
		defer close(out)
		if len(anim.Image) == 0 {
			out <- Result{Err: errors.New("gif: no frames")}
			return
		}
		var buf bytes.Buffer
		if err := gif.EncodeAll(&buf, &anim); err != nil {
			out <- Result{Err: err}
			return
		}
		out <- Result{Data: buf.Bytes()}
	}()
	return out
}

// centiseconds converts a millisecond delay to GIF's 1/100s unit.
func centiseconds(ms int) int {
	return int(math.Round(float64(ms) / 10))
}
