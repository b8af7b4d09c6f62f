package encode

import (
	"errors"
	"image"
)

// ErrEncode marks a failure reported by the codec.
var ErrEncode = errors.New("encode animation")

// DefaultQuality samples every tenth opaque pixel
// when building palettes. 1 samples every pixel.
const DefaultQuality = 10

// Quality bounds. Values outside are clamped.
const (
	MinQuality = 1
	MaxQuality = 30
)

// Options are the global settings a codec is created with.
type Options struct {
	Width     int
	Height    int
	Quality   int
	LoopCount int // 0 loops forever, -1 plays once
}

// Result is the single outcome of a render.
type Result struct {
	Data []byte
	Err  error
}

// Codec is an animation encoder. Frames are added in display order, then
// Render starts encoding and returns a channel that delivers exactly one
// Result and is then closed.
type Codec interface {
	AddFrame(img image.Image, delayMS int) error
	Render() <-chan Result
}

// NewCodecFunc creates a codec for one export.
type NewCodecFunc func(Options) (Codec, error)

func clampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}
