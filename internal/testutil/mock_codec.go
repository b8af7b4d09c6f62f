package testutil

import (
	"image"
	"sync"

	"github.com/JPM1118/spritegif/internal/encode"
)

// AddedFrame is one AddFrame call seen by a RecordingCodec.
type AddedFrame struct {
	Image   image.Image
	DelayMS int
}

// RecordingCodec implements encode.Codec for testing. It records every frame
// and returns Data (or Err) from Render.
type RecordingCodec struct {
	mu       sync.Mutex
	Options  encode.Options
	Frames   []AddedFrame
	Data     []byte
	Err      error
	AddErr   error
	Renders  int
	Withhold bool // close the result channel without a result
	Release  chan struct{}
}

// Factory returns an encode.NewCodecFunc that hands out this codec and
// records the options it was created with.
func (c *RecordingCodec) Factory() encode.NewCodecFunc {
	return func(opts encode.Options) (encode.Codec, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.Options = opts
		return c, nil
	}
}

func (c *RecordingCodec) AddFrame(img image.Image, delayMS int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AddErr != nil {
		return c.AddErr
	}
	c.Frames = append(c.Frames, AddedFrame{Image: img, DelayMS: delayMS})
	return nil
}

func (c *RecordingCodec) Render() <-chan encode.Result {
	c.mu.Lock()
	c.Renders++
	data, err, withhold, release := c.Data, c.Err, c.Withhold, c.Release
	c.mu.Unlock()

	out := make(chan encode.Result, 1)
	go func() {
		defer close(out)
		if release != nil {
			<-release
		}
		if withhold {
			return
		}
		out <- encode.Result{Data: data, Err: err}
	}()
	return out
}

// FrameCount returns the number of frames added in a thread-safe manner.
func (c *RecordingCodec) FrameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Frames)
}
