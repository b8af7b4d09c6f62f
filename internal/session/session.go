package session

import (
	"fmt"
	"math"

	"github.com/JPM1118/spritegif/internal/params"
	"github.com/JPM1118/spritegif/internal/sequence"
	"github.com/JPM1118/spritegif/internal/sheet"
)

// ErrNoSourceImage is returned when an export is requested with no frames.
var ErrNoSourceImage = sheet.ErrNoSourceImage

// Session holds the uploaded spritesheet, the current parameters, and the
// frames derived from them.
//
// Session is an immutable value: every change returns a new Session and
// leaves the receiver untouched. Frame slices are never written after they
// are built, so values may be shared freely.
type Session struct {
	params    params.Playback
	source    *sheet.Source
	frames    []sheet.Frame
	sequenced []sheet.Frame
}

// New creates an empty session with the given parameters.
func New(p params.Playback) (Session, error) {
	if err := p.Validate(); err != nil {
		return Session{}, err
	}
	return Session{params: p}, nil
}

// Params returns the current playback parameters.
func (s Session) Params() params.Playback {
	return s.params
}

// Source returns the current spritesheet, or nil before the first upload.
func (s Session) Source() *sheet.Source {
	return s.source
}

// Frames returns the sliced frames in grid order.
func (s Session) Frames() []sheet.Frame {
	return s.frames
}

// Sequenced returns the frames in playback order.
func (s Session) Sequenced() []sheet.Frame {
	return s.sequenced
}

// HasFrames reports whether anything can be previewed or exported.
func (s Session) HasFrames() bool {
	return len(s.sequenced) > 0
}

// WithSource replaces the spritesheet and re-slices it. On failure the
// receiver is returned unchanged along with the error.
func (s Session) WithSource(src *sheet.Source) (Session, error) {
	frames, err := sheet.Slice(src, s.params.Grid)
	if err != nil {
		return s, err
	}
	s.source = src
	s.frames = frames
	s.sequenced = sequence.Sequence(frames, s.params.Direction)
	return s, nil
}

// WithParams applies a whole new parameter set. Frames are re-sliced only
// when the grid changes and re-sequenced only when the frames or the
// direction change. On failure the receiver is returned unchanged.
func (s Session) WithParams(p params.Playback) (Session, error) {
	if err := p.Validate(); err != nil {
		return s, err
	}

	next := s
	next.params = p

	resliced := false
	if s.source != nil && p.Grid != s.params.Grid {
		frames, err := sheet.Slice(s.source, p.Grid)
		if err != nil {
			return s, err
		}
		next.frames = frames
		resliced = true
	}
	if resliced || p.Direction != s.params.Direction {
		next.sequenced = sequence.Sequence(next.frames, p.Direction)
	}
	return next, nil
}

// Snapshot is everything an export needs, captured at request time.
type Snapshot struct {
	Frames []sheet.Frame
	Params params.Playback
	Width  int
	Height int
}

// Snapshot captures the current sequence and parameters for export.
func (s Session) Snapshot() (Snapshot, error) {
	if !s.HasFrames() {
		return Snapshot{}, fmt.Errorf("export: %w", ErrNoSourceImage)
	}
	w, h := OutputSize(s.sequenced[0].Width(), s.sequenced[0].Height(), s.params.Scale)
	return Snapshot{
		Frames: s.sequenced,
		Params: s.params,
		Width:  w,
		Height: h,
	}, nil
}

// OutputSize scales a cell size, rounding to the nearest pixel and never
// going below 1x1.
func OutputSize(cellW, cellH int, scale float64) (int, int) {
	w := int(math.Round(float64(cellW) * scale))
	h := int(math.Round(float64(cellH) * scale))
	return max(w, 1), max(h, 1)
}
