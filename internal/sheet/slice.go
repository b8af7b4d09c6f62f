package sheet

import (
	"fmt"
	"image"

	"github.com/JPM1118/spritegif/internal/params"
	"golang.org/x/image/draw"
)

// Frame is one cell cut out of a spritesheet. Its pixels are a private copy.
type Frame struct {
	Index  int
	Region image.Rectangle // cell rectangle in source coordinates
	Image  *image.RGBA
}

// Width returns the frame's pixel width.
func (f Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame's pixel height.
func (f Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// CellSize returns the frame size a grid produces for a w x h image.
// Remainder pixels on the right and bottom edges are dropped.
func CellSize(w, h int, grid params.GridSpec) (int, int) {
	return w / grid.Cols, h / grid.Rows
}

// Slice cuts the source into grid.Rows*grid.Cols frames in row-major order.
func Slice(src *Source, grid params.GridSpec) ([]Frame, error) {
	if src == nil || src.Image == nil {
		return nil, ErrNoSourceImage
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	b := src.Image.Bounds()
	cellW, cellH := CellSize(b.Dx(), b.Dy(), grid)
	if cellW == 0 || cellH == 0 {
		return nil, fmt.Errorf("image %dx%d too small for %dx%d grid", b.Dx(), b.Dy(), grid.Rows, grid.Cols)
	}

	frames := make([]Frame, 0, grid.Cells())
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			region := image.Rect(c*cellW, r*cellH, (c+1)*cellW, (r+1)*cellH).Add(b.Min)
			dst := image.NewRGBA(image.Rect(0, 0, cellW, cellH))
			draw.Copy(dst, image.Point{}, src.Image, region, draw.Src, nil)
			frames = append(frames, Frame{
				Index:  r*grid.Cols + c,
				Region: region,
				Image:  dst,
			})
		}
	}
	return frames, nil
}
