package sheet

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/JPM1118/spritegif/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridImage paints each w/cols x h/rows cell a distinct colour so frames can
// be identified after slicing.
func gridImage(w, h, rows, cols int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	cellW, cellH := w/cols, h/rows
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c, r := x/max(cellW, 1), y/max(cellH, 1)
			img.Set(x, y, cellColor(r*cols+c))
		}
	}
	return img
}

func cellColor(i int) color.RGBA {
	return color.RGBA{R: uint8(10 + i*20), G: uint8(200 - i*10), B: uint8(i * 7), A: 255}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSlice_CountAndSize(t *testing.T) {
	tests := []struct {
		w, h, rows, cols int
	}{
		{400, 400, 2, 2},
		{100, 60, 3, 5},
		{101, 67, 4, 4}, // remainder pixels dropped
		{8, 8, 8, 8},
		{30, 20, 1, 1},
	}
	for _, tt := range tests {
		src := &Source{Image: gridImage(tt.w, tt.h, tt.rows, tt.cols)}
		frames, err := Slice(src, params.GridSpec{Rows: tt.rows, Cols: tt.cols})
		require.NoError(t, err)
		require.Len(t, frames, tt.rows*tt.cols)

		cellW, cellH := tt.w/tt.cols, tt.h/tt.rows
		for k, f := range frames {
			assert.Equal(t, k, f.Index)
			assert.Equal(t, cellW, f.Width())
			assert.Equal(t, cellH, f.Height())
			assert.Equal(t, image.Pt((k%tt.cols)*cellW, (k/tt.cols)*cellH), f.Region.Min)
		}
	}
}

func TestSlice_RowMajorPixels(t *testing.T) {
	src := &Source{Image: gridImage(90, 60, 2, 3)}
	frames, err := Slice(src, params.GridSpec{Rows: 2, Cols: 3})
	require.NoError(t, err)

	for k, f := range frames {
		assert.Equal(t, cellColor(k), f.Image.RGBAAt(0, 0), "frame %d top-left", k)
		assert.Equal(t, cellColor(k), f.Image.RGBAAt(f.Width()-1, f.Height()-1), "frame %d bottom-right", k)
	}
}

func TestSlice_FramesDoNotAlias(t *testing.T) {
	src := &Source{Image: gridImage(20, 20, 2, 2)}
	frames, err := Slice(src, params.GridSpec{Rows: 2, Cols: 2})
	require.NoError(t, err)

	frames[0].Image.Set(0, 0, color.RGBA{A: 255})
	assert.Equal(t, cellColor(1), frames[1].Image.RGBAAt(0, 0))

	again, err := Slice(src, params.GridSpec{Rows: 2, Cols: 2})
	require.NoError(t, err)
	assert.Equal(t, cellColor(0), again[0].Image.RGBAAt(0, 0), "source must not be modified through a frame")
}

func TestSlice_OffsetBounds(t *testing.T) {
	base := gridImage(40, 40, 2, 2)
	sub := base.SubImage(image.Rect(20, 20, 40, 40))
	frames, err := Slice(&Source{Image: sub}, params.GridSpec{Rows: 1, Cols: 1})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, cellColor(3), frames[0].Image.RGBAAt(0, 0))
}

func TestSlice_Errors(t *testing.T) {
	_, err := Slice(nil, params.GridSpec{Rows: 1, Cols: 1})
	assert.True(t, errors.Is(err, ErrNoSourceImage))

	src := &Source{Image: gridImage(4, 4, 1, 1)}
	_, err = Slice(src, params.GridSpec{Rows: 0, Cols: 1})
	assert.True(t, errors.Is(err, params.ErrOutOfRange))

	_, err = Slice(src, params.GridSpec{Rows: 8, Cols: 8})
	assert.Error(t, err, "4x4 image cannot produce 8x8 cells")
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"single png", []string{"sheet.png"}, "sheet.png"},
		{"skips unsupported", []string{"notes.txt", "anim.bmp", "walk.WEBP"}, "walk.WEBP"},
		{"first accepted wins", []string{"a.jpg", "b.png"}, "a.jpg"},
		{"jpeg and gif", []string{"x.svg", "y.jpeg"}, "y.jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accept(tt.paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Accept([]string{"readme.md", "clip.mp4"})
	assert.ErrorIs(t, err, ErrNoSourceImage)
}

func TestDecode(t *testing.T) {
	src, err := Decode(encodePNG(t, gridImage(16, 8, 1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "png", src.Format)
	assert.Equal(t, 16, src.Width())
	assert.Equal(t, 8, src.Height())

	_, err = Decode([]byte("this is not an image"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, gridImage(40, 20, 1, 2)), 0644))

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Path)
	assert.Equal(t, 40, src.Width())

	bad := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Load(filepath.Join(dir, "sheet.bmp"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
