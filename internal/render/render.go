// Package render draws preview frames onto a terminal using half-block
// characters, two pixel rows per text row.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/image/draw"

	"github.com/JPM1118/spritegif/internal/session"
)

const (
	upperHalf = "▀"
	lowerHalf = "▄"

	// alphaCutoff matches the encoder: anything below is drawn as background.
	alphaCutoff = 0x80
)

// Surface renders images as coloured text.
type Surface struct {
	renderer *lipgloss.Renderer
	styles   map[[2]uint32]lipgloss.Style
}

// NewSurface creates a surface that detects the colour profile of out.
func NewSurface(out io.Writer) *Surface {
	return &Surface{
		renderer: lipgloss.NewRenderer(out),
		styles:   make(map[[2]uint32]lipgloss.Style),
	}
}

// NewSurfaceWithProfile creates a surface with a fixed colour profile.
func NewSurfaceWithProfile(p termenv.Profile) *Surface {
	s := NewSurface(io.Discard)
	s.renderer.SetColorProfile(p)
	return s
}

// Scale resizes img by scale using nearest-neighbour sampling.
func Scale(img image.Image, scale float64) *image.RGBA {
	b := img.Bounds()
	w, h := session.OutputSize(b.Dx(), b.Dy(), scale)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Fit returns the largest pixel size with the aspect ratio of w×h that fits
// into cols×rows text cells. Images already small enough keep their size.
func Fit(w, h, cols, rows int) (int, int) {
	maxW, maxH := cols, rows*2
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	fw := float64(maxW) / float64(w)
	fh := float64(maxH) / float64(h)
	f := min(fw, fh)
	return max(int(float64(w)*f), 1), max(int(float64(h)*f), 1)
}

// Frame scales img by scale, shrinks it to fit cols×rows cells when needed,
// and renders it.
func (s *Surface) Frame(img image.Image, scale float64, cols, rows int) string {
	scaled := Scale(img, scale)
	b := scaled.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), cols, rows)
	if w == 0 || h == 0 {
		return ""
	}
	if w != b.Dx() || h != b.Dy() {
		fitted := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.NearestNeighbor.Scale(fitted, fitted.Bounds(), scaled, b, draw.Src, nil)
		scaled = fitted
	}
	return s.HalfBlock(scaled)
}

// HalfBlock renders img with one text row per two pixel rows.
func (s *Surface) HalfBlock(img image.Image) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			top, topOK := opaque(img.At(x, y))
			var bottom color.NRGBA
			bottomOK := false
			if y+1 < b.Max.Y {
				bottom, bottomOK = opaque(img.At(x, y+1))
			}
			sb.WriteString(s.cell(top, topOK, bottom, bottomOK))
		}
	}
	return sb.String()
}

func (s *Surface) cell(top color.NRGBA, topOK bool, bottom color.NRGBA, bottomOK bool) string {
	switch {
	case topOK && bottomOK:
		return s.style(top, bottom, true).Render(upperHalf)
	case topOK:
		return s.style(top, color.NRGBA{}, false).Render(upperHalf)
	case bottomOK:
		return s.style(bottom, color.NRGBA{}, false).Render(lowerHalf)
	default:
		return " "
	}
}

func (s *Surface) style(fg, bg color.NRGBA, withBG bool) lipgloss.Style {
	key := [2]uint32{pack(fg), 0}
	if withBG {
		key[1] = pack(bg) | 1<<24
	}
	if st, ok := s.styles[key]; ok {
		return st
	}
	st := s.renderer.NewStyle().Foreground(lipgloss.Color(hex(fg)))
	if withBG {
		st = st.Background(lipgloss.Color(hex(bg)))
	}
	s.styles[key] = st
	return st
}

func opaque(c color.Color) (color.NRGBA, bool) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n, n.A >= alphaCutoff
}

func pack(c color.NRGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
