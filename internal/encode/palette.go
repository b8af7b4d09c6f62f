package encode

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// alphaThreshold is the alpha below which a pixel is written as transparent.
const alphaThreshold = 128

var quantizer = quantize.MedianCutQuantizer{Aggregation: quantize.Mean}

// unpremultiply converts one premultiplied RGBA pixel to straight alpha.
func unpremultiply(pix []uint8) ([3]uint8, uint8) {
	a := pix[3]
	if a == 0 {
		return [3]uint8{}, 0
	}
	if a == 255 {
		return [3]uint8{pix[0], pix[1], pix[2]}, a
	}
	return [3]uint8{
		uint8(uint16(pix[0]) * 255 / uint16(a)),
		uint8(uint16(pix[1]) * 255 / uint16(a)),
		uint8(uint16(pix[2]) * 255 / uint16(a)),
	}, a
}

// opaqueSample collects every stride-th opaque pixel into a one-row image.
// Stepping over opaque pixels only means a frame with any visible pixel
// always contributes at least one colour. It also reports whether img has
// any pixel below alphaThreshold.
func opaqueSample(img *image.RGBA, stride int) (*image.NRGBA, bool) {
	stride = max(stride, 1)
	var colors []color.NRGBA
	transparent := false
	seen := 0

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := img.PixOffset(x, y)
			rgb, a := unpremultiply(img.Pix[off : off+4])
			if a < alphaThreshold {
				transparent = true
				continue
			}
			if seen%stride == 0 {
				colors = append(colors, color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
			}
			seen++
		}
	}
	if len(colors) == 0 {
		return nil, transparent
	}

	sample := image.NewNRGBA(image.Rect(0, 0, len(colors), 1))
	for i, c := range colors {
		sample.SetNRGBA(i, 0, c)
	}
	return sample, transparent
}

// buildPalette quantizes a stride-sampled view of img with median cut. When
// any pixel is below alphaThreshold, index 0 is reserved for full
// transparency.
func buildPalette(img *image.RGBA, stride int) color.Palette {
	sample, transparent := opaqueSample(img, stride)

	pal := make(color.Palette, 0, 256)
	if transparent {
		pal = append(pal, color.RGBA{})
	}
	if sample == nil {
		if len(pal) == 0 {
			pal = append(pal, color.RGBA{A: 255})
		}
		return pal
	}
	return quantizer.Quantize(pal, sample)
}

// toPaletted maps every pixel onto pal. Pixels below alphaThreshold use the
// transparent entry at index 0 when the palette has one.
func toPaletted(img *image.RGBA, pal color.Palette) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)

	_, _, _, a0 := pal[0].RGBA()
	hasClear := a0 == 0
	opaque := pal
	offset := 0
	if hasClear && len(pal) > 1 {
		opaque = pal[1:]
		offset = 1
	}

	cache := make(map[[3]uint8]uint8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgb, a := unpremultiply(img.Pix[img.PixOffset(x, y) : img.PixOffset(x, y)+4])
			dst := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			if a < alphaThreshold && hasClear {
				out.Pix[dst] = 0
				continue
			}
			idx, ok := cache[rgb]
			if !ok {
				idx = uint8(opaque.Index(color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}) + offset)
				cache[rgb] = idx
			}
			out.Pix[dst] = idx
		}
	}
	return out
}
