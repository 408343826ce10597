package filters

import (
	"context"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
)

// lut maps each 8-bit value of R, G and B independently.
type lut [3][256]uint8

func (l *lut) apply(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: l[0][c.R], G: l[1][c.G], B: l[2][c.B], A: c.A}
	})
}

// applyContrastUpgrade stretches every channel to the full 0..255 range and
// then equalizes its histogram.
func applyContrastUpgrade(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error) {
	img := imaging.Clone(src)

	h := histogram.NewRGBAHistogram(img)
	stretch := stretchLUT(h)
	stretched := stretch.apply(img)
	progress.report(50)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	equalize := equalizeLUT(histogram.NewRGBAHistogram(stretched).Cumulative())
	out := equalize.apply(stretched)
	progress.report(100)
	return out, nil
}

// stretchLUT maps [lo, hi] of each channel linearly onto [0, 255], where lo
// and hi are the lowest and highest occupied bins. Flat channels are left as
// they are.
func stretchLUT(h *histogram.RGBAHistogram) *lut {
	var l lut
	for c, bins := range [][]int{h.R.Bins, h.G.Bins, h.B.Bins} {
		lo, hi := 0, 255
		for lo < 255 && bins[lo] == 0 {
			lo++
		}
		for hi > 0 && bins[hi] == 0 {
			hi--
		}
		for v := 0; v < 256; v++ {
			if hi <= lo {
				l[c][v] = uint8(v)
				continue
			}
			l[c][v] = uint8(clamp((v-lo)*255/(hi-lo), 0, 255))
		}
	}
	return &l
}

// equalizeLUT maps each value to its cumulative share of the pixel count.
// Its output is a fixed point: equalizing an equalized image changes nothing,
// so one pass is enough.
func equalizeLUT(cumulative *histogram.RGBAHistogram) *lut {
	var l lut
	for c, cdf := range [][]int{cumulative.R.Bins, cumulative.G.Bins, cumulative.B.Bins} {
		total := cdf[len(cdf)-1]
		for v := 0; v < 256; v++ {
			if total == 0 {
				l[c][v] = uint8(v)
				continue
			}
			l[c][v] = uint8(clamp(int(int64(cdf[v])*255/int64(total)), 0, 255))
		}
	}
	return &l
}
