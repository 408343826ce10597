package filters

import (
	"context"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// BT.709 luminance weights.
const (
	lumaR = 0.2125
	lumaG = 0.7154
	lumaB = 0.0721
)

func applyGrayscale(_ context.Context, src image.Image, progress ProgressFunc) (image.Image, error) {
	gray := toGray(src)
	progress.report(100)
	return gray, nil
}

// toGray converts src to an origin-anchored 8-bit luminance image.
func toGray(src image.Image) *image.Gray {
	rgba := effect.GrayscaleWithWeights(imaging.Clone(src), lumaR, lumaG, lumaB)
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Pix[y*gray.Stride+x] = rgba.Pix[y*rgba.Stride+x*4]
		}
	}
	return gray
}
