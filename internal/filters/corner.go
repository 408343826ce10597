package filters

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// CornerDetector finds Harris corners and marks each one on a copy of the
// source with a small diamond.
type CornerDetector struct {
	// K is the Harris sensitivity in det(M) - K*trace(M)^2.
	K float64
	// Threshold is the minimum response kept, on the 0..255 intensity scale.
	Threshold float64
	// Sigma of the Gaussian window that smooths the structure tensor.
	Sigma float64
	// Suppression is the half-width of the non-maximum suppression window.
	Suppression int
	// MarkerColor is a hex colour such as "#FF0000".
	MarkerColor string
}

// NewCornerDetector returns a detector with k=0.05, threshold 20000,
// sigma 1.2, suppression 3 and red markers.
func NewCornerDetector() *CornerDetector {
	return &CornerDetector{
		K:           0.05,
		Threshold:   20000,
		Sigma:       1.2,
		Suppression: 3,
		MarkerColor: "#FF0000",
	}
}

// Name implements ImageFilter.
func (c *CornerDetector) Name() string { return CornerDetect }

// Apply implements ImageFilter.
func (c *CornerDetector) Apply(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error) {
	marker, err := colorful.Hex(c.MarkerColor)
	if err != nil {
		return nil, fmt.Errorf("invalid marker color %q: %w", c.MarkerColor, err)
	}
	corners, err := c.Corners(ctx, src)
	if err != nil {
		return nil, err
	}
	progress.report(50)

	out := imaging.Clone(src)
	progress.report(75)

	r, g, b := marker.RGB255()
	mc := color.NRGBA{R: r, G: g, B: b, A: 255}
	for _, p := range corners {
		drawDiamond(out, p.X, p.Y, mc)
	}
	progress.report(100)
	return out, nil
}

// Corners returns the Harris corner positions of src in origin-anchored
// coordinates, in row-major order.
func (c *CornerDetector) Corners(ctx context.Context, src image.Image) ([]image.Point, error) {
	if err := checkBounds(src); err != nil {
		return nil, err
	}
	gray := toGray(src)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	// Structure tensor entries from Prewitt gradients scaled by 1/6.
	xx := make([]float64, w*h)
	yy := make([]float64, w*h)
	xy := make([]float64, w*h)
	px := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := (px(x+1, y-1) + px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - px(x-1, y) - px(x-1, y+1)) / 6
			gy := (px(x-1, y+1) + px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - px(x, y-1) - px(x+1, y-1)) / 6
			i := y*w + x
			xx[i] = gx * gx
			yy[i] = gy * gy
			xy[i] = gx * gy
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kernel := gaussianKernel1D(c.Sigma)
	xx = separableBlur(xx, w, h, kernel)
	yy = separableBlur(yy, w, h, kernel)
	xy = separableBlur(xy, w, h, kernel)

	response := make([]float64, w*h)
	for i := range response {
		a, bb, cc := xx[i], yy[i], xy[i]
		m := (a*bb - cc*cc) - c.K*(a+bb)*(a+bb)
		if m > c.Threshold {
			response[i] = m
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var corners []image.Point
	r := c.Suppression
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := response[y*w+x]
			if v == 0 || !isLocalMax(response, w, h, x, y, r, v) {
				continue
			}
			corners = append(corners, image.Point{X: x, Y: y})
		}
	}
	return corners, nil
}

// isLocalMax reports whether no pixel within r of (x,y) beats v. Ties are
// broken toward the first pixel in row-major order.
func isLocalMax(resp []float64, w, h, x, y, r int, v float64) bool {
	for ny := clamp(y-r, 0, h-1); ny <= clamp(y+r, 0, h-1); ny++ {
		for nx := clamp(x-r, 0, w-1); nx <= clamp(x+r, 0, w-1); nx++ {
			n := resp[ny*w+nx]
			if n > v {
				return false
			}
			if n == v && (ny < y || (ny == y && nx < x)) {
				return false
			}
		}
	}
	return true
}

// gaussianKernel1D returns a normalized kernel of radius ceil(3*sigma).
func gaussianKernel1D(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	r := int(math.Ceil(3 * sigma))
	k := make([]float64, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+r] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// separableBlur convolves a w x h plane with kernel horizontally then
// vertically, replicating borders.
func separableBlur(plane []float64, w, h int, kernel []float64) []float64 {
	r := len(kernel) / 2
	tmp := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += plane[y*w+clamp(x+k, 0, w-1)] * kernel[k+r]
			}
			tmp[y*w+x] = sum
		}
	}
	out := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += tmp[clamp(y+k, 0, h-1)*w+x] * kernel[k+r]
			}
			out[y*w+x] = sum
		}
	}
	return out
}

// drawDiamond sets the eight pixels at Manhattan distance 2 around (x,y),
// clamped to the image.
func drawDiamond(img *image.NRGBA, x, y int, c color.NRGBA) {
	b := img.Bounds()
	offsets := [8][2]int{
		{-2, 0}, {-1, 1}, {0, 2}, {1, 1},
		{2, 0}, {1, -1}, {0, -2}, {-1, -1},
	}
	for _, o := range offsets {
		px := clamp(x+o[0], b.Min.X, b.Max.X-1)
		py := clamp(y+o[1], b.Min.Y, b.Max.Y-1)
		img.SetNRGBA(px, py, c)
	}
}
