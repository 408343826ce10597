package filters

import (
	"context"
	"image"
	"math"
)

// EdgeDetector performs Canny edge detection.
//
// The output is an *image.Gray where detected edges are white (255) and
// everything else is black.
//
// # Algorithm
//
//  1. Luminance with BT.709 weights, scaled to 0..1
//  2. 5x5 Gaussian blur (sigma about 1.4) with replicated borders
//  3. Sobel gradients, magnitude and direction
//  4. Non-maximum suppression along the gradient direction
//  5. Hysteresis: pixels at or above High seed edges, which then grow
//     through 8-connected pixels at or above Low
//
// Thresholds are on the 0..255 scale of the gradient magnitude.
type EdgeDetector struct {
	Low  int
	High int
}

// NewEdgeDetector returns a detector with thresholds 25 and 51
// (10% and 20% of full scale, truncated).
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{Low: 255 / 10, High: 255 * 2 / 10}
}

// Name implements ImageFilter.
func (e *EdgeDetector) Name() string { return EdgeDetect }

// Apply implements ImageFilter.
func (e *EdgeDetector) Apply(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error) {
	if err := checkBounds(src); err != nil {
		return nil, err
	}
	g := newGrid(toGray(src))
	w, h := g.w, g.h

	blurred := gaussian5x5(g)
	mag, dir := sobel(blurred)
	progress.report(50)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thin := suppressNonMaxima(mag, dir)
	progress.report(75)

	low := float64(e.Low) / 255.0
	high := float64(e.High) / 255.0
	out := image.NewGray(image.Rect(0, 0, w, h))

	var stack []int
	for i, v := range thin.v {
		if v >= high && out.Pix[i] == 0 {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := ny*w + nx
					if out.Pix[n] == 0 && thin.v[n] >= low {
						out.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	progress.report(100)
	return out, nil
}

// grid is a row-major float image used by the gradient-based detectors.
type grid struct {
	w, h int
	v    []float64
}

func newGrid(gray *image.Gray) *grid {
	b := gray.Bounds()
	g := &grid{w: b.Dx(), h: b.Dy(), v: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			g.v[y*g.w+x] = float64(gray.Pix[y*gray.Stride+x]) / 255.0
		}
	}
	return g
}

// at reads with replicated borders.
func (g *grid) at(x, y int) float64 {
	return g.v[clamp(y, 0, g.h-1)*g.w+clamp(x, 0, g.w-1)]
}

var gaussKernel5 = [5][5]float64{
	{1, 4, 7, 4, 1},
	{4, 16, 26, 16, 4},
	{7, 26, 41, 26, 7},
	{4, 16, 26, 16, 4},
	{1, 4, 7, 4, 1},
}

func gaussian5x5(g *grid) *grid {
	out := &grid{w: g.w, h: g.h, v: make([]float64, len(g.v))}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += g.at(x+kx, y+ky) * gaussKernel5[ky+2][kx+2]
				}
			}
			out.v[y*g.w+x] = sum / 273.0
		}
	}
	return out
}

func sobel(g *grid) (mag, dir *grid) {
	mag = &grid{w: g.w, h: g.h, v: make([]float64, len(g.v))}
	dir = &grid{w: g.w, h: g.h, v: make([]float64, len(g.v))}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			gx := g.at(x+1, y-1) + 2*g.at(x+1, y) + g.at(x+1, y+1) -
				g.at(x-1, y-1) - 2*g.at(x-1, y) - g.at(x-1, y+1)
			gy := g.at(x-1, y+1) + 2*g.at(x, y+1) + g.at(x+1, y+1) -
				g.at(x-1, y-1) - 2*g.at(x, y-1) - g.at(x+1, y-1)
			i := y*g.w + x
			mag.v[i] = math.Hypot(gx, gy)
			dir.v[i] = math.Atan2(gy, gx)
		}
	}
	return mag, dir
}

// suppressNonMaxima keeps a magnitude only where it is a local maximum along
// the gradient direction quantized to 0, 45, 90 or 135 degrees. The outer
// one-pixel border is dropped.
func suppressNonMaxima(mag, dir *grid) *grid {
	out := &grid{w: mag.w, h: mag.h, v: make([]float64, len(mag.v))}
	for y := 1; y < mag.h-1; y++ {
		for x := 1; x < mag.w-1; x++ {
			i := y*mag.w + x
			angle := dir.v[i] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}

			var n1, n2 float64
			switch {
			case angle < 22.5 || angle >= 157.5:
				n1, n2 = mag.v[i-1], mag.v[i+1]
			case angle < 67.5:
				// y grows downward, so +45 degrees points to (x+1, y+1)
				n1, n2 = mag.v[i-mag.w-1], mag.v[i+mag.w+1]
			case angle < 112.5:
				n1, n2 = mag.v[i-mag.w], mag.v[i+mag.w]
			default:
				n1, n2 = mag.v[i-mag.w+1], mag.v[i+mag.w-1]
			}

			if mag.v[i] >= n1 && mag.v[i] >= n2 {
				out.v[i] = mag.v[i]
			}
		}
	}
	return out
}
