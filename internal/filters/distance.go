package filters

import (
	"context"
	"image"
	"math"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// objectLevel is the luminance at or above which a pixel counts as object.
const objectLevel = 128

// infDistance stands in for "no background seen yet" in the squared
// distance passes.
const infDistance = 1e20

// applyDistanceTransform binarizes src and replaces every object pixel with
// its Euclidean distance to the nearest background pixel, scaled so the
// largest distance becomes 255. Background pixels are 0, as is every pixel
// when the image has no background at all.
func applyDistanceTransform(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error) {
	mask := segment.Threshold(imaging.Clone(src), objectLevel)
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()

	sq := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Pix[y*mask.Stride+x] != 0 {
				sq[y*w+x] = infDistance
			}
		}
	}

	edt := newEDT(w, h)
	edt.columns(sq, w, h)
	progress.report(50)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edt.rows(sq, w, h)
	progress.report(75)

	maxDist := 0.0
	for _, v := range sq {
		if v < infDistance && v > maxDist {
			maxDist = v
		}
	}
	maxDist = math.Sqrt(maxDist)

	out := image.NewGray(image.Rect(0, 0, w, h))
	if maxDist > 0 {
		for i, v := range sq {
			if v >= infDistance {
				continue
			}
			out.Pix[i] = uint8(math.Round(math.Sqrt(v) * 255 / maxDist))
		}
	}

	progress.report(100)
	return out, nil
}

// edt holds the scratch buffers of the Felzenszwalb-Huttenlocher lower
// envelope, sized for the longer image side.
type edt struct {
	f []float64
	d []float64
	v []int
	z []float64
}

func newEDT(w, h int) *edt {
	n := w
	if h > n {
		n = h
	}
	return &edt{
		f: make([]float64, n),
		d: make([]float64, n),
		v: make([]int, n),
		z: make([]float64, n+1),
	}
}

func (e *edt) columns(sq []float64, w, h int) {
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			e.f[y] = sq[y*w+x]
		}
		e.transform(h)
		for y := 0; y < h; y++ {
			sq[y*w+x] = e.d[y]
		}
	}
}

func (e *edt) rows(sq []float64, w, h int) {
	for y := 0; y < h; y++ {
		copy(e.f[:w], sq[y*w:(y+1)*w])
		e.transform(w)
		copy(sq[y*w:(y+1)*w], e.d[:w])
	}
}

// transform computes d[q] = min_p (q-p)^2 + f[p] over the first n samples.
func (e *edt) transform(n int) {
	f, d, v, z := e.f, e.d, e.v, e.z
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for s <= z[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

// intersect returns the x where the parabolas rooted at q and p meet.
func intersect(f []float64, q, p int) float64 {
	return ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*q-2*p)
}
