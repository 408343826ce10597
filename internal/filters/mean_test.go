package filters

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-filters-mcp/internal/integral"
)

// uniformImage creates a width x height image filled with c.
func uniformImage(t *testing.T, width, height int, c color.NRGBA) *image.NRGBA {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// noiseImage creates an opaque image with pseudo-random channels.
func noiseImage(t *testing.T, width, height int, seed int64) *image.NRGBA {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func applyMean(t *testing.T, opts MeanOptions, src image.Image) *image.NRGBA {
	t.Helper()
	f, err := NewMean(opts)
	if err != nil {
		t.Fatalf("NewMean failed: %v", err)
	}
	out, err := f.Apply(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	nrgba, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("output type: got %T, want *image.NRGBA", out)
	}
	return nrgba
}

// referenceMean computes the filter output pixel by pixel with naive window
// sums and image.Rectangle.Intersect for clipping.
func referenceMean(src *image.NRGBA, opts MeanOptions) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(b)

	var radii [256]int
	if opts.RadiusPolicy == FixedRadius {
		for i := range radii {
			radii[i] = opts.Radius
		}
	} else {
		minNonZero := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := src.NRGBAAt(x, y)
				v := int(opts.IntensityChannel.Value(c.R, c.G, c.B))
				if v > 0 && (minNonZero == 0 || v < minNonZero) {
					minNonZero = v
				}
			}
		}
		scale := 255 / minNonZero
		for i := range radii {
			radii[i] = opts.Scale * scale * i / 255
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.NRGBAAt(x, y)
			intensity := opts.IntensityChannel.Value(c.R, c.G, c.B)
			r := radii[intensity]
			if r == 0 {
				if opts.ZeroRadius == ReplicateIntensity {
					v := uint8(intensity)
					out.SetNRGBA(x, y, color.NRGBA{v, v, v, c.A})
				} else {
					out.SetNRGBA(x, y, c)
				}
				continue
			}

			win := image.Rect(x+1-r, y+1-r, x+2+r, y+2+r).Intersect(b)
			var sums [4]int64
			for wy := win.Min.Y; wy < win.Max.Y; wy++ {
				for wx := win.Min.X; wx < win.Max.X; wx++ {
					p := src.NRGBAAt(wx, wy)
					sums[0] += int64(p.R)
					sums[1] += int64(p.G)
					sums[2] += int64(p.B)
					sums[3] += opts.IntensityChannel.Value(p.R, p.G, p.B)
				}
			}

			var div int64
			switch opts.Normalization {
			case DivideByRadiusSquared:
				div = int64(r * r)
			case DivideByWindowArea:
				div = int64((2*r + 1) * (2*r + 1))
			case DivideByClippedArea:
				div = int64(win.Dx() * win.Dy())
			}

			if opts.ChannelMode == CombinedIntensity {
				v := clampByte(sums[3] / div)
				out.SetNRGBA(x, y, color.NRGBA{v, v, v, c.A})
			} else {
				out.SetNRGBA(x, y, color.NRGBA{
					clampByte(sums[0] / div), clampByte(sums[1] / div), clampByte(sums[2] / div), c.A,
				})
			}
		}
	}
	return out
}

func assertPixel(t *testing.T, img *image.NRGBA, x, y int, want color.NRGBA) {
	t.Helper()
	if got := img.NRGBAAt(x, y); got != want {
		t.Errorf("pixel (%d,%d): got %v, want %v", x, y, got, want)
	}
}

func TestMean_UniformImage(t *testing.T) {
	// R=G=B=100 everywhere: minNonZero=100, depthScale=2, radius=5*2*100/255=3.
	src := uniformImage(t, 10, 10, color.NRGBA{100, 100, 100, 255})

	t.Run("clipped area keeps the image uniform", func(t *testing.T) {
		opts := AdaptiveMeanOptions()
		opts.Normalization = DivideByClippedArea
		out := applyMean(t, opts, src)
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				assertPixel(t, out, x, y, color.NRGBA{100, 100, 100, 255})
			}
		}
	})

	t.Run("radius squared", func(t *testing.T) {
		out := applyMean(t, AdaptiveMeanOptions(), src)
		// Interior: 7x7 window, 4900/9 saturates.
		assertPixel(t, out, 4, 4, color.NRGBA{255, 255, 255, 255})
		// (0,0): window [-2,5) clipped to 5x5, 2500/9 saturates.
		assertPixel(t, out, 0, 0, color.NRGBA{255, 255, 255, 255})
		// (8,8): window [6,10) is 4x4, 1600/9 = 177.
		assertPixel(t, out, 8, 8, color.NRGBA{177, 177, 177, 255})
		// (9,9): window [7,10) is 3x3, 900/9 = 100.
		assertPixel(t, out, 9, 9, color.NRGBA{100, 100, 100, 255})
	})

	t.Run("window area", func(t *testing.T) {
		opts := AdaptiveMeanOptions()
		opts.Normalization = DivideByWindowArea
		out := applyMean(t, opts, src)
		assertPixel(t, out, 4, 4, color.NRGBA{100, 100, 100, 255})
		// 2500/49 = 51
		assertPixel(t, out, 0, 0, color.NRGBA{51, 51, 51, 255})
		// 900/49 = 18
		assertPixel(t, out, 9, 9, color.NRGBA{18, 18, 18, 255})
	})
}

func TestMean_SingleBrightPixel(t *testing.T) {
	// Background has R=0 (radius 0) but carries colour in G and B so the
	// zero-radius policy is observable.
	bg := color.NRGBA{0, 40, 80, 255}
	src := uniformImage(t, 5, 5, bg)
	src.SetNRGBA(2, 2, color.NRGBA{1, 1, 1, 255})

	img := imaging.Clone(src)
	scale, err := depthScale(img, integral.Red)
	if err != nil {
		t.Fatalf("depthScale failed: %v", err)
	}
	if scale != 255 {
		t.Errorf("depthScale: got %d, want 255", scale)
	}
	if r := radiusTable(DefaultDepthScale, scale)[1]; r != 5 {
		t.Errorf("center radius: got %d, want 5", r)
	}

	t.Run("copy source", func(t *testing.T) {
		out := applyMean(t, AdaptiveMeanOptions(), src)
		// Window covers the whole image; red sum 1, divided by 25 -> 0.
		assertPixel(t, out, 2, 2, color.NRGBA{0, 0, 0, 255})
		for _, p := range []image.Point{{0, 0}, {4, 4}, {2, 1}, {3, 2}} {
			assertPixel(t, out, p.X, p.Y, bg)
		}
	})

	t.Run("replicate intensity", func(t *testing.T) {
		opts := AdaptiveMeanOptions()
		opts.ZeroRadius = ReplicateIntensity
		out := applyMean(t, opts, src)
		assertPixel(t, out, 0, 0, color.NRGBA{0, 0, 0, 255})
		assertPixel(t, out, 4, 1, color.NRGBA{0, 0, 0, 255})
	})
}

func TestMean_AllZeroIntensity(t *testing.T) {
	src := uniformImage(t, 4, 4, color.NRGBA{0, 200, 200, 255})

	f, _ := New(AdaptiveMean)
	_, err := f.Apply(context.Background(), src, nil)
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("got error %v, want ErrDivideByZero", err)
	}

	// The fixed-radius variant never computes a depth scale.
	f, _ = New(Mean)
	if _, err := f.Apply(context.Background(), src, nil); err != nil {
		t.Fatalf("fixed radius on zero red channel failed: %v", err)
	}
}

func TestMean_MatchesReference(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MeanOptions)
		base   MeanOptions
	}{
		{"adaptive defaults", func(*MeanOptions) {}, AdaptiveMeanOptions()},
		{"adaptive clipped area", func(o *MeanOptions) { o.Normalization = DivideByClippedArea }, AdaptiveMeanOptions()},
		{"adaptive per channel", func(o *MeanOptions) { o.ChannelMode = PerChannel }, AdaptiveMeanOptions()},
		{"adaptive luma", func(o *MeanOptions) { o.IntensityChannel = integral.Luma; o.Scale = 1 }, AdaptiveMeanOptions()},
		{"fixed defaults", func(*MeanOptions) {}, FixedMeanOptions()},
		{"fixed radius 0", func(o *MeanOptions) { o.Radius = 0 }, FixedMeanOptions()},
		{"fixed radius 4 combined", func(o *MeanOptions) { o.Radius = 4; o.ChannelMode = CombinedIntensity }, FixedMeanOptions()},
	}

	src := noiseImage(t, 23, 17, 99)
	// Leave a few dark pixels so the adaptive depth scale is large.
	src.SetNRGBA(3, 3, color.NRGBA{2, 9, 9, 255})
	src.SetNRGBA(20, 10, color.NRGBA{0, 9, 9, 255})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.base
			tt.mutate(&opts)
			got := applyMean(t, opts, src)
			want := referenceMean(src, opts)
			for y := 0; y < 17; y++ {
				for x := 0; x < 23; x++ {
					if got.NRGBAAt(x, y) != want.NRGBAAt(x, y) {
						t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got.NRGBAAt(x, y), want.NRGBAAt(x, y))
					}
				}
			}
		})
	}
}

func TestMean_DoesNotMutateSource(t *testing.T) {
	src := noiseImage(t, 8, 8, 5)
	before := append([]uint8(nil), src.Pix...)

	applyMean(t, FixedMeanOptions(), src)

	for i := range before {
		if src.Pix[i] != before[i] {
			t.Fatalf("source modified at byte %d", i)
		}
	}
}

func TestMean_Progress(t *testing.T) {
	var got []int
	f, _ := New(AdaptiveMean)
	_, err := f.Apply(context.Background(), noiseImage(t, 6, 6, 1), func(p int) {
		got = append(got, p)
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	want := []int{50, 75, 100}
	if len(got) != len(want) {
		t.Fatalf("milestones: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("milestone %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMean_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, _ := New(Mean)
	_, err := f.Apply(ctx, noiseImage(t, 6, 6, 1), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got error %v, want context.Canceled", err)
	}
}

func TestMean_InvalidInput(t *testing.T) {
	f, _ := New(AdaptiveMean)
	_, err := f.Apply(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 3)), nil)
	if !errors.Is(err, integral.ErrInvalidDimensions) {
		t.Errorf("empty image: got error %v, want ErrInvalidDimensions", err)
	}

	opts := FixedMeanOptions()
	opts.Radius = -1
	if _, err := NewMean(opts); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("negative radius: got error %v, want ErrInvalidRadius", err)
	}

	opts = AdaptiveMeanOptions()
	opts.Scale = -5
	if _, err := NewMean(opts); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("negative scale: got error %v, want ErrInvalidRadius", err)
	}

	opts = AdaptiveMeanOptions()
	opts.Scale = MaxScale + 1
	if _, err := NewMean(opts); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("scale above MaxScale: got error %v, want ErrInvalidRadius", err)
	}

	opts = FixedMeanOptions()
	opts.Radius = MaxRadius + 1
	if _, err := NewMean(opts); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("radius above MaxRadius: got error %v, want ErrInvalidRadius", err)
	}

	opts = AdaptiveMeanOptions()
	opts.Normalization = Normalization(9)
	if _, err := NewMean(opts); err == nil {
		t.Error("expected error for unknown normalization")
	}
}

func TestMean_LargestScale(t *testing.T) {
	opts := AdaptiveMeanOptions()
	opts.Scale = MaxScale
	opts.Normalization = DivideByClippedArea
	f, err := NewMean(opts)
	if err != nil {
		t.Fatalf("NewMean failed: %v", err)
	}

	// min non-zero 1 gives depth scale 255, the widest table Validate allows.
	src := uniformImage(t, 4, 4, color.NRGBA{255, 40, 40, 255})
	src.SetNRGBA(0, 0, color.NRGBA{1, 40, 40, 255})

	table := radiusTable(MaxScale, 255)
	if table[255] <= 0 {
		t.Fatalf("radius for I=255 wrapped to %d", table[255])
	}

	if _, err := f.Apply(context.Background(), src, nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

func TestRadiusTable_Monotonic(t *testing.T) {
	for minNonZero := 1; minNonZero <= 255; minNonZero++ {
		table := radiusTable(DefaultDepthScale, 255/minNonZero)
		for i := 1; i < 256; i++ {
			if table[i] < table[i-1] {
				t.Fatalf("minNonZero=%d: radius(%d)=%d < radius(%d)=%d",
					minNonZero, i, table[i], i-1, table[i-1])
			}
		}
		if table[0] != 0 {
			t.Fatalf("minNonZero=%d: radius(0)=%d, want 0", minNonZero, table[0])
		}
	}
}

func TestRadiusTable_IntegerTruncation(t *testing.T) {
	// minNonZero=7 gives depthScale 36, not 36.43. A floating-point
	// 5*(255/7)*255/255 would yield 182.
	table := radiusTable(5, 255/7)
	if table[255] != 180 {
		t.Errorf("radius(255): got %d, want 180", table[255])
	}
	if table[7] != 4 {
		t.Errorf("radius(7): got %d, want 4", table[7])
	}
}

func TestClipWindow(t *testing.T) {
	const w, h = 12, 9

	for r := 1; r <= 14; r++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				got := clipWindow(x, y, r, w, h)
				want := image.Rect(x+1-r, y+1-r, x+2+r, y+2+r).Intersect(image.Rect(0, 0, w, h))
				if got != want {
					t.Fatalf("clipWindow(%d,%d,r=%d): got %v, want %v", x, y, r, got, want)
				}
				if got.Dx() > w || got.Dy() > h || got.Empty() {
					t.Fatalf("clipWindow(%d,%d,r=%d) = %v exceeds %dx%d or is empty", x, y, r, got, w, h)
				}
				if !(image.Point{x, y}).In(got) {
					t.Fatalf("clipWindow(%d,%d,r=%d) = %v does not contain the pixel", x, y, r, got)
				}
			}
		}
	}
}

func TestDivisor(t *testing.T) {
	win := image.Rect(0, 0, 3, 4)
	tests := []struct {
		n    Normalization
		want int64
	}{
		{DivideByRadiusSquared, 9},
		{DivideByWindowArea, 49},
		{DivideByClippedArea, 12},
	}
	for _, tt := range tests {
		if got := divisor(tt.n, 3, win); got != tt.want {
			t.Errorf("divisor(%d): got %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestParseOptionNames(t *testing.T) {
	for _, n := range []Normalization{DivideByRadiusSquared, DivideByWindowArea, DivideByClippedArea} {
		got, err := ParseNormalization(n.String())
		if err != nil || got != n {
			t.Errorf("ParseNormalization(%q): got %v, %v", n.String(), got, err)
		}
	}
	for _, m := range []ChannelMode{CombinedIntensity, PerChannel} {
		got, err := ParseChannelMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseChannelMode(%q): got %v, %v", m.String(), got, err)
		}
	}
	for _, p := range []ZeroRadiusPolicy{CopySource, ReplicateIntensity} {
		got, err := ParseZeroRadiusPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseZeroRadiusPolicy(%q): got %v, %v", p.String(), got, err)
		}
	}

	if _, err := ParseNormalization("area"); err == nil {
		t.Error("ParseNormalization should reject unknown names")
	}
	if _, err := ParseChannelMode("rgb"); err == nil {
		t.Error("ParseChannelMode should reject unknown names")
	}
	if _, err := ParseZeroRadiusPolicy(""); err == nil {
		t.Error("ParseZeroRadiusPolicy should reject unknown names")
	}
}
