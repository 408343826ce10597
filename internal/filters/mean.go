package filters

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-filters-mcp/internal/integral"
)

// RadiusPolicy decides how the window radius of each pixel is chosen.
type RadiusPolicy int

const (
	// AdaptiveRadius derives the radius from the pixel's own intensity:
	// darker (nearer) pixels get wider windows.
	AdaptiveRadius RadiusPolicy = iota
	// FixedRadius uses MeanOptions.Radius for every pixel.
	FixedRadius
)

// Normalization selects the divisor applied to a window sum.
type Normalization int

const (
	// DivideByRadiusSquared divides by r*r regardless of clipping. It
	// brightens interior pixels and saturates uniform regions.
	DivideByRadiusSquared Normalization = iota
	// DivideByWindowArea divides by the unclipped window area (2r+1)^2.
	DivideByWindowArea
	// DivideByClippedArea divides by the area actually summed after the
	// window is clipped to the image.
	DivideByClippedArea
)

// ChannelMode selects which sums are produced per pixel.
type ChannelMode int

const (
	// CombinedIntensity sums only the intensity channel and writes the mean
	// to R, G and B alike.
	CombinedIntensity ChannelMode = iota
	// PerChannel sums R, G and B separately and keeps colour.
	PerChannel
)

// ZeroRadiusPolicy decides what a pixel whose radius is 0 becomes.
type ZeroRadiusPolicy int

const (
	// CopySource copies the source pixel verbatim, colour included.
	CopySource ZeroRadiusPolicy = iota
	// ReplicateIntensity writes the intensity value to R, G and B.
	ReplicateIntensity
)

var normalizationNames = [...]string{"radius-squared", "window-area", "clipped-area"}

func (n Normalization) String() string {
	if n < 0 || int(n) >= len(normalizationNames) {
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
	return normalizationNames[n]
}

// ParseNormalization accepts "radius-squared", "window-area" or
// "clipped-area".
func ParseNormalization(s string) (Normalization, error) {
	for i, name := range normalizationNames {
		if name == s {
			return Normalization(i), nil
		}
	}
	return 0, fmt.Errorf("unknown normalization %q", s)
}

func (m ChannelMode) String() string {
	switch m {
	case CombinedIntensity:
		return "combined"
	case PerChannel:
		return "per-channel"
	}
	return fmt.Sprintf("ChannelMode(%d)", int(m))
}

// ParseChannelMode accepts "combined" or "per-channel".
func ParseChannelMode(s string) (ChannelMode, error) {
	switch s {
	case "combined":
		return CombinedIntensity, nil
	case "per-channel":
		return PerChannel, nil
	}
	return 0, fmt.Errorf("unknown channel mode %q", s)
}

func (p ZeroRadiusPolicy) String() string {
	switch p {
	case CopySource:
		return "copy"
	case ReplicateIntensity:
		return "intensity"
	}
	return fmt.Sprintf("ZeroRadiusPolicy(%d)", int(p))
}

// ParseZeroRadiusPolicy accepts "copy" or "intensity".
func ParseZeroRadiusPolicy(s string) (ZeroRadiusPolicy, error) {
	switch s {
	case "copy":
		return CopySource, nil
	case "intensity":
		return ReplicateIntensity, nil
	}
	return 0, fmt.Errorf("unknown zero-radius policy %q", s)
}

// DefaultDepthScale is the maximum-radius factor K of the adaptive filter.
const DefaultDepthScale = 5

// Upper bounds accepted by Validate. They keep k*scale*255 and the window
// arithmetic of clipWindow and divisor within a 32-bit int.
const (
	MaxScale  = 1 << 12
	MaxRadius = 1 << 20
)

// MeanOptions configures a MeanFilter.
type MeanOptions struct {
	RadiusPolicy RadiusPolicy
	// Radius is the window half-width used by FixedRadius.
	Radius int
	// Scale is K in radius = K * (255/minNonZero) * I / 255.
	Scale            int
	Normalization    Normalization
	ChannelMode      ChannelMode
	IntensityChannel integral.Channel
	ZeroRadius       ZeroRadiusPolicy
}

// AdaptiveMeanOptions returns the depth-of-field configuration: adaptive
// radius with K=5 over the red channel, r*r normalization, monochrome output.
func AdaptiveMeanOptions() MeanOptions {
	return MeanOptions{
		RadiusPolicy:     AdaptiveRadius,
		Scale:            DefaultDepthScale,
		Normalization:    DivideByRadiusSquared,
		ChannelMode:      CombinedIntensity,
		IntensityChannel: integral.Red,
		ZeroRadius:       CopySource,
	}
}

// FixedMeanOptions returns the per-channel box blur configuration: radius 2,
// divided by the full window area.
func FixedMeanOptions() MeanOptions {
	return MeanOptions{
		RadiusPolicy:     FixedRadius,
		Radius:           2,
		Normalization:    DivideByWindowArea,
		ChannelMode:      PerChannel,
		IntensityChannel: integral.Red,
		ZeroRadius:       CopySource,
	}
}

// Validate reports the first invalid field.
func (o MeanOptions) Validate() error {
	switch o.RadiusPolicy {
	case AdaptiveRadius:
		if o.Scale < 0 || o.Scale > MaxScale {
			return fmt.Errorf("%w: scale %d", ErrInvalidRadius, o.Scale)
		}
	case FixedRadius:
		if o.Radius < 0 || o.Radius > MaxRadius {
			return fmt.Errorf("%w: %d", ErrInvalidRadius, o.Radius)
		}
	default:
		return fmt.Errorf("unknown radius policy %d", o.RadiusPolicy)
	}
	if o.Normalization < DivideByRadiusSquared || o.Normalization > DivideByClippedArea {
		return fmt.Errorf("unknown normalization %d", o.Normalization)
	}
	if o.ChannelMode != CombinedIntensity && o.ChannelMode != PerChannel {
		return fmt.Errorf("unknown channel mode %d", o.ChannelMode)
	}
	if o.IntensityChannel < integral.Red || o.IntensityChannel > integral.Luma {
		return fmt.Errorf("unknown intensity channel %d", o.IntensityChannel)
	}
	if o.ZeroRadius != CopySource && o.ZeroRadius != ReplicateIntensity {
		return fmt.Errorf("unknown zero-radius policy %d", o.ZeroRadius)
	}
	return nil
}

// MeanFilter is a box filter over summed-area tables whose window radius is
// either fixed or chosen per pixel from the pixel's intensity.
type MeanFilter struct {
	name string
	opts MeanOptions
}

// NewMean validates opts and returns a filter using them. The filter is
// named after its radius policy.
func NewMean(opts MeanOptions) (*MeanFilter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	name := AdaptiveMean
	if opts.RadiusPolicy == FixedRadius {
		name = Mean
	}
	return &MeanFilter{name: name, opts: opts}, nil
}

// Name implements ImageFilter.
func (f *MeanFilter) Name() string { return f.name }

// Options returns the filter configuration.
func (f *MeanFilter) Options() MeanOptions { return f.opts }

// Apply implements ImageFilter.
//
// Progress milestones: 50 after the tables are built, 75 after the radius
// table is ready, 100 on completion. The context is checked once per row.
func (f *MeanFilter) Apply(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error) {
	if err := f.opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkBounds(src); err != nil {
		return nil, err
	}
	img := imaging.Clone(src)
	w, h := img.Rect.Dx(), img.Rect.Dy()

	tables, err := f.buildTables(img)
	if err != nil {
		return nil, fmt.Errorf("failed to build integral image: %w", err)
	}
	progress.report(50)

	radii, err := f.radii(img)
	if err != nil {
		return nil, err
	}
	progress.report(75)

	ch := f.opts.IntensityChannel
	out := image.NewNRGBA(img.Rect)
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			s := img.Pix[i : i+4 : i+4]
			d := out.Pix[i : i+4 : i+4]
			intensity := ch.Value(s[0], s[1], s[2])

			r := radii[intensity]
			if r < 0 {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidRadius, r, x, y)
			}
			if r == 0 {
				f.passthrough(d, s, intensity)
				continue
			}

			win := clipWindow(x, y, r, w, h)
			div := divisor(f.opts.Normalization, r, win)
			for c, t := range tables {
				sum, err := t.SumRect(win)
				if err != nil {
					return nil, err
				}
				v := clampByte(sum / div)
				if f.opts.ChannelMode == CombinedIntensity {
					d[0], d[1], d[2] = v, v, v
					break
				}
				d[c] = v
			}
			d[3] = s[3]
		}
	}

	progress.report(100)
	return out, nil
}

func (f *MeanFilter) buildTables(img *image.NRGBA) ([]*integral.Table, error) {
	if f.opts.ChannelMode == CombinedIntensity {
		t, err := integral.FromNRGBA(img, f.opts.IntensityChannel)
		if err != nil {
			return nil, err
		}
		return []*integral.Table{t}, nil
	}

	tables := make([]*integral.Table, 0, 3)
	for _, ch := range []integral.Channel{integral.Red, integral.Green, integral.Blue} {
		t, err := integral.FromNRGBA(img, ch)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// radii returns the window radius for every possible intensity value.
func (f *MeanFilter) radii(img *image.NRGBA) (*[256]int, error) {
	var table [256]int
	if f.opts.RadiusPolicy == FixedRadius {
		for i := range table {
			table[i] = f.opts.Radius
		}
		return &table, nil
	}

	scale, err := depthScale(img, f.opts.IntensityChannel)
	if err != nil {
		return nil, err
	}
	table = radiusTable(f.opts.Scale, scale)
	return &table, nil
}

func (f *MeanFilter) passthrough(d, s []uint8, intensity int64) {
	if f.opts.ZeroRadius == ReplicateIntensity {
		v := uint8(intensity)
		d[0], d[1], d[2], d[3] = v, v, v, s[3]
		return
	}
	copy(d, s)
}

// depthScale returns 255 / (smallest strictly positive intensity), truncated.
func depthScale(img *image.NRGBA, ch integral.Channel) (int, error) {
	minNonZero := int64(0)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			v := ch.Value(row[x*4], row[x*4+1], row[x*4+2])
			if v > 0 && (minNonZero == 0 || v < minNonZero) {
				minNonZero = v
			}
		}
	}
	if minNonZero == 0 {
		return 0, fmt.Errorf("%w: %s channel", ErrDivideByZero, ch)
	}
	return int(255 / minNonZero), nil
}

// radiusTable computes (k * scale * I) / 255 for every intensity I with a
// single truncating division.
func radiusTable(k, scale int) [256]int {
	var table [256]int
	for i := range table {
		table[i] = k * scale * i / 255
	}
	return table
}

// clipWindow returns the (2r+1)-sided window anchored at (x+1-r, y+1-r),
// clipped against each image edge in turn.
func clipWindow(x, y, r, w, h int) image.Rectangle {
	x0, y0 := x+1-r, y+1-r
	x1, y1 := x0+2*r+1, y0+2*r+1

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return image.Rect(x0, y0, x1, y1)
}

func divisor(n Normalization, r int, win image.Rectangle) int64 {
	switch n {
	case DivideByWindowArea:
		side := int64(2*r + 1)
		return side * side
	case DivideByClippedArea:
		return int64(win.Dx()) * int64(win.Dy())
	}
	return int64(r) * int64(r)
}
