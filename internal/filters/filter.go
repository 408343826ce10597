package filters

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/image-filters-mcp/internal/integral"
)

// Filter names accepted by New.
const (
	Grayscale         = "grayscale"
	ContrastUpgrade   = "contrast-upgrade"
	EdgeDetect        = "edge-detect"
	CornerDetect      = "corner-detect"
	DistanceTransform = "distance-transform"
	AdaptiveMean      = "adaptive-mean-filter"
	Mean              = "mean-filter"
)

var (
	// ErrDivideByZero is returned by the adaptive mean filter when the
	// intensity channel is zero everywhere, leaving no depth scale.
	ErrDivideByZero = errors.New("intensity channel has no non-zero pixel")

	// ErrInvalidRadius is returned for a negative window radius.
	ErrInvalidRadius = errors.New("invalid radius")

	// ErrUnknownFilter is returned by New for an unrecognized name.
	ErrUnknownFilter = errors.New("unknown filter")
)

// ProgressFunc receives completion percentages at filter-defined milestones.
// It is called synchronously from the goroutine running Apply.
type ProgressFunc func(percent int)

func (p ProgressFunc) report(percent int) {
	if p != nil {
		p(percent)
	}
}

// ImageFilter is a named image-to-image transformation.
//
// Apply never modifies src. It returns a newly allocated image anchored at
// the origin with the same width and height as src.
type ImageFilter interface {
	Name() string
	Apply(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error)
}

type filterFunc struct {
	name string
	fn   func(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error)
}

func (f filterFunc) Name() string { return f.name }

func (f filterFunc) Apply(ctx context.Context, src image.Image, progress ProgressFunc) (image.Image, error) {
	if err := checkBounds(src); err != nil {
		return nil, err
	}
	return f.fn(ctx, src, progress)
}

var registry = []struct {
	name string
	make func() ImageFilter
}{
	{Grayscale, func() ImageFilter { return filterFunc{Grayscale, applyGrayscale} }},
	{ContrastUpgrade, func() ImageFilter { return filterFunc{ContrastUpgrade, applyContrastUpgrade} }},
	{EdgeDetect, func() ImageFilter { return NewEdgeDetector() }},
	{CornerDetect, func() ImageFilter { return NewCornerDetector() }},
	{DistanceTransform, func() ImageFilter { return filterFunc{DistanceTransform, applyDistanceTransform} }},
	{AdaptiveMean, func() ImageFilter { return &MeanFilter{name: AdaptiveMean, opts: AdaptiveMeanOptions()} }},
	{Mean, func() ImageFilter { return &MeanFilter{name: Mean, opts: FixedMeanOptions()} }},
}

// New returns the filter registered under name with its default parameters.
func New(name string) (ImageFilter, error) {
	for _, r := range registry {
		if r.name == name {
			return r.make(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
}

// Names lists every registered filter name in a stable order.
func Names() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.name
	}
	return names
}

func checkBounds(src image.Image) error {
	if src == nil {
		return fmt.Errorf("%w: nil image", integral.ErrInvalidDimensions)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: %dx%d", integral.ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	return nil
}

func clampByte(v int64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
