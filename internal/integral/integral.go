package integral

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	// ErrInvalidDimensions is returned when the source image has a
	// non-positive width or height.
	ErrInvalidDimensions = errors.New("invalid image dimensions")

	// ErrOutOfRange is returned when a queried rectangle is not fully
	// contained in the table.
	ErrOutOfRange = errors.New("rectangle out of range")
)

// Channel selects which per-pixel value is accumulated into a Table.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
	// Luma combines R, G and B with integer BT.709 weights.
	Luma
)

// String returns the lowercase channel name.
func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Luma:
		return "luma"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// ParseChannel converts a channel name ("red", "green", "blue", "luma") to a
// Channel.
func ParseChannel(name string) (Channel, error) {
	switch name {
	case "red", "r":
		return Red, nil
	case "green", "g":
		return Green, nil
	case "blue", "b":
		return Blue, nil
	case "luma", "intensity", "gray":
		return Luma, nil
	}
	return 0, fmt.Errorf("unknown channel: %s", name)
}

// Value extracts the channel value from an 8-bit non-premultiplied pixel.
func (c Channel) Value(r, g, b uint8) int64 {
	switch c {
	case Red:
		return int64(r)
	case Green:
		return int64(g)
	case Blue:
		return int64(b)
	case Luma:
		return (2126*int64(r) + 7152*int64(g) + 722*int64(b)) / 10000
	}
	return 0
}

// Table is a summed-area table of one image channel.
type Table struct {
	width  int
	height int
	sums   []int64
}

// Build constructs the summed-area table of channel ch over src.
//
// The source is converted to 8-bit non-premultiplied RGBA first, so any
// image.Image is accepted. Returns ErrInvalidDimensions for empty images.
func Build(src image.Image, ch Channel) (*Table, error) {
	nrgba, err := toNRGBA(src)
	if err != nil {
		return nil, err
	}
	return buildFrom(nrgba, ch), nil
}

// BuildAll constructs one table per colour channel, in R, G, B order.
func BuildAll(src image.Image) ([3]*Table, error) {
	var tables [3]*Table
	nrgba, err := toNRGBA(src)
	if err != nil {
		return tables, err
	}
	for i, ch := range []Channel{Red, Green, Blue} {
		tables[i] = buildFrom(nrgba, ch)
	}
	return tables, nil
}

// FromNRGBA builds a table directly from an origin-anchored NRGBA image
// without copying it. Callers that already hold such an image use this to
// avoid a second conversion.
func FromNRGBA(img *image.NRGBA, ch Channel) (*Table, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	if b.Min != (image.Point{}) {
		return buildFrom(imaging.Clone(img), ch), nil
	}
	return buildFrom(img, ch), nil
}

func toNRGBA(src image.Image) (*image.NRGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidDimensions)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	return imaging.Clone(src), nil
}

// buildFrom runs the single row-major prefix-sum pass. img must be anchored
// at the origin.
func buildFrom(img *image.NRGBA, ch Channel) *Table {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	t := &Table{width: w, height: h, sums: make([]int64, w*h)}

	for y := 0; y < h; y++ {
		var rowSum int64
		pix := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			p := pix[x*4 : x*4+3 : x*4+3]
			rowSum += ch.Value(p[0], p[1], p[2])
			// rowSum + sum(x, y-1) == v + sum(x-1,y) + sum(x,y-1) - sum(x-1,y-1)
			above := int64(0)
			if y > 0 {
				above = t.sums[(y-1)*w+x]
			}
			t.sums[y*w+x] = rowSum + above
		}
	}
	return t
}

// Width returns the table width in pixels.
func (t *Table) Width() int { return t.width }

// Height returns the table height in pixels.
func (t *Table) Height() int { return t.height }

// At returns the prefix sum over (0,0)-(x,y) inclusive. Coordinates outside
// the table on the low side yield 0, which is what inclusion-exclusion needs.
func (t *Table) At(x, y int) int64 {
	if x < 0 || y < 0 {
		return 0
	}
	return t.sums[y*t.width+x]
}

// Sum returns the total over the rectangle [rx, rx+rw) x [ry, ry+rh).
//
// The rectangle must lie inside the table; callers clip it first. A
// rectangle with zero width or height sums to 0.
func (t *Table) Sum(rx, ry, rw, rh int) (int64, error) {
	if rw < 0 || rh < 0 || rx < 0 || ry < 0 || rx+rw > t.width || ry+rh > t.height {
		return 0, fmt.Errorf("%w: (%d,%d) %dx%d in %dx%d table",
			ErrOutOfRange, rx, ry, rw, rh, t.width, t.height)
	}
	if rw == 0 || rh == 0 {
		return 0, nil
	}
	x0, y0 := rx-1, ry-1
	x1, y1 := rx+rw-1, ry+rh-1
	return t.At(x1, y1) - t.At(x0, y1) - t.At(x1, y0) + t.At(x0, y0), nil
}

// SumRect is Sum for an image.Rectangle.
func (t *Table) SumRect(r image.Rectangle) (int64, error) {
	return t.Sum(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// Bounds returns the table extent as an origin-anchored rectangle.
func (t *Table) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.width, t.height)
}
