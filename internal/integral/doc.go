// Package integral builds summed-area tables (integral images) over the
// channels of an image.
//
// A Table holds, for every pixel (x, y), the sum of the selected channel
// over the rectangle from (0,0) to (x,y) inclusive. Once built, the sum over
// any axis-aligned rectangle inside the image is answered with four lookups,
// independent of the rectangle's size.
//
// # Coordinate System
//
// Coordinates are 0-based with (0,0) at the top-left corner of the source
// image's bounds. Rectangles passed to Sum are given as an anchor (rx, ry)
// plus a width and height; the anchor is inclusive and the far edges are
// exclusive, matching image.Rectangle.
//
// # Storage
//
// Entries are int64. A table over 8-bit values cannot overflow below roughly
// 3.6e16 pixels.
//
// # Thread Safety
//
// A Table is read-only after Build returns and may be queried concurrently.
package integral
