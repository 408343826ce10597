// Package filters implements the named image filters served by the MCP
// server and the command-line tool.
//
// Every filter satisfies ImageFilter: it takes a read-only source image and
// returns a new, origin-anchored image of the same size. Filters are looked
// up by name with New:
//
//   - grayscale: BT.709 luminance
//   - contrast-upgrade: per-channel contrast stretch, then histogram
//     equalization
//   - edge-detect: Canny edges, white on black
//   - corner-detect: Harris corners marked on a copy of the image
//   - distance-transform: Euclidean distance of object pixels to the
//     background, normalized to 0..255
//   - adaptive-mean-filter: depth-of-field box blur whose radius follows
//     pixel intensity
//   - mean-filter: fixed radius 2 per-channel box blur
//
// # Mean Filters
//
// Both mean filters are MeanFilter configurations. Window sums come from
// summed-area tables (see package integral), so each pixel costs O(1)
// regardless of radius.
//
// The adaptive filter treats the intensity channel (red by default) as a
// depth proxy. With m the smallest non-zero intensity in the image and K the
// scale (default 5):
//
//	depthScale = 255 / m
//	radius(I)  = K * depthScale * I / 255
//
// using integer division. The window for pixel (x,y) with radius r > 0 has
// its top-left corner at (x+1-r, y+1-r) and side 2r+1, clipped to the image.
// Its sum is divided by r*r, by (2r+1)^2, or by the clipped area depending
// on MeanOptions.Normalization. Pixels with radius 0 are copied from the
// source unless MeanOptions.ZeroRadius says otherwise.
//
// # Errors
//
// Empty images fail with integral.ErrInvalidDimensions. The adaptive filter
// fails with ErrDivideByZero when the intensity channel is zero everywhere.
// Negative radii or scales fail with ErrInvalidRadius. All failures leave
// the source untouched.
//
// # Progress and Cancellation
//
// Apply calls the optional ProgressFunc synchronously at a few milestones,
// ending with 100. Filters check the context between stages; the mean
// filter also checks it on every row.
//
// # Thread Safety
//
// Filters hold no mutable state. One filter value may be applied to
// different images from several goroutines at once.
package filters
