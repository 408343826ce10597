// Package imaging provides the file I/O used around the filters: decoding
// and caching source images, describing them, and writing or encoding
// filter results.
//
// Decoding and encoding go through github.com/disintegration/imaging, so
// PNG, JPEG, GIF, TIFF and BMP are supported in both directions and JPEG
// EXIF orientation is applied on load.
//
// # Coordinate System
//
// Images keep the bounds of their decoder. Filters normalize to an
// origin-anchored copy themselves, so callers never need to.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Save, EncodePNG and
// OutputPath are stateless.
//
// # Error Handling
//
// Functions return wrapped errors for:
//   - File I/O errors during image loading or saving
//   - Undecodable files
//   - Output paths whose extension names no supported format
//     (wrapping imaging.ErrUnsupportedFormat)
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid redundant
// disk reads. Large images may consume significant memory when cached.
// Consider using Evict() or Clear() to manage memory for long-running processes.
package imaging
