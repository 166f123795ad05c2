// Package imaging provides the low-level image operations behind board
// recognition.
//
// Decoded screenshots are reduced to a single-channel Plane with Luminance,
// contrast-enhanced with CLAHE and turned into a binary edge map with Canny.
// The higher level board detection in package detection works entirely on
// these planes. The package also carries the helpers the MCP tools expose for
// inspection: board cropping, grid overlays, edge map rendering and synthetic
// board rendering for tests and training data.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive, as in image.Rectangle
//
// Planes are always anchored at (0,0), whatever the bounds of the source
// image.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Plane operations never
// modify their input and return freshly allocated planes, so a plane may be
// read from several goroutines at once.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside the image bounds or empty regions
//   - Malformed colours
//   - File I/O errors during image loading
//   - Encoding errors during image output
//
// Plane operations on degenerate inputs (zero-sized planes, planes too small
// for a kernel) do not fail; they return an all-zero plane of the same size.
package imaging
