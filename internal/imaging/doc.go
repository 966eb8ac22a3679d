// Package imaging provides the photo handling around area estimation: a
// decoded-image cache, target cropping and an annotated overlay showing the
// measured region and the detector boxes.
//
// # Coordinate System
//
// Pixel coordinates are relative to the image's top-left corner: X increases
// rightward and Y downward. Boxes are given as corner pairs in any order and
// may be fractional; they are rounded outward to whole pixels.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. CropRegion and Annotate never modify
// their input image and may run concurrently on the same image.
//
// # Output
//
// CropRegion and Annotate return base64-encoded PNG so results can be carried
// inside JSON tool responses.
package imaging
