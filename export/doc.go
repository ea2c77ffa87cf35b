// Package export writes rendered frames to image files.
//
// Supported formats are PNG, BMP and TIFF (through the standard library and
// golang.org/x/image), QOI, and a zstd-compressed raw RGBA format used for
// streaming frames. Save picks the format from the file extension;
// NextFreeName finds the first unused numbered snapshot name.
package export
