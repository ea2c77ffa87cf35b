package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Export errors.
var (
	// ErrUnsupportedFormat is returned for an unknown format name or extension.
	ErrUnsupportedFormat = errors.New("export: unsupported format")

	// ErrEmptyImage is returned when the image has no pixels.
	ErrEmptyImage = errors.New("export: empty image")
)

// Format is an output file format.
type Format uint8

const (
	FormatPNG Format = iota
	FormatQOI
	FormatBMP
	FormatTIFF
	FormatRaw
)

var formatNames = [...]string{
	FormatPNG:  "png",
	FormatQOI:  "qoi",
	FormatBMP:  "bmp",
	FormatTIFF: "tiff",
	FormatRaw:  "zst",
}

// String returns the format name, which is also its file extension without
// the dot.
func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	case FormatRaw:
		return "application/zstd"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat parses a format name or extension such as "png" or ".qoi".
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch name {
	case "tif":
		return FormatTIFF, nil
	case "raw", "zstd":
		return FormatRaw, nil
	}
	for f, n := range formatNames {
		if n == name {
			return Format(f), nil //nolint:gosec // index of a small array
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	if img.Bounds().Empty() {
		return ErrEmptyImage
	}

	var err error
	switch f {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatQOI:
		err = EncodeQOI(w, img)
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatRaw:
		err = EncodeRaw(w, img)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("export: encode %v: %w", f, err)
	}
	return nil
}

// Save writes img to path, choosing the format from the extension.
func Save(path string, img image.Image) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}

	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("export: create file: %w", err)
	}

	if err := Encode(out, img, f); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// NextFreeName returns the first path dir/prefix-N.ext, counting N up from
// zero, that does not exist yet.
func NextFreeName(dir, prefix string, f Format) (string, error) {
	for n := 0; ; n++ {
		path := filepath.Join(dir, fmt.Sprintf("%s-%d%s", prefix, n, f.Ext()))
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("export: stat %s: %w", path, err)
		}
	}
}
