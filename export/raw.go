package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/draw"
)

// Raw frame layout: the magic, width and height as big-endian uint32, then
// the zstd-compressed RGBA rows.
const (
	rawMagic      = "MNDZ"
	rawHeaderSize = 12
	rawMaxPixels  = 100_000_000
)

// ErrInvalidRaw is returned when decoding a malformed raw frame.
var ErrInvalidRaw = errors.New("export: invalid raw frame")

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1))
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	},
}

// EncodeRaw writes img as a raw frame.
func EncodeRaw(w io.Writer, img image.Image) error {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != rgba.Rect.Dx()*4 {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}
	return EncodeRawPix(w, rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Pix)
}

// EncodeRawPix writes tightly packed RGBA bytes as a raw frame.
func EncodeRawPix(w io.Writer, width, height int, pix []byte) error {
	if width <= 0 || height <= 0 {
		return ErrEmptyImage
	}
	if len(pix) < width*height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidRaw, len(pix), width, height)
	}

	var header [rawHeaderSize]byte
	copy(header[:4], rawMagic)
	binary.BigEndian.PutUint32(header[4:8], uint32(width))   //nolint:gosec // checked positive
	binary.BigEndian.PutUint32(header[8:12], uint32(height)) //nolint:gosec // checked positive
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	enc := zstdEncPool.Get().(*zstd.Encoder)
	defer zstdEncPool.Put(enc)

	enc.Reset(w)
	if _, err := enc.Write(pix[:width*height*4]); err != nil {
		_ = enc.Close()
		return fmt.Errorf("export: compress frame: %w", err)
	}
	return enc.Close()
}

// DecodeRaw reads a raw frame.
func DecodeRaw(r io.Reader) (*image.RGBA, error) {
	br := bufio.NewReader(r)

	var header [rawHeaderSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidRaw, err)
	}
	if string(header[:4]) != rawMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidRaw, header[:4])
	}
	width := int(binary.BigEndian.Uint32(header[4:8]))
	height := int(binary.BigEndian.Uint32(header[8:12]))
	if width == 0 || height == 0 || width > rawMaxPixels/height {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidRaw, width, height)
	}

	dec := zstdDecPool.Get().(*zstd.Decoder)
	defer zstdDecPool.Put(dec)

	if err := dec.Reset(br); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRaw, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if _, err := io.ReadFull(dec, img.Pix); err != nil {
		return nil, fmt.Errorf("%w: pixels: %w", ErrInvalidRaw, err)
	}
	return img, nil
}
