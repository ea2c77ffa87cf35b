package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/draw"
)

// QOI constants from the format description at https://qoiformat.org.
const (
	qoiMagic      = "qoif"
	qoiHeaderSize = 14

	qoiOpIndex = 0x00
	qoiOpDiff  = 0x40
	qoiOpLuma  = 0x80
	qoiOpRun   = 0xc0
	qoiOpRGB   = 0xfe
	qoiOpRGBA  = 0xff
	qoiMask2   = 0xc0

	qoiMaxRun = 62

	// qoiMaxPixels bounds the allocation made by DecodeQOI.
	qoiMaxPixels = 400_000_000
)

var qoiPadding = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

// ErrInvalidQOI is returned when decoding malformed QOI data.
var ErrInvalidQOI = errors.New("export: invalid QOI data")

type qoiPixel struct {
	r, g, b, a uint8
}

func (p qoiPixel) hash() int {
	return (int(p.r)*3 + int(p.g)*5 + int(p.b)*7 + int(p.a)*11) % 64
}

// EncodeQOI writes img in the QOI format. The header declares three
// channels; frames are opaque and the alpha op is only emitted if an
// image carries transparency.
func EncodeQOI(w io.Writer, img image.Image) error {
	src := toNRGBA(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	if width == 0 || height == 0 {
		return ErrEmptyImage
	}

	bw := bufio.NewWriter(w)

	var header [qoiHeaderSize]byte
	copy(header[:4], qoiMagic)
	binary.BigEndian.PutUint32(header[4:8], uint32(width))   //nolint:gosec // image bounds are non-negative
	binary.BigEndian.PutUint32(header[8:12], uint32(height)) //nolint:gosec // image bounds are non-negative
	header[12] = 3
	header[13] = 0
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	var index [64]qoiPixel
	prev := qoiPixel{a: 255}
	run := 0
	total := width * height

	for i := 0; i < total; i++ {
		x, y := i%width, i/width
		o := y*src.Stride + x*4
		px := qoiPixel{src.Pix[o], src.Pix[o+1], src.Pix[o+2], src.Pix[o+3]}

		if px == prev {
			run++
			if run == qoiMaxRun || i == total-1 {
				_ = bw.WriteByte(byte(qoiOpRun | (run - 1)))
				run = 0
			}
			continue
		}

		if run > 0 {
			_ = bw.WriteByte(byte(qoiOpRun | (run - 1)))
			run = 0
		}

		h := px.hash()
		switch {
		case index[h] == px:
			_ = bw.WriteByte(byte(qoiOpIndex | h))
		case px.a != prev.a:
			index[h] = px
			_, _ = bw.Write([]byte{qoiOpRGBA, px.r, px.g, px.b, px.a})
		default:
			index[h] = px
			writeQOIColor(bw, px, prev)
		}
		prev = px
	}

	if _, err := bw.Write(qoiPadding[:]); err != nil {
		return err
	}
	return bw.Flush()
}

// writeQOIColor emits the smallest op encoding px relative to prev when the
// alpha channel is unchanged.
func writeQOIColor(bw *bufio.Writer, px, prev qoiPixel) {
	dr := int8(px.r - prev.r) //nolint:gosec // wraparound is part of the format
	dg := int8(px.g - prev.g) //nolint:gosec // wraparound is part of the format
	db := int8(px.b - prev.b) //nolint:gosec // wraparound is part of the format

	if dr >= -2 && dr <= 1 && dg >= -2 && dg <= 1 && db >= -2 && db <= 1 {
		_ = bw.WriteByte(byte(qoiOpDiff | int(dr+2)<<4 | int(dg+2)<<2 | int(db+2)))
		return
	}

	drdg := dr - dg
	dbdg := db - dg
	if dg >= -32 && dg <= 31 && drdg >= -8 && drdg <= 7 && dbdg >= -8 && dbdg <= 7 {
		_ = bw.WriteByte(byte(qoiOpLuma | int(dg+32)))
		_ = bw.WriteByte(byte(int(drdg+8)<<4 | int(dbdg+8)))
		return
	}

	_, _ = bw.Write([]byte{qoiOpRGB, px.r, px.g, px.b})
}

// DecodeQOI reads a QOI image.
func DecodeQOI(r io.Reader) (*image.NRGBA, error) {
	br := bufio.NewReader(r)

	var header [qoiHeaderSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidQOI, err)
	}
	if string(header[:4]) != qoiMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidQOI, header[:4])
	}
	width := int(binary.BigEndian.Uint32(header[4:8]))
	height := int(binary.BigEndian.Uint32(header[8:12]))
	if width == 0 || height == 0 || width > qoiMaxPixels/height {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidQOI, width, height)
	}
	if ch := header[12]; ch != 3 && ch != 4 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidQOI, ch)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	var index [64]qoiPixel
	px := qoiPixel{a: 255}
	run := 0

	for o := 0; o < len(img.Pix); o += 4 {
		if run > 0 {
			run--
		} else {
			b1, err := br.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: truncated data: %w", ErrInvalidQOI, err)
			}

			switch {
			case b1 == qoiOpRGB:
				var c [3]byte
				if _, err := io.ReadFull(br, c[:]); err != nil {
					return nil, fmt.Errorf("%w: truncated data: %w", ErrInvalidQOI, err)
				}
				px.r, px.g, px.b = c[0], c[1], c[2]
			case b1 == qoiOpRGBA:
				var c [4]byte
				if _, err := io.ReadFull(br, c[:]); err != nil {
					return nil, fmt.Errorf("%w: truncated data: %w", ErrInvalidQOI, err)
				}
				px = qoiPixel{c[0], c[1], c[2], c[3]}
			case b1&qoiMask2 == qoiOpIndex:
				px = index[b1]
			case b1&qoiMask2 == qoiOpDiff:
				px.r += (b1>>4)&0x03 - 2
				px.g += (b1>>2)&0x03 - 2
				px.b += b1&0x03 - 2
			case b1&qoiMask2 == qoiOpLuma:
				b2, err := br.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("%w: truncated data: %w", ErrInvalidQOI, err)
				}
				dg := b1&0x3f - 32
				px.r += dg - 8 + (b2>>4)&0x0f
				px.g += dg
				px.b += dg - 8 + b2&0x0f
			default:
				run = int(b1 & 0x3f)
			}

			index[px.hash()] = px
		}

		img.Pix[o] = px.r
		img.Pix[o+1] = px.g
		img.Pix[o+2] = px.b
		img.Pix[o+3] = px.a
	}

	return img, nil
}

// toNRGBA returns img as a non-premultiplied image with a zero origin.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}
