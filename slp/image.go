package slp

// This file contains the slp package's integration with the standard
// image package, modeled after the public interface of image/gif: Decode
// and DecodeConfig operate on the first frame, and the format is
// registered so image.Decode recognizes SLP containers by their version
// tag.

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"badc0de.net/pkg/go-genie/pal"

	"github.com/pkg/errors"
)

func init() {
	image.RegisterFormat("slp", string(versionTag[:]), Decode, DecodeConfig)
}

// ShadowColor is what shadow-marked pixels resolve to: half-transparent
// black, independent of the palette.
var ShadowColor = color.RGBA{A: 128}

// DecodeConfig returns the dimensions of the first frame without decoding
// any pixel data. The frame directory is still validated in full.
func DecodeConfig(r io.Reader) (image.Config, error) {
	cur, err := readContainer(r)
	if err != nil {
		return image.Config{}, err
	}
	_, shapes, err := readDirectory(cur)
	if err != nil {
		return image.Config{}, err
	}
	if len(shapes) == 0 {
		return image.Config{}, errors.Wrap(ErrInvalidFormat, "container declares no frames")
	}
	return image.Config{
		Width:      int(shapes[0].Width),
		Height:     int(shapes[0].Height),
		ColorModel: color.RGBAModel,
	}, nil
}

// Decode returns the first frame of the container, resolved through the
// package pal default palette and the default player identifier.
func Decode(r io.Reader) (image.Image, error) {
	f, err := DecodeOne(r, 0, Options{})
	if err != nil {
		return nil, err
	}
	return f.Image(pal.Default())
}

// Image resolves the frame's palette indices through p and assembles an
// RGBA image. Transparent pixels stay at the zero value; shadow pixels
// become ShadowColor regardless of p.
//
// Plain and player-class indices must fall inside p; with a short palette
// an out-of-range index fails with ErrPaletteIndex.
func (f *Frame) Image(p color.Palette) (*image.RGBA, error) {
	w, h := int(f.Header.Width), int(f.Header.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, class := range f.Mask {
		x, y := i%w, i/w
		switch class {
		case DrawTransparent:
			// Zero value of the RGBA buffer.
		case DrawShadow:
			img.SetRGBA(x, y, ShadowColor)
		default:
			idx := int(f.Pixels[i])
			if idx >= len(p) {
				return nil, errors.Wrapf(ErrPaletteIndex, "index %d at (%d,%d), palette size %d", idx, x, y, len(p))
			}
			r, g, b, a := p[idx].RGBA()
			img.SetRGBA(x, y, color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)})
		}
	}
	return img, nil
}

// CommentString returns the header comment with trailing NULs stripped.
func (h Header) CommentString() string {
	return string(bytes.TrimRight(h.Comment[:], "\x00"))
}
