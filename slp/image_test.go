package slp

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"badc0de.net/pkg/go-genie/gtesting"
)

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(bytes.NewReader(twoByTwoRaw()))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	gtesting.AssertEqualInt(t, "width", cfg.Width, 2)
	gtesting.AssertEqualInt(t, "height", cfg.Height, 2)

	_, err = DecodeConfig(bytes.NewReader(buildContainer()))
	gtesting.AssertErrorIs(t, "no frames", err, ErrInvalidFormat)
}

func TestRegisteredFormat(t *testing.T) {
	img, format, err := image.Decode(bytes.NewReader(twoByTwoRaw()))
	if err != nil {
		t.Fatalf("image.Decode: %v", err)
	}
	if format != "slp" {
		t.Errorf("format = %q; want %q", format, "slp")
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v; want 2x2", img.Bounds())
	}
}

func TestImageShadowAndTransparent(t *testing.T) {
	// shadow 1, skip 1, copy 1.
	f := decodeOneRow(t, 3, []byte{0x1B, 0x05, 0x04, 0x01, endOfRowByte}, Options{})

	img, err := f.Image(color.Palette{color.RGBA{A: 255}, color.RGBA{R: 200, A: 255}})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != ShadowColor {
		t.Errorf("shadow pixel = %v; want %v", got, ShadowColor)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{}) {
		t.Errorf("transparent pixel = %v; want zero", got)
	}
	if got := img.RGBAAt(2, 0); got != (color.RGBA{R: 200, A: 255}) {
		t.Errorf("color pixel = %v; want red", got)
	}
}

func TestImageShortPalette(t *testing.T) {
	f := decodeOneRow(t, 1, []byte{0x04, 0x09, endOfRowByte}, Options{})
	_, err := f.Image(color.Palette{color.RGBA{A: 255}})
	gtesting.AssertErrorIs(t, "index past palette end", err, ErrPaletteIndex)
}

func TestCommentString(t *testing.T) {
	data := twoByTwoRaw()
	copy(data[8:], "hello")
	set, err := DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if got := set.Header.CommentString(); got != "hello" {
		t.Errorf("comment = %q; want %q", got, "hello")
	}
}
