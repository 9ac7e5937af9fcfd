// Package pal loads the JASC-PAL palette files the Genie engine ships its
// colors in, and provides a neutral fallback palette for when no palette
// file is at hand.
//
// A palette is a plain color.Palette of 256 opaque entries. Player colors
// occupy 16-entry blocks inside the table; the slp decoder bakes the
// block selection into the indices it emits, so no remapping happens at
// lookup time.
package pal

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	_ "embed"

	"github.com/pkg/errors"
)

// ErrInvalid means the input is not a JASC-PAL palette.
var ErrInvalid = errors.New("pal: invalid palette")

// Size is the entry count of a full Genie palette.
const Size = 256

//go:embed default.pal
var defaultPal string

var defaultOnce = sync.OnceValue(func() color.Palette {
	p, err := ReadJASC(strings.NewReader(defaultPal))
	if err != nil {
		panic(fmt.Sprintf("pal: embedded default palette: %v", err))
	}
	return p
})

// Default returns the palette used when no palette file is supplied: a
// grayscale identity ramp, so index i renders as gray level i. The real
// game palettes are external data files; pass those to ReadJASC instead
// for faithful colors.
//
// The returned slice is shared; callers must not modify it.
func Default() color.Palette {
	return defaultOnce()
}

// ReadJASC parses a JASC-PAL text palette:
//
//	JASC-PAL
//	0100
//	<count>
//	<r> <g> <b>      (count lines)
//
// Entries are returned as opaque colors. Both LF and CRLF line endings are
// accepted.
func ReadJASC(r io.Reader) (color.Palette, error) {
	sc := bufio.NewScanner(r)

	line, err := scanLine(sc)
	if err != nil {
		return nil, err
	}
	if line != "JASC-PAL" {
		return nil, errors.Wrapf(ErrInvalid, "signature %q", line)
	}

	line, err = scanLine(sc)
	if err != nil {
		return nil, err
	}
	if line != "0100" {
		return nil, errors.Wrapf(ErrInvalid, "version %q", line)
	}

	line, err = scanLine(sc)
	if err != nil {
		return nil, err
	}
	var count int
	if _, err := fmt.Sscanf(line, "%d", &count); err != nil || count < 0 {
		return nil, errors.Wrapf(ErrInvalid, "entry count %q", line)
	}

	p := make(color.Palette, count)
	for i := 0; i < count; i++ {
		line, err = scanLine(sc)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		var cr, cg, cb int
		if _, err := fmt.Sscanf(line, "%d %d %d", &cr, &cg, &cb); err != nil {
			return nil, errors.Wrapf(ErrInvalid, "entry %d: %q", i, line)
		}
		if cr > 255 || cg > 255 || cb > 255 || cr < 0 || cg < 0 || cb < 0 {
			return nil, errors.Wrapf(ErrInvalid, "entry %d out of range: %q", i, line)
		}
		p[i] = color.RGBA{R: uint8(cr), G: uint8(cg), B: uint8(cb), A: 255}
	}
	return p, nil
}

func scanLine(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", errors.Wrap(err, "reading palette")
		}
		return "", errors.Wrap(ErrInvalid, "unexpected end of palette")
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}
