// Package slp decodes the SLP sprite container format used by the Genie
// game engine (Age of Empires and its relatives).
//
// An SLP file is laid out as follows; all integers are little-endian:
//
//	+------------------------------+
//	|            Header            |  version tag, frame count, comment
//	+------------------------------+
//	| ShapeHeader | ShapeHeader |..|  one 32-byte entry per frame
//	+------------------------------+
//	|                              |
//	|  Arrays of u16 padding pairs | <-+ each ShapeHeader's OutlineOffset
//	|                              |     points at one array
//	+------------------------------+
//	|                              |
//	|  Arrays of u32 offsets to    | <-+ each ShapeHeader's DataOffsets
//	|   the first command per row  |     points at one array
//	+------------------------------+
//	|                              |
//	|  Drawing commands producing  |
//	|   indexed image data         |
//	+------------------------------+
//
// Start with DecodeAll if you want every frame, or DecodeOne for a single
// frame. Both read the whole container up front; decoding after that point
// does no I/O. The decoded frames hold palette indices; apply a palette
// with Frame.Image (the pal package loads palettes).
package slp

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// versionTag is the only version tag this decoder understands.
var versionTag = [4]byte{'2', '.', '0', 'N'}

const (
	headerSize      = 32
	shapeHeaderSize = 32

	// Sanity bounds on frame dimensions. Anything larger is treated as a
	// corrupt directory entry rather than an allocation request.
	maxDimension = 8192
	maxPixels    = 1 << 26
)

// Header is the fixed 32-byte header at the start of every container.
type Header struct {
	// Version should always be "2.0N".
	Version    [4]byte
	ShapeCount uint32
	Comment    [24]byte
}

// ShapeHeader is one 32-byte frame directory entry.
type ShapeHeader struct {
	// DataOffsets points at an array of Height u32 offsets, one per row,
	// each giving the position of the row's first drawing command.
	DataOffsets uint32

	// OutlineOffset points at an array of Height pairs of u16 paddings
	// (left, right). The value 0x8000 in either slot marks a fully
	// transparent row with no command stream.
	OutlineOffset uint32

	PaletteOffset uint32
	Properties    uint32
	Width, Height uint32
	CenterX       int32
	CenterY       int32
}

// DrawClass records how a pixel was produced, so a palette can be applied
// after decoding. The zero value is transparent, matching the
// zero-initialized pixel buffer.
type DrawClass uint8

const (
	DrawTransparent DrawClass = iota
	DrawColor
	DrawPlayer
	DrawShadow
)

// Frame is one decoded frame: a Width*Height buffer of palette indices in
// row-major top-to-bottom order, plus a parallel per-pixel class mask.
// Player-color runs arrive with the player remap already baked into the
// index.
type Frame struct {
	Header ShapeHeader
	Pixels []uint8
	Mask   []DrawClass
}

// SpriteSet is a fully decoded container.
type SpriteSet struct {
	Header Header
	Frames []*Frame
}

// DefaultPlayer is the remap identifier used for player-color runs when
// Options does not select one.
const DefaultPlayer = 2

// Options adjusts decoding.
type Options struct {
	// Player selects which 16-entry palette block player-color runs remap
	// into. Zero means DefaultPlayer.
	Player uint8
}

func (o Options) player() uint8 {
	if o.Player == 0 {
		return DefaultPlayer
	}
	return o.Player
}

// DecodeAll decodes every frame of the container read from r.
func DecodeAll(r io.Reader) (*SpriteSet, error) {
	return DecodeAllOptions(r, Options{})
}

// DecodeAllOptions is DecodeAll with explicit Options.
//
// Frames are independent of each other and are decoded concurrently; the
// shared container bytes are only ever read.
func DecodeAllOptions(r io.Reader, o Options) (*SpriteSet, error) {
	cur, err := readContainer(r)
	if err != nil {
		return nil, err
	}
	h, shapes, err := readDirectory(cur)
	if err != nil {
		return nil, err
	}

	set := &SpriteSet{Header: h, Frames: make([]*Frame, len(shapes))}
	var g errgroup.Group
	for i := range shapes {
		i := i
		g.Go(func() error {
			f, err := decodeFrame(cur, shapes[i], o.player())
			if err != nil {
				return errors.Wrapf(err, "frame %d", i)
			}
			set.Frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// DecodeOne decodes only the frame with the given zero-based index. The
// whole directory is still validated first, so a container with any bad
// directory entry is rejected even if the requested frame is fine.
func DecodeOne(r io.Reader, which int, o Options) (*Frame, error) {
	cur, err := readContainer(r)
	if err != nil {
		return nil, err
	}
	_, shapes, err := readDirectory(cur)
	if err != nil {
		return nil, err
	}
	if which < 0 || which >= len(shapes) {
		return nil, errors.Wrapf(ErrBadDirectoryEntry, "frame %d of %d requested", which, len(shapes))
	}
	f, err := decodeFrame(cur, shapes[which], o.player())
	if err != nil {
		return nil, errors.Wrapf(err, "frame %d", which)
	}
	return f, nil
}

func readContainer(r io.Reader) (cursor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return cursor{}, errors.Wrap(err, "reading slp container")
	}
	return cursor{data: data}, nil
}

func readHeader(cur cursor) (Header, error) {
	var h Header
	b, err := cur.slice(0, headerSize)
	if err != nil {
		return h, errors.Wrapf(ErrBadLength, "container size %d shorter than header size %d", cur.size(), headerSize)
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return h, errors.Wrap(err, "reading slp header")
	}
	if h.Version != versionTag {
		return h, errors.Wrapf(ErrInvalidFormat, "version tag %q, want %q", h.Version[:], versionTag[:])
	}
	return h, nil
}

// readDirectory reads the header and all frame directory entries, and
// validates every entry before any pixel data is touched. A single bad
// entry rejects the whole container; no partial frame list is surfaced.
func readDirectory(cur cursor) (Header, []ShapeHeader, error) {
	h, err := readHeader(cur)
	if err != nil {
		return h, nil, err
	}

	n := int(h.ShapeCount)
	dir, err := cur.slice(headerSize, n*shapeHeaderSize)
	if err != nil {
		return h, nil, errors.Wrapf(ErrBadLength, "directory of %d frames does not fit container size %d", n, cur.size())
	}

	shapes := make([]ShapeHeader, n)
	if err := binary.Read(bytes.NewReader(dir), binary.LittleEndian, &shapes); err != nil {
		return h, nil, errors.Wrap(err, "reading frame directory")
	}
	for i := range shapes {
		if err := validateShape(cur, shapes[i]); err != nil {
			return h, nil, errors.Wrapf(err, "directory entry %d", i)
		}
	}
	glog.V(1).Infof("slp: %d frames, comment %q", n, bytes.TrimRight(h.Comment[:], "\x00"))
	return h, shapes, nil
}

func validateShape(cur cursor, sh ShapeHeader) error {
	if sh.Width > maxDimension || sh.Height > maxDimension {
		return errors.Wrapf(ErrBadDirectoryEntry, "dimensions %dx%d exceed limit %d", sh.Width, sh.Height, maxDimension)
	}
	if int(sh.Width)*int(sh.Height) > maxPixels {
		return errors.Wrapf(ErrBadDirectoryEntry, "%dx%d pixels exceed limit %d", sh.Width, sh.Height, maxPixels)
	}
	if int(sh.DataOffsets) >= cur.size() {
		return errors.Wrapf(ErrBadDirectoryEntry, "data offset %#x, container size %#x", sh.DataOffsets, cur.size())
	}
	if int(sh.OutlineOffset) >= cur.size() {
		return errors.Wrapf(ErrBadDirectoryEntry, "outline offset %#x, container size %#x", sh.OutlineOffset, cur.size())
	}
	return nil
}

// decodeFrame assembles one frame's pixel buffer. The buffer starts out
// zeroed, which is the transparent value, so skip runs and fully
// transparent rows need no writes.
func decodeFrame(cur cursor, sh ShapeHeader, player uint8) (*Frame, error) {
	w, h := int(sh.Width), int(sh.Height)
	f := &Frame{
		Header: sh,
		Pixels: make([]uint8, w*h),
		Mask:   make([]DrawClass, w*h),
	}
	for y := 0; y < h; y++ {
		if err := decodeRow(cur, f, y, player); err != nil {
			return nil, errors.Wrapf(err, "row %d", y)
		}
	}
	return f, nil
}
