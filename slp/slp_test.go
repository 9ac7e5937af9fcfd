package slp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"
	"sync"
	"testing"

	"badc0de.net/pkg/go-genie/gtesting"
)

// frameSpec describes one synthetic frame for buildContainer. rows holds
// one command stream per row; a pad slot of emptyRow marks the row as
// fully transparent and its stream is not emitted.
type frameSpec struct {
	width, height int
	pads          [][2]uint16 // nil means all-zero paddings
	rows          [][]byte
}

func (fs frameSpec) pad(y int) [2]uint16 {
	if fs.pads == nil {
		return [2]uint16{}
	}
	return fs.pads[y]
}

// buildContainer assembles a well-formed container from scratch: header,
// directory, then per frame its outline table, row offset table and
// command streams.
func buildContainer(frames ...frameSpec) []byte {
	var body bytes.Buffer
	base := headerSize + shapeHeaderSize*len(frames)
	shapes := make([]ShapeHeader, len(frames))

	for i, fs := range frames {
		outlineOff := base + body.Len()
		for y := 0; y < fs.height; y++ {
			p := fs.pad(y)
			binary.Write(&body, binary.LittleEndian, p[0])
			binary.Write(&body, binary.LittleEndian, p[1])
		}

		dataOff := base + body.Len()
		cmdOff := dataOff + 4*fs.height
		for y := 0; y < fs.height; y++ {
			binary.Write(&body, binary.LittleEndian, uint32(cmdOff))
			p := fs.pad(y)
			if p[0] != emptyRow && p[1] != emptyRow {
				cmdOff += len(fs.rows[y])
			}
		}
		for y := 0; y < fs.height; y++ {
			p := fs.pad(y)
			if p[0] != emptyRow && p[1] != emptyRow {
				body.Write(fs.rows[y])
			}
		}

		shapes[i] = ShapeHeader{
			DataOffsets:   uint32(dataOff),
			OutlineOffset: uint32(outlineOff),
			Width:         uint32(fs.width),
			Height:        uint32(fs.height),
		}
	}

	var out bytes.Buffer
	out.Write(versionTag[:])
	binary.Write(&out, binary.LittleEndian, uint32(len(frames)))
	out.Write(make([]byte, 24))
	binary.Write(&out, binary.LittleEndian, shapes)
	out.Write(body.Bytes())
	return out.Bytes()
}

// twoByTwoRaw is the minimal scenario: 1 frame, 2x2, each row a block
// copy of two zero indices followed by end-of-row.
func twoByTwoRaw() []byte {
	row := []byte{0x08, 0x00, 0x00, endOfRowByte}
	return buildContainer(frameSpec{
		width:  2,
		height: 2,
		rows:   [][]byte{row, row},
	})
}

func TestDecodeMinimalRaw(t *testing.T) {
	set, err := DecodeAll(bytes.NewReader(twoByTwoRaw()))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	gtesting.AssertEqualInt(t, "frame count", len(set.Frames), 1)
	gtesting.AssertEqualUint32(t, "declared frame count", set.Header.ShapeCount, 1)

	f := set.Frames[0]
	gtesting.AssertEqualInt(t, "width", int(f.Header.Width), 2)
	gtesting.AssertEqualInt(t, "height", int(f.Header.Height), 2)
	gtesting.AssertEqualInt(t, "pixel count", len(f.Pixels), 4)
	for i, p := range f.Pixels {
		if p != 0 {
			t.Errorf("pixel %d = %d; want 0", i, p)
		}
		if f.Mask[i] != DrawColor {
			t.Errorf("mask %d = %d; want DrawColor", i, f.Mask[i])
		}
	}

	img, err := f.Image(color.Palette{color.RGBA{A: 255}})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := img.RGBAAt(x, y); got != (color.RGBA{A: 255}) {
				t.Errorf("pixel (%d,%d) = %v; want opaque black", x, y, got)
			}
		}
	}
}

func TestCorruptVersionTag(t *testing.T) {
	for i := 0; i < len(versionTag); i++ {
		data := twoByTwoRaw()
		data[i] ^= 0xFF
		_, err := DecodeAll(bytes.NewReader(data))
		gtesting.AssertErrorIs(t, fmt.Sprintf("byte %d", i), err, ErrInvalidFormat)
	}
}

func TestTruncatedHeader(t *testing.T) {
	_, err := DecodeAll(bytes.NewReader(twoByTwoRaw()[:10]))
	gtesting.AssertErrorIs(t, "short container", err, ErrBadLength)
}

func TestDirectoryEntryOutOfBounds(t *testing.T) {
	// Field offsets inside a directory entry.
	const (
		fieldDataOffsets   = 0
		fieldOutlineOffset = 4
	)
	patch := func(data []byte, entry, field int, v uint32) []byte {
		out := append([]byte(nil), data...)
		binary.LittleEndian.PutUint32(out[headerSize+shapeHeaderSize*entry+field:], v)
		return out
	}

	row := []byte{0x04, 0x07, endOfRowByte} // copy 1
	twoFrames := buildContainer(
		frameSpec{width: 1, height: 1, rows: [][]byte{row}},
		frameSpec{width: 1, height: 1, rows: [][]byte{row}},
	)

	for _, tc := range []struct {
		name  string
		data  []byte
		entry int
		field int
	}{
		{"first frame data offset", twoFrames, 0, fieldDataOffsets},
		{"second frame data offset", twoFrames, 1, fieldDataOffsets},
		{"first frame outline offset", twoFrames, 0, fieldOutlineOffset},
		{"second frame outline offset", twoFrames, 1, fieldOutlineOffset},
	} {
		// One past the end of the container is already out of bounds.
		data := patch(tc.data, tc.entry, tc.field, uint32(len(tc.data)))
		_, err := DecodeAll(bytes.NewReader(data))
		gtesting.AssertErrorIs(t, tc.name+" is a directory error", err, ErrBadDirectoryEntry)
		gtesting.AssertErrorIs(t, tc.name+" is length class", err, ErrBadLength)
	}
}

func TestAbsurdDimensions(t *testing.T) {
	data := twoByTwoRaw()
	binary.LittleEndian.PutUint32(data[headerSize+16:], maxDimension+1) // width field
	_, err := DecodeAll(bytes.NewReader(data))
	gtesting.AssertErrorIs(t, "oversized width", err, ErrBadDirectoryEntry)
}

func TestEmptyRowSentinel(t *testing.T) {
	set, err := DecodeAll(bytes.NewReader(buildContainer(frameSpec{
		width:  2,
		height: 2,
		pads:   [][2]uint16{{emptyRow, 0}, {0, 0}},
		rows:   [][]byte{nil, {0x08, 0x05, 0x06, endOfRowByte}},
	})))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	f := set.Frames[0]
	for x := 0; x < 2; x++ {
		if f.Mask[x] != DrawTransparent || f.Pixels[x] != 0 {
			t.Errorf("row 0 pixel %d = (%d,%d); want transparent zero", x, f.Pixels[x], f.Mask[x])
		}
	}
	if f.Pixels[2] != 5 || f.Pixels[3] != 6 {
		t.Errorf("row 1 = %v; want [5 6]", f.Pixels[2:])
	}
}

func TestPaddingsShrinkRow(t *testing.T) {
	set, err := DecodeAll(bytes.NewReader(buildContainer(frameSpec{
		width:  4,
		height: 1,
		pads:   [][2]uint16{{1, 1}},
		rows:   [][]byte{{0x08, 0x09, 0x0A, endOfRowByte}},
	})))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	f := set.Frames[0]
	want := []uint8{0, 9, 10, 0}
	for i := range want {
		if f.Pixels[i] != want[i] {
			t.Errorf("pixels = %v; want %v", f.Pixels, want)
			break
		}
	}
	if f.Mask[0] != DrawTransparent || f.Mask[3] != DrawTransparent {
		t.Errorf("padding pixels not transparent: mask %v", f.Mask)
	}
}

// Row offsets are looked up per row, not inferred by scanning forward, so
// rows stored out of their natural order must decode correctly.
func TestOutOfOrderRowOffsets(t *testing.T) {
	data := buildContainer(frameSpec{
		width:  2,
		height: 2,
		rows: [][]byte{
			{0x08, 0x01, 0x02, endOfRowByte},
			{0x08, 0x03, 0x04, endOfRowByte},
		},
	})

	// Swap the two row offset entries. The offset table follows the
	// outline table (4 bytes per row).
	tableOff := headerSize + shapeHeaderSize + 4*2
	a := binary.LittleEndian.Uint32(data[tableOff:])
	b := binary.LittleEndian.Uint32(data[tableOff+4:])
	binary.LittleEndian.PutUint32(data[tableOff:], b)
	binary.LittleEndian.PutUint32(data[tableOff+4:], a)

	set, err := DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	f := set.Frames[0]
	want := []uint8{3, 4, 1, 2}
	for i := range want {
		if f.Pixels[i] != want[i] {
			t.Fatalf("pixels = %v; want %v", f.Pixels, want)
		}
	}
}

func TestZeroFrameContainer(t *testing.T) {
	data := buildContainer()
	set, err := DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	gtesting.AssertEqualInt(t, "frame count", len(set.Frames), 0)

	_, err = DecodeOne(bytes.NewReader(data), 0, Options{})
	gtesting.AssertErrorIs(t, "no frame to decode", err, ErrBadDirectoryEntry)
}

func TestConcurrentDecodesAreIdentical(t *testing.T) {
	data := buildContainer(frameSpec{
		width:  3,
		height: 2,
		rows: [][]byte{
			// copy 2, skip 1; then skip 1, fill 2 of color 3.
			{0x08, 0x01, 0x02, 0x05, endOfRowByte},
			{0x05, 0x27, 0x03, endOfRowByte},
		},
	})

	const n = 8
	frames := make([]*Frame, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := DecodeAll(bytes.NewReader(data))
			if err != nil {
				t.Errorf("DecodeAll: %v", err)
				return
			}
			frames[i] = set.Frames[0]
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if frames[0] == nil || frames[i] == nil {
			t.Fatalf("missing decode result")
		}
		if !bytes.Equal(frames[0].Pixels, frames[i].Pixels) {
			t.Errorf("decode %d pixels differ: %v vs %v", i, frames[i].Pixels, frames[0].Pixels)
		}
	}
}

// Every proper prefix of a valid container must fail cleanly, not panic
// and not succeed.
func TestTruncationSweep(t *testing.T) {
	data := twoByTwoRaw()
	for i := 0; i < len(data); i++ {
		if _, err := DecodeAll(bytes.NewReader(data[:i])); err == nil {
			t.Errorf("prefix of %d bytes decoded successfully; want error", i)
		}
	}
}
