package slp

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// cursor is a bounds-checked random-access view over the raw container
// bytes. All multi-byte reads are little-endian. Every accessor validates
// the whole extent of the access, including the end position, before
// touching the slice, so offsets taken straight from the file can be
// passed in unchecked.
type cursor struct {
	data []byte
}

func (c cursor) size() int { return len(c.data) }

func (c cursor) u8(off int) (uint8, error) {
	if off < 0 || off >= len(c.data) {
		return 0, errors.Wrapf(ErrBadLength, "byte read at %#x, container size %#x", off, len(c.data))
	}
	return c.data[off], nil
}

func (c cursor) u16(off int) (uint16, error) {
	if off < 0 || off+2 > len(c.data) {
		return 0, errors.Wrapf(ErrBadLength, "u16 read at %#x, container size %#x", off, len(c.data))
	}
	return binary.LittleEndian.Uint16(c.data[off:]), nil
}

func (c cursor) u32(off int) (uint32, error) {
	if off < 0 || off+4 > len(c.data) {
		return 0, errors.Wrapf(ErrBadLength, "u32 read at %#x, container size %#x", off, len(c.data))
	}
	return binary.LittleEndian.Uint32(c.data[off:]), nil
}

// slice returns a read-only window into the container. Callers must not
// write through it.
func (c cursor) slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(c.data) {
		return nil, errors.Wrapf(ErrBadLength, "slice [%#x,%#x), container size %#x", off, off+n, len(c.data))
	}
	return c.data[off : off+n], nil
}
