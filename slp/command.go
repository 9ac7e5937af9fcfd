package slp

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Drawing command families. The low nibble of a command byte selects the
// family; run counts are encoded in the remaining bits, with three
// different schemes depending on the family.
type opcode uint8

const (
	opCopy opcode = iota // write n palette indices read from the stream
	opSkip               // advance over n transparent pixels
	opFill               // write one palette index n times
	opPlayerCopy         // opCopy through the player-color remap
	opPlayerFill         // opFill through the player-color remap
	opShadow             // mark n pixels as shadow
	opEndOfRow
)

// command is one decoded drawing command. indices is a read-only window
// into the container for opCopy/opPlayerCopy; index carries the single
// value for opFill/opPlayerFill.
type command struct {
	op      opcode
	count   int
	index   uint8
	indices []byte
}

// emptyRow in either outline slot marks a row with no command stream.
const emptyRow = 0x8000

// endOfRowByte terminates a row's command stream. Only the exact byte
// value counts; other bytes with a 0xF low nibble are malformed.
const endOfRowByte = 0x0F

// rowDecoder walks one row's command stream sequentially.
type rowDecoder struct {
	cur cursor
	off int
}

func (r *rowDecoder) byte() (uint8, error) {
	v, err := r.cur.u8(r.off)
	if err != nil {
		return 0, err
	}
	r.off++
	return v, nil
}

func (r *rowDecoder) take(n int) ([]byte, error) {
	b, err := r.cur.slice(r.off, n)
	if err != nil {
		return nil, err
	}
	r.off += n
	return b, nil
}

// sixUpperBit decodes a count stored in the upper six bits of the command
// byte. A zero count is malformed in this scheme.
func (r *rowDecoder) sixUpperBit(cmd uint8) (int, error) {
	n := int(cmd >> 2)
	if n == 0 {
		return 0, errors.Wrapf(ErrBadLength, "zero-length run in command %#02x", cmd)
	}
	return n, nil
}

// fourUpperBit decodes a count stored in the upper four bits of the
// command byte; zero there means the count is the next stream byte.
func (r *rowDecoder) fourUpperBit(cmd uint8) (int, error) {
	n := int(cmd >> 4)
	if n != 0 {
		return n, nil
	}
	b, err := r.byte()
	if err != nil {
		return 0, err
	}
	return int(b), nil
}

// largeLength decodes a count spread over the upper four bits of the
// command byte and the whole next stream byte.
func (r *rowDecoder) largeLength(cmd uint8) (int, error) {
	b, err := r.byte()
	if err != nil {
		return 0, err
	}
	return int(cmd&0xF0)<<4 | int(b), nil
}

// next reads one command byte and its operands and returns the decoded
// command. This is the only place command byte values are interpreted.
func (r *rowDecoder) next() (command, error) {
	cmd, err := r.byte()
	if err != nil {
		return command{}, err
	}
	if cmd == endOfRowByte {
		return command{op: opEndOfRow}, nil
	}

	switch cmd & 0x0F {
	case 0x00, 0x04, 0x08, 0x0C: // block copy
		n, err := r.sixUpperBit(cmd)
		if err != nil {
			return command{}, err
		}
		b, err := r.take(n)
		if err != nil {
			return command{}, err
		}
		return command{op: opCopy, count: n, indices: b}, nil

	case 0x01, 0x05, 0x09, 0x0D: // skip
		n, err := r.sixUpperBit(cmd)
		if err != nil {
			return command{}, err
		}
		return command{op: opSkip, count: n}, nil

	case 0x02: // large block copy
		n, err := r.largeLength(cmd)
		if err != nil {
			return command{}, err
		}
		b, err := r.take(n)
		if err != nil {
			return command{}, err
		}
		return command{op: opCopy, count: n, indices: b}, nil

	case 0x03: // large skip
		n, err := r.largeLength(cmd)
		if err != nil {
			return command{}, err
		}
		return command{op: opSkip, count: n}, nil

	case 0x06: // copy through player remap
		n, err := r.fourUpperBit(cmd)
		if err != nil {
			return command{}, err
		}
		b, err := r.take(n)
		if err != nil {
			return command{}, err
		}
		return command{op: opPlayerCopy, count: n, indices: b}, nil

	case 0x07: // fill
		n, err := r.fourUpperBit(cmd)
		if err != nil {
			return command{}, err
		}
		idx, err := r.byte()
		if err != nil {
			return command{}, err
		}
		return command{op: opFill, count: n, index: idx}, nil

	case 0x0A: // fill through player remap
		n, err := r.fourUpperBit(cmd)
		if err != nil {
			return command{}, err
		}
		idx, err := r.byte()
		if err != nil {
			return command{}, err
		}
		return command{op: opPlayerFill, count: n, index: idx}, nil

	case 0x0B: // shadow
		n, err := r.fourUpperBit(cmd)
		if err != nil {
			return command{}, err
		}
		return command{op: opShadow, count: n}, nil

	case 0x0E:
		return command{}, errors.Wrapf(ErrUnsupportedCommand, "extended command %#02x", cmd)

	default:
		return command{}, errors.Wrapf(ErrUnknownCommand, "command byte %#02x", cmd)
	}
}

// playerIndex remaps a relative player-color index into the selected
// player's 16-entry palette block.
func playerIndex(player, relative uint8) uint8 {
	return player*16 + relative
}

// decodeRow populates row y of the frame. The row's command offset comes
// from its own slot in the offset table; offsets of other rows are never
// consulted, so out-of-order row storage decodes fine.
func decodeRow(cur cursor, f *Frame, y int, player uint8) error {
	sh := f.Header

	left, err := cur.u16(int(sh.OutlineOffset) + 4*y)
	if err != nil {
		return err
	}
	right, err := cur.u16(int(sh.OutlineOffset) + 4*y + 2)
	if err != nil {
		return err
	}
	if left == emptyRow || right == emptyRow {
		return nil
	}

	w := int(sh.Width)
	if int(left)+int(right) > w {
		return errors.Wrapf(ErrBadLength, "paddings %d+%d exceed width %d", left, right, w)
	}

	off, err := cur.u32(int(sh.DataOffsets) + 4*y)
	if err != nil {
		return err
	}

	r := rowDecoder{cur: cur, off: int(off)}
	x := int(left)
	limit := w - int(right)
	base := y * w

	for {
		c, err := r.next()
		if err != nil {
			return err
		}
		if c.op == opEndOfRow {
			if x != limit {
				return errors.Wrapf(ErrRowLengthMismatch, "got %d pixels, want %d", x, limit)
			}
			glog.V(3).Infof("slp: row %d decoded, commands end at %#x", y, r.off)
			return nil
		}
		if x+c.count > limit {
			return errors.Wrapf(ErrRowOverrun, "run of %d at x=%d exceeds row end %d", c.count, x, limit)
		}

		switch c.op {
		case opCopy:
			for i, idx := range c.indices {
				f.Pixels[base+x+i] = idx
				f.Mask[base+x+i] = DrawColor
			}
		case opSkip:
			// Transparent; the buffer is already zeroed.
		case opFill:
			for i := 0; i < c.count; i++ {
				f.Pixels[base+x+i] = c.index
				f.Mask[base+x+i] = DrawColor
			}
		case opPlayerCopy:
			for i, idx := range c.indices {
				f.Pixels[base+x+i] = playerIndex(player, idx)
				f.Mask[base+x+i] = DrawPlayer
			}
		case opPlayerFill:
			idx := playerIndex(player, c.index)
			for i := 0; i < c.count; i++ {
				f.Pixels[base+x+i] = idx
				f.Mask[base+x+i] = DrawPlayer
			}
		case opShadow:
			for i := 0; i < c.count; i++ {
				f.Mask[base+x+i] = DrawShadow
			}
		}
		x += c.count
	}
}
