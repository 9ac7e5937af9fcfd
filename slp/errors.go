package slp

import (
	"errors"
	"fmt"
)

// Decode failures are classified into a closed set of kinds. The decoder
// wraps these sentinels with context via github.com/pkg/errors; callers
// match them with errors.Is. The shim package maps them onto the legacy
// integer status codes at the outermost boundary.
var (
	// ErrInvalidFormat means the container is not an SLP of a version this
	// package understands (bad version tag).
	ErrInvalidFormat = errors.New("slp: invalid format")

	// ErrBadLength means a declared offset or length is inconsistent with
	// the size of the container: a truncated header, a read that would run
	// past the end of the file, or a run whose encoding forbids a zero
	// count.
	ErrBadLength = errors.New("slp: bad length")

	// ErrBadDirectoryEntry means a frame directory entry failed
	// validation. It is a refinement of ErrBadLength: errors.Is reports
	// both.
	ErrBadDirectoryEntry = fmt.Errorf("%w: bad directory entry", ErrBadLength)

	// ErrUnknownCommand means a command byte outside every known family.
	ErrUnknownCommand = errors.New("slp: unknown command")

	// ErrUnsupportedCommand means the extended (0x0E) command family,
	// which this decoder does not interpret.
	ErrUnsupportedCommand = errors.New("slp: unsupported command")

	// ErrRowOverrun means a run would write past the end of its row.
	ErrRowOverrun = errors.New("slp: row overrun")

	// ErrRowLengthMismatch means the end-of-row marker was reached before
	// the row was fully populated.
	ErrRowLengthMismatch = errors.New("slp: row length mismatch")

	// ErrPaletteIndex means a decoded pixel refers past the end of the
	// palette it is being resolved against. A full 256-entry palette can
	// never trigger this.
	ErrPaletteIndex = errors.New("slp: palette index out of range")
)
