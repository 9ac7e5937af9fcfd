// Package shim mirrors the decoder's legacy two-call boundary: DecodeFile
// hands out a raw indexed pixel buffer plus its dimensions and a signed
// status code, and Release gives the buffer back. It exists for callers
// that speak that protocol; Go code should use the slp package directly
// and let buffers go out of scope.
//
// The integer status codes live here and only here. Internally everything
// is the slp package's error kinds; DecodeFile does the mapping at the
// very edge.
package shim

import (
	"os"
	"sync"
	"unicode/utf8"

	"badc0de.net/pkg/go-genie/slp"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Status is the signed status code of the legacy boundary.
type Status int

const (
	StatusOK              Status = 0
	StatusNoPath          Status = 1
	StatusBadPathEncoding Status = 2
	StatusInvalidFormat   Status = -1
	StatusBadLength       Status = -2
	StatusUnknown         Status = -32767
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoPath:
		return "file path was empty"
	case StatusBadPathEncoding:
		return "file path contained non-utf8 characters"
	case StatusInvalidFormat:
		return "invalid slp"
	case StatusBadLength:
		return "slp had a bad length"
	default:
		return "an unknown error occurred while decoding the slp"
	}
}

// outstanding tracks every buffer handed out by DecodeFile, keyed by the
// address of its first byte, so Release can enforce the exactly-once
// handshake. Zero-sized buffers are never registered and never need
// releasing.
var (
	mu          sync.Mutex
	outstanding = map[*byte]int{}
)

// DecodeFile decodes the first frame of the container at path and returns
// its indexed pixel buffer (width*height bytes, row-major) together with
// the frame dimensions. On any failure the buffer is nil, the dimensions
// are zero and the status says what went wrong; nothing needs releasing.
//
// A successful caller owns buf and must pass it to Release exactly once,
// with length width*height.
func DecodeFile(path string) (buf []byte, width, height int, status Status) {
	if path == "" {
		return nil, 0, 0, StatusNoPath
	}
	if !utf8.ValidString(path) {
		return nil, 0, 0, StatusBadPathEncoding
	}

	f, err := os.Open(path)
	if err != nil {
		glog.Errorf("shim: %v", err)
		return nil, 0, 0, StatusUnknown
	}
	defer f.Close()

	frame, err := slp.DecodeOne(f, 0, slp.Options{})
	if err != nil {
		glog.Errorf("shim: decoding %s: %v", path, err)
		return nil, 0, 0, statusFor(err)
	}

	buf = frame.Pixels
	width = int(frame.Header.Width)
	height = int(frame.Header.Height)
	if len(buf) > 0 {
		mu.Lock()
		outstanding[&buf[0]] = len(buf)
		mu.Unlock()
	}
	return buf, width, height, StatusOK
}

// statusFor collapses the decoder's error kinds into the legacy codes.
// ErrBadDirectoryEntry is covered by the ErrBadLength match.
func statusFor(err error) Status {
	switch {
	case errors.Is(err, slp.ErrInvalidFormat):
		return StatusInvalidFormat
	case errors.Is(err, slp.ErrBadLength):
		return StatusBadLength
	default:
		return StatusUnknown
	}
}

// Release returns a buffer obtained from DecodeFile. n must equal the
// width*height reported alongside the buffer. Releasing a buffer twice,
// releasing one this package never handed out, or releasing with the
// wrong length is an error and changes nothing.
//
// A nil or empty buffer is a no-op, matching a zero-sized frame.
func Release(buf []byte, n int) error {
	if len(buf) == 0 && n == 0 {
		return nil
	}
	if len(buf) == 0 {
		return errors.Errorf("shim: empty buffer released with length %d", n)
	}

	mu.Lock()
	defer mu.Unlock()
	key := &buf[0]
	want, ok := outstanding[key]
	if !ok {
		return errors.New("shim: buffer is not outstanding (already released?)")
	}
	if want != n {
		return errors.Errorf("shim: released with length %d, want %d", n, want)
	}
	delete(outstanding, key)
	return nil
}

// Outstanding reports how many buffers are currently handed out. Useful
// for leak accounting in tests.
func Outstanding() int {
	mu.Lock()
	defer mu.Unlock()
	return len(outstanding)
}
