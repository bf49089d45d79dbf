package strbuf

import (
	"fmt"

	"github.com/pkg/errors"
)

// minimumGuess is the smallest capacity tried when formatting into a fresh
// allocation.
const minimumGuess = 20

// printfLimit is the largest capacity Printf tries.
var printfLimit = MaxCount

var errTruncated = errors.New("strbuf: formatted output does not fit")

// fixedWriter fills the capacity of buf and refuses to grow it.
type fixedWriter struct {
	buf []byte
}

func (w *fixedWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[len(w.buf):cap(w.buf)], p)
	w.buf = w.buf[:len(w.buf)+n]
	if n < len(p) {
		return n, errTruncated
	}
	return n, nil
}

// Sprintf creates a StringBuffer holding the formatted output.
func Sprintf(format string, args ...any) (*StringBuffer, error) {
	s := New()
	if err := s.Printf(format, args...); err != nil {
		return nil, err
	}
	return s, nil
}

// Printf replaces the content with the formatted output, which is tagged as
// UTF-8. The existing allocation is tried first, then a growing one until the
// output fits or MaxCount code units have been tried, which fails with
// ErrOutOfMemory. Output that is not valid UTF-8 fails with ErrEncoding and
// leaves the string empty.
func (s *StringBuffer) Printf(format string, args ...any) error {
	for _, arg := range args {
		if arg == any(s) {
			// The content is overwritten while formatting, format a copy instead.
			t, err := Sprintf(format, args...)
			if err != nil {
				return err
			}
			return s.Set(t)
		}
	}

	guess := max(len(format)+1, s.count, minimumGuess)

	// First, try to use the existing allocation.
	if alloc := s.buf.Allocation(); alloc > 1 {
		n, err := s.tryPrintf(min(alloc-1, printfLimit), format, args)
		if err == nil {
			return s.finishPrintf(n)
		}
		if !errors.Is(err, errTruncated) {
			return err
		}
	}

	for {
		// Double the previous guess, eventually there will be enough space.
		if guess > printfLimit/2 {
			guess = printfLimit
		} else {
			guess *= 2
		}

		n, err := s.tryPrintf(guess, format, args)
		if err == nil {
			return s.finishPrintf(n)
		}
		if !errors.Is(err, errTruncated) {
			return err
		}
		if guess == printfLimit {
			s.Clear()
			return errors.Wrapf(ErrOutOfMemory, "formatted output exceeds %d code units", printfLimit)
		}
	}
}

// AppendPrintf appends the formatted output.
func (s *StringBuffer) AppendPrintf(format string, args ...any) error {
	t, err := Sprintf(format, args...)
	if err != nil {
		return err
	}
	return s.Append(t)
}

// tryPrintf formats into capacity bytes of owned memory.
func (s *StringBuffer) tryPrintf(capacity int, format string, args []any) (int, error) {
	if err := s.resize(capacity, NarrowExtended, false); err != nil {
		return 0, err
	}
	w := fixedWriter{buf: s.buf.Bytes()[:0:capacity]}
	return fmt.Fprintf(&w, format, args...)
}

func (s *StringBuffer) finishPrintf(n int) error {
	if err := validateUTF8(s.buf.Bytes()[:n]); err != nil {
		s.Clear()
		return err
	}
	return s.resize(n, NarrowExtended, true)
}
