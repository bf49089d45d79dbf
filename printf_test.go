package strbuf

import (
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/pkg/errors"
)

func TestPrintf(t *testing.T) {
	t.Run("should run out of memory past the largest capacity", func(t *testing.T) {
		is := is.New(t)
		defer func(limit int) { printfLimit = limit }(printfLimit)
		printfLimit = 64
		s := Literal("previous content")

		err := s.Printf("%s", strings.Repeat("x", 100))

		is.True(errors.Is(err, ErrOutOfMemory))
		is.True(s.IsEmpty())
		is.NoErr(s.Printf("%s", strings.Repeat("x", 64))) // Exactly the limit fits
		is.Equal(s.Count(), 64)
	})

	t.Run("should format into an empty string", func(t *testing.T) {
		is := is.New(t)
		s := New()

		is.NoErr(s.AppendPrintf("%d-%s", 42, "x"))

		is.Equal(s.String(), "42-x")
		is.True(s.Representation().IsNarrow())
	})

	t.Run("should grow past the first guess", func(t *testing.T) {
		is := is.New(t)
		long := strings.Repeat("0123456789", 100)
		s := New()

		is.NoErr(s.Printf("[%s]", long))

		is.Equal(s.RawCount(), len(long)+2)
		is.Equal(s.String(), "["+long+"]")
		is.Equal(s.Representation(), NarrowExtended)
	})

	t.Run("should reuse the existing allocation", func(t *testing.T) {
		is := is.New(t)
		s := New(WithCapacity(64))
		allocs := s.Allocations()

		is.NoErr(s.Printf("%s=%v", "answer", 42))

		is.Equal(s.String(), "answer=42")
		is.Equal(s.Allocations(), allocs)
	})

	t.Run("should format an argument that is the receiver", func(t *testing.T) {
		is := is.New(t)
		s := Literal("self")

		is.NoErr(s.Printf("%s and %s", s, s))

		is.Equal(s.String(), "self and self")
	})

	t.Run("should reject output that is not UTF-8", func(t *testing.T) {
		is := is.New(t)
		s := Literal("before")

		err := s.Printf("%s", []byte{0xff})

		is.True(errors.Is(err, ErrEncoding))
		is.True(s.IsEmpty())
	})

	t.Run("should produce an empty string for empty output", func(t *testing.T) {
		is := is.New(t)
		s := Literal("before")
		is.NoErr(s.Printf(""))
		is.Equal(s.Representation(), Empty)
	})
}

func TestAppendPrintf(t *testing.T) {
	is := is.New(t)
	s := LiteralUTF8("Größe: ")

	is.NoErr(s.AppendPrintf("%dcm", 180))

	is.Equal(s.String(), "Größe: 180cm")
}

func TestSprintf(t *testing.T) {
	is := is.New(t)
	s, err := Sprintf("%05.1f|%-3s|%x", 3.14159, "ab", 255)
	is.NoErr(err)
	is.Equal(s.String(), "003.1|ab |ff")
}

func TestFixedWriter(t *testing.T) {
	is := is.New(t)
	w := fixedWriter{buf: make([]byte, 0, 4)}

	n, err := w.Write([]byte("ab"))
	is.NoErr(err)
	is.Equal(n, 2)

	n, err = w.Write([]byte("cde"))
	is.True(errors.Is(err, errTruncated))
	is.Equal(n, 2)
	is.Equal(string(w.buf), "abcd")
}
