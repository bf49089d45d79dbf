// Package strbuf implements StringBuffer, a text buffer that holds its
// content in one of several encodings and converts between them lazily.
//
// Text enters a StringBuffer as ASCII, UTF-8 or UTF-16 and stays in that
// representation until an operation needs something else. Comparing, hashing
// or searching two buffers normalizes them to a common representation,
// preferring to promote the receiver so the argument rarely needs a copy.
// Literal data is shared without copying and is copied into owned memory the
// first time it is modified.
//
// A StringBuffer is owned by a single goroutine. Queries may change the
// internal representation, so they are not safe for concurrent use either.
// Literal data and EmptyString may be shared freely.
package strbuf

import (
	"sync"
	"unsafe"

	"github.com/lovromazgon/strbuf/buffer"
	"github.com/lovromazgon/strbuf/internal/debug"
	"github.com/pkg/errors"
)

// MaxCount is the largest number of code units a StringBuffer can hold. It is
// chosen so that a narrow string can always be widened.
const MaxCount = buffer.MaxSize/2 - 1

type flags uint8

const (
	flagNormalized flags = 1 << iota
	flagASCIIScanned
)

// StringBuffer is a string in one of the representations described by
// Representation. The zero value is an empty string ready to use. A
// StringBuffer must not be copied after first use.
type StringBuffer struct {
	buf   buffer.Buffer
	rep   Representation
	count int
	flags flags
	gen   uint32
}

var (
	emptyUnits [1]uint16
	emptyOnce  sync.Once
	empty      *StringBuffer
)

func emptyStorage() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&emptyUnits[0])), 2)
}

// EmptyString returns the process wide empty string. It must not be modified.
func EmptyString() *StringBuffer {
	emptyOnce.Do(func() {
		s := &StringBuffer{flags: flagNormalized}
		s.buf.SetImmutable(emptyStorage())
		empty = s
	})
	return empty
}

// New creates an empty StringBuffer.
func New(opts ...Option) *StringBuffer {
	o := defaultOptions
	for _, opt := range opts {
		opt.apply(&o)
	}

	s := &StringBuffer{}
	if o.capacity > 0 && o.capacity <= MaxCount {
		s.buf.Resize((o.capacity+1)<<Wide.shift(), false)
	}
	s.Clear()
	return s
}

// Literal creates a StringBuffer that borrows lit, which must be ASCII.
func Literal(lit string) *StringBuffer {
	s := New()
	s.SetLiteral(lit)
	return s
}

// LiteralUTF8 creates a StringBuffer that borrows lit, which must be valid
// UTF-8. Use FromUTF8 for input that was not checked.
func LiteralUTF8(lit string) *StringBuffer {
	s := New()
	s.SetLiteralUTF8(lit)
	return s
}

// LiteralWide creates a StringBuffer that borrows w. The caller must not
// modify w while the StringBuffer references it.
func LiteralWide(w []uint16) *StringBuffer {
	s := New()
	s.SetLiteralWide(w)
	return s
}

// FromASCII creates a StringBuffer holding a copy of str, which must be ASCII.
func FromASCII(str string) (*StringBuffer, error) {
	s := New()
	if err := s.SetASCII(str); err != nil {
		return nil, err
	}
	return s, nil
}

// FromUTF8 creates a StringBuffer holding a copy of str.
func FromUTF8(str string) (*StringBuffer, error) {
	s := New()
	if err := s.SetUTF8(str); err != nil {
		return nil, err
	}
	return s, nil
}

// FromWide creates a StringBuffer holding a copy of w.
func FromWide(w []uint16) (*StringBuffer, error) {
	s := New()
	if err := s.SetWide(w); err != nil {
		return nil, err
	}
	return s, nil
}

// Clone returns a new StringBuffer with the content of s. Borrowed content
// stays shared.
func (s *StringBuffer) Clone() *StringBuffer {
	c := New()
	debug.AssertNoErr(c.Set(s))
	return c
}

// Set replaces the content of s with the content of t, keeping its
// representation. Borrowed content of t is shared instead of copied when s
// has no suitable allocation of its own.
func (s *StringBuffer) Set(t *StringBuffer) error {
	if s == t {
		return nil
	}
	if t.count == 0 {
		s.Clear()
		return nil
	}

	size := (t.count + 1) << t.rep.shift()
	if t.buf.IsImmutable() && (s.buf.IsImmutable() || s.buf.Allocation() < size) {
		s.borrow(t.buf.Bytes(), t.count, t.rep)
	} else {
		if err := s.resize(t.count, t.rep, false); err != nil {
			return err
		}
		copy(s.buf.Bytes(), t.rawBytes())
	}
	s.flags |= t.flags & flagASCIIScanned
	return nil
}

// SetASCII replaces the content with a copy of str, which must be ASCII.
func (s *StringBuffer) SetASCII(str string) error {
	debug.Assert(isASCII(str), "strbuf: SetASCII with non-ASCII content")
	return s.setNarrow(str, NarrowFixed)
}

// SetUTF8 replaces the content with a copy of str. Invalid UTF-8 fails with
// ErrEncoding and leaves s unchanged.
func (s *StringBuffer) SetUTF8(str string) error {
	if err := validateUTF8(stringBytes(str)); err != nil {
		return err
	}
	return s.setNarrow(str, NarrowExtended)
}

func (s *StringBuffer) setNarrow(str string, rep Representation) error {
	if len(str) == 0 {
		s.Clear()
		return nil
	}
	if err := s.resize(len(str), rep, false); err != nil {
		return err
	}
	copy(s.buf.Bytes(), str)
	return nil
}

// SetWide replaces the content with a copy of w.
func (s *StringBuffer) SetWide(w []uint16) error {
	if len(w) == 0 {
		s.Clear()
		return nil
	}
	if err := s.resize(len(w), Wide, false); err != nil {
		return err
	}
	copy(s.wide(), w)
	return nil
}

// SetChar replaces the content with the single wide code unit c. A zero code
// unit clears the string.
func (s *StringBuffer) SetChar(c uint16) error {
	if c == 0 {
		s.Clear()
		return nil
	}
	if err := s.resize(1, Wide, false); err != nil {
		return err
	}
	s.wide()[0] = c
	return nil
}

// SetLiteral points s at lit without copying. lit must be ASCII. A trailing
// zero byte is treated as the terminator.
func (s *StringBuffer) SetLiteral(lit string) {
	debug.Assert(isASCII(lit), "strbuf: ASCII literal with non-ASCII content")
	s.setLiteral(stringBytes(lit), NarrowFixed)
}

// SetLiteralUTF8 points s at lit without copying. lit must be valid UTF-8.
func (s *StringBuffer) SetLiteralUTF8(lit string) {
	debug.AssertFunc(func() bool { return validateUTF8(stringBytes(lit)) == nil }, "strbuf: UTF-8 literal is not valid UTF-8")
	s.setLiteral(stringBytes(lit), NarrowExtended)
}

// SetLiteralWide points s at w without copying. A trailing zero code unit is
// treated as the terminator.
func (s *StringBuffer) SetLiteralWide(w []uint16) {
	s.setLiteral(wideBytes(w), Wide)
}

func (s *StringBuffer) setLiteral(p []byte, rep Representation) {
	shift := rep.shift()
	count := len(p) >> shift
	if count > 0 && isZeroUnit(p, count-1, shift) {
		count--
	}
	if count > MaxCount {
		panic(errors.Wrapf(ErrOutOfMemory, "literal of %d code units", count))
	}
	s.borrow(p, count, rep)
}

func isZeroUnit(p []byte, i int, shift uint) bool {
	if shift == 0 {
		return p[i] == 0
	}
	return p[2*i] == 0 && p[2*i+1] == 0
}

// borrow points s at p, which holds at least count code units of rep.
func (s *StringBuffer) borrow(p []byte, count int, rep Representation) {
	if count == 0 {
		s.Clear()
		return
	}
	s.buf.SetImmutable(p)
	s.setRepresentation(rep)
	s.count = count
	s.flags = 0
	s.gen++
}

// Clear empties the string. An owned allocation is kept for reuse, anything
// else is replaced by the shared empty storage.
func (s *StringBuffer) Clear() {
	s.setRepresentation(Empty)
	s.count = 0
	s.flags = 0

	if s.buf.IsImmutable() || s.buf.Allocation() < 2 {
		s.buf.SetImmutable(emptyStorage())
		s.gen++
		return
	}

	s.buf.TweakSize(2)
	clear(s.buf.Bytes())
}

// Resize changes the number of code units to count in representation rep.
// With preserve set, content up to the smaller of the old and new size is
// kept, otherwise it is unspecified. A count of zero clears the string.
func (s *StringBuffer) Resize(count int, rep Representation, preserve bool) error {
	if !rep.valid() {
		panic(unexpectedRepresentation(rep))
	}
	if rep == Empty && count != 0 {
		return errors.Wrapf(ErrInvalidArgument, "%d code units in the %s representation", count, rep)
	}
	return s.resize(count, rep, preserve)
}

func (s *StringBuffer) resize(count int, rep Representation, preserve bool) error {
	if count == 0 {
		s.Clear()
		return nil
	}
	size, err := sizeOf(count, rep)
	if err != nil {
		return err
	}
	debug.Assert(s != empty, "strbuf: the empty string is read-only")

	s.setRepresentation(rep)
	s.flags &^= flagNormalized
	if s.buf.Resize(size, preserve) {
		s.gen++
	}
	s.count = count
	s.nullTerminate()
	return nil
}

func sizeOf(count int, rep Representation) (int, error) {
	if count < 0 || count > MaxCount {
		return 0, errors.Wrapf(ErrOutOfMemory, "%d code units do not fit a %s buffer", count, rep)
	}
	return (count + 1) << rep.shift(), nil
}

// Shrink releases owned memory beyond what the content needs.
func (s *StringBuffer) Shrink() {
	if s.buf.Shrink() {
		s.gen++
	}
}

// Normalize makes the string iteratable and owned.
func (s *StringBuffer) Normalize() {
	s.convertToFixed()
	s.ensureMutable(nil)
	s.flags |= flagNormalized
}

// IsNormalized reports whether Normalize ran since the last change of size.
func (s *StringBuffer) IsNormalized() bool {
	return s.flags&flagNormalized != 0
}

// IsEmpty reports whether the string holds no code units.
func (s *StringBuffer) IsEmpty() bool {
	return s.count == 0
}

// IsImmutable reports whether the content is borrowed.
func (s *StringBuffer) IsImmutable() bool {
	return s.buf.IsImmutable()
}

// Count returns the number of code units after making the string iteratable.
func (s *StringBuffer) Count() int {
	s.convertToFixed()
	return s.count
}

// RawCount returns the number of code units in the current representation.
func (s *StringBuffer) RawCount() int {
	return s.count
}

// Allocation returns the owned capacity in bytes.
func (s *StringBuffer) Allocation() int {
	return s.buf.Allocation()
}

// Allocations returns how many times the string allocated memory.
func (s *StringBuffer) Allocations() int {
	return s.buf.Allocations()
}

// ensureMutable moves borrowed content into owned memory, keeping it at the
// same index.
func (s *StringBuffer) ensureMutable(it *Iterator) {
	if !s.buf.IsImmutable() || s.count == 0 {
		return
	}
	index := it.index()
	debug.AssertNoErr(s.resize(s.count, s.rep, true))
	it.resync(s, index)
}

func (s *StringBuffer) nullTerminate() {
	data := s.buf.Bytes()
	clear(data[s.count<<s.rep.shift():])
}

func (s *StringBuffer) rawBytes() []byte {
	return s.buf.Bytes()[:s.count<<s.rep.shift()]
}

func (s *StringBuffer) narrow() []byte {
	return s.buf.Bytes()[:s.count]
}

func (s *StringBuffer) wide() []uint16 {
	if s.count == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(s.buf.Pointer()), s.count)
}

func stringBytes(str string) []byte {
	return unsafe.Slice(unsafe.StringData(str), len(str))
}

func wideBytes(w []uint16) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(w))), len(w)*2)
}
