package strbuf

import (
	"github.com/lovromazgon/strbuf/internal/debug"
	"github.com/pkg/errors"
)

// Iterator is a code unit position inside a StringBuffer. It is bound to the
// generation of the buffer it was created from. Reallocating the buffer or
// changing its code unit width starts a new generation, after which the
// iterator is stale until it is resynchronized. Operations that take an
// *Iterator and may move the content resynchronize it themselves.
type Iterator struct {
	s     *StringBuffer
	gen   uint32
	off   int
	shift uint8
}

// Begin returns an iterator at the first code unit. The string is made
// iteratable first.
func (s *StringBuffer) Begin() Iterator {
	s.convertToFixed()
	return s.iteratorAt(0)
}

// End returns an iterator one past the last code unit.
func (s *StringBuffer) End() Iterator {
	s.convertToFixed()
	return s.iteratorAt(s.count)
}

// At returns an iterator at index.
func (s *StringBuffer) At(index int) Iterator {
	s.convertToFixed()
	debug.Assertf(index >= 0 && index <= s.count, "strbuf: index %d outside of [0,%d]", index, s.count)
	return s.iteratorAt(index)
}

func (s *StringBuffer) iteratorAt(index int) Iterator {
	shift := s.rep.shift()
	return Iterator{s: s, gen: s.gen, off: index << shift, shift: uint8(shift)}
}

// Resync binds the iterator to the current generation of s at index.
func (it *Iterator) Resync(s *StringBuffer, index int) {
	s.convertToFixed()
	it.resync(s, index)
}

func (it *Iterator) resync(s *StringBuffer, index int) {
	if it == nil {
		return
	}
	*it = s.iteratorAt(index)
}

func (it *Iterator) index() int {
	if it == nil {
		return 0
	}
	return it.Index()
}

// Buffer returns the StringBuffer the iterator points into.
func (it Iterator) Buffer() *StringBuffer { return it.s }

// Index returns the position in code units.
func (it Iterator) Index() int { return it.off >> it.shift }

// Valid reports whether the iterator belongs to the current generation of
// its buffer.
func (it Iterator) Valid() bool { return it.s != nil && it.gen == it.s.gen }

// Unit returns the code unit at the iterator. The position one past the last
// code unit reads as the terminator.
func (it Iterator) Unit() uint16 {
	debug.Assert(it.Valid(), "strbuf: dereferencing a stale iterator")
	s, i := it.s, it.Index()
	debug.Assertf(i >= 0 && i <= s.count, "strbuf: index %d outside of [0,%d]", i, s.count)
	if i >= s.count {
		return 0
	}

	switch s.rep {
	case Wide:
		return s.wide()[i]
	case NarrowFixed:
		return uint16(s.narrow()[i])
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// Next moves the iterator one code unit forward.
func (it *Iterator) Next() { it.off += 1 << it.shift }

// Prev moves the iterator one code unit back.
func (it *Iterator) Prev() { it.off -= 1 << it.shift }

// Advance moves the iterator n code units, backwards for negative n.
func (it *Iterator) Advance(n int) { it.off += n << it.shift }

// Sub returns the distance in code units from other to it.
func (it Iterator) Sub(other Iterator) int { return it.Index() - other.Index() }

// inRange reports whether it is a current position in s with room for
// length code units after it.
func (s *StringBuffer) inRange(it *Iterator, length int) bool {
	if it == nil || it.s != s || !it.Valid() {
		return false
	}
	i := it.Index()
	return i >= 0 && length >= 0 && i <= s.count-length
}

// checkRange is inRange for mutating operations.
func (s *StringBuffer) checkRange(it *Iterator, length int) error {
	if s.inRange(it, length) {
		return nil
	}
	if it == nil || it.s != s || !it.Valid() {
		return errors.Wrap(ErrInvalidArgument, "iterator is not bound to the current buffer")
	}
	i := it.Index()
	return errors.Wrapf(ErrInvalidArgument, "range [%d,%d) outside of %d code units", i, i+length, s.count)
}

// checkQuery is inRange for queries, which report a miss instead of failing.
func (s *StringBuffer) checkQuery(it *Iterator) bool {
	ok := s.inRange(it, 0)
	debug.Assert(ok, "strbuf: query with an iterator outside of the buffer")
	return ok
}
