package strbuf

import (
	"github.com/lovromazgon/strbuf/internal/debug"
)

// Replace replaces length code units at it with the content of t. The
// iterator is resynchronized to the start of the inserted content.
func (s *StringBuffer) Replace(it *Iterator, length int, t *StringBuffer) error {
	if err := s.checkRange(it, length); err != nil {
		return err
	}

	if s.rep == Empty {
		// Nothing to replace, become a copy of t.
		if err := s.Set(t); err != nil {
			return err
		}
		s.convertToFixed()
		it.resync(s, 0)
		return nil
	}

	var scratch StringBuffer
	src := s.compatible(t, &scratch, it)
	if src == s {
		debug.AssertNoErr(scratch.Set(s))
		src = &scratch
	}
	s.ensureMutable(it)

	index := it.Index()
	count := s.count - length + src.count
	if count == 0 {
		s.Clear()
		it.resync(s, 0)
		return nil
	}
	if _, err := sizeOf(count, s.rep); err != nil {
		return err
	}

	shift := s.rep.shift()
	if s.buf.Replace(index<<shift, length<<shift, src.count<<shift) {
		s.gen++
	}
	s.count = count
	copy(s.buf.Bytes()[index<<shift:], src.rawBytes())
	s.flags &^= flagNormalized

	it.resync(s, index)
	return nil
}

// ReplaceChar overwrites the code unit at it with c. A non-ASCII c widens an
// ASCII string first.
func (s *StringBuffer) ReplaceChar(it *Iterator, c uint16) error {
	if err := s.checkRange(it, 1); err != nil {
		return err
	}

	if s.rep == NarrowFixed && c < 0x80 {
		s.ensureMutable(it)
		s.narrow()[it.Index()] = byte(c)
		return nil
	}

	s.convertToWide(it)
	s.ensureMutable(it)
	s.wide()[it.Index()] = c
	return nil
}

// Insert inserts t at it.
func (s *StringBuffer) Insert(it *Iterator, t *StringBuffer) error {
	return s.Replace(it, 0, t)
}

// Delete removes length code units at it.
func (s *StringBuffer) Delete(it *Iterator, length int) error {
	return s.Replace(it, length, EmptyString())
}

// Truncate drops everything from it to the end.
func (s *StringBuffer) Truncate(it *Iterator) error {
	if err := s.checkRange(it, 0); err != nil {
		return err
	}

	count := it.Index()
	if err := s.resize(count, s.rep, true); err != nil {
		return err
	}
	it.resync(s, count)
	return nil
}

// Append appends t.
func (s *StringBuffer) Append(t *StringBuffer) error {
	it := s.End()
	return s.Replace(&it, 0, t)
}

// AppendASCII appends str, which must be ASCII.
func (s *StringBuffer) AppendASCII(str string) error {
	debug.Assert(isASCII(str), "strbuf: AppendASCII with non-ASCII content")
	var t StringBuffer
	t.borrow(stringBytes(str), len(str), NarrowFixed)
	return s.Append(&t)
}

// AppendUTF8 appends str. Invalid UTF-8 fails with ErrEncoding.
func (s *StringBuffer) AppendUTF8(str string) error {
	if err := validateUTF8(stringBytes(str)); err != nil {
		return err
	}
	var t StringBuffer
	t.borrow(stringBytes(str), len(str), NarrowExtended)
	return s.Append(&t)
}

// AppendWide appends w.
func (s *StringBuffer) AppendWide(w []uint16) error {
	var t StringBuffer
	t.borrow(wideBytes(w), len(w), Wide)
	return s.Append(&t)
}

// AppendChar appends the code unit c. ASCII stays narrow. A zero code unit
// appends nothing.
func (s *StringBuffer) AppendChar(c uint16) error {
	if c == 0 {
		return nil
	}
	if c < 0x80 {
		return s.AppendASCII(string(rune(c)))
	}
	return s.AppendWide([]uint16{c})
}
