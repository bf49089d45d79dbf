package strbuf

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lovromazgon/strbuf/internal/debug"
	"github.com/pkg/errors"
)

// ConvertToWide converts the string to the wide representation in place.
// Content that is not valid UTF-8 fails with ErrEncoding and leaves the
// string unchanged.
func (s *StringBuffer) ConvertToWide() error {
	if s.rep == NarrowExtended {
		if err := validateUTF8(s.narrow()); err != nil {
			return err
		}
	}
	s.convertToWide(nil)
	return nil
}

// ToWide writes a wide copy of s into dst. Converting into the receiver is
// the same as ConvertToWide.
func (s *StringBuffer) ToWide(dst *StringBuffer) error {
	if dst == s {
		return s.ConvertToWide()
	}

	switch s.rep {
	case Empty:
		dst.Clear()
		return nil
	case Wide:
		return dst.Set(s)
	case NarrowFixed:
		s.widenASCII(dst)
		return nil
	case NarrowExtended:
		return s.decodeUTF8(dst, true)
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// ConvertToUTF8 converts the string to UTF-8 in place. An ASCII string is
// only retagged. Wide content with an unpaired surrogate fails with
// ErrEncoding and leaves the string unchanged.
func (s *StringBuffer) ConvertToUTF8() error {
	switch s.rep {
	case Empty, NarrowExtended:
		return nil
	case NarrowFixed:
		s.setRepresentation(NarrowExtended)
		return nil
	case Wide:
		var tmp StringBuffer
		if err := s.encodeUTF8(&tmp); err != nil {
			return err
		}
		s.swap(&tmp)
		return nil
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// ToUTF8 writes a UTF-8 copy of s into dst.
func (s *StringBuffer) ToUTF8(dst *StringBuffer) error {
	if dst == s {
		return s.ConvertToUTF8()
	}

	switch s.rep {
	case Empty:
		dst.Clear()
		return nil
	case NarrowFixed, NarrowExtended:
		return dst.Set(s)
	case Wide:
		return s.encodeUTF8(dst)
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// SetAndConvertToUTF8 replaces the content with w transcoded to UTF-8.
func (s *StringBuffer) SetAndConvertToUTF8(w []uint16) error {
	var lit StringBuffer
	lit.borrow(wideBytes(w), len(w), Wide)
	return lit.ToUTF8(s)
}

// String returns the content as a Go string. It never changes the
// representation; unpaired surrogates come out as U+FFFD.
func (s *StringBuffer) String() string {
	switch s.rep {
	case Empty:
		return ""
	case NarrowFixed, NarrowExtended:
		return string(s.narrow())
	case Wide:
		return string(utf16.Decode(s.wide()))
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// convertToFixed makes every character a single code unit: UTF-8 becomes
// ASCII when a scan allows it and wide otherwise.
func (s *StringBuffer) convertToFixed() {
	if s.rep == NarrowExtended && !s.ScanASCII() {
		s.convertToWide(nil)
	}
}

// convertToWide widens the string in place and moves it to the same index.
// Only fixed size strings can have an iterator.
func (s *StringBuffer) convertToWide(it *Iterator) {
	switch s.rep {
	case Empty, Wide:
		return
	case NarrowFixed:
		index := it.index()
		s.widenASCII(s)
		it.resync(s, index)
	case NarrowExtended:
		debug.Assert(it == nil, "strbuf: iterator over a variable size string")
		var tmp StringBuffer
		debug.AssertNoErr(s.decodeUTF8(&tmp, false))
		s.swap(&tmp)
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// widenASCII zero-extends the ASCII content of s into dst, which may be s.
func (s *StringBuffer) widenASCII(dst *StringBuffer) {
	count := s.count
	if count == 0 {
		dst.Clear()
		return
	}

	if dst == s {
		debug.AssertNoErr(s.resize(count, Wide, true))
		// Back to front, so that no narrow byte is overwritten before it is read.
		data, units := s.buf.Bytes(), s.wide()
		for i := count - 1; i >= 0; i-- {
			units[i] = uint16(data[i])
		}
		return
	}

	debug.AssertNoErr(dst.resize(count, Wide, false))
	units := dst.wide()
	for i, c := range s.narrow() {
		units[i] = uint16(c)
	}
}

// decodeUTF8 writes the UTF-8 content of s into dst as wide code units. In
// strict mode invalid input fails, otherwise it decodes to U+FFFD.
func (s *StringBuffer) decodeUTF8(dst *StringBuffer, strict bool) error {
	src := s.narrow()
	if strict {
		if err := validateUTF8(src); err != nil {
			return err
		}
	}

	n := 0
	for p := src; len(p) > 0; {
		r, size := utf8.DecodeRune(p)
		p = p[size:]
		n += utf16.RuneLen(r)
	}
	if n == 0 {
		dst.Clear()
		return nil
	}
	if err := dst.resize(n, Wide, false); err != nil {
		return err
	}

	units := dst.wide()[:0]
	for p := src; len(p) > 0; {
		r, size := utf8.DecodeRune(p)
		p = p[size:]
		units = utf16.AppendRune(units, r)
	}
	return nil
}

// encodeUTF8 writes the wide content of s into dst as UTF-8. dst is left
// unchanged when s holds an unpaired surrogate.
func (s *StringBuffer) encodeUTF8(dst *StringBuffer) error {
	src := s.wide()
	n, ascii := 0, true
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c < utf8.RuneSelf:
			n++
		case c < 0x800:
			n += 2
		case utf16.IsSurrogate(rune(c)):
			if c >= 0xDC00 || i+1 == len(src) || src[i+1] < 0xDC00 || src[i+1] > 0xDFFF {
				return errors.Wrapf(ErrEncoding, "unpaired surrogate %#04x at code unit %d", c, i)
			}
			i++
			n += 4
		default:
			n += 3
		}
		if c >= utf8.RuneSelf {
			ascii = false
		}
	}

	if n == 0 {
		dst.Clear()
		return nil
	}
	rep := NarrowExtended
	if ascii {
		rep = NarrowFixed
	}
	if err := dst.resize(n, rep, false); err != nil {
		return err
	}

	out := dst.narrow()[:0]
	for i := 0; i < len(src); i++ {
		r := rune(src[i])
		if utf16.IsSurrogate(r) {
			r = utf16.DecodeRune(r, rune(src[i+1]))
			i++
		}
		out = utf8.AppendRune(out, r)
	}
	return nil
}

// swap exchanges the content of s and t.
func (s *StringBuffer) swap(t *StringBuffer) {
	s.buf, t.buf = t.buf, s.buf
	s.rep, t.rep = t.rep, s.rep
	s.count, t.count = t.count, s.count
	s.flags, t.flags = t.flags, s.flags
	s.gen++
	t.gen++
}

func validateUTF8(p []byte) error {
	if utf8.Valid(p) {
		return nil
	}
	for i := 0; i < len(p); {
		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size == 1 {
			return errors.Wrapf(ErrEncoding, "invalid UTF-8 at byte %d", i)
		}
		i += size
	}
	return errors.WithStack(ErrEncoding)
}
