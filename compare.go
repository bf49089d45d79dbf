package strbuf

import (
	"bytes"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/lovromazgon/strbuf/internal/debug"
)

const hashSeed = 5381

// compatible returns t, or a copy of t in scratch, in a representation that
// can be compared unit by unit with s. The receiver is made fixed size first,
// and widened itself when that saves copying t. With a non-nil iterator s
// must already be fixed size, and the iterator follows any conversion.
func (s *StringBuffer) compatible(t, scratch *StringBuffer, it *Iterator) *StringBuffer {
	if it == nil {
		s.convertToFixed()
	} else {
		debug.Assert(s.IsFixedSize(), "strbuf: iterator over a variable size string")
	}

	switch s.rep {
	case Empty:
		return t
	case NarrowFixed:
		if t.IsRepresentation(NarrowFixed) {
			return t
		}
		// Converting s to wide is cheaper than converting t to narrow later.
		s.convertToWide(it)
		fallthrough
	case Wide:
		if t.IsRepresentation(Wide) {
			return t
		}
		t.widenInto(scratch)
		return scratch
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// widenInto writes a wide copy of s into dst without changing s.
func (s *StringBuffer) widenInto(dst *StringBuffer) {
	switch s.rep {
	case Empty:
		dst.Clear()
	case NarrowFixed:
		s.widenASCII(dst)
	case NarrowExtended:
		debug.AssertNoErr(s.decodeUTF8(dst, false))
	case Wide:
		debug.AssertNoErr(dst.Set(s))
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// Compare returns a negative number, zero or a positive number when s sorts
// before, equal to or after t, comparing code units and then lengths.
func (s *StringBuffer) Compare(t *StringBuffer) int {
	var scratch StringBuffer
	src := s.compatible(t, &scratch, nil)
	smaller, equals := lengthOrder(s.count, src.count)

	result := 0
	switch s.rep {
	case Wide:
		result = slices.Compare(s.wide()[:smaller], src.wide()[:smaller])
	case NarrowFixed:
		result = bytes.Compare(s.narrow()[:smaller], src.narrow()[:smaller])
	case Empty:
	default:
		panic(unexpectedRepresentation(s.rep))
	}

	if result == 0 {
		return equals
	}
	return result
}

// CompareCaseInsensitive is Compare with both sides mapped to upper case.
// Lengths are compared unmapped.
func (s *StringBuffer) CompareCaseInsensitive(t *StringBuffer) int {
	var scratch StringBuffer
	src := s.compatible(t, &scratch, nil)
	smaller, equals := lengthOrder(s.count, src.count)

	result := 0
	switch s.rep {
	case Wide:
		result = caseCompareWide(s.wide()[:smaller], src.wide()[:smaller])
	case NarrowFixed:
		result = caseCompareASCII(s.narrow()[:smaller], src.narrow()[:smaller])
	case Empty:
	default:
		panic(unexpectedRepresentation(s.rep))
	}

	if result == 0 {
		return equals
	}
	return result
}

// Equals reports whether s and t hold the same code units.
func (s *StringBuffer) Equals(t *StringBuffer) bool {
	var scratch StringBuffer
	src := s.compatible(t, &scratch, nil)
	if s.count != src.count {
		return false
	}

	switch s.rep {
	case Wide:
		return slices.Equal(s.wide(), src.wide())
	case NarrowFixed:
		return bytes.Equal(s.narrow(), src.narrow())
	case Empty:
		return true
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// EqualsCaseInsensitive reports whether s and t are equal after mapping both
// to upper case.
func (s *StringBuffer) EqualsCaseInsensitive(t *StringBuffer) bool {
	var scratch StringBuffer
	src := s.compatible(t, &scratch, nil)
	if s.count != src.count {
		return false
	}

	switch s.rep {
	case Wide:
		return caseCompareWide(s.wide(), src.wide()) == 0
	case NarrowFixed:
		return caseCompareASCII(s.narrow(), src.narrow()) == 0
	case Empty:
		return true
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// Hash returns the djb2 xor hash of the wide code units. The string is
// converted to wide, so equal strings hash equally whatever representation
// they started in.
func (s *StringBuffer) Hash() uint32 {
	s.convertToWide(nil)

	h := uint32(hashSeed)
	for _, c := range s.wide() {
		h = (h<<5 + h) ^ uint32(c)
	}
	return h
}

// HashCaseInsensitive is Hash over code units mapped to upper case. ASCII
// strings are hashed without widening.
func (s *StringBuffer) HashCaseInsensitive() uint32 {
	s.convertToFixed()

	h := uint32(hashSeed)
	switch s.rep {
	case Wide:
		for _, c := range s.wide() {
			h = (h<<5 + h) ^ uint32(upper(c))
		}
	case NarrowFixed:
		for _, c := range s.narrow() {
			h = (h<<5 + h) ^ uint32(upperASCII(c))
		}
	case Empty:
	default:
		panic(unexpectedRepresentation(s.rep))
	}
	return h
}

// Hash64 returns the xxhash of the wide code units in host byte order. It
// converts the string to wide like Hash.
func (s *StringBuffer) Hash64() uint64 {
	s.convertToWide(nil)
	return xxhash.Sum64(s.rawBytes())
}

// lengthOrder returns the smaller of two lengths and the result of comparing
// them.
func lengthOrder(a, b int) (smaller, result int) {
	switch {
	case a < b:
		return a, -1
	case a > b:
		return b, 1
	default:
		return a, 0
	}
}

func caseCompareWide(a, b []uint16) int {
	for i := range a {
		if c1, c2 := a[i], b[i]; c1 != c2 {
			if d := int(upper(c1)) - int(upper(c2)); d != 0 {
				return d
			}
		}
	}
	return 0
}

func caseCompareASCII(a, b []byte) int {
	for i := range a {
		if c1, c2 := a[i], b[i]; c1 != c2 {
			if d := int(upperASCII(c1)) - int(upperASCII(c2)); d != 0 {
				return d
			}
		}
	}
	return 0
}
