package strbuf

import (
	"bytes"
	"slices"
)

// Find moves it forward to the first occurrence of t at or after it. On a
// miss it is left in place and Find returns false. An empty t matches at it.
func (s *StringBuffer) Find(it *Iterator, t *StringBuffer) bool {
	if !s.checkQuery(it) {
		return false
	}
	var scratch StringBuffer
	src := s.compatible(t, &scratch, it)
	start := it.Index()

	switch s.rep {
	case Wide:
		hay, needle := s.wide(), src.wide()
		for i := start; i <= len(hay)-len(needle); i++ {
			if slices.Equal(hay[i:i+len(needle)], needle) {
				it.resync(s, i)
				return true
			}
		}
	case NarrowFixed:
		if i := bytes.Index(s.narrow()[start:], src.narrow()); i >= 0 {
			it.resync(s, start+i)
			return true
		}
	case Empty:
		return src.count == 0
	default:
		panic(unexpectedRepresentation(s.rep))
	}
	return false
}

// FindChar moves it forward to the first occurrence of c at or after it.
func (s *StringBuffer) FindChar(it *Iterator, c uint16) bool {
	if !s.checkQuery(it) {
		return false
	}
	if c >= 0x80 {
		s.convertToWide(it)
	}
	start := it.Index()

	switch s.rep {
	case Wide:
		if i := slices.Index(s.wide()[start:], c); i >= 0 {
			it.resync(s, start+i)
			return true
		}
	case NarrowFixed:
		if i := bytes.IndexByte(s.narrow()[start:], byte(c)); i >= 0 {
			it.resync(s, start+i)
			return true
		}
	case Empty:
	default:
		panic(unexpectedRepresentation(s.rep))
	}
	return false
}

// FindBack moves it backwards to the last occurrence of t that starts at or
// before it.
func (s *StringBuffer) FindBack(it *Iterator, t *StringBuffer) bool {
	if !s.checkQuery(it) {
		return false
	}
	var scratch StringBuffer
	src := s.compatible(t, &scratch, it)
	// Start at the iterator, or as late as the needle still fits.
	start := min(it.Index(), s.count-src.count)

	switch s.rep {
	case Wide:
		hay, needle := s.wide(), src.wide()
		for i := start; i >= 0; i-- {
			if slices.Equal(hay[i:i+len(needle)], needle) {
				it.resync(s, i)
				return true
			}
		}
	case NarrowFixed:
		if start < 0 {
			return false
		}
		if i := bytes.LastIndex(s.narrow()[:start+src.count], src.narrow()); i >= 0 {
			it.resync(s, i)
			return true
		}
	case Empty:
		return src.count == 0
	default:
		panic(unexpectedRepresentation(s.rep))
	}
	return false
}

// FindBackChar moves it backwards to the last occurrence of c at or before it.
func (s *StringBuffer) FindBackChar(it *Iterator, c uint16) bool {
	if !s.checkQuery(it) {
		return false
	}
	if c >= 0x80 {
		s.convertToWide(it)
	}
	start := min(it.Index(), s.count-1)

	switch s.rep {
	case Wide:
		units := s.wide()
		for i := start; i >= 0; i-- {
			if units[i] == c {
				it.resync(s, i)
				return true
			}
		}
	case NarrowFixed:
		if i := bytes.LastIndexByte(s.narrow()[:start+1], byte(c)); i >= 0 {
			it.resync(s, i)
			return true
		}
	case Empty:
	default:
		panic(unexpectedRepresentation(s.rep))
	}
	return false
}

// Match reports whether t occurs at it.
func (s *StringBuffer) Match(it *Iterator, t *StringBuffer) bool {
	if !s.checkQuery(it) {
		return false
	}
	var scratch StringBuffer
	src := s.compatible(t, &scratch, it)
	i := it.Index()
	if s.count-i < src.count {
		return false
	}

	switch s.rep {
	case Wide:
		return slices.Equal(s.wide()[i:i+src.count], src.wide())
	case NarrowFixed:
		return bytes.Equal(s.narrow()[i:i+src.count], src.narrow())
	case Empty:
		return true
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// MatchCaseInsensitive reports whether t occurs at it, ignoring case.
func (s *StringBuffer) MatchCaseInsensitive(it *Iterator, t *StringBuffer) bool {
	if !s.checkQuery(it) {
		return false
	}
	var scratch StringBuffer
	src := s.compatible(t, &scratch, it)
	i := it.Index()
	if s.count-i < src.count {
		return false
	}

	switch s.rep {
	case Wide:
		return caseCompareWide(s.wide()[i:i+src.count], src.wide()) == 0
	case NarrowFixed:
		return caseCompareASCII(s.narrow()[i:i+src.count], src.narrow()) == 0
	case Empty:
		return true
	default:
		panic(unexpectedRepresentation(s.rep))
	}
}

// MatchChar reports whether the code unit at it is c.
func (s *StringBuffer) MatchChar(it *Iterator, c uint16) bool {
	if !s.checkQuery(it) || it.Index() >= s.count {
		return false
	}
	return it.Unit() == c
}

// MatchCharCaseInsensitive reports whether the code unit at it is c,
// ignoring case.
func (s *StringBuffer) MatchCharCaseInsensitive(it *Iterator, c uint16) bool {
	if !s.checkQuery(it) || it.Index() >= s.count {
		return false
	}
	test := it.Unit()
	return test == c || upper(test) == upper(c)
}

// BeginsWith reports whether s starts with t.
func (s *StringBuffer) BeginsWith(t *StringBuffer) bool {
	it := s.Begin()
	return s.Match(&it, t)
}

// BeginsWithCaseInsensitive reports whether s starts with t, ignoring case.
func (s *StringBuffer) BeginsWithCaseInsensitive(t *StringBuffer) bool {
	it := s.Begin()
	return s.MatchCaseInsensitive(&it, t)
}

// EndsWith reports whether s ends with t.
func (s *StringBuffer) EndsWith(t *StringBuffer) bool {
	it, ok := s.suffixStart(t)
	return ok && s.Match(&it, t)
}

// EndsWithCaseInsensitive reports whether s ends with t, ignoring case.
func (s *StringBuffer) EndsWithCaseInsensitive(t *StringBuffer) bool {
	it, ok := s.suffixStart(t)
	return ok && s.MatchCaseInsensitive(&it, t)
}

func (s *StringBuffer) suffixStart(t *StringBuffer) (Iterator, bool) {
	n := t.Count()
	if s.Count() < n {
		return Iterator{}, false
	}
	it := s.End()
	it.Advance(-n)
	return it, true
}
