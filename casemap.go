package strbuf

import (
	"unicode"
	"unicode/utf16"
)

// CaseMapper maps wide code units above 0x7F to upper and lower case. ASCII
// code units never reach it.
type CaseMapper interface {
	ToUpper(c uint16) uint16
	ToLower(c uint16) uint16
}

// InvariantCaseMapper maps code units with the simple, locale independent
// case mappings of package unicode. Characters whose mapping leaves the
// basic multilingual plane, and surrogates, map to themselves.
type InvariantCaseMapper struct{}

func (InvariantCaseMapper) ToUpper(c uint16) uint16 { return mapUnit(c, unicode.ToUpper) }
func (InvariantCaseMapper) ToLower(c uint16) uint16 { return mapUnit(c, unicode.ToLower) }

func mapUnit(c uint16, f func(rune) rune) uint16 {
	if utf16.IsSurrogate(rune(c)) {
		return c
	}
	if m := f(rune(c)); m <= 0xFFFF && !utf16.IsSurrogate(m) {
		return uint16(m)
	}
	return c
}

var caseMapper CaseMapper = InvariantCaseMapper{}

// SetCaseMapper installs the mapping used for code units above 0x7F. A nil
// mapper restores InvariantCaseMapper. It must be called before any
// StringBuffer is used concurrently.
func SetCaseMapper(m CaseMapper) {
	if m == nil {
		m = InvariantCaseMapper{}
	}
	caseMapper = m
}

func upper(c uint16) uint16 {
	if c < 0x80 {
		return uint16(upperASCII(byte(c)))
	}
	return caseMapper.ToUpper(c)
}

func lower(c uint16) uint16 {
	if c < 0x80 {
		return uint16(lowerASCII(byte(c)))
	}
	return caseMapper.ToLower(c)
}

func upperASCII(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// UpperCase converts the string to wide and maps every code unit to upper case.
func (s *StringBuffer) UpperCase() {
	s.mapCase(upper)
}

// LowerCase converts the string to wide and maps every code unit to lower case.
func (s *StringBuffer) LowerCase() {
	s.mapCase(lower)
}

func (s *StringBuffer) mapCase(f func(uint16) uint16) {
	s.convertToWide(nil)
	s.ensureMutable(nil)
	units := s.wide()
	for i, c := range units {
		units[i] = f(c)
	}
}
