package strbuf

import "fmt"

// Representation is the encoding of the code units held by a StringBuffer.
type Representation uint8

const (
	// Empty holds no code units and is compatible with every representation.
	Empty Representation = iota
	// NarrowFixed holds 8-bit code units that are all known to be ASCII.
	NarrowFixed
	// NarrowExtended holds UTF-8 bytes that have not been proven ASCII.
	NarrowExtended
	// Wide holds 16-bit UTF-16 code units.
	Wide
)

func (r Representation) String() string {
	switch r {
	case Empty:
		return "empty"
	case NarrowFixed:
		return "narrow-fixed"
	case NarrowExtended:
		return "narrow-extended"
	case Wide:
		return "wide"
	default:
		return fmt.Sprintf("Representation(%d)", uint8(r))
	}
}

// IsNarrow reports whether r uses 8-bit code units.
func (r Representation) IsNarrow() bool {
	return r == NarrowFixed || r == NarrowExtended
}

// UnitSize returns the size of a code unit in bytes. The empty representation
// is sized like a wide string, its terminator is a wide zero.
func (r Representation) UnitSize() int {
	return 1 << r.shift()
}

func (r Representation) shift() uint {
	switch r {
	case Empty, Wide:
		return 1
	case NarrowFixed, NarrowExtended:
		return 0
	default:
		panic(unexpectedRepresentation(r))
	}
}

func (r Representation) valid() bool {
	return r <= Wide
}

func unexpectedRepresentation(r Representation) string {
	return fmt.Sprintf("strbuf: unexpected representation %d", uint8(r))
}

// Representation returns the current representation without converting.
func (s *StringBuffer) Representation() Representation {
	return s.rep
}

// IsRepresentation reports whether the buffer can be treated as r without a
// conversion. An empty buffer matches everything. A narrow buffer matches a
// narrow target when it is, or can be proven to be, ASCII.
func (s *StringBuffer) IsRepresentation(r Representation) bool {
	if s.rep == r || s.rep == Empty {
		return true
	}

	if s.rep != Wide && r != Wide {
		if s.rep == NarrowFixed {
			return true
		}
		// We really want to be ASCII, scan to see if we qualify.
		if s.ScanASCII() {
			return true
		}
	}

	return false
}

// ScanASCII reports whether every code unit of a narrow buffer is ASCII,
// promoting NarrowExtended to NarrowFixed when it is. A negative result is
// cached until the content changes. Wide buffers are never downgraded.
func (s *StringBuffer) ScanASCII() bool {
	switch s.rep {
	case Empty, NarrowFixed:
		return true
	case Wide:
		return false
	case NarrowExtended:
	default:
		panic(unexpectedRepresentation(s.rep))
	}

	if s.flags&flagASCIIScanned != 0 {
		return false
	}

	if isASCII(s.narrow()) {
		s.setRepresentation(NarrowFixed)
		return true
	}

	s.flags |= flagASCIIScanned
	return false
}

// IsASCIIScanned reports whether a scan already found non-ASCII content.
func (s *StringBuffer) IsASCIIScanned() bool {
	return s.flags&flagASCIIScanned != 0
}

// IsFixedSize reports whether every character is a single code unit, which
// is what iterators and searches need.
func (s *StringBuffer) IsFixedSize() bool {
	return s.rep != NarrowExtended
}

// setRepresentation changes the tag. Changing the code unit width moves every
// position, so it starts a new generation.
func (s *StringBuffer) setRepresentation(r Representation) {
	if r.shift() != s.rep.shift() {
		s.gen++
	}
	s.rep = r
	s.flags &^= flagASCIIScanned
}

func isASCII[T string | []byte](p T) bool {
	for i := 0; i < len(p); i++ {
		if p[i]&0x80 != 0 {
			return false
		}
	}
	return true
}
