package strbuf

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// The accessors in this file serve diagnostic readers. They never convert or
// allocate inside the StringBuffer and accept every representation.

// RawContent returns the code units of the current representation without
// the terminator, or nil for an empty string. The slice aliases the buffer.
func (s *StringBuffer) RawContent() []byte {
	if s.count == 0 {
		return nil
	}
	return s.rawBytes()
}

// RawWide returns the wide code units if the string is wide or empty.
func (s *StringBuffer) RawWide() ([]uint16, bool) {
	switch s.rep {
	case Empty:
		return []uint16{}, true
	case Wide:
		return s.wide(), true
	default:
		return nil, false
	}
}

// CopyWide writes the content as zero terminated wide code units into dst,
// truncating when dst is short. It returns the number of code units needed
// including the terminator. Narrow content is widened on the fly, invalid
// UTF-8 comes out as U+FFFD.
func (s *StringBuffer) CopyWide(dst []uint16) (int, bool) {
	var units []uint16
	switch s.rep {
	case Empty:
	case Wide:
		units = s.wide()
	case NarrowFixed:
		units = make([]uint16, s.count)
		for i, c := range s.narrow() {
			units[i] = uint16(c)
		}
	case NarrowExtended:
		units = make([]uint16, 0, s.count)
		for p := s.narrow(); len(p) > 0; {
			r, size := utf8.DecodeRune(p)
			p = p[size:]
			units = utf16.AppendRune(units, r)
		}
	default:
		return 0, false
	}

	if len(dst) > 0 {
		n := copy(dst[:len(dst)-1], units)
		dst[n] = 0
	}
	return len(units) + 1, true
}

// DescriptorSize is the size of an encoded Descriptor.
const DescriptorSize = 16

// DescriptorFlags are the state bits of a Descriptor.
type DescriptorFlags uint8

const (
	DescriptorImmutable DescriptorFlags = 1 << iota
	DescriptorNormalized
	DescriptorASCIIScanned
)

// Descriptor is the fixed layout header of a StringBuffer that a reader in
// another address space uses to find and decode its content. Content is the
// address of the first code unit in the 32-bit address space of the owner.
type Descriptor struct {
	Representation Representation
	Flags          DescriptorFlags
	Count          uint32
	Allocation     uint32
	Content        uint32
}

// Descriptor returns the header of s.
func (s *StringBuffer) Descriptor() Descriptor {
	var f DescriptorFlags
	if s.buf.IsImmutable() {
		f |= DescriptorImmutable
	}
	if s.flags&flagNormalized != 0 {
		f |= DescriptorNormalized
	}
	if s.flags&flagASCIIScanned != 0 {
		f |= DescriptorASCIIScanned
	}

	return Descriptor{
		Representation: s.rep,
		Flags:          f,
		Count:          uint32(s.count),
		Allocation:     uint32(s.buf.Allocation()),
		Content:        uint32(uintptr(s.buf.Pointer())),
	}
}

// ContentSize returns the size of the content in bytes, without the
// terminator.
func (d Descriptor) ContentSize() int {
	return int(d.Count) << d.Representation.shift()
}

// Validate checks that the descriptor can describe a StringBuffer.
func (d Descriptor) Validate() error {
	if !d.Representation.valid() {
		return errors.Wrapf(ErrInvalidArgument, "unknown representation %d", uint8(d.Representation))
	}
	if d.Count > MaxCount {
		return errors.Wrapf(ErrInvalidArgument, "count %d exceeds %d", d.Count, MaxCount)
	}
	if (d.Representation == Empty) != (d.Count == 0) {
		return errors.Wrapf(ErrInvalidArgument, "%s descriptor with %d code units", d.Representation, d.Count)
	}
	return nil
}

// AppendBinary appends the little endian encoding of d to b.
func (d Descriptor) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(d.Representation), byte(d.Flags), 0, 0)
	b = binary.LittleEndian.AppendUint32(b, d.Count)
	b = binary.LittleEndian.AppendUint32(b, d.Allocation)
	b = binary.LittleEndian.AppendUint32(b, d.Content)
	return b, nil
}

// MarshalBinary returns the little endian encoding of d.
func (d Descriptor) MarshalBinary() ([]byte, error) {
	return d.AppendBinary(make([]byte, 0, DescriptorSize))
}

// UnmarshalBinary decodes and validates a descriptor.
func (d *Descriptor) UnmarshalBinary(b []byte) error {
	if len(b) < DescriptorSize {
		return errors.Wrapf(ErrInvalidArgument, "descriptor needs %d bytes, got %d", DescriptorSize, len(b))
	}
	*d = Descriptor{
		Representation: Representation(b[0]),
		Flags:          DescriptorFlags(b[1]),
		Count:          binary.LittleEndian.Uint32(b[4:]),
		Allocation:     binary.LittleEndian.Uint32(b[8:]),
		Content:        binary.LittleEndian.Uint32(b[12:]),
	}
	return d.Validate()
}
