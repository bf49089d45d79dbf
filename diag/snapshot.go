package diag

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/lovromazgon/strbuf"
	"golang.org/x/text/encoding/unicode"
	"google.golang.org/protobuf/types/known/structpb"
)

// Snapshot is a copy of a guest string buffer. Content holds the code units
// in the guest's representation without the terminator; wide code units are
// little endian, as in Wasm memory.
type Snapshot struct {
	Name       string
	Descriptor strbuf.Descriptor
	Content    []byte
}

// Units returns the content as wide code units.
func (s *Snapshot) Units() ([]uint16, error) {
	buf, err := s.StringBuffer()
	if err != nil {
		return nil, err
	}
	units := make([]uint16, buf.Count()+1)
	n, _ := buf.CopyWide(units)
	return units[:n-1], nil
}

// Text decodes the content into a Go string. Unpaired surrogates in wide
// content decode to U+FFFD.
func (s *Snapshot) Text() (string, error) {
	switch s.Descriptor.Representation {
	case strbuf.Empty:
		return "", nil
	case strbuf.NarrowFixed, strbuf.NarrowExtended:
		if !utf8.Valid(s.Content) {
			return "", fmt.Errorf("%s content is not valid UTF-8", s.Descriptor.Representation)
		}
		return string(s.Content), nil
	case strbuf.Wide:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(s.Content)
		if err != nil {
			return "", fmt.Errorf("failed to decode wide content: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown representation %d", s.Descriptor.Representation)
	}
}

// StringBuffer rebuilds the buffer on the host, in the same representation.
func (s *Snapshot) StringBuffer() (*strbuf.StringBuffer, error) {
	switch s.Descriptor.Representation {
	case strbuf.Empty:
		return strbuf.New(), nil
	case strbuf.NarrowFixed:
		for i, c := range s.Content {
			if c >= utf8.RuneSelf {
				return nil, fmt.Errorf("non-ASCII byte %#02x at %d in narrow-fixed content", c, i)
			}
		}
		return strbuf.FromASCII(string(s.Content))
	case strbuf.NarrowExtended:
		return strbuf.FromUTF8(string(s.Content))
	case strbuf.Wide:
		if len(s.Content)%2 != 0 {
			return nil, fmt.Errorf("wide content has odd size %d", len(s.Content))
		}
		units := make([]uint16, len(s.Content)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(s.Content[2*i:])
		}
		return strbuf.FromWide(units)
	default:
		return nil, fmt.Errorf("unknown representation %d", s.Descriptor.Representation)
	}
}

// Proto returns the snapshot as a struct for structured output.
func (s *Snapshot) Proto() (*structpb.Struct, error) {
	text, err := s.Text()
	if err != nil {
		return nil, err
	}
	d := s.Descriptor
	return structpb.NewStruct(map[string]any{
		"name":           s.Name,
		"representation": d.Representation.String(),
		"count":          d.Count,
		"allocation":     d.Allocation,
		"pointer":        d.Content,
		"immutable":      d.Flags&strbuf.DescriptorImmutable != 0,
		"normalized":     d.Flags&strbuf.DescriptorNormalized != 0,
		"asciiScanned":   d.Flags&strbuf.DescriptorASCIIScanned != 0,
		"text":           text,
	})
}
