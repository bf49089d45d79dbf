package strbuf

import (
	"testing"

	"github.com/matryer/is"
)

func TestScanASCII(t *testing.T) {
	t.Run("should promote ASCII UTF-8 to fixed", func(t *testing.T) {
		is := is.New(t)
		s, err := FromUTF8("plain")
		is.NoErr(err)
		is.Equal(s.Representation(), NarrowExtended)

		is.True(s.ScanASCII())
		is.Equal(s.Representation(), NarrowFixed)
	})

	t.Run("should remember a negative scan", func(t *testing.T) {
		is := is.New(t)
		s := LiteralUTF8("naïve")

		is.True(!s.ScanASCII())
		is.True(s.IsASCIIScanned())
		is.Equal(s.Representation(), NarrowExtended)
		is.True(!s.ScanASCII())
	})

	t.Run("should never downgrade a wide string", func(t *testing.T) {
		is := is.New(t)
		s, err := FromWide([]uint16{'a', 0xe9})
		is.NoErr(err)

		is.True(!s.ScanASCII())
		is.Equal(s.Representation(), Wide)

		ascii := LiteralWide([]uint16{'a', 'b'})
		is.True(!ascii.ScanASCII())
		is.Equal(ascii.Representation(), Wide)
	})

	t.Run("should accept an empty string", func(t *testing.T) {
		is := is.New(t)
		s := New()
		is.True(s.ScanASCII())
		is.Equal(s.Representation(), Empty)
	})
}

func TestIsRepresentation(t *testing.T) {
	testCases := []struct {
		name   string
		s      func() *StringBuffer
		target Representation
		want   bool
		after  Representation
	}{
		{name: "empty matches wide", s: func() *StringBuffer { return New() }, target: Wide, want: true, after: Empty},
		{name: "empty matches narrow", s: func() *StringBuffer { return New() }, target: NarrowFixed, want: true, after: Empty},
		{name: "same tag", s: func() *StringBuffer { return Literal("a") }, target: NarrowFixed, want: true, after: NarrowFixed},
		{name: "fixed matches extended", s: func() *StringBuffer { return Literal("a") }, target: NarrowExtended, want: true, after: NarrowFixed},
		{name: "ASCII extended matches fixed", s: func() *StringBuffer { return LiteralUTF8("a") }, target: NarrowFixed, want: true, after: NarrowFixed},
		{name: "non-ASCII extended does not match fixed", s: func() *StringBuffer { return LiteralUTF8("ä") }, target: NarrowFixed, want: false, after: NarrowExtended},
		{name: "narrow does not match wide", s: func() *StringBuffer { return Literal("a") }, target: Wide, want: false, after: NarrowFixed},
		{name: "wide does not match narrow", s: func() *StringBuffer { return LiteralWide([]uint16{'a'}) }, target: NarrowFixed, want: false, after: Wide},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			s := tc.s()
			is.Equal(s.IsRepresentation(tc.target), tc.want)
			is.Equal(s.Representation(), tc.after)
		})
	}
}

func TestRepresentation_String(t *testing.T) {
	is := is.New(t)
	is.Equal(Wide.String(), "wide")
	is.Equal(Representation(7).String(), "Representation(7)")
	is.Equal(NarrowFixed.UnitSize(), 1)
	is.Equal(Empty.UnitSize(), 2)
}
