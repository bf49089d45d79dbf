package strbuf

import (
	"testing"

	"github.com/matryer/is"
)

// variants returns the same text in every representation it can take.
func variants(t *testing.T, text string) map[string]*StringBuffer {
	t.Helper()
	utf8, err := FromUTF8(text)
	if err != nil {
		t.Fatal(err)
	}
	wide := New()
	if err := LiteralUTF8(text).ToWide(wide); err != nil {
		t.Fatal(err)
	}

	v := map[string]*StringBuffer{
		"utf8 literal": LiteralUTF8(text),
		"utf8 copy":    utf8,
		"wide":         wide,
	}
	if isASCII(text) {
		v["ascii literal"] = Literal(text)
	}
	return v
}

func TestCompare(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{a: "abc", b: "abcd", want: -1},
		{a: "abcd", b: "abc", want: 1},
		{a: "abc", b: "abc", want: 0},
		{a: "abc", b: "abd", want: -1},
		{a: "", b: "a", want: -1},
		{a: "", b: "", want: 0},
		{a: "b", b: "ab", want: 1},
		{a: "é", b: "e", want: 1},
		{a: "a\x00b", b: "a\x00c", want: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.a+"/"+tc.b, func(t *testing.T) {
			for na, a := range variants(t, tc.a) {
				for nb, b := range variants(t, tc.b) {
					got := a.Compare(b)
					if sign(got) != tc.want {
						t.Errorf("%s %q vs %s %q: got %d, want sign %d", na, tc.a, nb, tc.b, got, tc.want)
					}
				}
			}
		})
	}
}

func TestCompare_Reflexive(t *testing.T) {
	for _, text := range []string{"", "x", "Hello", "grüße", "😀 emoji", "\x00"} {
		for name, s := range variants(t, text) {
			t.Run(name+" "+text, func(t *testing.T) {
				is := is.New(t)
				is.Equal(s.Compare(s), 0)
				is.True(s.Equals(s))
				is.True(s.EqualsCaseInsensitive(s))
			})
		}
	}
}

func TestCompare_NarrowAgainstASCIIWide(t *testing.T) {
	is := is.New(t)
	s := LiteralUTF8("text")
	w := LiteralWide([]uint16{'t', 'e', 'x', 't'})

	is.True(s.Equals(w))
	is.Equal(s.Representation(), Wide) // The receiver is promoted
	is.Equal(w.Representation(), Wide)

	n := Literal("text")
	is.True(w.Equals(n))
	is.Equal(n.Representation(), NarrowFixed) // The argument is copied, never converted
}

func TestCompareCaseInsensitive(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{a: "HELLO", b: "hello", want: 0},
		{a: "abc", b: "ABCD", want: -1},
		{a: "Straße", b: "STRASSE", want: 1},
		{a: "ÄÖÜ", b: "äöü", want: 0},
		{a: "[", b: "a", want: 1}, // '[' sorts after 'Z'
	}

	for _, tc := range testCases {
		t.Run(tc.a+"/"+tc.b, func(t *testing.T) {
			for na, a := range variants(t, tc.a) {
				for nb, b := range variants(t, tc.b) {
					got := a.CompareCaseInsensitive(b)
					if sign(got) != tc.want {
						t.Errorf("%s %q vs %s %q: got %d, want sign %d", na, tc.a, nb, tc.b, got, tc.want)
					}
					if eq := a.EqualsCaseInsensitive(b); eq != (tc.want == 0) {
						t.Errorf("%s %q vs %s %q: equals %v", na, tc.a, nb, tc.b, eq)
					}
				}
			}
		})
	}
}

func TestHash(t *testing.T) {
	t.Run("should hash equal strings equally", func(t *testing.T) {
		for _, text := range []string{"", "Hello", "grüße", "😀"} {
			var want uint32
			var want64 uint64
			first := true
			for name, s := range variants(t, text) {
				h, h64 := s.Hash(), s.Hash64()
				if first {
					want, want64, first = h, h64, false
					continue
				}
				if h != want || h64 != want64 {
					t.Errorf("%s %q: hash %#x/%#x, want %#x/%#x", name, text, h, h64, want, want64)
				}
			}
		}
	})

	t.Run("should follow the djb2 xor recurrence", func(t *testing.T) {
		is := is.New(t)
		h := uint32(5381)
		h = h*33 ^ 'a'
		h = h*33 ^ 'b'
		is.Equal(Literal("ab").Hash(), h)
	})

	t.Run("should hash case variants equally when ignoring case", func(t *testing.T) {
		is := is.New(t)
		for _, pair := range [][2]string{{"Hello", "hELLO"}, {"ÄBC", "äbc"}, {"", ""}} {
			for _, a := range variants(t, pair[0]) {
				for _, b := range variants(t, pair[1]) {
					is.True(a.EqualsCaseInsensitive(b))
					is.Equal(a.HashCaseInsensitive(), b.HashCaseInsensitive())
				}
			}
		}
	})
}

type shoutingMapper struct{}

func (shoutingMapper) ToUpper(c uint16) uint16 { return '!' }
func (shoutingMapper) ToLower(c uint16) uint16 { return '?' }

func TestSetCaseMapper(t *testing.T) {
	is := is.New(t)
	SetCaseMapper(shoutingMapper{})
	defer SetCaseMapper(nil)

	is.True(LiteralUTF8("aé").EqualsCaseInsensitive(LiteralUTF8("Aü")))
	is.True(!LiteralUTF8("aé").Equals(LiteralUTF8("Aü")))

	s := LiteralUTF8("Xé")
	s.LowerCase()
	is.Equal(s.String(), "x?")
}

func TestUpperCase(t *testing.T) {
	is := is.New(t)
	s := Literal("mixed Case 123")
	s.UpperCase()
	is.Equal(s.String(), "MIXED CASE 123")
	is.Equal(s.Representation(), Wide)

	s = LiteralUTF8("ÀÉÎ")
	s.LowerCase()
	is.Equal(s.String(), "àéî")

	e := New()
	e.UpperCase()
	is.True(e.IsEmpty())
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
