package wasm

import (
	"testing"

	"github.com/matryer/is"
)

func withHandler(t *testing.T, h Handler) {
	t.Helper()
	prev := handler
	Init(h)
	t.Cleanup(func() { handler = prev })
}

func TestAllocator_Malloc(t *testing.T) {
	t.Run("should allocate a new buffer for an unknown pointer", func(t *testing.T) {
		is := is.New(t)
		a := newAllocator()

		ptr := a.malloc(0, 16)

		is.True(ptr != 0)
		is.Equal(len(a.buffers), 1)
		is.Equal(a.buffers[ptr].Size(), 16)
	})

	t.Run("should keep the pointer when the buffer fits", func(t *testing.T) {
		is := is.New(t)
		a := newAllocator()
		ptr := a.malloc(0, 16)
		a.buffers[ptr].TweakSize(4)

		is.Equal(a.malloc(ptr, 12), ptr)
		is.Equal(a.buffers[ptr].Size(), 12)
	})

	t.Run("should move a buffer that grows past its allocation", func(t *testing.T) {
		is := is.New(t)
		a := newAllocator()
		ptr := a.malloc(0, 8)
		copy(a.buffers[ptr].Bytes(), "strbuf")

		moved := a.malloc(ptr, 1024)

		is.True(moved != ptr)
		is.Equal(len(a.buffers), 1)
		is.Equal(string(a.buffers[moved].Bytes()[:6]), "strbuf")
	})
}

func TestAllocator_Command(t *testing.T) {
	t.Run("should split the method from the request", func(t *testing.T) {
		is := is.New(t)
		var gotMethod, gotReq string
		withHandler(t, HandlerFunc(func(method string, req []byte) []byte {
			gotMethod, gotReq = method, string(req)
			return []byte("response")
		}))
		a := newAllocator()
		ptr := a.malloc(0, 32)
		n := copy(a.buffers[ptr].Bytes(), "/svc/Methodpayload")

		out := a.command(ptr, 11, uint32(n))

		is.Equal(gotMethod, "/svc/Method")
		is.Equal(gotReq, "payload")
		is.Equal(uint32(out), uint32(len("response")))
		is.Equal(uint32(out>>32), uint32(uintptr(a.response.Pointer())))
		is.Equal(string(a.response.Bytes()), "response")
	})

	t.Run("should answer an empty response from the default handler", func(t *testing.T) {
		is := is.New(t)
		a := newAllocator()
		ptr := a.malloc(0, 8)

		is.Equal(a.command(ptr, 1, 2), uint64(0))
	})

	testCases := []struct {
		name       string
		methodSize uint32
		size       uint32
		unknown    bool
	}{
		{name: "an unknown buffer", methodSize: 1, size: 2, unknown: true},
		{name: "a method larger than the request", methodSize: 4, size: 2},
		{name: "a request larger than the buffer", methodSize: 1, size: 64},
	}
	for _, tc := range testCases {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			is := is.New(t)
			called := false
			withHandler(t, HandlerFunc(func(string, []byte) []byte {
				called = true
				return []byte("x")
			}))
			a := newAllocator()
			ptr := a.malloc(0, 8)
			if tc.unknown {
				ptr++
			}

			is.Equal(a.command(ptr, tc.methodSize, tc.size), uint64(0))
			is.True(!called)
		})
	}
}
