package wasm

import "github.com/lovromazgon/strbuf/buffer"

// allocator owns the request buffers the host writes into and the last
// response the host reads from. Buffers are keyed by their address in guest
// memory, which is what the host holds on to.
type allocator struct {
	buffers  map[uintptr]*buffer.Buffer
	response *buffer.Buffer
}

func newAllocator() *allocator {
	return &allocator{
		buffers:  make(map[uintptr]*buffer.Buffer),
		response: buffer.New(0),
	}
}

// malloc grows the buffer at ptr to size, or allocates a new one if ptr is
// unknown. It returns the address of the buffer, which changes if the buffer
// moved.
func (a *allocator) malloc(ptr uintptr, size uint32) uintptr {
	b, ok := a.buffers[ptr]
	if !ok {
		b = buffer.New(int(size))
		a.buffers[uintptr(b.Pointer())] = b
		return uintptr(b.Pointer())
	}

	if b.Grow(int(size)) {
		delete(a.buffers, ptr)
		a.buffers[uintptr(b.Pointer())] = b
	}
	return uintptr(b.Pointer())
}

// command passes the request in the buffer at ptr to the handler. The buffer
// holds the method name followed by the marshalled request. It returns the
// address of the response in the upper 32 bits and its size in the lower 32
// bits, or 0 if the request is out of bounds.
func (a *allocator) command(ptr uintptr, methodSize, size uint32) uint64 {
	b, ok := a.buffers[ptr]
	if !ok || methodSize > size || int(size) > b.Size() {
		a.response = buffer.New(0)
		return 0
	}

	input := b.Bytes()[:size]
	resp := handler.Handle(string(input[:methodSize]), input[methodSize:])

	// The response must stay reachable until the host has read it.
	a.response = buffer.Borrow(resp)
	return a.response.PointerAndSize()
}
