// Package buffer manages the raw byte storage behind a text buffer. A Buffer
// either owns its memory (mutable, heap allocated) or borrows an immutable
// view of memory owned by someone else, such as string literal data. Any
// operation that would write to borrowed memory first moves the content into
// an owned allocation.
package buffer

import (
	"math"
	"unsafe"
)

// MaxSize is the largest size in bytes a Buffer can hold. Sizes are kept in
// 32 bits so a pointer and a size can be packed into a single uint64.
const MaxSize = math.MaxInt32

// align is the granularity of owned allocations. Rounding capacities up keeps
// owned storage aligned for 16-bit code unit access.
const align = 8

// Buffer is a byte store that separates the logical size (len) from the
// allocation (cap) of the owned memory.
type Buffer struct {
	data      []byte
	immutable bool
	allocs    int
}

// New creates an owned buffer with the given size.
func New(size int) *Buffer {
	b := &Buffer{}
	if size > 0 {
		b.reallocate(size, allocationSize(size), false)
	}
	return b
}

// Borrow creates a buffer that references p without copying it. The caller
// guarantees p outlives the buffer and is never modified.
func Borrow(p []byte) *Buffer {
	b := &Buffer{}
	b.SetImmutable(p)
	return b
}

// SetImmutable points the buffer at p without copying it. Any previously
// owned memory is released to the garbage collector.
func (b *Buffer) SetImmutable(p []byte) {
	b.data = p
	b.immutable = true
}

// Bytes returns the content of the buffer. The slice aliases the buffer and
// is only valid until the next operation that changes its geometry.
func (b *Buffer) Bytes() []byte { return b.data }

// Size returns the logical size of the buffer in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Allocation returns the capacity of owned memory, or 0 when the buffer
// borrows its content.
func (b *Buffer) Allocation() int {
	if b.immutable {
		return 0
	}
	return cap(b.data)
}

// IsImmutable reports whether the buffer borrows its content.
func (b *Buffer) IsImmutable() bool { return b.immutable }

// IsAllocated reports whether the buffer owns memory.
func (b *Buffer) IsAllocated() bool { return !b.immutable && cap(b.data) > 0 }

// Allocations returns how many times this buffer allocated memory.
func (b *Buffer) Allocations() int { return b.allocs }

// Resize changes the size of the buffer and allocates more memory if needed.
// If preserve is set, content up to min(old size, size) is retained when the
// buffer moves, otherwise the content is unspecified afterwards. Borrowed
// content always moves into a fresh owned allocation. If new memory was
// allocated, the function returns true; otherwise it returns false.
func (b *Buffer) Resize(size int, preserve bool) bool {
	checkSize(size)

	if !b.immutable && size <= cap(b.data) {
		b.data = b.data[:size]
		return false
	}

	alloc := allocationSize(size)
	if preserve && !b.immutable && size/2 <= MaxSize-size {
		// Growing an owned buffer that keeps its content is usually an
		// append, so leave headroom for the next one.
		alloc = allocationSize(size + size/2)
	}

	b.reallocate(size, alloc, preserve)
	return true
}

// Grow resizes the buffer to size while preserving the existing content. It
// reports whether memory was reallocated.
func (b *Buffer) Grow(size int) bool {
	return b.Resize(size, true)
}

// TweakSize changes the size within the current allocation. The buffer must
// own enough memory.
func (b *Buffer) TweakSize(size int) {
	if b.immutable || size < 0 || size > cap(b.data) {
		panic("buffer: TweakSize outside of the owned allocation")
	}
	b.data = b.data[:size]
}

// EnsureMutable moves borrowed content into an owned allocation. It reports
// whether memory was allocated.
func (b *Buffer) EnsureMutable() bool {
	if !b.immutable {
		return false
	}
	b.reallocate(len(b.data), allocationSize(len(b.data)), true)
	return true
}

// Replace deletes deleteSize bytes at offset and opens a gap of insertSize
// bytes in their place, moving the tail of the buffer accordingly. The gap
// content is unspecified. It reports whether memory was reallocated.
func (b *Buffer) Replace(offset, deleteSize, insertSize int) bool {
	oldSize := len(b.data)
	if offset < 0 || deleteSize < 0 || insertSize < 0 || offset+deleteSize > oldSize {
		panic("buffer: Replace range out of bounds")
	}

	tail := oldSize - offset - deleteSize
	delta := insertSize - deleteSize

	if delta > 0 {
		reallocated := b.Resize(oldSize+delta, true)
		copy(b.data[offset+insertSize:], b.data[offset+deleteSize:offset+deleteSize+tail])
		return reallocated
	}

	reallocated := b.EnsureMutable()
	copy(b.data[offset+insertSize:], b.data[offset+deleteSize:oldSize])
	b.data = b.data[:oldSize+delta]
	return reallocated
}

// Shrink trims an owned allocation down to the logical size. It reports
// whether memory was reallocated.
func (b *Buffer) Shrink() bool {
	if b.immutable || allocationSize(len(b.data)) >= cap(b.data) {
		return false
	}
	b.reallocate(len(b.data), allocationSize(len(b.data)), true)
	return true
}

// Pointer returns a pointer to the buffer's data.
// Includes a safety check for zero-length slices to prevent panics.
func (b *Buffer) Pointer() unsafe.Pointer {
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b.data))
}

// PointerAndSize returns the pointer and size in a single uint64.
// The higher 32 bits are the pointer, and the lower 32 bits are the size.
func (b *Buffer) PointerAndSize() uint64 {
	return (uint64(uintptr(b.Pointer())) << 32) | uint64(uint32(len(b.data)))
}

func (b *Buffer) reallocate(size, alloc int, preserve bool) {
	data := make([]byte, size, alloc)
	if preserve {
		copy(data, b.data)
	}

	b.data = data
	b.immutable = false
	b.allocs++
}

func allocationSize(size int) int {
	if size <= 0 {
		return align
	}
	if size > MaxSize-align {
		return size
	}
	return (size + align - 1) &^ (align - 1)
}

func checkSize(size int) {
	if size < 0 || size > MaxSize {
		panic("buffer: size out of range")
	}
}
