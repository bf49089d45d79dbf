package diag

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lovromazgon/strbuf"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Memory is read access to the linear memory of a guest. api.Memory
// implements it.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
}

// Reader copies string buffers out of guest memory. It interprets the memory
// described by a strbuf.Descriptor and never calls into the guest to do so.
type Reader struct {
	opts readerOptions
	mem  Memory
}

func NewReader(mem Memory, opt ...ReaderOption) *Reader {
	opts := defaultReaderOptions
	for _, o := range opt {
		o.applyReader(&opts)
	}
	return &Reader{opts: opts, mem: mem}
}

// Snapshot copies the content described by d.
func (r *Reader) Snapshot(ctx context.Context, d strbuf.Descriptor) (*Snapshot, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor: %w", err)
	}

	size := d.ContentSize()
	if uint64(size) > uint64(r.opts.maxContentSize) {
		return nil, fmt.Errorf("content of %d bytes exceeds the limit of %d bytes", size, r.opts.maxContentSize)
	}

	snap := &Snapshot{Descriptor: d}
	if size == 0 {
		return snap, nil
	}

	content, ok := r.mem.Read(d.Content, uint32(size))
	if !ok {
		r.opts.logger.ErrorContext(ctx, "failed to read from guest memory", "ptr", d.Content, "size", size)
		return nil, fmt.Errorf("failed to read guest memory at pointer %d with size %d", d.Content, size)
	}
	// Read returns a view that changes with the guest.
	snap.Content = bytes.Clone(content)

	r.opts.logger.DebugContext(ctx, "read buffer", "representation", d.Representation, "count", d.Count, "ptr", d.Content)
	return snap, nil
}

// Inspect asks the guest for the descriptor of the named buffer and copies
// its content.
func (r *Reader) Inspect(ctx context.Context, c InspectorClient, name string) (*Snapshot, error) {
	resp, err := c.Describe(ctx, wrapperspb.String(name))
	if err != nil {
		return nil, fmt.Errorf("failed to describe buffer %q: %w", name, err)
	}

	var d strbuf.Descriptor
	if err := d.UnmarshalBinary(resp.GetValue()); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor of buffer %q: %w", name, err)
	}

	snap, err := r.Snapshot(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to read buffer %q: %w", name, err)
	}
	snap.Name = name
	return snap, nil
}
