package diag

import (
	"context"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lovromazgon/strbuf"
	"github.com/matryer/is"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// memoryModule is a Wasm module that only exports one page of memory.
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// memory section: one memory with a minimum of one page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export section: "memory"
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

func newTestMemory(t *testing.T) api.Memory {
	t.Helper()
	ctx := context.Background()

	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	mod, err := r.Instantiate(ctx, memoryModule)
	if err != nil {
		t.Fatalf("failed to instantiate memory module: %v", err)
	}
	return mod.Memory()
}

// writeWide stores w in memory at offset as little endian code units.
func writeWide(t *testing.T, mem api.Memory, offset uint32, w []uint16) {
	t.Helper()
	b := make([]byte, 0, 2*len(w))
	for _, u := range w {
		b = binary.LittleEndian.AppendUint16(b, u)
	}
	if !mem.Write(offset, b) {
		t.Fatalf("failed to write %d bytes at %d", len(b), offset)
	}
}

func TestReader_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("should read wide content", func(t *testing.T) {
		is := is.New(t)
		mem := newTestMemory(t)
		units := []uint16{'h', 0xe9, 'l', 0xd83d, 0xde00} // "hél😀"
		writeWide(t, mem, 64, append(units, 0))

		r := NewReader(mem, WithLogger(slog.New(slog.DiscardHandler)))
		snap, err := r.Snapshot(ctx, strbuf.Descriptor{
			Representation: strbuf.Wide,
			Count:          uint32(len(units)),
			Allocation:     16,
			Content:        64,
		})
		is.NoErr(err)

		is.Equal(len(snap.Content), 2*len(units)) // Terminator is not copied
		text, err := snap.Text()
		is.NoErr(err)
		is.Equal(text, "hél😀")

		got, err := snap.Units()
		is.NoErr(err)
		if diff := cmp.Diff(units, got); diff != "" {
			t.Errorf("units mismatch (-want +got):\n%s", diff)
		}

		buf, err := snap.StringBuffer()
		is.NoErr(err)
		is.Equal(buf.Representation(), strbuf.Wide)
		is.Equal(buf.String(), "hél😀")
	})

	t.Run("should read narrow content", func(t *testing.T) {
		is := is.New(t)
		mem := newTestMemory(t)
		is.True(mem.Write(128, []byte("grüß\x00")))

		r := NewReader(mem)
		snap, err := r.Snapshot(ctx, strbuf.Descriptor{
			Representation: strbuf.NarrowExtended,
			Flags:          strbuf.DescriptorImmutable,
			Count:          6,
			Content:        128,
		})
		is.NoErr(err)

		text, err := snap.Text()
		is.NoErr(err)
		is.Equal(text, "grüß")

		units, err := snap.Units()
		is.NoErr(err)
		is.Equal(units, []uint16{'g', 'r', 0xfc, 0xdf})

		pb, err := snap.Proto()
		is.NoErr(err)
		want, err := structpb.NewStruct(map[string]any{
			"name":           "",
			"representation": strbuf.NarrowExtended.String(),
			"count":          6,
			"allocation":     0,
			"pointer":        128,
			"immutable":      true,
			"normalized":     false,
			"asciiScanned":   false,
			"text":           "grüß",
		})
		is.NoErr(err)
		is.Equal(pb.AsMap(), want.AsMap())
	})

	t.Run("should not read memory for an empty buffer", func(t *testing.T) {
		is := is.New(t)
		r := NewReader(newTestMemory(t))

		snap, err := r.Snapshot(ctx, strbuf.Descriptor{Representation: strbuf.Empty})
		is.NoErr(err)

		is.Equal(len(snap.Content), 0)
		text, err := snap.Text()
		is.NoErr(err)
		is.Equal(text, "")
		buf, err := snap.StringBuffer()
		is.NoErr(err)
		is.True(buf.IsEmpty())
	})

	t.Run("should reject narrow-fixed content with the top bit set", func(t *testing.T) {
		is := is.New(t)
		mem := newTestMemory(t)
		is.True(mem.Write(0, []byte{'a', 0x80}))

		snap, err := NewReader(mem).Snapshot(ctx, strbuf.Descriptor{
			Representation: strbuf.NarrowFixed,
			Count:          2,
		})
		is.NoErr(err)

		_, err = snap.StringBuffer()
		is.True(err != nil)
	})

	testCases := []struct {
		name string
		d    strbuf.Descriptor
		opts []ReaderOption
	}{
		{
			name: "unknown representation",
			d:    strbuf.Descriptor{Representation: 9, Count: 1},
		},
		{
			name: "empty with content",
			d:    strbuf.Descriptor{Representation: strbuf.Empty, Count: 3},
		},
		{
			name: "content past the end of memory",
			d:    strbuf.Descriptor{Representation: strbuf.Wide, Count: 8, Content: 65536 - 4},
		},
		{
			name: "content over the limit",
			d:    strbuf.Descriptor{Representation: strbuf.NarrowFixed, Count: 5},
			opts: []ReaderOption{WithMaxContentSize(4)},
		},
	}
	for _, tc := range testCases {
		t.Run("should fail on "+tc.name, func(t *testing.T) {
			is := is.New(t)
			opts := append([]ReaderOption{WithLogger(slog.New(slog.DiscardHandler))}, tc.opts...)
			r := NewReader(newTestMemory(t), opts...)

			_, err := r.Snapshot(ctx, tc.d)
			is.True(err != nil)
		})
	}
}

// describer answers Describe with fixed descriptors.
type describer map[string]strbuf.Descriptor

func (d describer) List(context.Context, *emptypb.Empty, ...grpc.CallOption) (*structpb.ListValue, error) {
	return &structpb.ListValue{}, nil
}

func (d describer) Describe(_ context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	desc, ok := d[in.GetValue()]
	if !ok {
		return nil, status.Error(codes.NotFound, "not found")
	}
	b, err := desc.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(b), nil
}

func TestReader_Inspect(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	writeWide(t, mem, 256, []uint16{'o', 'k', 0})
	client := describer{
		"status": {Representation: strbuf.Wide, Count: 2, Content: 256},
	}
	r := NewReader(mem, WithLogger(slog.New(slog.DiscardHandler)))

	t.Run("should read a named buffer", func(t *testing.T) {
		is := is.New(t)

		snap, err := r.Inspect(ctx, client, "status")
		is.NoErr(err)

		is.Equal(snap.Name, "status")
		text, err := snap.Text()
		is.NoErr(err)
		is.Equal(text, "ok")
	})

	t.Run("should keep the status of a failed call", func(t *testing.T) {
		is := is.New(t)

		_, err := r.Inspect(ctx, client, "missing")

		is.Equal(status.Code(err), codes.NotFound)
	})
}
