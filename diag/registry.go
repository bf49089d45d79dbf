package diag

import (
	"context"
	"slices"
	"sync"

	"github.com/lovromazgon/strbuf"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ InspectorServer = (*Registry)(nil)

// Registry exposes named string buffers of a guest to an inspecting host.
// The buffers stay owned by the guest; the registry only reads their
// descriptors.
type Registry struct {
	opts serverOptions

	mu      sync.Mutex
	buffers map[string]*strbuf.StringBuffer
}

func NewRegistry(opt ...ServerOption) *Registry {
	opts := defaultServerOptions
	for _, o := range opt {
		o.applyServer(&opts)
	}
	return &Registry{
		opts:    opts,
		buffers: make(map[string]*strbuf.StringBuffer),
	}
}

// Add exposes s under name, replacing any buffer with the same name.
func (r *Registry) Add(name string, s *strbuf.StringBuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers[name] = s
}

// Remove stops exposing the buffer called name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, name)
}

func (r *Registry) List(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	r.mu.Lock()
	names := make([]string, 0, len(r.buffers))
	for name := range r.buffers {
		names = append(names, name)
	}
	r.mu.Unlock()
	slices.Sort(names)

	values := make([]*structpb.Value, len(names))
	for i, name := range names {
		values[i] = structpb.NewStringValue(name)
	}
	return &structpb.ListValue{Values: values}, nil
}

func (r *Registry) Describe(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	r.mu.Lock()
	s, ok := r.buffers[in.GetValue()]
	r.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no buffer named %q", in.GetValue())
	}

	d := s.Descriptor()
	r.opts.logger.DebugContext(ctx, "describing buffer", "name", in.GetValue(), "representation", d.Representation, "count", d.Count)

	b, err := d.MarshalBinary()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode descriptor: %v", err)
	}
	return wrapperspb.Bytes(b), nil
}
