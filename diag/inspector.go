package diag

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	InspectorServiceName = "strbuf.diag.v1.Inspector"

	inspectorListMethod     = "/" + InspectorServiceName + "/List"
	inspectorDescribeMethod = "/" + InspectorServiceName + "/Describe"
)

// InspectorServer is implemented by a guest to expose its string buffers.
type InspectorServer interface {
	// List returns the names of the exposed buffers.
	List(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// Describe returns the encoded strbuf.Descriptor of the named buffer.
	Describe(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// InspectorClient calls an InspectorServer.
type InspectorClient interface {
	List(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Describe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type inspectorClient struct {
	cc grpc.ClientConnInterface
}

func NewInspectorClient(cc grpc.ClientConnInterface) InspectorClient {
	return &inspectorClient{cc: cc}
}

func (c *inspectorClient) List(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, inspectorListMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inspectorClient) Describe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, inspectorDescribeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterInspectorServer(s grpc.ServiceRegistrar, srv InspectorServer) {
	s.RegisterService(&inspectorServiceDesc, srv)
}

func inspectorListHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: inspectorListMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).List(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func inspectorDescribeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: inspectorDescribeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).Describe(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var inspectorServiceDesc = grpc.ServiceDesc{
	ServiceName: InspectorServiceName,
	HandlerType: (*InspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "List", Handler: inspectorListHandler},
		{MethodName: "Describe", Handler: inspectorDescribeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "strbuf/diag/v1/inspector.proto",
}
