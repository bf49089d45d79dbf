package diag

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// service is a registered grpc.ServiceDesc with its implementation.
type service struct {
	impl    any
	methods map[string]*grpc.MethodDesc
}

var _ grpc.ServiceRegistrar = (*Server)(nil)

// Server dispatches calls received by a guest module to registered gRPC
// services. It implements wasm.Handler.
type Server struct {
	opts serverOptions

	mu       sync.Mutex // guards services
	services map[string]*service
}

func NewServer(opt ...ServerOption) *Server {
	opts := defaultServerOptions
	for _, o := range opt {
		o.applyServer(&opts)
	}

	return &Server{
		opts:     opts,
		services: make(map[string]*service),
	}
}

// RegisterService registers a service and its implementation. It panics if
// the implementation does not satisfy the handler type or the service is
// already registered.
func (s *Server) RegisterService(sd *grpc.ServiceDesc, impl any) {
	if impl != nil {
		ht := reflect.TypeOf(sd.HandlerType).Elem()
		if st := reflect.TypeOf(impl); !st.Implements(ht) {
			panic(fmt.Sprintf("diag: Server.RegisterService found the handler of type %v that does not satisfy %v", st, ht))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts.logger.Debug("registering service", "service", sd.ServiceName)
	if _, ok := s.services[sd.ServiceName]; ok {
		panic(fmt.Sprintf("diag: Server.RegisterService found duplicate service registration for %q", sd.ServiceName))
	}
	if len(sd.Streams) > 0 {
		s.opts.logger.Warn("streams are not supported in Wasm, ignoring them", "service", sd.ServiceName)
	}

	srv := &service{
		impl:    impl,
		methods: make(map[string]*grpc.MethodDesc, len(sd.Methods)),
	}
	for i := range sd.Methods {
		d := &sd.Methods[i]
		srv.methods[d.MethodName] = d
	}
	s.services[sd.ServiceName] = srv
}

// Handle processes one call. fullMethod has the form /service/method and req
// is the marshalled request. It returns a response frame.
func (s *Server) Handle(fullMethod string, req []byte) []byte {
	ctx := context.Background()

	serviceName, methodName, ok := splitMethod(fullMethod)
	if !ok {
		return s.handleError(ctx, status.New(codes.Unimplemented, "malformed method name"), "method", fullMethod)
	}

	s.mu.Lock()
	srv, ok := s.services[serviceName]
	s.mu.Unlock()
	if !ok {
		return s.handleError(ctx, status.New(codes.Unimplemented, "unknown service"), "service", serviceName)
	}
	md, ok := srv.methods[methodName]
	if !ok {
		return s.handleError(ctx, status.New(codes.Unimplemented, "unknown method"), "service", serviceName, "method", methodName)
	}

	dec := func(v any) error {
		if err := protoUnmarshal(req, v); err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		return nil
	}

	resp, err := md.Handler(srv.impl, ctx, dec, nil)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok {
			st = status.FromContextError(err)
		}
		return s.handleError(ctx, st, "service", serviceName, "method", methodName, "error", err)
	}

	out, err := appendResponseFrame(nil, resp)
	if err != nil {
		return s.handleError(ctx, status.New(codes.Internal, "error marshalling response"), "service", serviceName, "method", methodName, "error", err)
	}
	return out
}

func (s *Server) handleError(ctx context.Context, st *status.Status, args ...any) []byte {
	s.opts.logger.ErrorContext(ctx, "diag: Server.Handle "+st.Message(), append(args, "code", st.Code())...)

	out, err := appendStatusFrame(nil, st)
	if err != nil {
		panic(err)
	}
	return out
}

func splitMethod(fullMethod string) (string, string, bool) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	pos := strings.LastIndex(fullMethod, "/")
	if pos <= 0 || pos == len(fullMethod)-1 {
		return "", "", false
	}
	return fullMethod[:pos], fullMethod[pos+1:], true
}
