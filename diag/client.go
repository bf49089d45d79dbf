package diag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

var _ grpc.ClientConnInterface = (*ClientConn)(nil)

// ClientConn sends unary gRPC calls to a guest module through its
// strbuf-v1-malloc and strbuf-v1-command exports.
type ClientConn struct {
	opts   clientOptions
	module api.Module

	invoker *invoker
}

// Instantiate instantiates a guest reactor module and connects a client to
// it. The caller closes the module.
func Instantiate(
	ctx context.Context,
	runtime wazero.Runtime,
	source []byte,
	opt ...ClientOption,
) (api.Module, *ClientConn, error) {
	config := wazero.NewModuleConfig().
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithStartFunctions("_initialize")

	module, err := runtime.InstantiateWithConfig(ctx, source, config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to instantiate Wasm module: %w", err)
	}

	cc, err := NewClient(module, opt...)
	if err != nil {
		_ = module.Close(ctx)
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	return module, cc, nil
}

// NewClient connects a client to an instantiated guest module.
func NewClient(module api.Module, opt ...ClientOption) (*ClientConn, error) {
	opts := defaultClientOptions
	for _, o := range opt {
		o.applyClient(&opts)
	}
	if opts.maxConcurrentRequests < 1 {
		return nil, fmt.Errorf("max concurrent requests must be positive, got %d", opts.maxConcurrentRequests)
	}

	ivk, err := newInvoker(module, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoker: %w", err)
	}

	return &ClientConn{
		opts:    opts,
		module:  module,
		invoker: ivk,
	}, nil
}

// Memory returns the linear memory of the guest, for use with NewReader.
func (c *ClientConn) Memory() api.Memory {
	return c.module.Memory()
}

func (c *ClientConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streams are not supported by Wasm")
}

func (c *ClientConn) Invoke(ctx context.Context, method string, req, resp any, _ ...grpc.CallOption) error {
	reqMsg, ok := req.(proto.Message)
	if !ok {
		return fmt.Errorf("invalid request type: expected proto.Message, got %T", req)
	}
	respMsg, ok := resp.(proto.Message)
	if !ok {
		return fmt.Errorf("invalid response type: expected proto.Message, got %T", resp)
	}

	if c.module.IsClosed() {
		return errors.New("module is closed")
	}

	return c.invoker.invoke(ctx, method, reqMsg, respMsg)
}

// invoker hands every call a worker with its own buffer in guest memory.
// The number of workers bounds the number of concurrent calls.
type invoker struct {
	opts   clientOptions
	module api.Module

	workers chan *worker

	// m serializes calls to mallocFn.
	m        sync.Mutex
	mallocFn api.Function
}

type worker struct {
	id        int
	commandFn api.Function

	// buf stages the request before it is written to the guest.
	buf []byte
	// guestPointer is the address of the worker's buffer in guest memory.
	guestPointer uint32
	// guestSize is the size of the worker's buffer in guest memory.
	guestSize int
}

func newInvoker(module api.Module, opts clientOptions) (*invoker, error) {
	mallocFn, err := lookupExport(module, mallocExport)
	if err != nil {
		return nil, fmt.Errorf("failed to get malloc function: %w", err)
	}

	workers := make(chan *worker, opts.maxConcurrentRequests)
	for i := range opts.maxConcurrentRequests {
		// Calls on one function handle must not overlap.
		commandFn, err := lookupExport(module, commandExport)
		if err != nil {
			return nil, fmt.Errorf("failed to get command function: %w", err)
		}
		workers <- &worker{id: i, commandFn: commandFn}
	}

	return &invoker{
		opts:     opts,
		module:   module,
		workers:  workers,
		mallocFn: mallocFn,
	}, nil
}

func (i *invoker) invoke(ctx context.Context, method string, req, resp proto.Message) error {
	var w *worker
	select {
	case w = <-i.workers:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { i.workers <- w }()

	logger := i.opts.logger.With("method", method, "worker", w.id)

	// Allocate guest memory if the request does not fit the worker's buffer.
	if size := proto.Size(req) + len(method); w.guestSize < size {
		logger.DebugContext(ctx, "guest buffer is too small, calling malloc", "size", size)
		if err := i.malloc(ctx, w, size); err != nil {
			logger.ErrorContext(ctx, "failed to allocate guest memory", "error", err)
			return fmt.Errorf("failed to allocate memory in Wasm module: %w", err)
		}
	}

	// The request is the method name followed by the marshalled message.
	w.buf = append(w.buf[:0], method...)
	reqBytes, err := proto.MarshalOptions{}.MarshalAppend(w.buf, req)
	if err != nil {
		logger.ErrorContext(ctx, "failed marshalling protobuf request", "error", err)
		return fmt.Errorf("failed to marshal protobuf request: %w", err)
	}
	w.buf = reqBytes

	if !i.module.Memory().Write(w.guestPointer, reqBytes) {
		logger.ErrorContext(ctx, "failed to write to Wasm module memory", "ptr", w.guestPointer, "size", len(reqBytes))
		return fmt.Errorf("failed to write to Wasm module memory at pointer %d with size %d", w.guestPointer, len(reqBytes))
	}

	results, err := w.commandFn.Call(
		ctx,
		api.EncodeU32(w.guestPointer),
		api.EncodeU32(uint32(len(method))),
		api.EncodeU32(uint32(len(reqBytes))),
	)
	if err != nil {
		logger.ErrorContext(ctx, "failed to call Wasm function", "function", commandExport.name, "error", err)
		return fmt.Errorf("failed to call Wasm function %q: %w", commandExport.name, err)
	}

	ptr, size := uint32(results[0]>>32), uint32(results[0])
	frame, ok := i.module.Memory().Read(ptr, size)
	if !ok {
		logger.ErrorContext(ctx, "failed to read from Wasm module memory", "ptr", ptr, "size", size)
		return fmt.Errorf("failed to read from Wasm module memory at pointer %d with size %d", ptr, size)
	}

	if err := decodeResponseFrame(frame, resp); err != nil {
		logger.DebugContext(ctx, "call failed", "error", err)
		return err
	}
	return nil
}

func (i *invoker) malloc(ctx context.Context, w *worker, size int) error {
	i.m.Lock()
	defer i.m.Unlock()

	results, err := i.mallocFn.Call(
		ctx,
		api.EncodeU32(w.guestPointer),
		api.EncodeU32(uint32(size)),
	)
	if err != nil {
		return fmt.Errorf("failed to call Wasm function %q: %w", mallocExport.name, err)
	}

	w.guestPointer = api.DecodeU32(results[0])
	w.guestSize = size
	return nil
}
