package diag

import "log/slog"

type clientOptions struct {
	logger                *slog.Logger
	maxConcurrentRequests int
}

var defaultClientOptions = clientOptions{
	logger:                slog.Default(),
	maxConcurrentRequests: 2,
}

type serverOptions struct {
	logger *slog.Logger
}

var defaultServerOptions = serverOptions{
	logger: slog.Default(),
}

type readerOptions struct {
	logger         *slog.Logger
	maxContentSize uint32
}

var defaultReaderOptions = readerOptions{
	logger:         slog.Default(),
	maxContentSize: 16 << 20,
}

// ClientOption configures the client.
type ClientOption interface {
	applyClient(*clientOptions)
}

type funcClientOption func(*clientOptions)

func (f funcClientOption) applyClient(o *clientOptions) { f(o) }

// ServerOption configures the server and the registry.
type ServerOption interface {
	applyServer(*serverOptions)
}

type funcServerOption func(*serverOptions)

func (f funcServerOption) applyServer(o *serverOptions) { f(o) }

// ReaderOption configures the reader.
type ReaderOption interface {
	applyReader(*readerOptions)
}

type funcReaderOption func(*readerOptions)

func (f funcReaderOption) applyReader(o *readerOptions) { f(o) }

// Option can configure the client, the server and the reader.
type Option interface {
	ClientOption
	ServerOption
	ReaderOption
}

type funcOption struct {
	funcClientOption
	funcServerOption
	funcReaderOption
}

// WithLogger sets the logger of the client, the server or the reader.
func WithLogger(l *slog.Logger) Option {
	return funcOption{
		funcClientOption: func(o *clientOptions) { o.logger = l },
		funcServerOption: func(o *serverOptions) { o.logger = l },
		funcReaderOption: func(o *readerOptions) { o.logger = l },
	}
}

// WithMaxConcurrentRequests limits the number of calls into the guest that
// can be in flight at once.
func WithMaxConcurrentRequests(limit int) ClientOption {
	return funcClientOption(func(o *clientOptions) { o.maxConcurrentRequests = limit })
}

// WithMaxContentSize limits how many bytes of guest memory the reader copies
// for a single buffer.
func WithMaxContentSize(n uint32) ReaderOption {
	return funcReaderOption(func(o *readerOptions) { o.maxContentSize = n })
}
