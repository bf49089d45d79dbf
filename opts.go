package strbuf

// Option configures a StringBuffer created by New.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

type options struct {
	capacity int
}

var defaultOptions = options{}

// WithCapacity reserves room for n code units in any representation, so the
// first n code units are stored without allocating.
func WithCapacity(n int) Option {
	return optionFunc(func(o *options) {
		o.capacity = n
	})
}
