// Package wasm connects a guest module to the strbuf-v1 host exports. A guest
// calls Init with the Handler that serves host calls, usually a diag.Server.
package wasm

var handler Handler = HandlerFunc(func(string, []byte) []byte {
	// An empty response tells the host that no handler is set.
	return nil
})

// Handler is the bridge between the WebAssembly exports and the guest.
type Handler interface {
	// Handle gets called for every host call to the guest.
	Handle(method string, req []byte) (resp []byte)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(method string, req []byte) (resp []byte)

func (f HandlerFunc) Handle(method string, req []byte) (resp []byte) { return f(method, req) }

// Init needs to be called in an init function of the guest to set the
// handler of host calls.
func Init(h Handler) {
	handler = h
}
