//go:build wasm

package wasm

var exported = newAllocator()

//go:wasmexport strbuf-v1-malloc
func malloc(ptr uintptr, size uint32) uintptr {
	return exported.malloc(ptr, size)
}

//go:wasmexport strbuf-v1-command
func command(ptr uintptr, methodSize, bufferSize uint32) uint64 {
	return exported.command(ptr, methodSize, bufferSize)
}
