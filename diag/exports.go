package diag

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
)

// export describes a function the guest must export.
type export struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

var (
	mallocExport = export{
		name: "strbuf-v1-malloc",
		params: []api.ValueType{
			api.ValueTypeI32, // u32 (pointer to the previous buffer, or 0)
			api.ValueTypeI32, // u32 (requested size)
		},
		results: []api.ValueType{api.ValueTypeI32}, // u32 (pointer to the buffer)
	}
	commandExport = export{
		name: "strbuf-v1-command",
		params: []api.ValueType{
			api.ValueTypeI32, // u32 (pointer to the buffer)
			api.ValueTypeI32, // u32 (method size)
			api.ValueTypeI32, // u32 (buffer size)
		},
		results: []api.ValueType{api.ValueTypeI64}, // u64 (response pointer << 32 | response size)
	}
)

// lookupExport returns the exported function described by want, or an error
// if the guest does not export it with that signature.
func lookupExport(module api.Module, want export) (api.Function, error) {
	fn := module.ExportedFunction(want.name)
	if fn == nil {
		return nil, fmt.Errorf("exported function %q does not exist", want.name)
	}

	def := fn.Definition()
	if !sameTypes(want.params, def.ParamTypes()) || !sameTypes(want.results, def.ResultTypes()) {
		return nil, &SignatureError{
			Name:        want.name,
			WantParams:  want.params,
			WantResults: want.results,
			GotParams:   def.ParamTypes(),
			GotResults:  def.ResultTypes(),
		}
	}
	return fn, nil
}

func sameTypes(want, got []api.ValueType) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// SignatureError is returned when a guest exports a function with an
// unexpected signature.
type SignatureError struct {
	Name        string
	WantParams  []api.ValueType
	WantResults []api.ValueType
	GotParams   []api.ValueType
	GotResults  []api.ValueType
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf(
		"exported Wasm function signature mismatch, expected %s, got %s",
		formatSignature(e.Name, e.WantParams, e.WantResults),
		formatSignature(e.Name, e.GotParams, e.GotResults),
	)
}

func formatSignature(name string, params, results []api.ValueType) string {
	var out strings.Builder
	out.WriteString(name)
	out.WriteString("(")
	out.WriteString(formatValueTypes(params))
	out.WriteString(")")
	if len(results) > 0 {
		out.WriteString(" -> (")
		out.WriteString(formatValueTypes(results))
		out.WriteString(")")
	}
	return out.String()
}

func formatValueTypes(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, typ := range types {
		names[i] = api.ValueTypeName(typ)
	}
	return strings.Join(names, ", ")
}
