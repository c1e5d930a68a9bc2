// Package typemap is the per-type conversion registry. For every declared
// field type it supplies the decode statement template and encode
// expression template the emitter splices into generated codecs, plus the
// imports those templates require. The registry is data: templates are
// text/template strings over a small, fixed set of placeholders.
//
// Decode templates see {{.Dst}} (assignment target), {{.Map}} (input
// object variable), {{.Key}} (quoted output key), and {{.Type}} (declared
// type name). They may return early with an error. Encode templates see
// {{.Value}} and {{.Type}} and must be a single expression producing a
// JSON-encodable value.
package typemap

import "maps"

// RuntimePkg is the import path of the runtime package generated code
// depends on.
const RuntimePkg = "github.com/serixdev/serix"

// Conversion holds the expression templates for one declared type.
type Conversion struct {
	// Decode assigns the coerced value of {{.Map}}[{{.Key}}] to {{.Dst}}.
	Decode string
	// Encode is an expression over {{.Value}} yielding the encoded value.
	Encode string
	// Zero is the literal zero value of the type. Empty means the type
	// is not comparable and omit-if-default is unsupported for it.
	Zero string
	// Imports required by either template.
	Imports []string
}

// Registry maps declared type names to conversions.
type Registry struct {
	byType map[string]Conversion
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byType: make(map[string]Conversion)}
}

// Register adds or replaces the conversion for a declared type name.
func (r *Registry) Register(typeName string, c Conversion) {
	r.byType[typeName] = c
}

// RegisterClass registers a nested convertible class: decoding goes
// through the class's generated factory and encoding through its
// generated encode function.
func (r *Registry) RegisterClass(name string) {
	r.byType[name] = Conversion{
		Decode: `sub, err := serix.Object({{.Map}}, {{.Key}})
if err != nil {
	return nil, err
}
if sub != nil {
	fv, err := {{.Type}}FromMap(sub)
	if err != nil {
		return nil, err
	}
	{{.Dst}} = *fv
}`,
		Encode:  `{{.Type}}ToMap(&{{.Value}})`,
		Imports: []string{RuntimePkg},
	}
}

// Lookup returns the conversion for a declared type name.
func (r *Registry) Lookup(typeName string) (Conversion, bool) {
	c, ok := r.byType[typeName]
	return c, ok
}

// Clone returns an independent copy of the registry, so callers can
// extend the default set without mutating it.
func (r *Registry) Clone() *Registry {
	return &Registry{byType: maps.Clone(r.byType)}
}

// scalar builds the conversion for a type with a direct runtime accessor.
func scalar(accessor, zero string) Conversion {
	return Conversion{
		Decode: `fv, err := serix.` + accessor + `({{.Map}}, {{.Key}})
if err != nil {
	return nil, err
}
{{.Dst}} = fv`,
		Encode:  `{{.Value}}`,
		Zero:    zero,
		Imports: []string{RuntimePkg},
	}
}

var defaults = map[string]Conversion{
	"string":  scalar("String", `""`),
	"bool":    scalar("Bool", "false"),
	"int":     scalar("Int", "0"),
	"int64":   scalar("Int64", "0"),
	"float64": scalar("Float64", "0"),
	"time.Time": {
		Decode: `fv, err := serix.Time({{.Map}}, {{.Key}})
if err != nil {
	return nil, err
}
{{.Dst}} = fv`,
		Encode:  `{{.Value}}.Format(time.RFC3339Nano)`,
		Zero:    "time.Time{}",
		Imports: []string{RuntimePkg, "time"},
	},
	"uuid.UUID": {
		Decode: `fv, err := serix.UUID({{.Map}}, {{.Key}})
if err != nil {
	return nil, err
}
{{.Dst}} = fv`,
		Encode:  `{{.Value}}.String()`,
		Zero:    "uuid.Nil",
		Imports: []string{RuntimePkg, "github.com/google/uuid"},
	},
	"[]string": {
		Decode: `fv, err := serix.StringSlice({{.Map}}, {{.Key}})
if err != nil {
	return nil, err
}
{{.Dst}} = fv`,
		Encode:  `{{.Value}}`,
		Imports: []string{RuntimePkg},
	},
	"[]any": {
		Decode: `fv, err := serix.AnySlice({{.Map}}, {{.Key}})
if err != nil {
	return nil, err
}
{{.Dst}} = fv`,
		Encode:  `{{.Value}}`,
		Imports: []string{RuntimePkg},
	},
	"map[string]any": {
		Decode: `fv, err := serix.Object({{.Map}}, {{.Key}})
if err != nil {
	return nil, err
}
{{.Dst}} = fv`,
		Encode:  `{{.Value}}`,
		Imports: []string{RuntimePkg},
	},
	"any": {
		Decode:  `{{.Dst}} = serix.Raw({{.Map}}, {{.Key}})`,
		Encode:  `{{.Value}}`,
		Imports: []string{RuntimePkg},
	},
}

// Default returns a registry covering the primitive JSON-representable
// types plus time.Time, uuid.UUID, and the common container shapes.
func Default() *Registry {
	r := New()
	maps.Copy(r.byType, defaults)
	return r
}
