package gen

import (
	"reflect"
	"strings"

	"dario.cat/mergo"
	"github.com/go-openapi/inflect"

	"github.com/serixdev/serix"
	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/schema/typemap"
)

// Config holds the engine-wide generation settings.
type Config struct {
	// Header is the comment placed at the top of every generated file.
	Header string
	// Global holds the default per-class options; class and field
	// overrides layer on top of it.
	Global *load.Options
	// Registry supplies the per-type conversion templates.
	Registry *typemap.Registry
	// OutDir is where companion artifacts are written. Empty means
	// alongside the unit's source file.
	OutDir string
	// CacheDir enables the fragment cache when non-empty.
	CacheDir string
}

const defaultHeader = "Code generated by serix. DO NOT EDIT."

// DefaultConfig returns a Config with the default header, registry, and
// global options.
func DefaultConfig() *Config {
	return &Config{
		Header:   defaultHeader,
		Global:   &load.Options{},
		Registry: typemap.Default(),
	}
}

// RenameRule derives an output key from a field name when no custom key
// is configured.
type RenameRule string

const (
	RenameNone   RenameRule = "none"
	RenameCamel  RenameRule = "camel"
	RenameSnake  RenameRule = "snake"
	RenameKebab  RenameRule = "kebab"
	RenamePascal RenameRule = "pascal"
)

// Apply returns the output key for a field name under the rule.
func (r RenameRule) Apply(name string) string {
	switch r {
	case RenameNone:
		return name
	case RenameSnake:
		return inflect.Underscore(name)
	case RenameKebab:
		return inflect.Dasherize(inflect.Underscore(name))
	case RenamePascal:
		return inflect.Camelize(name)
	default:
		return inflect.CamelizeDownFirst(name)
	}
}

func (r RenameRule) valid() bool {
	switch r {
	case "", RenameNone, RenameCamel, RenameSnake, RenameKebab, RenamePascal:
		return true
	}
	return false
}

// Resolved holds the merged generation switches for one class: concrete
// values after layering class overrides over the global defaults.
// Computed once per class, read-only thereafter.
type Resolved struct {
	CreateFactory    bool
	CreateEncoder    bool
	CreateFieldMap   bool
	CreateEncoderMap bool
	GenericFactories bool
	OmitDefaults     bool
	InPlace          bool
	Rename           RenameRule
}

func boolTrue() *bool  { b := true; return &b }
func boolFalse() *bool { b := false; return &b }

// builtinDefaults is the outermost configuration layer.
func builtinDefaults() load.Options {
	return load.Options{
		CreateFactory:    boolTrue(),
		CreateEncoder:    boolTrue(),
		CreateFieldMap:   boolFalse(),
		CreateEncoderMap: boolFalse(),
		GenericFactories: boolFalse(),
		OmitDefaults:     boolFalse(),
		InPlace:          boolFalse(),
		Rename:           string(RenameCamel),
	}
}

// boolPointers merges the tri-state switches: any non-nil *bool is
// fully set, so an explicit false at a narrower scope survives a true
// at a broader one. Filled slots get fresh pointers; the merge never
// writes through a pointer shared with an input.
type boolPointers struct{}

func (boolPointers) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t != reflect.TypeOf((*bool)(nil)) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && dst.IsNil() && !src.IsNil() {
			b := src.Elem().Bool()
			dst.Set(reflect.ValueOf(&b))
		}
		return nil
	}
}

// ResolveOptions merges the global defaults and the class override into
// one Resolved configuration. Precedence is class over global over the
// built-in defaults; unset booleans inherit from the next broader scope.
// The merge is pure: neither input is modified.
func ResolveOptions(className string, global, class *load.Options) (*Resolved, error) {
	merged := load.Options{}
	if class != nil {
		merged = *class
	}
	if global != nil {
		if err := mergo.Merge(&merged, *global, mergo.WithTransformers(boolPointers{})); err != nil {
			return nil, serix.NewConfigurationError(className, err.Error())
		}
	}
	if err := mergo.Merge(&merged, builtinDefaults(), mergo.WithTransformers(boolPointers{})); err != nil {
		return nil, serix.NewConfigurationError(className, err.Error())
	}
	rule := RenameRule(merged.Rename)
	if !rule.valid() {
		return nil, serix.NewConfigurationError(className, "unknown rename rule "+strings.TrimSpace(merged.Rename))
	}
	return &Resolved{
		CreateFactory:    *merged.CreateFactory,
		CreateEncoder:    *merged.CreateEncoder,
		CreateFieldMap:   *merged.CreateFieldMap,
		CreateEncoderMap: *merged.CreateEncoderMap,
		GenericFactories: *merged.GenericFactories,
		OmitDefaults:     *merged.OmitDefaults,
		InPlace:          *merged.InPlace,
		Rename:           rule,
	}, nil
}

// ResolveFieldKey returns the final output key for a field: its custom
// key when configured, the class rename rule otherwise. Malformed custom
// keys fail with a ConfigurationError naming the field.
func ResolveFieldKey(className string, r *Resolved, f *load.Field) (string, error) {
	opts := f.FieldOpts()
	if opts.Key == "" {
		return r.Rename.Apply(f.Name), nil
	}
	if strings.ContainsAny(opts.Key, "\"\\\n\t ") {
		return "", serix.NewConfigurationError(className+"."+f.Name, "invalid output key "+opts.Key)
	}
	return opts.Key, nil
}
