package gen

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/dave/jennifer/jen"

	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/diag"
)

// FieldMap emits the constant field-name to output-key map for a class.
// Jennifer renders the literal with sorted keys, keeping the fragment
// byte-identical across runs.
func (e *Emitter) FieldMap(c *load.Class, fields []*SelectedField) (Fragment, error) {
	dict := jen.Dict{}
	for _, sf := range fields {
		dict[jen.Lit(sf.Field.Name)] = jen.Lit(sf.Key)
	}
	st := jen.Var().Id(c.Name + "FieldKeys").Op("=").Map(jen.String()).String().Values(dict)
	text := fmt.Sprintf("// %sFieldKeys maps %s field names to their JSON output keys.\n%#v",
		c.Name, c.Name, st)
	return Fragment{Text: text}, nil
}

// EncoderMap emits the per-field encode-function map for a class. Each
// entry encodes one field the same way the encode function would.
func (e *Emitter) EncoderMap(c *load.Class, fields []*SelectedField, bag *diag.Bag) (Fragment, error) {
	dict := jen.Dict{}
	var imports []string
	for _, sf := range fields {
		expr := "v." + sf.Field.Name
		if conv, ok := e.registry.Lookup(sf.Field.Type); ok {
			tmpl, err := template.New("conv").Parse(conv.Encode)
			if err != nil {
				return Fragment{}, NewGenerationError("emit", c.Name+"."+sf.Field.Name, "parse conversion template", err)
			}
			var b strings.Builder
			if err := tmpl.Execute(&b, struct{ Value, Type string }{Value: expr, Type: sf.Field.Type}); err != nil {
				return Fragment{}, NewGenerationError("emit", c.Name+"."+sf.Field.Name, "render conversion", err)
			}
			expr = b.String()
			imports = append(imports, conv.Imports...)
		} else {
			bag.Warnf(c.Name+"."+sf.Field.Name, "no conversion registered for type %s; encoding raw value", sf.Field.Type)
		}
		dict[jen.Lit(sf.Key)] = jen.Func().
			Params(jen.Id("v").Op("*").Id(c.Name)).
			Any().
			Block(jen.Return(jen.Id(expr)))
	}
	st := jen.Var().Id(c.Name + "FieldEncoders").Op("=").
		Map(jen.String()).Func().Params(jen.Id("v").Op("*").Id(c.Name)).Any().
		Values(dict)
	text := fmt.Sprintf("// %sFieldEncoders maps JSON output keys to per-field encode functions.\n%#v",
		c.Name, st)
	return Fragment{Text: text, Imports: dedupImports(imports)}, nil
}
