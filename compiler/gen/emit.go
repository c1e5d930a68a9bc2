package gen

import (
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/diag"
	"github.com/serixdev/serix/schema/typemap"
)

// Fragment is one independently generated code unit contributed by a
// pass, plus the imports its text requires. Emission is a pure function
// of (fields, config): identical inputs produce byte-identical text.
type Fragment struct {
	Text    string
	Imports []string
}

// Emitter produces codec fragments from a selected field set and the
// class's resolved configuration.
type Emitter struct {
	registry *typemap.Registry
}

// NewEmitter returns an emitter backed by the given conversion registry.
func NewEmitter(r *typemap.Registry) *Emitter {
	return &Emitter{registry: r}
}

// Factory emits the decode factory for a class. An empty field set
// yields a valid factory that decodes nothing.
func (e *Emitter) Factory(c *load.Class, fields []*SelectedField) (Fragment, error) {
	data := shellData{
		Class:       c.Name,
		TypeParams:  typeParamList(c),
		TypeArgs:    typeArgList(c),
		ExtraParams: decodeParamList(c),
	}
	var imports []string
	for _, sf := range fields {
		body, convImports, err := e.decodeBody(c, sf)
		if err != nil {
			return Fragment{}, err
		}
		data.Fields = append(data.Fields, fieldBlock{Body: body})
		imports = append(imports, convImports...)
	}
	text, err := execute(factoryTmpl, data)
	if err != nil {
		return Fragment{}, NewGenerationError("emit", c.Name, "render factory", err)
	}
	return Fragment{Text: text, Imports: dedupImports(imports)}, nil
}

// Encoder emits the encode function for a class, honoring custom output
// keys and the per-field omit-if-default predicate.
func (e *Emitter) Encoder(c *load.Class, fields []*SelectedField, bag *diag.Bag) (Fragment, error) {
	data := shellData{
		Class:       c.Name,
		TypeParams:  typeParamList(c),
		TypeArgs:    typeArgList(c),
		ExtraParams: encodeParamList(c),
		Len:         len(fields),
	}
	var imports []string
	for _, sf := range fields {
		body, convImports, err := e.encodeBody(c, sf, bag)
		if err != nil {
			return Fragment{}, err
		}
		data.Fields = append(data.Fields, fieldBlock{Body: body})
		imports = append(imports, convImports...)
	}
	text, err := execute(encoderTmpl, data)
	if err != nil {
		return Fragment{}, NewGenerationError("emit", c.Name, "render encoder", err)
	}
	return Fragment{Text: text, Imports: dedupImports(imports)}, nil
}

// decodeBody renders the indented statement block reading one field out
// of the input map, wrapped with the default-value guard if configured.
func (e *Emitter) decodeBody(c *load.Class, sf *SelectedField) (string, []string, error) {
	f := sf.Field
	data := convData{
		Dst:  "v." + f.Name,
		Map:  "m",
		Key:  strconv.Quote(sf.Key),
		Type: f.Type,
	}
	var (
		conv    typemap.Conversion
		ok      bool
		imports []string
	)
	if slices.Contains(c.TypeParams, f.Type) {
		conv = typemap.Conversion{Imports: []string{typemap.RuntimePkg}}
		text, err := executeConv(decodeFieldTmpl, data)
		if err != nil {
			return "", nil, NewGenerationError("emit", c.Name+"."+f.Name, "render type-parameter decode", err)
		}
		return wrapDefault(sf, text), conv.Imports, nil
	}
	conv, ok = e.registry.Lookup(f.Type)
	if !ok {
		return "", nil, NewGenerationError("emit", c.Name+"."+f.Name,
			"no conversion registered for type "+f.Type, nil)
	}
	tmpl, err := template.New("conv").Parse(conv.Decode)
	if err != nil {
		return "", nil, NewGenerationError("emit", c.Name+"."+f.Name, "parse conversion template", err)
	}
	text, err := executeConv(tmpl, data)
	if err != nil {
		return "", nil, NewGenerationError("emit", c.Name+"."+f.Name, "render conversion", err)
	}
	imports = append(imports, conv.Imports...)
	if sf.Default != "" {
		imports = append(imports, typemap.RuntimePkg)
	}
	return wrapDefault(sf, text), imports, nil
}

// wrapDefault indents the conversion block for the factory shell and, if
// the field has a default value expression, guards it behind a key
// presence check.
func wrapDefault(sf *SelectedField, conv string) string {
	if sf.Default == "" {
		return indent(conv, 2)
	}
	guarded := "if !serix.Has(m, " + strconv.Quote(sf.Key) + ") {\n" +
		"\tv." + sf.Field.Name + " = " + sf.Default + "\n" +
		"} else {\n" +
		indent(conv, 1) + "\n" +
		"}"
	return indent(guarded, 2)
}

// encodeBody renders the statement storing one field into the output
// map, wrapped with the omit-if-default predicate when requested.
func (e *Emitter) encodeBody(c *load.Class, sf *SelectedField, bag *diag.Bag) (string, []string, error) {
	f := sf.Field
	expr := "v." + f.Name
	var (
		zero    string
		imports []string
	)
	switch {
	case slices.Contains(c.TypeParams, f.Type):
		expr = "encode" + f.Type + "(v." + f.Name + ")"
	default:
		conv, ok := e.registry.Lookup(f.Type)
		if !ok {
			bag.Warnf(c.Name+"."+f.Name, "no conversion registered for type %s; encoding raw value", f.Type)
			break
		}
		tmpl, err := template.New("conv").Parse(conv.Encode)
		if err != nil {
			return "", nil, NewGenerationError("emit", c.Name+"."+f.Name, "parse conversion template", err)
		}
		var b strings.Builder
		if err := tmpl.Execute(&b, struct{ Value, Type string }{Value: "v." + f.Name, Type: f.Type}); err != nil {
			return "", nil, NewGenerationError("emit", c.Name+"."+f.Name, "render conversion", err)
		}
		expr = b.String()
		zero = conv.Zero
		imports = append(imports, conv.Imports...)
	}

	stmt := "m[" + strconv.Quote(sf.Key) + "] = " + expr
	if sf.OmitDefault {
		def := sf.Default
		if def == "" {
			def = zero
		}
		if def == "" {
			bag.Warnf(c.Name+"."+f.Name, "omit_default unsupported for type %s; field always encoded", f.Type)
			return indent(stmt, 1), imports, nil
		}
		stmt = "if v." + f.Name + " != " + def + " {\n\t" + stmt + "\n}"
	}
	return indent(stmt, 1), imports, nil
}

// typeParamList renders the declaration-site type parameter list.
func typeParamList(c *load.Class) string {
	if len(c.TypeParams) == 0 {
		return ""
	}
	parts := make([]string, len(c.TypeParams))
	for i, p := range c.TypeParams {
		parts[i] = p + " any"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// typeArgList renders the use-site type argument list.
func typeArgList(c *load.Class) string {
	if len(c.TypeParams) == 0 {
		return ""
	}
	return "[" + strings.Join(c.TypeParams, ", ") + "]"
}

// decodeParamList renders the per-type-parameter decode function
// parameters of a generic factory.
func decodeParamList(c *load.Class) string {
	var b strings.Builder
	for _, p := range c.TypeParams {
		b.WriteString(", decode")
		b.WriteString(p)
		b.WriteString(" func(any) (")
		b.WriteString(p)
		b.WriteString(", error)")
	}
	return b.String()
}

// encodeParamList renders the per-type-parameter encode function
// parameters of a generic encoder.
func encodeParamList(c *load.Class) string {
	var b strings.Builder
	for _, p := range c.TypeParams {
		b.WriteString(", encode")
		b.WriteString(p)
		b.WriteString(" func(")
		b.WriteString(p)
		b.WriteString(") any")
	}
	return b.String()
}

func execute(t *template.Template, data shellData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func executeConv(t *template.Template, data convData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// indent prefixes every non-empty line with n tabs.
func indent(s string, n int) string {
	prefix := strings.Repeat("\t", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// dedupImports returns the sorted unique import set.
func dedupImports(imports []string) []string {
	if len(imports) == 0 {
		return nil
	}
	slices.Sort(imports)
	return slices.Compact(imports)
}
