package gen

import "text/template"

// Shell templates for the emitted fragments. Per-field bodies are
// rendered separately from the conversion registry's templates and
// spliced in pre-indented, so the shells stay type-agnostic.
var (
	factoryTmpl = template.Must(template.New("factory").Parse(`// {{.Class}}FromMap builds a {{.Class}} from a decoded JSON object.
func {{.Class}}FromMap{{.TypeParams}}(m map[string]any{{.ExtraParams}}) (*{{.Class}}{{.TypeArgs}}, error) {
	v := &{{.Class}}{{.TypeArgs}}{}
{{- range .Fields}}
	{
{{.Body}}
	}
{{- end}}
	return v, nil
}`))

	encoderTmpl = template.Must(template.New("encoder").Parse(`// {{.Class}}ToMap encodes a {{.Class}} into a JSON object map.
func {{.Class}}ToMap{{.TypeParams}}(v *{{.Class}}{{.TypeArgs}}{{.ExtraParams}}) map[string]any {
	m := make(map[string]any, {{.Len}})
{{- range .Fields}}
{{.Body}}
{{- end}}
	return m
}`))

	decodeFieldTmpl = template.Must(template.New("decodeField").Parse(
		`fv, err := decode{{.Type}}(serix.Raw({{.Map}}, {{.Key}}))
if err != nil {
	return nil, err
}
{{.Dst}} = fv`))
)

type shellData struct {
	Class       string
	TypeParams  string // e.g. "[T any]"
	TypeArgs    string // e.g. "[T]"
	ExtraParams string // decode/encode function parameters for generics
	Len         int
	Fields      []fieldBlock
}

type fieldBlock struct {
	Body string
}

// convData is the placeholder set conversion templates render against.
type convData struct {
	Dst  string
	Map  string
	Key  string
	Type string
}
