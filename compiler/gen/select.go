package gen

import (
	"slices"

	"github.com/serixdev/serix"
	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/diag"
)

// SelectedField is one field participating in encode and/or decode,
// together with its resolved output key.
type SelectedField struct {
	Field *load.Field
	// Key is the resolved output key after rename configuration.
	Key string
	// Default is the default value expression, if configured.
	Default string
	// OmitDefault skips the field on encode when it equals its default.
	OmitDefault bool
}

// Exclusion records a field left out of one participation set and why.
type Exclusion struct {
	Field  *load.Field
	Reason string
}

// Selection is the eligibility result for one class. Both participation
// lists preserve original declaration order.
type Selection struct {
	Encode   []*SelectedField
	Decode   []*SelectedField
	Excluded []Exclusion
}

// Select computes the eligible field sets for one class under its
// resolved configuration. Encode and decode participation are determined
// independently per field. Exclusions are reported as diagnostics, not
// errors, except where factory binding requires an unavailable field or
// two fields collide on an output key.
func Select(c *load.Class, r *Resolved, bag *diag.Bag) (*Selection, error) {
	if len(c.TypeParams) > 0 && r.CreateFactory && !r.GenericFactories {
		return nil, serix.NewConfigurationError(c.Name,
			"class has type parameters; enable generic_argument_factories to generate a factory")
	}

	sel := &Selection{}
	exclude := func(f *load.Field, reason string) {
		sel.Excluded = append(sel.Excluded, Exclusion{Field: f, Reason: reason})
		bag.Infof(c.Name+"."+f.Name, "%s", reason)
	}

	for _, f := range c.Fields {
		key, err := ResolveFieldKey(c.Name, r, f)
		if err != nil {
			return nil, err
		}
		opts := f.FieldOpts()
		sf := &SelectedField{
			Field:   f,
			Key:     key,
			Default: opts.Default,
		}
		if opts.OmitDefault != nil {
			sf.OmitDefault = *opts.OmitDefault
		} else {
			sf.OmitDefault = r.OmitDefaults
		}

		// Write-only fields never participate in either direction.
		if f.WriteOnly {
			sel.Excluded = append(sel.Excluded, Exclusion{Field: f, Reason: "write-only field (setter without getter)"})
			bag.Warnf(c.Name+"."+f.Name, "write-only field (setter without getter)")
			continue
		}

		switch {
		case opts.Decode != nil && !*opts.Decode:
			exclude(f, "excluded from decode: explicitly marked")
		case !f.Public && opts.Decode == nil:
			exclude(f, "excluded from decode: private field")
		default:
			sel.Decode = append(sel.Decode, sf)
		}

		switch {
		case opts.Encode != nil && !*opts.Encode:
			exclude(f, "excluded from encode: explicitly marked")
		case opts.Encode != nil && *opts.Encode:
			sel.Encode = append(sel.Encode, sf)
		case !f.Public:
			exclude(f, "excluded from encode: private field")
		default:
			sel.Encode = append(sel.Encode, sf)
		}
	}

	if r.CreateFactory && len(c.CtorParams) > 0 {
		if err := bindConstructor(c, sel, bag); err != nil {
			return nil, err
		}
	}

	if err := checkDuplicateKeys(c.Name, sel.Encode); err != nil {
		return nil, err
	}
	return sel, nil
}

// bindConstructor narrows the working decode set to the fields actually
// consumed by constructor parameters. A parameter bound to a field that
// was pruned from the decode set escalates from diagnostic to error.
// The encode set is untouched: forced-encode-only fields survive binding.
func bindConstructor(c *load.Class, sel *Selection, bag *diag.Bag) error {
	decodable := make(map[string]*SelectedField, len(sel.Decode))
	for _, sf := range sel.Decode {
		decodable[sf.Field.Name] = sf
	}
	for _, p := range c.CtorParams {
		if _, ok := decodable[p]; !ok {
			return serix.NewConfigurationError(c.Name+"."+p,
				"constructor parameter requires a field unavailable for decode")
		}
	}
	bound := sel.Decode[:0:0]
	for _, sf := range sel.Decode {
		if slices.Contains(c.CtorParams, sf.Field.Name) {
			bound = append(bound, sf)
			continue
		}
		sel.Excluded = append(sel.Excluded, Exclusion{Field: sf.Field, Reason: "excluded from decode: not bound to a constructor parameter"})
		bag.Infof(c.Name+"."+sf.Field.Name, "excluded from decode: not bound to a constructor parameter")
	}
	sel.Decode = bound
	return nil
}

// checkDuplicateKeys runs after all pruning; a collision is terminal and
// names both fields.
func checkDuplicateKeys(class string, fields []*SelectedField) error {
	seen := make(map[string]*SelectedField, len(fields))
	for _, sf := range fields {
		if prev, dup := seen[sf.Key]; dup {
			return serix.NewDuplicateKeyError(class, sf.Key, prev.Field.Name, sf.Field.Name)
		}
		seen[sf.Key] = sf
	}
	return nil
}
