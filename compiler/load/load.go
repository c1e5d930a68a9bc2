// Package load defines the resolved metadata snapshot the generator
// consumes. A Unit describes one compiled source file: its classes, their
// fields and constructor bindings, and the declarative per-class and
// per-field options. The snapshot arrives fully resolved from the
// metadata reader and semantic model provider; nothing here parses or
// type-checks source.
package load

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Unit represents one compiled source file processed in a single
// generation invocation. It is an immutable snapshot: the generator
// never mutates a Unit after loading.
type Unit struct {
	// Source is the path of the source file this unit describes.
	Source string `yaml:"source" validate:"required"`
	// Package is the package the companion artifact belongs to.
	Package string `yaml:"package" validate:"required"`
	// Classes are the annotated declarations of the unit, in
	// declaration order.
	Classes []*Class `yaml:"classes" validate:"required,min=1,dive"`
}

// Class is the structural snapshot of one class-shaped declaration.
type Class struct {
	Name string `yaml:"name" validate:"required"`
	// TypeParams holds the declared type parameter names, if any.
	TypeParams []string `yaml:"type_params"`
	// Supertype references the parent declaration by name, if any.
	Supertype string `yaml:"supertype"`
	// Fields in declaration order. Field names are unique within a class.
	Fields []*Field `yaml:"fields" validate:"dive"`
	// CtorParams names the fields bound to constructor parameters, in
	// parameter order.
	CtorParams []string `yaml:"constructor_params"`
	// Options are the class-level overrides layered over the global
	// configuration.
	Options *Options `yaml:"options"`
}

// Field is the structural snapshot of one declared field.
type Field struct {
	Name string `yaml:"name" validate:"required"`
	// Type is the declared type name as the conversion registry knows it.
	Type string `yaml:"type" validate:"required"`
	// Public reports source-level visibility.
	Public bool `yaml:"public"`
	// Final reports whether the field is assignable after construction.
	Final bool `yaml:"final"`
	// WriteOnly marks a setter-only field; such fields never participate.
	WriteOnly bool `yaml:"write_only"`
	// Options are the field-level overrides, highest precedence.
	Options *FieldOptions `yaml:"options"`
}

// Options are the per-class generation switches. Unset booleans (nil)
// inherit from the next broader scope.
type Options struct {
	CreateFactory    *bool  `yaml:"create_factory"`
	CreateEncoder    *bool  `yaml:"create_encoder"`
	CreateFieldMap   *bool  `yaml:"create_field_map"`
	CreateEncoderMap *bool  `yaml:"create_encoder_map"`
	GenericFactories *bool  `yaml:"generic_argument_factories"`
	OmitDefaults     *bool  `yaml:"omit_defaults"`
	InPlace          *bool  `yaml:"in_place"`
	Rename           string `yaml:"rename"`
}

// FieldOptions are the per-field overrides, taking precedence over both
// class-level and global options.
type FieldOptions struct {
	// Key is the custom output key; empty means the rename rule applies.
	Key string `yaml:"key"`
	// Encode forces encode participation (true) or exclusion (false);
	// nil defers to selector policy.
	Encode *bool `yaml:"encode"`
	// Decode forces decode participation (true) or exclusion (false);
	// nil defers to selector policy.
	Decode *bool `yaml:"decode"`
	// Default is the default value expression used when the key is
	// absent from the input.
	Default string `yaml:"default"`
	// OmitDefault skips the field on encode when it equals its default.
	OmitDefault *bool `yaml:"omit_default"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// UnitFile decodes and validates one unit descriptor file.
func UnitFile(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load unit %s: %w", path, err)
	}
	u, err := UnitBytes(data)
	if err != nil {
		return nil, fmt.Errorf("load unit %s: %w", path, err)
	}
	return u, nil
}

// UnitBytes decodes and validates one unit descriptor.
func UnitBytes(data []byte) (*Unit, error) {
	u := &Unit{}
	if err := yaml.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if err := validate.Struct(u); err != nil {
		return nil, fmt.Errorf("validate unit: %w", err)
	}
	if err := u.check(); err != nil {
		return nil, err
	}
	return u, nil
}

// check enforces snapshot invariants that tags cannot express:
// class names unique per unit, field names unique per class, and
// constructor parameters referencing declared fields.
func (u *Unit) check() error {
	classes := make(map[string]struct{}, len(u.Classes))
	for _, c := range u.Classes {
		if _, dup := classes[c.Name]; dup {
			return fmt.Errorf("unit %s: duplicate class %q", u.Source, c.Name)
		}
		classes[c.Name] = struct{}{}
		fields := make(map[string]struct{}, len(c.Fields))
		for _, f := range c.Fields {
			if _, dup := fields[f.Name]; dup {
				return fmt.Errorf("class %s: duplicate field %q", c.Name, f.Name)
			}
			fields[f.Name] = struct{}{}
		}
		for _, p := range c.CtorParams {
			if _, ok := fields[p]; !ok {
				return fmt.Errorf("class %s: constructor parameter %q has no matching field", c.Name, p)
			}
		}
	}
	return nil
}

// Field returns the declared field with the given name, or nil.
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldOpts returns the field's overrides, never nil.
func (f *Field) FieldOpts() *FieldOptions {
	if f.Options == nil {
		return &FieldOptions{}
	}
	return f.Options
}
