package gen

import (
	"os"

	"github.com/serixdev/serix"
	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/compiler/patch"
	"github.com/serixdev/serix/diag"
)

// ClassInfo is the compiled per-class view handed to passes: the
// immutable snapshot plus its resolved configuration and selection.
type ClassInfo struct {
	Unit      *load.Unit
	Class     *load.Class
	Options   *Resolved
	Selection *Selection
	// Source is the unit's source snapshot, read once per unit. Nil when
	// the source could not be read; in-place passes then skip.
	Source []byte
}

// Contribution is what one pass produced for one class.
type Contribution struct {
	Fragments []Fragment
	Patches   []patch.Instruction
}

// Pass is one generation pass. Each pass recognizes its own trigger from
// the class's resolved options and returns nothing when not triggered.
type Pass interface {
	Name() string
	Run(ci *ClassInfo, bag *diag.Bag) (*Contribution, error)
}

// DefaultPasses returns the closed, ordered pass set: decode factory,
// encode function, auxiliary maps, and the in-place rewriter.
func DefaultPasses(e *Emitter) []Pass {
	return []Pass{
		factoryPass{e},
		encoderPass{e},
		fieldMapPass{e},
		encoderMapPass{e},
		inPlacePass{e},
	}
}

// factoryPass emits the decode factory into the companion artifact,
// unless the class is generated in place.
type factoryPass struct{ em *Emitter }

func (p factoryPass) Name() string { return "factory" }

func (p factoryPass) Run(ci *ClassInfo, bag *diag.Bag) (*Contribution, error) {
	if !ci.Options.CreateFactory || ci.Options.InPlace {
		return &Contribution{}, nil
	}
	frag, err := p.em.Factory(ci.Class, ci.Selection.Decode)
	if err != nil {
		return nil, err
	}
	return &Contribution{Fragments: []Fragment{frag}}, nil
}

// encoderPass emits the encode function into the companion artifact,
// unless the class is generated in place.
type encoderPass struct{ em *Emitter }

func (p encoderPass) Name() string { return "encoder" }

func (p encoderPass) Run(ci *ClassInfo, bag *diag.Bag) (*Contribution, error) {
	if !ci.Options.CreateEncoder || ci.Options.InPlace {
		return &Contribution{}, nil
	}
	frag, err := p.em.Encoder(ci.Class, ci.Selection.Encode, bag)
	if err != nil {
		return nil, err
	}
	return &Contribution{Fragments: []Fragment{frag}}, nil
}

// fieldMapPass emits the constant field-name to output-key map.
type fieldMapPass struct{ em *Emitter }

func (p fieldMapPass) Name() string { return "fieldmap" }

func (p fieldMapPass) Run(ci *ClassInfo, bag *diag.Bag) (*Contribution, error) {
	if !ci.Options.CreateFieldMap {
		return &Contribution{}, nil
	}
	if len(ci.Class.TypeParams) > 0 {
		bag.Warnf(ci.Class.Name, "field map unsupported for generic classes; skipped")
		return &Contribution{}, nil
	}
	frag, err := p.em.FieldMap(ci.Class, ci.Selection.Encode)
	if err != nil {
		return nil, err
	}
	return &Contribution{Fragments: []Fragment{frag}}, nil
}

// encoderMapPass emits the per-field encode-function map.
type encoderMapPass struct{ em *Emitter }

func (p encoderMapPass) Name() string { return "encodermap" }

func (p encoderMapPass) Run(ci *ClassInfo, bag *diag.Bag) (*Contribution, error) {
	if !ci.Options.CreateEncoderMap {
		return &Contribution{}, nil
	}
	if len(ci.Class.TypeParams) > 0 {
		bag.Warnf(ci.Class.Name, "encoder map unsupported for generic classes; skipped")
		return &Contribution{}, nil
	}
	frag, err := p.em.EncoderMap(ci.Class, ci.Selection.Encode, bag)
	if err != nil {
		return nil, err
	}
	return &Contribution{Fragments: []Fragment{frag}}, nil
}

// inPlacePass rewrites the original declaration's file instead of the
// companion artifact: it appends the factory and encoder after the class
// declaration as one patch instruction per declaration. Re-running
// against already-patched source is a no-op; the pass checks for an
// existing member with the same signature before synthesizing one.
type inPlacePass struct{ em *Emitter }

func (p inPlacePass) Name() string { return "inplace" }

func (p inPlacePass) Run(ci *ClassInfo, bag *diag.Bag) (*Contribution, error) {
	if !ci.Options.InPlace {
		return &Contribution{}, nil
	}
	if ci.Source == nil {
		bag.Errorf(ci.Class.Name, "in-place generation skipped: source %s unreadable", ci.Unit.Source)
		return &Contribution{}, nil
	}

	var parts []string
	if ci.Options.CreateFactory && !patch.HasTopLevelFunc(ci.Source, ci.Class.Name+"FromMap") {
		frag, err := p.em.Factory(ci.Class, ci.Selection.Decode)
		if err != nil {
			return nil, err
		}
		parts = append(parts, frag.Text)
	}
	if ci.Options.CreateEncoder && !patch.HasTopLevelFunc(ci.Source, ci.Class.Name+"ToMap") {
		frag, err := p.em.Encoder(ci.Class, ci.Selection.Encode, bag)
		if err != nil {
			return nil, err
		}
		parts = append(parts, frag.Text)
	}
	if len(parts) == 0 {
		return &Contribution{}, nil
	}

	offset, err := patch.InsertionPoint(ci.Source, ci.Class.Name)
	if err != nil {
		// A missing declaration is fatal for this element's in-place
		// patch only; the companion path for the unit is unaffected.
		if serix.IsClassNotFound(err) {
			bag.Errorf(ci.Class.Name, "%s", err.Error())
			return &Contribution{}, nil
		}
		return nil, err
	}

	replacement := ""
	for _, part := range parts {
		replacement += "\n\n" + part
	}
	bag.Infof(ci.Class.Name, "in-place members assume the file imports %s", "github.com/serixdev/serix")
	return &Contribution{Patches: []patch.Instruction{{
		Path:        ci.Unit.Source,
		Start:       offset,
		End:         offset,
		Replacement: replacement,
	}}}, nil
}

// Composer runs an ordered list of independent passes over one unit and
// assembles the aggregate output.
type Composer struct {
	passes []Pass
}

// NewComposer returns a composer over the given ordered pass list.
func NewComposer(passes ...Pass) *Composer {
	return &Composer{passes: passes}
}

// UnitResult is the aggregate output of one unit: the deduplicated
// companion body, its import set, and the unit's patch instructions.
type UnitResult struct {
	Body    string
	Imports []string
	Patches []patch.Instruction
}

// Compose processes every class of the unit through every pass.
// Fragments are deduplicated by exact text equality across passes and
// concatenated in first-seen order, separated by a blank line. Any
// per-element generation error aborts the whole unit; the composer never
// continues with partial output.
func (cp *Composer) Compose(unit *load.Unit, cfg *Config, bag *diag.Bag) (*UnitResult, error) {
	res := &UnitResult{}
	seen := make(map[string]struct{})
	var imports []string
	source := cp.readSourceIfNeeded(unit, cfg)

	for _, class := range unit.Classes {
		opts, err := ResolveOptions(class.Name, cfg.Global, class.Options)
		if err != nil {
			return nil, err
		}
		sel, err := Select(class, opts, bag)
		if err != nil {
			return nil, err
		}
		ci := &ClassInfo{
			Unit:      unit,
			Class:     class,
			Options:   opts,
			Selection: sel,
			Source:    source,
		}
		for _, pass := range cp.passes {
			contrib, err := pass.Run(ci, bag)
			if err != nil {
				return nil, NewGenerationError(pass.Name(), class.Name, "", err)
			}
			for _, frag := range contrib.Fragments {
				if frag.Text == "" {
					continue
				}
				if _, dup := seen[frag.Text]; dup {
					continue
				}
				seen[frag.Text] = struct{}{}
				if res.Body != "" {
					res.Body += "\n\n"
				}
				res.Body += frag.Text
				imports = append(imports, frag.Imports...)
			}
			res.Patches = append(res.Patches, contrib.Patches...)
		}
	}
	res.Imports = dedupImports(imports)
	return res, nil
}

// readSourceIfNeeded reads the unit's source snapshot once, and only
// when some class resolves to in-place generation.
func (cp *Composer) readSourceIfNeeded(unit *load.Unit, cfg *Config) []byte {
	needed := false
	for _, class := range unit.Classes {
		opts, err := ResolveOptions(class.Name, cfg.Global, class.Options)
		if err == nil && opts.InPlace {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}
	data, err := os.ReadFile(unit.Source)
	if err != nil {
		return nil
	}
	return data
}
