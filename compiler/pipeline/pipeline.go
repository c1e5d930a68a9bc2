// Package pipeline orchestrates a generation run: units are processed
// concurrently as independent tasks, companion artifacts are formatted
// and written, and every patch instruction produced anywhere in the run
// is merged into one batch per file before the patcher applies it.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/serixdev/serix/compiler/gen"
	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/compiler/patch"
	"github.com/serixdev/serix/diag"
	"github.com/serixdev/serix/pkg/logger"
)

// Pipeline runs generation over a set of unit descriptors.
type Pipeline struct {
	cfg      *gen.Config
	composer *gen.Composer
	cache    *gen.Cache
	log      logger.Logger
	workers  int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of concurrently processed units.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New returns a pipeline over the given engine configuration.
func New(cfg *gen.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = gen.DefaultConfig()
	}
	p := &Pipeline{
		cfg:      cfg,
		composer: gen.NewComposer(gen.DefaultPasses(gen.NewEmitter(cfg.Registry))...),
		cache:    gen.NewCache(cfg.CacheDir),
		log:      logger.New("info"),
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// UnitReport is the per-unit outcome of a run.
type UnitReport struct {
	// Path of the unit descriptor.
	Path string
	// Artifact is the companion file written, if any.
	Artifact string
	// Diags are the unit's collected diagnostics.
	Diags []diag.Diagnostic
	// Err is the unit's terminal error, if generation aborted.
	Err error

	patches []patch.Instruction
}

// Report is the outcome of one generation run.
type Report struct {
	RunID   string
	Units   []UnitReport
	Patched []patch.FileChange
}

// Err joins the terminal errors of all failed units and the patch
// application errors, if any.
func (r *Report) Err() error {
	var errs []error
	for _, u := range r.Units {
		if u.Err != nil {
			errs = append(errs, fmt.Errorf("unit %s: %w", u.Path, u.Err))
		}
	}
	return errors.Join(errs...)
}

// Run processes the units concurrently and applies the run's patch
// batch. A unit's terminal error never aborts sibling units, and files
// already patched are not rolled back; there is no cross-unit
// transaction boundary.
func (p *Pipeline) Run(ctx context.Context, unitPaths []string) (*Report, error) {
	report := &Report{
		RunID: uuid.NewString(),
		Units: make([]UnitReport, len(unitPaths)),
	}
	log := p.log.With("run", report.RunID)
	log.Info("starting generation", "units", len(unitPaths), "workers", p.workers)

	var (
		patchMu    sync.Mutex
		patchBatch []patch.Instruction
	)

	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(p.workers)
	for i, path := range unitPaths {
		errg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rep := p.runUnit(path)
			report.Units[i] = rep
			if rep.Err == nil && len(rep.patches) > 0 {
				patchMu.Lock()
				patchBatch = append(patchBatch, rep.patches...)
				patchMu.Unlock()
			}
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return report, err
	}

	// One merged batch per run: applying two separate read-modify-write
	// cycles against the same file risks a lost update.
	if len(patchBatch) > 0 {
		changes, err := patch.Apply(patchBatch)
		report.Patched = changes
		if err != nil {
			log.Error("patch application failed", "error", err)
			return report, err
		}
		for _, ch := range changes {
			log.Info("patched", "file", ch.Path, "edits", ch.Edits)
		}
	}

	for _, u := range report.Units {
		for _, d := range u.Diags {
			switch d.Severity {
			case diag.SeverityError:
				log.Error(d.Message, "element", d.Element)
			case diag.SeverityWarning:
				log.Warn(d.Message, "element", d.Element)
			default:
				log.Debug(d.Message, "element", d.Element)
			}
		}
	}
	return report, report.Err()
}

// runUnit is the whole per-unit computation: load the snapshot, compose
// (through the cache when enabled), and write the companion artifact.
func (p *Pipeline) runUnit(path string) (rep UnitReport) {
	rep.Path = path
	bag := &diag.Bag{}
	defer func() { rep.Diags = bag.Items() }()

	unit, err := load.UnitFile(path)
	if err != nil {
		rep.Err = err
		return rep
	}

	res, err := p.compose(unit, bag)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.patches = res.Patches

	if res.Body == "" {
		return rep
	}
	artifact, err := p.writeArtifact(unit, res)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Artifact = artifact
	return rep
}

func (p *Pipeline) compose(unit *load.Unit, bag *diag.Bag) (*gen.UnitResult, error) {
	key, keyErr := gen.Fingerprint(unit, p.cfg)
	if keyErr == nil {
		// Patch instructions are byte offsets into the source snapshot
		// current at composition time; replaying a cached batch against
		// a later snapshot would splice members at stale positions.
		// Units that patch are always recomposed, which also re-runs the
		// existing-member guard.
		if res, ok := p.cache.Get(key); ok && len(res.Patches) == 0 {
			return res, nil
		}
	}
	res, err := p.composer.Compose(unit, p.cfg, bag)
	if err != nil {
		return nil, err
	}
	if keyErr == nil {
		if err := p.cache.Put(key, res); err != nil {
			p.log.Debug("cache write failed", "error", err)
		}
	}
	return res, nil
}

// writeArtifact renders, formats, and writes the unit's companion file.
// An unchanged artifact is not rewritten, so repeated runs against
// unmodified input touch nothing.
func (p *Pipeline) writeArtifact(unit *load.Unit, res *gen.UnitResult) (string, error) {
	target := p.artifactPath(unit)
	src := renderArtifact(p.cfg.Header, unit.Package, res)
	formatted, err := imports.Process(target, []byte(src), nil)
	if err != nil {
		return "", fmt.Errorf("format %s: %w", target, err)
	}
	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, formatted) {
		return target, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, formatted, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

func (p *Pipeline) artifactPath(unit *load.Unit) string {
	base := strings.TrimSuffix(filepath.Base(unit.Source), filepath.Ext(unit.Source)) + "_codec.go"
	if p.cfg.OutDir != "" {
		return filepath.Join(p.cfg.OutDir, base)
	}
	return filepath.Join(filepath.Dir(unit.Source), base)
}

// renderArtifact assembles the companion source text. The import list is
// over-approximated; formatting drops anything the body does not use.
func renderArtifact(header, pkg string, res *gen.UnitResult) string {
	var b strings.Builder
	if header != "" {
		b.WriteString("// ")
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	b.WriteString("package ")
	b.WriteString(pkg)
	b.WriteString("\n\n")
	if len(res.Imports) > 0 {
		b.WriteString("import (\n")
		for _, imp := range res.Imports {
			b.WriteString("\t")
			b.WriteString(strconv.Quote(imp))
			b.WriteString("\n")
		}
		b.WriteString(")\n\n")
	}
	b.WriteString(res.Body)
	b.WriteString("\n")
	return b.String()
}
