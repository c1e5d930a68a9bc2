// Package patch applies batches of byte-offset text replacements to
// files. Instructions captured against one file snapshot are applied in
// descending start order against a single in-memory copy, so earlier
// offsets stay valid throughout the batch, and the file is written once
// after the whole batch has been applied.
package patch

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/serixdev/serix"
)

// Instruction describes one substitution against a specific file
// snapshot. Start == End inserts without replacing.
type Instruction struct {
	Path        string `msgpack:"path"`
	Start       int    `msgpack:"start"`
	End         int    `msgpack:"end"`
	Replacement string `msgpack:"replacement"`
}

// FileChange summarises the modifications performed on one file.
type FileChange struct {
	Path  string
	Edits int
}

// Apply applies a batch of instructions. Instructions are grouped per
// file; a failure is terminal for that file's batch only and never
// produces a partial write — sibling files still get patched. The
// returned error joins the per-file failures, if any.
func Apply(batch []Instruction) ([]FileChange, error) {
	groups := make(map[string][]Instruction)
	order := make([]string, 0, len(groups))
	for _, ins := range batch {
		if _, ok := groups[ins.Path]; !ok {
			order = append(order, ins.Path)
		}
		groups[ins.Path] = append(groups[ins.Path], ins)
	}
	sort.Strings(order)

	var (
		changes []FileChange
		errs    []error
	)
	for _, path := range order {
		if err := applyFile(path, groups[path]); err != nil {
			errs = append(errs, err)
			continue
		}
		changes = append(changes, FileChange{Path: path, Edits: len(groups[path])})
	}
	return changes, errors.Join(errs...)
}

// applyFile applies one file's instructions against a fresh snapshot.
// The whole batch validates before any splicing so no partial or corrupt
// file is ever written.
func applyFile(path string, group []Instruction) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}

	for _, ins := range group {
		if ins.Start < 0 || ins.End < ins.Start || ins.End > len(content) {
			return serix.NewPatchRangeError(path, ins.Start, ins.End, len(content))
		}
	}
	if conflict := overlapping(group); conflict != nil {
		return fmt.Errorf("patch %s: overlapping instructions at [%d:%d)", path, conflict.Start, conflict.End)
	}

	// Descending start order: later-position edits never shift the
	// offsets of edits still to come.
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Start == group[j].Start {
			return group[i].End > group[j].End
		}
		return group[i].Start > group[j].Start
	})

	working := append([]byte(nil), content...)
	for _, ins := range group {
		suffix := append([]byte(nil), working[ins.End:]...)
		working = append(append(working[:ins.Start], []byte(ins.Replacement)...), suffix...)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	return os.WriteFile(path, working, mode)
}

// overlapping returns one of a pair of instructions whose spans overlap,
// or nil. Spans are half-open; two pure insertions at the same offset do
// not conflict.
func overlapping(group []Instruction) *Instruction {
	for i := range group {
		for j := i + 1; j < len(group); j++ {
			a, b := group[i], group[j]
			if spansConflict(a, b) {
				return &group[j]
			}
		}
	}
	return nil
}

func spansConflict(a, b Instruction) bool {
	if a.Start == a.End && b.Start == b.End {
		return false
	}
	if a.Start == a.End {
		return b.Start <= a.Start && a.Start < b.End
	}
	if b.Start == b.End {
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}
