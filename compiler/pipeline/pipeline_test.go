package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serixdev/serix/compiler/gen"
	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/pkg/logger"
)

const pointSource = `package geo

type Point struct {
	X int
	Y int
}
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newPipeline(t *testing.T, opts ...gen.Option) *Pipeline {
	t.Helper()
	cfg, err := gen.NewConfig(opts...)
	require.NoError(t, err)
	return New(cfg, WithLogger(logger.Nop()))
}

func TestRun(t *testing.T) {
	t.Run("writes a formatted companion artifact", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFixture(t, dir, "point.go", pointSource)
		unit := writeFixture(t, dir, "point.yaml",
			"source: "+source+"\npackage: geo\nclasses:\n  - name: Point\n    fields:\n      - {name: X, type: int, public: true}\n      - {name: Y, type: int, public: true}\n")

		p := newPipeline(t)
		report, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)

		require.Len(t, report.Units, 1)
		assert.NotEmpty(t, report.RunID)
		artifact := report.Units[0].Artifact
		assert.Equal(t, filepath.Join(dir, "point_codec.go"), artifact)

		content, err := os.ReadFile(artifact)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Code generated by serix. DO NOT EDIT.")
		assert.Contains(t, string(content), "package geo")
		assert.Contains(t, string(content), "func PointFromMap")
		assert.Contains(t, string(content), "func PointToMap")
		assert.Contains(t, string(content), `"github.com/serixdev/serix"`)
	})

	t.Run("out dir redirects the artifact", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "generated")
		source := writeFixture(t, dir, "point.go", pointSource)
		unit := writeFixture(t, dir, "point.yaml",
			"source: "+source+"\npackage: geo\nclasses:\n  - name: Point\n    fields:\n      - {name: X, type: int, public: true}\n")

		p := newPipeline(t, gen.WithOutDir(out))
		report, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(out, "point_codec.go"), report.Units[0].Artifact)
		_, err = os.Stat(filepath.Join(out, "point_codec.go"))
		assert.NoError(t, err)
	})

	t.Run("a second run leaves the artifact untouched", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFixture(t, dir, "point.go", pointSource)
		unit := writeFixture(t, dir, "point.yaml",
			"source: "+source+"\npackage: geo\nclasses:\n  - name: Point\n    fields:\n      - {name: X, type: int, public: true}\n")

		p := newPipeline(t)
		_, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)

		artifact := filepath.Join(dir, "point_codec.go")
		first, err := os.Stat(artifact)
		require.NoError(t, err)

		_, err = p.Run(context.Background(), []string{unit})
		require.NoError(t, err)

		second, err := os.Stat(artifact)
		require.NoError(t, err)
		assert.Equal(t, first.ModTime(), second.ModTime())
	})

	t.Run("a failing unit does not abort its siblings", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFixture(t, dir, "point.go", pointSource)
		good := writeFixture(t, dir, "good.yaml",
			"source: "+source+"\npackage: geo\nclasses:\n  - name: Point\n    fields:\n      - {name: X, type: int, public: true}\n")
		bad := writeFixture(t, dir, "bad.yaml", "source: [broken")

		p := newPipeline(t)
		report, err := p.Run(context.Background(), []string{bad, good})
		require.Error(t, err)

		require.Len(t, report.Units, 2)
		assert.Error(t, report.Units[0].Err)
		require.NoError(t, report.Units[1].Err)
		assert.NotEmpty(t, report.Units[1].Artifact)
	})

	t.Run("cached units reuse the composed result", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFixture(t, dir, "point.go", pointSource)
		unit := writeFixture(t, dir, "point.yaml",
			"source: "+source+"\npackage: geo\nclasses:\n  - name: Point\n    fields:\n      - {name: X, type: int, public: true}\n")

		p := newPipeline(t, gen.WithCacheDir(filepath.Join(dir, "cache")))
		first, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)
		second, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)

		assert.Equal(t, first.Units[0].Artifact, second.Units[0].Artifact)
		entries, err := os.ReadDir(filepath.Join(dir, "cache"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestRunInPlace(t *testing.T) {
	descriptor := func(source string) string {
		return "source: " + source + "\npackage: geo\nclasses:\n" +
			"  - name: Point\n" +
			"    fields:\n" +
			"      - {name: X, type: int, public: true}\n" +
			"      - {name: Y, type: int, public: true}\n" +
			"    options: {in_place: true}\n"
	}

	t.Run("patches the source file once", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFixture(t, dir, "point.go", pointSource)
		unit := writeFixture(t, dir, "point.yaml", descriptor(source))

		p := newPipeline(t)
		report, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)

		require.Len(t, report.Patched, 1)
		assert.Equal(t, source, report.Patched[0].Path)

		content, err := os.ReadFile(source)
		require.NoError(t, err)
		assert.Contains(t, string(content), "func PointFromMap")
		assert.Contains(t, string(content), "func PointToMap")
		// The declaration itself is untouched.
		assert.Contains(t, string(content), "type Point struct {")
	})

	t.Run("a second run is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFixture(t, dir, "point.go", pointSource)
		unit := writeFixture(t, dir, "point.yaml", descriptor(source))

		p := newPipeline(t)
		_, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)
		patched, err := os.ReadFile(source)
		require.NoError(t, err)

		report, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)
		assert.Empty(t, report.Patched)

		again, err := os.ReadFile(source)
		require.NoError(t, err)
		assert.Equal(t, string(patched), string(again))
	})

	t.Run("a second run is a no-op with the cache enabled", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFixture(t, dir, "point.go", pointSource)
		unit := writeFixture(t, dir, "point.yaml", descriptor(source))

		p := newPipeline(t, gen.WithCacheDir(filepath.Join(dir, "cache")))
		_, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)
		patched, err := os.ReadFile(source)
		require.NoError(t, err)

		report, err := p.Run(context.Background(), []string{unit})
		require.NoError(t, err)
		assert.Empty(t, report.Patched)

		again, err := os.ReadFile(source)
		require.NoError(t, err)
		assert.Equal(t, string(patched), string(again))
		assert.Equal(t, 1, strings.Count(string(again), "func PointFromMap"))
		assert.Equal(t, 1, strings.Count(string(again), "func PointToMap"))
	})
}

func TestArtifactPath(t *testing.T) {
	t.Run("defaults next to the source", func(t *testing.T) {
		p := newPipeline(t)

		got := p.artifactPath(&load.Unit{Source: filepath.Join("internal", "geo", "point.go")})
		assert.Equal(t, filepath.Join("internal", "geo", "point_codec.go"), got)
	})

	t.Run("honors the configured out dir", func(t *testing.T) {
		p := newPipeline(t, gen.WithOutDir("generated"))

		got := p.artifactPath(&load.Unit{Source: filepath.Join("internal", "geo", "point.go")})
		assert.Equal(t, filepath.Join("generated", "point_codec.go"), got)
	})
}
