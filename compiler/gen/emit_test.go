package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/diag"
	"github.com/serixdev/serix/schema/typemap"
)

func pointClass() (*load.Class, []*SelectedField) {
	c := &load.Class{Name: "Point", Fields: []*load.Field{
		{Name: "X", Type: "int", Public: true},
		{Name: "Y", Type: "int", Public: true},
	}}
	fields := []*SelectedField{
		{Field: c.Fields[0], Key: "x"},
		{Field: c.Fields[1], Key: "y"},
	}
	return c, fields
}

func TestFactory(t *testing.T) {
	em := NewEmitter(typemap.Default())

	t.Run("reads every selected field through the runtime", func(t *testing.T) {
		c, fields := pointClass()

		frag, err := em.Factory(c, fields)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(frag.Text, "// PointFromMap builds a Point"))
		assert.Contains(t, frag.Text, "func PointFromMap(m map[string]any) (*Point, error)")
		assert.Contains(t, frag.Text, `serix.Int(m, "x")`)
		assert.Contains(t, frag.Text, `serix.Int(m, "y")`)
		assert.Contains(t, frag.Text, "v.X = fv")
		assert.Contains(t, frag.Text, "return v, nil")
		assert.Equal(t, []string{typemap.RuntimePkg}, frag.Imports)
	})

	t.Run("identical input yields byte-identical output", func(t *testing.T) {
		c, fields := pointClass()

		a, err := em.Factory(c, fields)
		require.NoError(t, err)
		b, err := em.Factory(c, fields)
		require.NoError(t, err)

		assert.Equal(t, a.Text, b.Text)
	})

	t.Run("empty field set yields a valid factory", func(t *testing.T) {
		c := &load.Class{Name: "Empty"}

		frag, err := em.Factory(c, nil)
		require.NoError(t, err)

		assert.Contains(t, frag.Text, "v := &Empty{}")
		assert.Contains(t, frag.Text, "return v, nil")
		assert.Empty(t, frag.Imports)
	})

	t.Run("default value guards on key presence", func(t *testing.T) {
		c, fields := pointClass()
		fields[0].Default = "7"

		frag, err := em.Factory(c, fields)
		require.NoError(t, err)

		assert.Contains(t, frag.Text, `if !serix.Has(m, "x")`)
		assert.Contains(t, frag.Text, "v.X = 7")
	})

	t.Run("unregistered type fails with a generation error", func(t *testing.T) {
		c := &load.Class{Name: "Span", Fields: []*load.Field{
			{Name: "D", Type: "chrono.Duration", Public: true},
		}}
		fields := []*SelectedField{{Field: c.Fields[0], Key: "d"}}

		_, err := em.Factory(c, fields)
		require.Error(t, err)
		assert.True(t, IsGenerationError(err))
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.ErrorContains(t, err, "Span.D")
	})
}

func TestEncoder(t *testing.T) {
	em := NewEmitter(typemap.Default())

	t.Run("stores every selected field under its key", func(t *testing.T) {
		c, fields := pointClass()

		frag, err := em.Encoder(c, fields, &diag.Bag{})
		require.NoError(t, err)

		assert.Contains(t, frag.Text, "func PointToMap(v *Point) map[string]any")
		assert.Contains(t, frag.Text, "m := make(map[string]any, 2)")
		assert.Contains(t, frag.Text, `m["x"] = v.X`)
		assert.Contains(t, frag.Text, `m["y"] = v.Y`)
	})

	t.Run("omit-if-default compares against the zero value", func(t *testing.T) {
		c, fields := pointClass()
		fields[0].OmitDefault = true

		frag, err := em.Encoder(c, fields, &diag.Bag{})
		require.NoError(t, err)

		assert.Contains(t, frag.Text, "if v.X != 0 {")
		// The second field stays unconditional.
		assert.NotContains(t, frag.Text, "if v.Y")
	})

	t.Run("omit-if-default prefers a configured default", func(t *testing.T) {
		c, fields := pointClass()
		fields[0].OmitDefault = true
		fields[0].Default = "7"

		frag, err := em.Encoder(c, fields, &diag.Bag{})
		require.NoError(t, err)

		assert.Contains(t, frag.Text, "if v.X != 7 {")
	})

	t.Run("omit-if-default on a non-comparable type degrades to a warning", func(t *testing.T) {
		c := &load.Class{Name: "Bag", Fields: []*load.Field{
			{Name: "Tags", Type: "[]string", Public: true},
		}}
		fields := []*SelectedField{{Field: c.Fields[0], Key: "tags", OmitDefault: true}}
		bag := &diag.Bag{}

		frag, err := em.Encoder(c, fields, bag)
		require.NoError(t, err)

		assert.Contains(t, frag.Text, `m["tags"] = v.Tags`)
		assert.NotContains(t, frag.Text, "if v.Tags")
		require.Equal(t, 1, bag.Len())
		assert.Equal(t, diag.SeverityWarning, bag.Items()[0].Severity)
	})

	t.Run("unregistered type encodes the raw value with a warning", func(t *testing.T) {
		c := &load.Class{Name: "Span", Fields: []*load.Field{
			{Name: "D", Type: "chrono.Duration", Public: true},
		}}
		fields := []*SelectedField{{Field: c.Fields[0], Key: "d"}}
		bag := &diag.Bag{}

		frag, err := em.Encoder(c, fields, bag)
		require.NoError(t, err)

		assert.Contains(t, frag.Text, `m["d"] = v.D`)
		assert.Equal(t, 1, bag.Len())
	})

	t.Run("time fields format through the conversion", func(t *testing.T) {
		c := &load.Class{Name: "Event", Fields: []*load.Field{
			{Name: "At", Type: "time.Time", Public: true},
		}}
		fields := []*SelectedField{{Field: c.Fields[0], Key: "at"}}

		frag, err := em.Encoder(c, fields, &diag.Bag{})
		require.NoError(t, err)

		assert.Contains(t, frag.Text, `m["at"] = v.At.Format(time.RFC3339Nano)`)
		assert.Contains(t, frag.Imports, "time")
	})
}

func TestGenericEmission(t *testing.T) {
	em := NewEmitter(typemap.Default())
	c := &load.Class{Name: "Box", TypeParams: []string{"T"}, Fields: []*load.Field{
		{Name: "Value", Type: "T", Public: true},
	}}
	fields := []*SelectedField{{Field: c.Fields[0], Key: "value"}}

	t.Run("factory takes a decode function per type parameter", func(t *testing.T) {
		frag, err := em.Factory(c, fields)
		require.NoError(t, err)

		assert.Contains(t, frag.Text,
			"func BoxFromMap[T any](m map[string]any, decodeT func(any) (T, error)) (*Box[T], error)")
		assert.Contains(t, frag.Text, `decodeT(serix.Raw(m, "value"))`)
	})

	t.Run("encoder takes an encode function per type parameter", func(t *testing.T) {
		frag, err := em.Encoder(c, fields, &diag.Bag{})
		require.NoError(t, err)

		assert.Contains(t, frag.Text,
			"func BoxToMap[T any](v *Box[T], encodeT func(T) any) map[string]any")
		assert.Contains(t, frag.Text, `m["value"] = encodeT(v.Value)`)
	})
}

func TestFieldMap(t *testing.T) {
	em := NewEmitter(typemap.Default())

	t.Run("maps field names to output keys", func(t *testing.T) {
		c, fields := pointClass()

		frag, err := em.FieldMap(c, fields)
		require.NoError(t, err)

		assert.Contains(t, frag.Text, "var PointFieldKeys = map[string]string")
		assert.Contains(t, frag.Text, `"X": "x"`)
		assert.Contains(t, frag.Text, `"Y": "y"`)
	})

	t.Run("output is deterministic", func(t *testing.T) {
		c, fields := pointClass()

		a, err := em.FieldMap(c, fields)
		require.NoError(t, err)
		b, err := em.FieldMap(c, fields)
		require.NoError(t, err)

		assert.Equal(t, a.Text, b.Text)
	})
}

func TestEncoderMap(t *testing.T) {
	em := NewEmitter(typemap.Default())

	t.Run("each entry encodes one field", func(t *testing.T) {
		c, fields := pointClass()

		frag, err := em.EncoderMap(c, fields, &diag.Bag{})
		require.NoError(t, err)

		assert.Contains(t, frag.Text, "var PointFieldEncoders = map[string]func(v *Point) any")
		assert.Contains(t, frag.Text, "return v.X")
		assert.Contains(t, frag.Text, "return v.Y")
	})

	t.Run("conversions apply inside the entries", func(t *testing.T) {
		c := &load.Class{Name: "Event", Fields: []*load.Field{
			{Name: "At", Type: "time.Time", Public: true},
		}}
		fields := []*SelectedField{{Field: c.Fields[0], Key: "at"}}

		frag, err := em.EncoderMap(c, fields, &diag.Bag{})
		require.NoError(t, err)

		assert.Contains(t, frag.Text, "v.At.Format(time.RFC3339Nano)")
	})
}
