package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointUnit = `
source: geo/point.go
package: geo
classes:
  - name: Point
    fields:
      - name: X
        type: int
        public: true
      - name: Y
        type: int
        public: true
    constructor_params: [X, Y]
    options:
      create_factory: true
      rename: snake
`

func TestUnitBytes(t *testing.T) {
	t.Run("decodes a well-formed unit", func(t *testing.T) {
		u, err := UnitBytes([]byte(pointUnit))
		require.NoError(t, err)

		assert.Equal(t, "geo/point.go", u.Source)
		assert.Equal(t, "geo", u.Package)
		require.Len(t, u.Classes, 1)

		c := u.Classes[0]
		assert.Equal(t, "Point", c.Name)
		assert.Equal(t, []string{"X", "Y"}, c.CtorParams)
		require.NotNil(t, c.Options)
		require.NotNil(t, c.Options.CreateFactory)
		assert.True(t, *c.Options.CreateFactory)
		assert.Equal(t, "snake", c.Options.Rename)
	})

	t.Run("unset booleans stay nil", func(t *testing.T) {
		u, err := UnitBytes([]byte(pointUnit))
		require.NoError(t, err)

		opts := u.Classes[0].Options
		assert.Nil(t, opts.CreateEncoder)
		assert.Nil(t, opts.InPlace)
	})

	t.Run("explicit false is not unset", func(t *testing.T) {
		u, err := UnitBytes([]byte(`
source: a.go
package: a
classes:
  - name: A
    fields: [{name: X, type: int, public: true}]
    options: {create_encoder: false}
`))
		require.NoError(t, err)

		opts := u.Classes[0].Options
		require.NotNil(t, opts.CreateEncoder)
		assert.False(t, *opts.CreateEncoder)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := UnitBytes([]byte("source: [unterminated"))
		assert.ErrorContains(t, err, "decode unit")
	})

	t.Run("rejects a unit without classes", func(t *testing.T) {
		_, err := UnitBytes([]byte("source: a.go\npackage: a\nclasses: []"))
		assert.ErrorContains(t, err, "validate unit")
	})

	t.Run("rejects a field without a type", func(t *testing.T) {
		_, err := UnitBytes([]byte(`
source: a.go
package: a
classes:
  - name: A
    fields: [{name: X}]
`))
		assert.ErrorContains(t, err, "validate unit")
	})

	t.Run("rejects duplicate class names", func(t *testing.T) {
		_, err := UnitBytes([]byte(`
source: a.go
package: a
classes:
  - name: A
    fields: [{name: X, type: int}]
  - name: A
    fields: [{name: Y, type: int}]
`))
		assert.ErrorContains(t, err, `duplicate class "A"`)
	})

	t.Run("rejects duplicate field names", func(t *testing.T) {
		_, err := UnitBytes([]byte(`
source: a.go
package: a
classes:
  - name: A
    fields:
      - {name: X, type: int}
      - {name: X, type: string}
`))
		assert.ErrorContains(t, err, `duplicate field "X"`)
	})

	t.Run("rejects constructor params without a field", func(t *testing.T) {
		_, err := UnitBytes([]byte(`
source: a.go
package: a
classes:
  - name: A
    fields: [{name: X, type: int}]
    constructor_params: [Z]
`))
		assert.ErrorContains(t, err, `constructor parameter "Z"`)
	})
}

func TestUnitFile(t *testing.T) {
	t.Run("loads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "point.yaml")
		require.NoError(t, os.WriteFile(path, []byte(pointUnit), 0o644))

		u, err := UnitFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Point", u.Classes[0].Name)
	})

	t.Run("wraps read failures with the path", func(t *testing.T) {
		_, err := UnitFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "missing.yaml")
	})
}

func TestAccessors(t *testing.T) {
	u, err := UnitBytes([]byte(pointUnit))
	require.NoError(t, err)
	c := u.Classes[0]

	t.Run("Field finds declared fields", func(t *testing.T) {
		require.NotNil(t, c.Field("X"))
		assert.Nil(t, c.Field("Z"))
	})

	t.Run("FieldOpts never returns nil", func(t *testing.T) {
		f := c.Field("X")
		require.Nil(t, f.Options)
		assert.NotNil(t, f.FieldOpts())
	})
}
