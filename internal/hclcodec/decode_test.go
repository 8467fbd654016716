package hclcodec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

type material struct {
	Name    string   `hcl:"name"`
	Shader  string   `hcl:"shader,optional"`
	Layers  []string `hcl:"layers,optional"`
	Opacity float64  `hcl:"opacity,optional"`
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name        string
		schema      string
		data        string
		expect      material
		errContains string
	}{
		{
			name:   "plain body",
			data:   `name = "stone"` + "\n" + `opacity = 0.5`,
			expect: material{Name: "stone", Opacity: 0.5},
		},
		{
			name:   "schema header is consumed",
			schema: "material/v1",
			data:   "schema = \"material/v1\"\nname = \"stone\"\n",
			expect: material{Name: "stone"},
		},
		{
			name:        "schema header missing",
			schema:      "material/v1",
			data:        `name = "stone"`,
			errContains: "missing schema header",
		},
		{
			name:        "schema mismatch",
			schema:      "material/v1",
			data:        "schema = \"mesh/v1\"\nname = \"stone\"\n",
			errContains: "schema mismatch",
		},
		{
			name:        "syntax error",
			data:        `name = "stone`,
			errContains: "failed to parse HCL file",
		},
		{
			name:        "missing required attribute",
			data:        `shader = "pbr"`,
			errContains: "failed to decode HCL file",
		},
		{
			name:   "stdlib functions",
			data:   `name = upper("stone")` + "\n" + `layers = concat(["a"], ["b"])`,
			expect: material{Name: "STONE", Layers: []string{"a", "b"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got material
			err := Decode(Source{Filename: "stone.mat", Data: []byte(tc.data)}, tc.schema, &got, NewEvalContext(nil))
			if tc.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestResourceFunc(t *testing.T) {
	var seen []string
	resolve := func(path string) (string, error) {
		if path == "bad" {
			return "", errors.New("no such type")
		}
		seen = append(seen, path)
		return "norm/" + path, nil
	}
	evalCtx := NewEvalContext(map[string]function.Function{"resource": ResourceFunc(resolve)})

	var got material
	data := `name = resource("a.tex")` + "\n" + `layers = [resource("b.tex"), resource("c.tex")]`
	require.NoError(t, Decode(Source{Filename: "m.mat", Data: []byte(data)}, "", &got, evalCtx))
	assert.Equal(t, "norm/a.tex", got.Name)
	assert.Equal(t, []string{"norm/b.tex", "norm/c.tex"}, got.Layers)
	assert.Equal(t, []string{"a.tex", "b.tex", "c.tex"}, seen)

	err := Decode(Source{Filename: "m.mat", Data: []byte(`name = resource("bad")`)}, "", &got, evalCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such type")
}

func TestAttributes(t *testing.T) {
	env := map[string]string{"REGION": "eu-west-1"}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	evalCtx := NewEvalContext(map[string]function.Function{"env": EnvFunc(lookup)})

	data := `
schema   = "settings/v1"
region   = env("REGION")
zone     = env("ZONE", "a")
missing  = env("MISSING")
replicas = 3
`
	values, err := Attributes(Source{Filename: "app.cfg", Data: []byte(data)}, "settings/v1", evalCtx)
	require.NoError(t, err)

	assert.NotContains(t, values, "schema")
	assert.Equal(t, cty.StringVal("eu-west-1"), values["region"])
	assert.Equal(t, cty.StringVal("a"), values["zone"])
	assert.True(t, values["missing"].IsNull())
	assert.True(t, values["replicas"].Equals(cty.NumberIntVal(3)).True())

	t.Run("blocks are rejected", func(t *testing.T) {
		_, err := Attributes(Source{Filename: "x.cfg", Data: []byte("block {}\n")}, "", evalCtx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read attributes")
	})

	t.Run("unknown function fails evaluation", func(t *testing.T) {
		_, err := Attributes(Source{Filename: "x.cfg", Data: []byte("a = nope()\n")}, "", evalCtx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to evaluate attributes")
	})
}
