package dragon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dragon-exp/unpacker_go/pkg/calib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHelpers(t *testing.T) {
	src := MapVariables{
		"int":     " 12 ",
		"bad_int": "twelve",
		"floats":  "1.5 2 -3e2",
		"short":   "1 2",
		"name":    "  VADC ",
		"empty":   "  ",
	}

	n := 0
	require.NoError(t, readInt(src, "int", &n))
	assert.Equal(t, 12, n)
	assert.True(t, errors.Is(readInt(src, "bad_int", &n), ErrVariable))
	assert.Equal(t, 12, n)

	floats := make([]float64, 3)
	require.NoError(t, readFloats(src, "floats", floats))
	assert.Equal(t, []float64{1.5, 2, -300}, floats)

	short := []float64{7, 7, 7}
	err := readFloats(src, "short", short)
	var varErr *VariableError
	require.True(t, errors.As(err, &varErr))
	assert.Equal(t, "short", varErr.Key)
	assert.Equal(t, []float64{7, 7, 7}, short)

	name := "default"
	require.NoError(t, readString(src, "missing", &name))
	assert.Equal(t, "default", name)
	require.NoError(t, readString(src, "name", &name))
	assert.Equal(t, "VADC", name)
	assert.Error(t, readString(src, "empty", &name))
}

func TestReadCoefficients(t *testing.T) {
	c := calib.NewCoefficients(2)
	src := MapVariables{
		"x/kind":     "quadratic",
		"x/pedestal": "10 20",
		"x/slope2":   "0.5 0.25",
	}
	require.NoError(t, readCoefficients(src, "x", &c))
	assert.Equal(t, calib.Quadratic, c.Kind)
	assert.Equal(t, []float64{10, 20}, c.Pedestal)
	assert.Equal(t, []float64{1, 1}, c.Slope)

	values := []float64{4, 20}
	c.Apply(values)
	// 4 is below its pedestal, 20 + 0.25*400
	assert.Equal(t, []float64{NoData, 120}, values)

	t.Run("polynomial rows must be complete", func(t *testing.T) {
		c := calib.NewCoefficients(2)
		src := MapVariables{
			"x/kind":    "polynomial",
			"x/order":   "3",
			"x/coeff/0": "1 1",
			"x/coeff/1": "1 1",
		}
		// the third row defaults to zero
		require.NoError(t, readCoefficients(src, "x", &c))
		assert.Equal(t, 3, c.Order)
		assert.Equal(t, []float64{0, 0}, c.Coeff[2])
	})

	t.Run("bad kind keeps previous", func(t *testing.T) {
		c := calib.NewCoefficients(2)
		err := readCoefficients(MapVariables{"x/kind": "cubic", "x/slope": "3 3"}, "x", &c)
		assert.True(t, errors.Is(err, ErrVariable))
		assert.Equal(t, calib.Linear, c.Kind)
		assert.Equal(t, []float64{1, 1}, c.Slope)
	})

	t.Run("negative order", func(t *testing.T) {
		c := calib.NewCoefficients(2)
		err := readCoefficients(MapVariables{"x/order": "-1"}, "x", &c)
		assert.True(t, errors.Is(err, ErrVariable))
		assert.Equal(t, 2, c.Order)
	})
}

func TestLoadVariablesFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "variables.json")
	content := `{
		"head/bank/adc": "XADC",
		"scaler/head/read_period": 2.5,
		"tail/mcp/channel": [1, 0],
		"head/energy/kind": "linear"
	}`
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))

	variables, err := LoadVariablesFile(filename)
	require.NoError(t, err)
	assert.Equal(t, MapVariables{
		"head/bank/adc":           "XADC",
		"scaler/head/read_period": "2.5",
		"tail/mcp/channel":        "1 0",
		"head/energy/kind":        "linear",
	}, variables)

	tail, err := NewTail()
	require.NoError(t, err)
	require.NoError(t, tail.SetVariables(variables))
	assert.Equal(t, []int{1, 0}, tail.Variables.McpChannel)

	_, err = LoadVariablesFile(filepath.Join(t.TempDir(), "missing.json"))
	var openErr *ErrOpenFile
	assert.True(t, errors.As(err, &openErr))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a": {"b": 1}}`), 0o644))
	_, err = LoadVariablesFile(bad)
	assert.True(t, errors.Is(err, ErrVariable))
}

func TestScalerVariables(t *testing.T) {
	s := NewScaler("tail")
	assert.Equal(t, "TSCL", s.Variables.Bank)
	err := s.SetVariables(MapVariables{"scaler/tail/read_period": "0"})
	assert.True(t, errors.Is(err, ErrVariable))
	assert.Equal(t, 1.0, s.Variables.ReadPeriod)

	require.NoError(t, s.SetVariables(MapVariables{"scaler/head/bank": "NOPE"}))
	assert.Equal(t, "TSCL", s.Variables.Bank)
}
