package calib

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPedestalSubtract(t *testing.T) {
	values := []float64{13, 16, 21, 444, NoData}
	pedestal := []float64{32, 17, 21, 46, 0}
	PedestalSubtract(values, pedestal)
	assert.Equal(t, []float64{NoData, NoData, 21, 444, NoData}, values)

	assert.Equal(t, 100.0, PedestalSubtractValue(100.0, 32))
	assert.Equal(t, float64(NoData), PedestalSubtractValue(31.0, 32))
	// A sentinel below a negative pedestal is still left alone
	assert.Equal(t, int16(NoData), PedestalSubtractValue(int16(NoData), -5))
}

func TestLinearCalibrate(t *testing.T) {
	values := []float64{1, 2, 3, NoData}
	LinearCalibrate(values, []float64{2, 1, 0, 5}, []float64{0, 1, 2, 5})
	assert.Equal(t, []float64{2, 3, 2, NoData}, values)
}

func TestQuadraticCalibrate(t *testing.T) {
	values := []float64{2, NoData}
	QuadraticCalibrate(values, []float64{0.5, 1}, []float64{3, 1}, []float64{1, 1})
	// 1 + 3*2 + 0.5*4
	assert.Equal(t, []float64{9, NoData}, values)
	assert.Equal(t, 9.0, QuadraticCalibrateValue(2.0, 0.5, 3, 1))
}

func TestPolynomialCalibrate(t *testing.T) {
	values := []float64{2, 3, NoData}
	coeff := [][]float64{
		{1, 0, 7},
		{1, 2, 7},
		{1, 0, 7},
	}
	PolynomialCalibrate(3, values, coeff)
	// 1 + 2 + 4, 0 + 6 + 0
	assert.Equal(t, []float64{7, 6, NoData}, values)
}

func TestPolynomialOrderTwoMatchesLinear(t *testing.T) {
	inputs := []float64{0, 1, 3.14159, 1234.5678, 4095, 1e-7, 17.25}
	slopes := []float64{1, 0.3333333, 2.5e-3, 17.1}
	offsets := []float64{0, -12.75, 0.1, 1e6}
	for _, v := range inputs {
		for _, slope := range slopes {
			for _, offset := range offsets {
				linear := LinearCalibrateValue(v, slope, offset)
				poly := PolynomialCalibrateValue(2, v, []float64{offset, slope})
				require.Equal(t, linear, poly, "v=%v slope=%v offset=%v", v, slope, offset)
			}
		}
	}
}

func TestTransformsNeverRevalidate(t *testing.T) {
	pedestal := []float64{0, 10, 10, 0}
	start := []float64{NoData, 5, NoData, 30}

	calibrations := map[string]func([]float64){
		"linear": func(v []float64) {
			LinearCalibrate(v, []float64{-1, 2, 3, 4}, []float64{0, 1, 1, 1})
		},
		"quadratic": func(v []float64) {
			QuadraticCalibrate(v, []float64{1, 1, 1, 1}, []float64{0, 0, 0, 0}, []float64{-1, 3, -1, 0})
		},
		"polynomial": func(v []float64) {
			PolynomialCalibrate(3, v, [][]float64{{-1, 0, 0, 1}, {0, 1, 1, 1}, {0, 0, 0, 1}})
		},
	}
	for name, calibrate := range calibrations {
		t.Run(name, func(t *testing.T) {
			values := append([]float64(nil), start...)
			PedestalSubtract(values, pedestal)
			calibrate(values)
			assert.Equal(t, float64(NoData), values[0])
			assert.Equal(t, float64(NoData), values[1])
			assert.Equal(t, float64(NoData), values[2])
			assert.NotEqual(t, float64(NoData), values[3])
		})
	}
}

func TestTOF(t *testing.T) {
	assert.Equal(t, 5.0, TOF(10.0, 5.0))
	assert.Equal(t, float64(NoData), TOF(10.0, NoData))
	assert.Equal(t, float64(NoData), TOF(NoData, 3.0))
	assert.Equal(t, int32(-2), TOF(int32(1), int32(3)))
}

func TestSum(t *testing.T) {
	anodes := []float64{300, 200, 100, 1, 0, NoData}
	assert.Equal(t, 601.0, Sum(anodes))
	assert.Equal(t, 0.0, Sum([]float64{NoData, NoData}))
}

func TestValidityComparators(t *testing.T) {
	descending := []float64{NoData, 12, 11, -13, NoData}
	sort.SliceStable(descending, func(i, j int) bool {
		return GreaterAndValid(descending[i], descending[j])
	})
	assert.Equal(t, []float64{12, 11, -13, NoData, NoData}, descending)

	ascending := []float64{NoData, 12, 11, -13, NoData}
	sort.SliceStable(ascending, func(i, j int) bool {
		return LessAndValid(ascending[i], ascending[j])
	})
	assert.Equal(t, []float64{NoData, NoData, -13, 11, 12}, ascending)

	assert.False(t, LessAndValid(float64(NoData), NoData))
	assert.False(t, GreaterAndValid(float64(NoData), NoData))
}

func TestIndexSort(t *testing.T) {
	data := []float64{1, 5, -12, 21, NoData}
	indices := IndexSort(data, GreaterAndValid[float64])
	if diff := cmp.Diff([]int{3, 1, 0, 2, 4}, indices); diff != "" {
		t.Errorf("index order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{1, 5, -12, 21, NoData}, data)
}

func TestChannelMap(t *testing.T) {
	raw := []int16{21, 24, 26, NoData}
	output := make([]float64, 5)
	ChannelMap(output, []int{2, 0, 1, 3, 40}, raw)
	assert.Equal(t, []float64{26, 21, 24, NoData, NoData}, output)
}

func TestOptional(t *testing.T) {
	v, ok := Of(12.5).Get()
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	missing := Of(float64(NoData))
	assert.False(t, missing.Valid)
	assert.Equal(t, float64(NoData), missing.Raw())
	assert.Equal(t, 3.0, Of(3.0).Raw())
}

func TestCoefficientsApply(t *testing.T) {
	c := NewCoefficients(3)
	require.NoError(t, c.Validate())

	values := []float64{10, 20, NoData}
	c.Apply(values)
	assert.Equal(t, []float64{10, 20, NoData}, values)

	c.Pedestal = []float64{15, 0, 0}
	c.Kind = Quadratic
	c.Slope2 = []float64{1, 1, 1}
	c.Offset = []float64{1, 1, 1}
	require.NoError(t, c.Validate())
	values = []float64{10, 2, NoData}
	c.Apply(values)
	assert.Equal(t, []float64{NoData, 7, NoData}, values)

	c.Kind = Polynomial
	c.Order = 4
	assert.Error(t, c.Validate())
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Linear, Quadratic, Polynomial} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("cubic")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", Kind(9).String())
}
