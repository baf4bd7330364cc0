// Package calib implements the per-channel calibration transforms applied to
// decoded module data.
//
// Every transform is validity preserving: a channel holding NoData is never
// modified and stays NoData.
package calib

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// NoData marks a channel with no measurement. It matches vme.NoData.
const NoData = -1

type Number interface {
	constraints.Signed | constraints.Float
}

func Valid[T Number](v T) bool {
	return v != NoData
}

func AllValid[T Number](values ...T) bool {
	for _, v := range values {
		if !Valid(v) {
			return false
		}
	}
	return true
}

// Optional carries a measurement together with its validity.
type Optional[T Number] struct {
	Value T
	Valid bool
}

func Of[T Number](v T) Optional[T] {
	if !Valid(v) {
		return Optional[T]{}
	}
	return Optional[T]{Value: v, Valid: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Raw returns the value in the sentinel encoding used by recorded data.
func (o Optional[T]) Raw() T {
	if !o.Valid {
		return NoData
	}
	return o.Value
}

// PedestalSubtract sets every channel below its pedestal to NoData.
func PedestalSubtract[T Number](values []T, pedestal []T) {
	for i := range values {
		values[i] = PedestalSubtractValue(values[i], pedestal[i])
	}
}

func PedestalSubtractValue[T Number](value T, pedestal T) T {
	if Valid(value) && value < pedestal {
		return NoData
	}
	return value
}

// LinearCalibrate: new = offset + slope*old
func LinearCalibrate[T constraints.Float](values []T, slope []T, offset []T) {
	for i := range values {
		values[i] = LinearCalibrateValue(values[i], slope[i], offset[i])
	}
}

func LinearCalibrateValue[T constraints.Float](value T, slope T, offset T) T {
	if !Valid(value) {
		return value
	}
	return offset + value*slope
}

// QuadraticCalibrate: new = offset + slope*old + slope2*old*old
func QuadraticCalibrate[T constraints.Float](values []T, slope2 []T, slope []T, offset []T) {
	for i := range values {
		values[i] = QuadraticCalibrateValue(values[i], slope2[i], slope[i], offset[i])
	}
}

func QuadraticCalibrateValue[T constraints.Float](value T, slope2 T, slope T, offset T) T {
	if !Valid(value) {
		return value
	}
	return offset + value*slope + value*value*slope2
}

// PolynomialCalibrate: new = sum(coeff[j][ch] * old^j) for j in [0, order).
// coeff is indexed [power][channel].
func PolynomialCalibrate[T constraints.Float](order int, values []T, coeff [][]T) {
	column := make([]T, order)
	for i := range values {
		for j := 0; j < order; j++ {
			column[j] = coeff[j][i]
		}
		values[i] = PolynomialCalibrateValue(order, values[i], column)
	}
}

func PolynomialCalibrateValue[T constraints.Float](order int, value T, coeff []T) T {
	if !Valid(value) {
		return value
	}
	var result T
	power := T(1)
	for j := 0; j < order; j++ {
		result += coeff[j] * power
		power *= value
	}
	return result
}

// TOF returns t1 - t2 when both times are valid.
func TOF[T Number](t1 T, t2 T) T {
	if !AllValid(t1, t2) {
		return NoData
	}
	return t1 - t2
}

// Sum adds up the valid entries.
func Sum[T Number](values []T) T {
	var sum T
	for _, v := range values {
		if Valid(v) {
			sum += v
		}
	}
	return sum
}

// GreaterAndValid orders descending, with invalid values smaller than any
// valid one.
func GreaterAndValid[T Number](lhs T, rhs T) bool {
	if !Valid(lhs) {
		return false
	}
	if !Valid(rhs) {
		return true
	}
	return lhs > rhs
}

// LessAndValid orders ascending, with invalid values smaller than any valid
// one.
func LessAndValid[T Number](lhs T, rhs T) bool {
	if !Valid(lhs) {
		return Valid(rhs)
	}
	if !Valid(rhs) {
		return false
	}
	return lhs < rhs
}

// IndexSort returns the indices of values ordered by less, leaving values
// untouched. Equal values keep their index order.
func IndexSort[T Number](values []T, less func(T, T) bool) []int {
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return less(values[indices[i]], values[indices[j]])
	})
	return indices
}

// ChannelMap copies input[channels[i]] into output[i]. Channels outside
// input map to NoData.
func ChannelMap[T Number, S Number](output []T, channels []int, input []S) {
	for i := range output {
		ch := channels[i]
		if ch < 0 || ch >= len(input) || !Valid(input[ch]) {
			output[i] = NoData
			continue
		}
		output[i] = T(input[ch])
	}
}
