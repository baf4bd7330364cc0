package dragon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dragon-exp/unpacker_go/pkg/calib"
)

// VariableSource is a key addressed store of run variables. Values are
// whitespace separated lists.
type VariableSource interface {
	GetValue(key string) (string, bool)
}

// MapVariables is an in-memory VariableSource.
type MapVariables map[string]string

func (m MapVariables) GetValue(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// LoadVariablesFile reads a JSON object of variables. Numbers and arrays are
// converted to their whitespace separated form.
func LoadVariablesFile(filename string) (MapVariables, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing variables file %q: %w", filename, err)
	}
	variables := make(MapVariables, len(raw))
	for key, value := range raw {
		s, err := variableString(value)
		if err != nil {
			return nil, &VariableError{Key: key, Value: fmt.Sprint(value), Err: err}
		}
		variables[key] = s
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Read %d variables from %s", len(variables), filename)
		logger.Info(message, "variables")
	}
	return variables, nil
}

func variableString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			s, err := variableString(item)
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return strings.Join(items, " "), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func readString(src VariableSource, key string, dst *string) error {
	value, ok := src.GetValue(key)
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return &VariableError{Key: key, Value: value, Err: errors.New("empty value")}
	}
	*dst = value
	return nil
}

func readInt(src VariableSource, key string, dst *int) error {
	value, ok := src.GetValue(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return &VariableError{Key: key, Value: value, Err: err}
	}
	*dst = v
	return nil
}

func readFloat(src VariableSource, key string, dst *float64) error {
	value, ok := src.GetValue(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return &VariableError{Key: key, Value: value, Err: err}
	}
	*dst = v
	return nil
}

// readInts fills dst, which must match the number of values exactly.
func readInts(src VariableSource, key string, dst []int) error {
	value, ok := src.GetValue(key)
	if !ok {
		return nil
	}
	fields := strings.Fields(value)
	if len(fields) != len(dst) {
		return &VariableError{Key: key, Value: value,
			Err: fmt.Errorf("has %d values, want %d", len(fields), len(dst))}
	}
	parsed := make([]int, len(fields))
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return &VariableError{Key: key, Value: value, Err: err}
		}
		parsed[i] = v
	}
	copy(dst, parsed)
	return nil
}

func readFloats(src VariableSource, key string, dst []float64) error {
	value, ok := src.GetValue(key)
	if !ok {
		return nil
	}
	fields := strings.Fields(value)
	if len(fields) != len(dst) {
		return &VariableError{Key: key, Value: value,
			Err: fmt.Errorf("has %d values, want %d", len(fields), len(dst))}
	}
	parsed := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return &VariableError{Key: key, Value: value, Err: err}
		}
		parsed[i] = v
	}
	copy(dst, parsed)
	return nil
}

func readStrings(src VariableSource, key string, dst []string) error {
	value, ok := src.GetValue(key)
	if !ok {
		return nil
	}
	fields := strings.Fields(value)
	if len(fields) != len(dst) {
		return &VariableError{Key: key, Value: value,
			Err: fmt.Errorf("has %d values, want %d", len(fields), len(dst))}
	}
	copy(dst, fields)
	return nil
}

// readCoefficients reads the calibration under prefix:
//
//	prefix/kind       linear, quadratic or polynomial
//	prefix/order      number of polynomial terms
//	prefix/pedestal   one value per channel
//	prefix/offset     ...
//	prefix/slope
//	prefix/slope2
//	prefix/coeff/<j>  polynomial term j, one value per channel
func readCoefficients(src VariableSource, prefix string, c *calib.Coefficients) error {
	n := c.Len()
	next := calib.Coefficients{
		Kind:     c.Kind,
		Order:    c.Order,
		Pedestal: append([]float64(nil), c.Pedestal...),
		Offset:   append([]float64(nil), c.Offset...),
		Slope:    append([]float64(nil), c.Slope...),
		Slope2:   append([]float64(nil), c.Slope2...),
	}
	var errs []error

	if value, ok := src.GetValue(prefix + "/kind"); ok {
		kind, err := calib.ParseKind(value)
		if err != nil {
			errs = append(errs, &VariableError{Key: prefix + "/kind", Value: value, Err: err})
		}
		next.Kind = kind
	}
	errs = append(errs,
		readInt(src, prefix+"/order", &next.Order),
		readFloats(src, prefix+"/pedestal", next.Pedestal),
		readFloats(src, prefix+"/offset", next.Offset),
		readFloats(src, prefix+"/slope", next.Slope),
		readFloats(src, prefix+"/slope2", next.Slope2),
	)

	if next.Order < 0 {
		errs = append(errs, &VariableError{Key: prefix + "/order", Value: strconv.Itoa(next.Order),
			Err: errors.New("negative order")})
		next.Order = 0
	}
	next.Coeff = make([][]float64, next.Order)
	for j := range next.Coeff {
		if j < len(c.Coeff) {
			next.Coeff[j] = append([]float64(nil), c.Coeff[j]...)
		} else {
			next.Coeff[j] = make([]float64, n)
		}
		errs = append(errs, readFloats(src, fmt.Sprintf("%s/coeff/%d", prefix, j), next.Coeff[j]))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return &VariableError{Key: prefix, Value: next.Kind.String(), Err: err}
	}
	*c = next
	return nil
}
