package calib

import (
	"fmt"
	"strings"
)

type Kind int

const (
	Linear Kind = iota
	Quadratic
	Polynomial
)

var kindStrings = []string{
	"linear",
	"quadratic",
	"polynomial",
}

func (k Kind) String() string {
	if k < Linear || k > Polynomial {
		return "UNKNOWN"
	}
	return kindStrings[k]
}

func ParseKind(s string) (Kind, error) {
	for i, v := range kindStrings {
		if v == strings.ToLower(strings.TrimSpace(s)) {
			return Kind(i), nil
		}
	}
	return Linear, fmt.Errorf("invalid calibration kind: %q", s)
}

// Coefficients is the calibration of one group of channels. Which of the
// coefficient vectors is used depends on Kind.
type Coefficients struct {
	Kind     Kind
	Order    int
	Pedestal []float64
	Offset   []float64
	Slope    []float64
	Slope2   []float64
	// Indexed [power][channel]
	Coeff [][]float64
}

// NewCoefficients returns the identity calibration for n channels: zero
// pedestal, unit slope, no offset.
func NewCoefficients(n int) Coefficients {
	c := Coefficients{
		Kind:     Linear,
		Order:    2,
		Pedestal: make([]float64, n),
		Offset:   make([]float64, n),
		Slope:    make([]float64, n),
		Slope2:   make([]float64, n),
		Coeff:    make([][]float64, 2),
	}
	for i := range c.Slope {
		c.Slope[i] = 1
	}
	c.Coeff[0] = make([]float64, n)
	c.Coeff[1] = append([]float64(nil), c.Slope...)
	return c
}

func (c *Coefficients) Len() int {
	return len(c.Pedestal)
}

// Validate checks the vectors used by Kind have one entry per channel.
func (c *Coefficients) Validate() error {
	n := c.Len()
	check := func(name string, v []float64) error {
		if len(v) != n {
			return fmt.Errorf("%s has %d entries, want %d", name, len(v), n)
		}
		return nil
	}
	switch c.Kind {
	case Linear:
		if err := check("offset", c.Offset); err != nil {
			return err
		}
		return check("slope", c.Slope)
	case Quadratic:
		for name, v := range map[string][]float64{"offset": c.Offset, "slope": c.Slope, "slope2": c.Slope2} {
			if err := check(name, v); err != nil {
				return err
			}
		}
		return nil
	case Polynomial:
		if c.Order < 0 || c.Order > len(c.Coeff) {
			return fmt.Errorf("polynomial order %d with %d coefficient rows", c.Order, len(c.Coeff))
		}
		for j := 0; j < c.Order; j++ {
			if err := check(fmt.Sprintf("coeff[%d]", j), c.Coeff[j]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("invalid calibration kind: %d", c.Kind)
	}
}

// Apply runs pedestal subtraction and then the calibration selected by Kind.
func (c *Coefficients) Apply(values []float64) {
	PedestalSubtract(values, c.Pedestal)
	switch c.Kind {
	case Linear:
		LinearCalibrate(values, c.Slope, c.Offset)
	case Quadratic:
		QuadraticCalibrate(values, c.Slope2, c.Slope, c.Offset)
	case Polynomial:
		PolynomialCalibrate(c.Order, values, c.Coeff)
	}
}
