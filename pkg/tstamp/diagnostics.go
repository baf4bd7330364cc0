package tstamp

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

const DefaultHistogramBins = 20

// Diagnostics is the default DiagnosticsSink: running counters and the
// distribution of head minus tail time differences of matched pairs.
type Diagnostics struct {
	Window         uint64
	Bins           int
	NMatched       uint64
	NUnmatchedHead uint64
	NUnmatchedTail uint64
	NOverflow      uint64
	MaxDepth       int
	Differences    []float64
}

type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
}

func NewDiagnostics(window uint64) *Diagnostics {
	return &Diagnostics{
		Window:      window,
		Bins:        DefaultHistogramBins,
		Differences: make([]float64, 0),
	}
}

func (d *Diagnostics) Matched(dt float64) {
	d.NMatched++
	d.Differences = append(d.Differences, dt)
}

func (d *Diagnostics) Unmatched(tag Tag) {
	switch tag {
	case Head:
		d.NUnmatchedHead++
	case Tail:
		d.NUnmatchedTail++
	}
}

func (d *Diagnostics) Overflow() {
	d.NOverflow++
}

func (d *Diagnostics) Depth(n int) {
	if n > d.MaxDepth {
		d.MaxDepth = n
	}
}

func (d *Diagnostics) NUnmatched() uint64 {
	return d.NUnmatchedHead + d.NUnmatchedTail
}

func (d *Diagnostics) Reset() {
	d.NMatched = 0
	d.NUnmatchedHead = 0
	d.NUnmatchedTail = 0
	d.NOverflow = 0
	d.MaxDepth = 0
	d.Differences = d.Differences[:0]
}

func (d *Diagnostics) Summary() Summary {
	n := len(d.Differences)
	switch n {
	case 0:
		return Summary{}
	case 1:
		return Summary{Count: 1, Mean: d.Differences[0]}
	}
	mean, std := stat.MeanStdDev(d.Differences, nil)
	return Summary{Count: n, Mean: mean, StdDev: std}
}

// Dividers returns the bin edges of the time difference histogram. They span
// [-Window, Window+1) so that every matched difference falls in a bin.
func (d *Diagnostics) Dividers() []float64 {
	bins := d.Bins
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	lo := -float64(d.Window)
	hi := float64(d.Window) + 1
	dividers := make([]float64, bins+1)
	step := (hi - lo) / float64(bins)
	for i := range dividers {
		dividers[i] = lo + float64(i)*step
	}
	dividers[bins] = hi
	return dividers
}

// Histogram counts the time differences per bin of Dividers.
func (d *Diagnostics) Histogram() []float64 {
	dividers := d.Dividers()
	lo, hi := dividers[0], dividers[len(dividers)-1]
	x := make([]float64, 0, len(d.Differences))
	for _, dt := range d.Differences {
		if dt >= lo && dt < hi {
			x = append(x, dt)
		}
	}
	sort.Float64s(x)
	return stat.Histogram(nil, dividers, x, nil)
}

func (d *Diagnostics) Report() string {
	var b strings.Builder
	s := d.Summary()
	fmt.Fprintf(&b, "matched: %d, unmatched head: %d, unmatched tail: %d, overflow: %d, max depth: %d",
		d.NMatched, d.NUnmatchedHead, d.NUnmatchedTail, d.NOverflow, d.MaxDepth)
	if s.Count > 0 {
		fmt.Fprintf(&b, ", dt mean: %.3f, dt stddev: %.3f", s.Mean, s.StdDev)
		hist := d.Histogram()
		counts := make([]string, len(hist))
		for i, c := range hist {
			counts[i] = fmt.Sprintf("%d", int(c))
		}
		fmt.Fprintf(&b, ", dt histogram: [%s]", strings.Join(counts, " "))
	}
	return b.String()
}
