package stn

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Imperialdramon/irace-stn/internal/params"
)

// Wildcard is the character filling a parameter's segment when its
// value is absent (inactive conditional) or outside the declared
// categorical domain.
const Wildcard = 'X'

// ErrOutOfRange indicates a numeric value (or domain bound) that
// cannot be represented inside its parameter's fixed-width segment.
var ErrOutOfRange = errors.New("stn: value cannot be encoded in its domain")

// Encode maps a configuration's parameter assignment to its location
// code: one fixed-width segment per catalog parameter, concatenated in
// declaration order. Two assignments encode to the same string exactly
// when every parameter lands in the same discretized region.
func Encode(values params.Assignment, cat *params.Catalog) (string, error) {
	var b strings.Builder
	b.Grow(cat.CodeWidth())

	for _, spec := range cat.Specs() {
		value, present := values[spec.Name]
		if !present {
			writeWildcard(&b, spec.SegmentWidth())
			continue
		}

		switch spec.Kind {
		case params.Categorical, params.Ordinal:
			encodeDiscrete(&b, spec, value)
		case params.Integer, params.Real:
			if err := encodeNumeric(&b, spec, value); err != nil {
				return "", err
			}
		}
	}

	return b.String(), nil
}

// encodeDiscrete looks the label up in the domain's code map. Values
// outside the domain (including numbers handed to a categorical
// parameter) collapse to the wildcard segment.
func encodeDiscrete(b *strings.Builder, spec *params.Spec, value params.Value) {
	code, ok := spec.Codes[value.Labelled()]
	if value.IsNumber() || !ok {
		writeWildcard(b, spec.SegmentWidth())
		return
	}
	writePadded(b, int64(code), spec.SegmentWidth())
}

// encodeNumeric discretizes the value onto the step grid and scales
// the subrange representative to an integer numeral.
func encodeNumeric(b *strings.Builder, spec *params.Spec, value params.Value) error {
	if !value.IsNumber() {
		return fmt.Errorf("%w: parameter %q: non-numeric value %q", ErrOutOfRange, spec.Name, value.String())
	}
	if !finite(spec.Min) || !finite(spec.Max) || !finite(spec.Step) || spec.Step <= 0 {
		return fmt.Errorf("%w: parameter %q: bad bounds (min=%v max=%v step=%v)",
			ErrOutOfRange, spec.Name, spec.Min, spec.Max, spec.Step)
	}
	// Checked against the declared range before discretizing: a value
	// just past a bound can still land in a valid subrange (11 in
	// [0,10] step 5 discretizes to 10) and would otherwise slip through
	// the scaled-segment check below.
	if value.Float() < spec.Min || value.Float() > spec.Max {
		return fmt.Errorf("%w: parameter %q: value %v outside [%v,%v]",
			ErrOutOfRange, spec.Name, value.Float(), spec.Min, spec.Max)
	}

	index := math.Floor((value.Float() - spec.Min) / spec.Step)
	representative := spec.Min + index*spec.Step
	scaled := int64(math.Floor(representative * math.Pow(10, float64(spec.Significance))))

	if scaled < 0 || scaled > spec.MaxScaled() {
		return fmt.Errorf("%w: parameter %q: value %v scales to %d outside [0,%d]",
			ErrOutOfRange, spec.Name, value.Float(), scaled, spec.MaxScaled())
	}

	writePadded(b, scaled, spec.SegmentWidth())
	return nil
}

func writeWildcard(b *strings.Builder, width int) {
	for i := 0; i < width; i++ {
		b.WriteByte(Wildcard)
	}
}

func writePadded(b *strings.Builder, n int64, width int) {
	text := strconv.FormatInt(n, 10)
	for i := len(text); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(text)
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
