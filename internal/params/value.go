package params

import "strconv"

// Value is one configuration's setting for a single parameter: either
// a categorical/ordinal label or a number. Inactive conditional
// parameters are modelled by omitting the entry from the assignment
// map rather than by a Value state.
type Value struct {
	label  string
	num    float64
	number bool
}

// Label builds a categorical or ordinal value.
func Label(s string) Value { return Value{label: s} }

// Number builds an integer or real value.
func Number(f float64) Value { return Value{num: f, number: true} }

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool { return v.number }

// Labelled returns the label for a non-numeric value ("" otherwise).
func (v Value) Labelled() string { return v.label }

// Float returns the numeric payload (0 for labels).
func (v Value) Float() float64 { return v.num }

func (v Value) String() string {
	if v.number {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.label
}

// Assignment maps parameter names to their values for one
// configuration. Absent keys are inactive conditional parameters.
type Assignment map[string]Value
