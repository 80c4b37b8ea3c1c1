// Package params loads irace parameter definitions into an immutable,
// order-preserving catalog of typed domains. The catalog's declaration
// order is the canonical order used when location codes are assembled.
package params

import (
	"fmt"
	"math"
)

// Kind identifies one of the four supported parameter domains.
type Kind int

const (
	Categorical Kind = iota
	Ordinal
	Integer
	Real
)

// String returns the single-character type tag used in definition files.
func (k Kind) String() string {
	switch k {
	case Categorical:
		return "c"
	case Ordinal:
		return "o"
	case Integer:
		return "i"
	case Real:
		return "r"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Spec describes a single tunable parameter. Exactly one of the two
// domain payloads is populated, selected by Kind: Values/Codes for
// Categorical and Ordinal, Min/Max/Step/Significance for Integer and
// Real. Specs are immutable once parsed.
type Spec struct {
	Name        string
	Conditional bool
	Kind        Kind

	// Categorical / Ordinal domain.
	Values []string       // allowed values, declaration order
	Codes  map[string]int // value -> integer location code

	// Integer / Real domain.
	Min          float64
	Max          float64
	Step         float64
	Significance int

	width int
}

// SegmentWidth is the fixed number of characters this parameter
// occupies in every location code: the digit count of the largest
// numeral the domain can emit.
func (s *Spec) SegmentWidth() int { return s.width }

// MaxScaled is the largest value a numeric segment may encode,
// floor(max * 10^significance). Only meaningful for Integer and Real.
func (s *Spec) MaxScaled() int64 {
	return int64(math.Floor(s.Max * math.Pow(10, float64(s.Significance))))
}

func (s *Spec) computeWidth() {
	var largest int64
	switch s.Kind {
	case Categorical, Ordinal:
		for _, code := range s.Codes {
			if int64(code) > largest {
				largest = int64(code)
			}
		}
	case Integer, Real:
		largest = s.MaxScaled()
	}
	s.width = digits(largest)
}

// digits returns the decimal digit count of n (1 for zero and for
// negative values, which never widen a segment).
func digits(n int64) int {
	if n <= 0 {
		return 1
	}
	count := 0
	for n > 0 {
		count++
		n /= 10
	}
	return count
}

// Catalog is an ordered, read-only collection of parameter specs.
type Catalog struct {
	specs  []*Spec
	byName map[string]*Spec
}

func newCatalog(specs []*Spec) *Catalog {
	c := &Catalog{specs: specs, byName: make(map[string]*Spec, len(specs))}
	for _, s := range specs {
		s.computeWidth()
		c.byName[s.Name] = s
	}
	return c
}

// Specs returns the parameters in declaration order. Callers must not
// modify the returned slice.
func (c *Catalog) Specs() []*Spec { return c.specs }

// Lookup finds a parameter by name.
func (c *Catalog) Lookup(name string) (*Spec, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Len reports the number of parameters.
func (c *Catalog) Len() int { return len(c.specs) }

// CodeWidth is the total length of every location code built from this
// catalog: the sum of all segment widths.
func (c *Catalog) CodeWidth() int {
	total := 0
	for _, s := range c.specs {
		total += s.width
	}
	return total
}
