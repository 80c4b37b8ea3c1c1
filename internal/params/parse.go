package params

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Sentinel errors for malformed parameter definitions. All are wrapped
// with the offending row and parameter name before they reach callers.
var (
	// ErrMismatchedDomain indicates a categorical/ordinal row whose value
	// list and value:code list have different lengths.
	ErrMismatchedDomain = errors.New("params: values and location codes differ in count")

	// ErrBadRange indicates a numeric row whose value list is not exactly (min,max).
	ErrBadRange = errors.New("params: numeric domain must be exactly (min,max)")

	// ErrBadDiscretization indicates a numeric row whose location list is
	// not exactly (step,significance).
	ErrBadDiscretization = errors.New("params: numeric discretization must be exactly (step,significance)")

	// ErrUnknownType indicates a TYPE tag other than c, o, i or r.
	ErrUnknownType = errors.New("params: unknown parameter type")

	// ErrBadRow indicates a row with the wrong column count or an
	// unparseable field.
	ErrBadRow = errors.New("params: malformed definition row")
)

// Parse reads a tab-separated parameter definition table. The first
// row is a header and is skipped; each following row has the columns
// NAME, CONDITIONAL, TYPE, VALUES_ARRAY, LOCATIONS_ARRAY, with list
// columns written as parenthesis-wrapped comma lists.
func Parse(r io.Reader) (*Catalog, error) {
	scanner := bufio.NewScanner(r)

	var specs []*Spec
	row := 0
	for scanner.Scan() {
		row++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if row == 1 || strings.TrimSpace(line) == "" {
			continue
		}

		spec, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading parameter definitions: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no parameter rows", ErrBadRow)
	}

	return newCatalog(specs), nil
}

// Load parses the parameter definition table at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parameter definitions: %w", err)
	}
	defer f.Close()

	cat, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

func parseRow(line string) (*Spec, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: want 5 columns, got %d", ErrBadRow, len(fields))
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return nil, fmt.Errorf("%w: empty parameter name", ErrBadRow)
	}

	conditional, err := strconv.ParseBool(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %q: bad CONDITIONAL %q", ErrBadRow, name, fields[1])
	}

	values, err := splitList(fields[3])
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %q: %v", ErrBadRow, name, err)
	}
	locations, err := splitList(fields[4])
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %q: %v", ErrBadRow, name, err)
	}

	switch tag := strings.TrimSpace(fields[2]); tag {
	case "c", "o":
		kind := Categorical
		if tag == "o" {
			kind = Ordinal
		}
		return parseDiscrete(name, conditional, kind, values, locations)
	case "i", "r":
		kind := Integer
		if tag == "r" {
			kind = Real
		}
		return parseNumeric(name, conditional, kind, values, locations)
	default:
		return nil, fmt.Errorf("%w: parameter %q has type %q", ErrUnknownType, name, tag)
	}
}

func parseDiscrete(name string, conditional bool, kind Kind, values, locations []string) (*Spec, error) {
	if len(values) != len(locations) {
		return nil, fmt.Errorf("%w: parameter %q has %d values but %d codes",
			ErrMismatchedDomain, name, len(values), len(locations))
	}

	codes := make(map[string]int, len(locations))
	for _, pair := range locations {
		value, codeText, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q: location %q is not value:code", ErrBadRow, name, pair)
		}
		code, err := strconv.Atoi(strings.TrimSpace(codeText))
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: bad code in %q", ErrBadRow, name, pair)
		}
		codes[strings.TrimSpace(value)] = code
	}

	return &Spec{
		Name:        name,
		Conditional: conditional,
		Kind:        kind,
		Values:      values,
		Codes:       codes,
	}, nil
}

func parseNumeric(name string, conditional bool, kind Kind, values, locations []string) (*Spec, error) {
	if len(values) != 2 {
		return nil, fmt.Errorf("%w: parameter %q has %d range values", ErrBadRange, name, len(values))
	}
	if len(locations) != 2 {
		return nil, fmt.Errorf("%w: parameter %q has %d location values", ErrBadDiscretization, name, len(locations))
	}

	min, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %q: bad min %q", ErrBadRange, name, values[0])
	}
	max, err := strconv.ParseFloat(values[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %q: bad max %q", ErrBadRange, name, values[1])
	}

	step, err := strconv.ParseFloat(locations[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %q: bad step %q", ErrBadDiscretization, name, locations[0])
	}
	significance, err := strconv.Atoi(locations[1])
	if err != nil || significance < 0 {
		return nil, fmt.Errorf("%w: parameter %q: bad significance %q", ErrBadDiscretization, name, locations[1])
	}

	return &Spec{
		Name:         name,
		Conditional:  conditional,
		Kind:         kind,
		Min:          min,
		Max:          max,
		Step:         step,
		Significance: significance,
	}, nil
}

// splitList unwraps a parenthesis-wrapped comma list: "(a,b,c)" ->
// ["a","b","c"]. An empty list "()" yields nil.
func splitList(field string) ([]string, error) {
	text := strings.TrimSpace(field)
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return nil, fmt.Errorf("list %q is not parenthesis-wrapped", field)
	}
	inner := strings.TrimSpace(text[1 : len(text)-1])
	if inner == "" {
		return nil, nil
	}

	parts := strings.Split(inner, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out, nil
}
