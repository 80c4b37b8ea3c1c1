// Package stn consolidates the trajectories of many iterated-racing
// runs into a single search trajectory network: a directed graph whose
// nodes are discretized regions of parameter space and whose edges are
// the moves candidate configurations made between them.
//
// The computation is a strict two-pass batch transform. Pass 1 walks
// every run, encodes each configuration to its location code and pools
// quality samples per location; Pass 2 replays the runs against the
// frozen location table and emits the network's edges.
package stn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EliteStatus marks whether a configuration survived its iteration's race.
type EliteStatus int

const (
	Regular EliteStatus = iota
	Elite
)

func (e EliteStatus) String() string {
	if e == Elite {
		return "ELITE"
	}
	return "REGULAR"
}

// NodeType classifies a configuration by where it sits in its run.
type NodeType int

const (
	Standard NodeType = iota
	Start
	End
)

func (t NodeType) String() string {
	switch t {
	case Start:
		return "START"
	case End:
		return "END"
	}
	return "STANDARD"
}

// TypeOrder is a total order over the three node types, lowest
// priority first. When one location is reached by configurations of
// different types, the highest-ranked type wins.
type TypeOrder [3]NodeType

// DefaultTypeOrder ranks STANDARD < START < END.
var DefaultTypeOrder = TypeOrder{Standard, Start, End}

// ErrBadTypeOrder indicates a type-order string that is not a
// permutation of standard, start and end.
var ErrBadTypeOrder = errors.New("stn: type order must be a permutation of standard<start<end")

// ParseTypeOrder parses a "<"-separated permutation such as
// "standard<start<end", lowest priority first. Case-insensitive.
func ParseTypeOrder(s string) (TypeOrder, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "<")
	if len(parts) != 3 {
		return TypeOrder{}, fmt.Errorf("%w: got %q", ErrBadTypeOrder, s)
	}

	var order TypeOrder
	seen := [3]bool{}
	for i, part := range parts {
		var t NodeType
		switch strings.TrimSpace(part) {
		case "standard":
			t = Standard
		case "start":
			t = Start
		case "end":
			t = End
		default:
			return TypeOrder{}, fmt.Errorf("%w: got %q", ErrBadTypeOrder, s)
		}
		if seen[t] {
			return TypeOrder{}, fmt.Errorf("%w: got %q", ErrBadTypeOrder, s)
		}
		seen[t] = true
		order[i] = t
	}
	return order, nil
}

// Rank returns the priority of t under the order, 0 lowest.
func (o TypeOrder) Rank(t NodeType) int {
	for i, candidate := range o {
		if candidate == t {
			return i
		}
	}
	return -1
}

func (o TypeOrder) String() string {
	return fmt.Sprintf("%s<%s<%s",
		strings.ToLower(o[0].String()),
		strings.ToLower(o[1].String()),
		strings.ToLower(o[2].String()))
}

// Criterion selects the representative quality of a location from its
// pooled samples.
type Criterion int

const (
	MinQuality Criterion = iota
	MaxQuality
	MeanQuality
	MedianQuality
	ModeQuality
)

// ErrBadCriterion indicates an unrecognised aggregation criterion name.
var ErrBadCriterion = errors.New("stn: criterion must be one of min, max, mean, median, mode")

// ParseCriterion parses min|max|mean|median|mode (case-insensitive).
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min":
		return MinQuality, nil
	case "max":
		return MaxQuality, nil
	case "mean":
		return MeanQuality, nil
	case "median":
		return MedianQuality, nil
	case "mode":
		return ModeQuality, nil
	}
	return 0, fmt.Errorf("%w: got %q", ErrBadCriterion, s)
}

func (c Criterion) String() string {
	switch c {
	case MinQuality:
		return "min"
	case MaxQuality:
		return "max"
	case MeanQuality:
		return "mean"
	case MedianQuality:
		return "median"
	case ModeQuality:
		return "mode"
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// FormatQuality renders a quality value fixed-point with exactly
// significance decimal digits, rounding to the nearest representable.
func FormatQuality(v float64, significance int) string {
	return strconv.FormatFloat(v, 'f', significance, 64)
}
