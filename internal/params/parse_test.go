package params

import (
	"errors"
	"strings"
	"testing"
)

const sampleTable = "NAME\tCONDITIONAL\tTYPE\tVALUES_ARRAY\tLOCATIONS_ARRAY\n" +
	"algorithm\tFALSE\tc\t(as,mmas,eas,ras,acs)\t(as:0,mmas:1,eas:2,ras:3,acs:4)\n" +
	"localsearch\tFALSE\to\t(0,1,2,3)\t(0:0,1:1,2:2,3:3)\n" +
	"ants\tFALSE\ti\t(5,100)\t(5,0)\n" +
	"q0\tTRUE\tr\t(0.0,1.0)\t(0.1,2)\n"

func TestParsePreservesDeclarationOrder(t *testing.T) {
	cat, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"algorithm", "localsearch", "ants", "q0"}
	specs := cat.Specs()
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i, name := range want {
		if specs[i].Name != name {
			t.Errorf("spec %d = %q, want %q", i, specs[i].Name, name)
		}
	}
}

func TestParseDomains(t *testing.T) {
	cat, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	algorithm, ok := cat.Lookup("algorithm")
	if !ok {
		t.Fatal("algorithm not found")
	}
	if algorithm.Kind != Categorical {
		t.Errorf("algorithm kind = %v, want c", algorithm.Kind)
	}
	if code := algorithm.Codes["acs"]; code != 4 {
		t.Errorf("acs code = %d, want 4", code)
	}
	if algorithm.Conditional {
		t.Error("algorithm should not be conditional")
	}

	q0, ok := cat.Lookup("q0")
	if !ok {
		t.Fatal("q0 not found")
	}
	if q0.Kind != Real || !q0.Conditional {
		t.Errorf("q0 = kind %v conditional %v, want r/true", q0.Kind, q0.Conditional)
	}
	if q0.Min != 0 || q0.Max != 1 || q0.Step != 0.1 || q0.Significance != 2 {
		t.Errorf("q0 domain = (%v,%v) step %v sig %d", q0.Min, q0.Max, q0.Step, q0.Significance)
	}
}

func TestSegmentWidths(t *testing.T) {
	cat, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// algorithm: max code 4 -> 1; localsearch: max code 3 -> 1;
	// ants: floor(100*10^0)=100 -> 3; q0: floor(1.0*10^2)=100 -> 3.
	widths := map[string]int{"algorithm": 1, "localsearch": 1, "ants": 3, "q0": 3}
	for name, want := range widths {
		spec, _ := cat.Lookup(name)
		if got := spec.SegmentWidth(); got != want {
			t.Errorf("%s width = %d, want %d", name, got, want)
		}
	}
	if got := cat.CodeWidth(); got != 8 {
		t.Errorf("CodeWidth = %d, want 8", got)
	}
}

func TestParseErrors(t *testing.T) {
	header := "NAME\tCONDITIONAL\tTYPE\tVALUES_ARRAY\tLOCATIONS_ARRAY\n"

	cases := []struct {
		name string
		row  string
		want error
	}{
		{
			name: "mismatched domain",
			row:  "p\tFALSE\tc\t(a,b,c)\t(a:0,b:1)\n",
			want: ErrMismatchedDomain,
		},
		{
			name: "bad range arity",
			row:  "p\tFALSE\ti\t(1,2,3)\t(1,0)\n",
			want: ErrBadRange,
		},
		{
			name: "bad discretization arity",
			row:  "p\tFALSE\tr\t(0,1)\t(0.1)\n",
			want: ErrBadDiscretization,
		},
		{
			name: "negative significance",
			row:  "p\tFALSE\tr\t(0,1)\t(0.1,-1)\n",
			want: ErrBadDiscretization,
		},
		{
			name: "unknown type",
			row:  "p\tFALSE\tz\t(a)\t(a:0)\n",
			want: ErrUnknownType,
		},
		{
			name: "wrong column count",
			row:  "p\tFALSE\tc\t(a)\n",
			want: ErrBadRow,
		},
		{
			name: "unwrapped list",
			row:  "p\tFALSE\tc\ta,b\t(a:0,b:1)\n",
			want: ErrBadRow,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(header + tc.row))
			if !errors.Is(err, tc.want) {
				t.Errorf("got error %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseEmptyTable(t *testing.T) {
	_, err := Parse(strings.NewReader("NAME\tCONDITIONAL\tTYPE\tVALUES_ARRAY\tLOCATIONS_ARRAY\n"))
	if !errors.Is(err, ErrBadRow) {
		t.Errorf("got %v, want ErrBadRow", err)
	}
}
