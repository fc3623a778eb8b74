package params

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWrite(t *testing.T) {
	s := MustSchema(
		Field{Key: "outputfile", Kind: KindString, Required: true},
		Field{Key: "Lx", Kind: KindUint, Required: true},
		Field{Key: "my_bool", Kind: KindBool},
		Field{Key: "temperature", Kind: KindFloatList},
	)
	set := NewSet()
	set.SetFloats("temperature", []float64{1, 2.12345, 3.5})
	set.SetUint("Lx", 16)
	set.SetString("outputfile", "out_Lx=16.txt")
	set.SetBool("my_bool", false)

	var buf bytes.Buffer
	if err := Write(&buf, s, set, 3); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := "outputfile: out_Lx=16.txt\nLx: 16\nmy_bool: false\ntemperature: 1, 2.123, 3.5\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	s := MustSchema(
		Field{Key: "outputfile", Kind: KindString, Required: true},
		Field{Key: "length", Kind: KindUint, Required: true},
		Field{Key: "monte_carlo_trials", Kind: KindUint, Required: true},
		Field{Key: "temperature", Kind: KindFloatList, Required: true},
	)
	set := NewSet()
	set.SetString("outputfile", "result.txt")
	set.SetUint("length", 32)
	set.SetUint("monte_carlo_trials", 1000)
	set.SetFloats("temperature", []float64{0.5, 1.25, 2.269})

	var buf bytes.Buffer
	if err := Write(&buf, s, set, DefaultPrecision); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := NewLoader(s, Options{}).Parse(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if diff := cmp.Diff(set.Map(), got.Map()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{true, "true"},
		{4, "4"},
		{int64(-3), "-3"},
		{uint64(7), "7"},
		{0.12345, "0.123"},
		{[]float64{1.0, 1.5}, "1, 1.5"},
		{[]any{1, 2.25, 3.0004}, "1, 2.25, 3"},
		{[]float64{1, math.NaN(), math.Inf(1), math.Inf(-1)}, "1, NaN, +Inf, -Inf"},
	}
	for _, tt := range tests {
		got, err := FormatValue(tt.in, 3)
		if err != nil {
			t.Errorf("FormatValue(%v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, bad := range []any{"a\nb", []any{"x"}, struct{}{}} {
		if _, err := FormatValue(bad, 3); err == nil {
			t.Errorf("FormatValue(%v) expected error", bad)
		}
	}
}

func TestSetStrings(t *testing.T) {
	s := MustSchema(
		Field{Key: "outputfile", Kind: KindString, Required: true},
		Field{Key: "Lx", Kind: KindUint, Required: true},
		Field{Key: "my_bool", Kind: KindBool},
		Field{Key: "temperature", Kind: KindFloatList, Required: true},
	)
	set, err := NewLoader(s, Options{}).Parse(strings.NewReader(
		"outputfile: out.txt\nLx: 4\nmy_bool: true\ntemperature: 1.0, NaN, 0.123456789\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	want := map[string]string{
		"outputfile":  "out.txt",
		"Lx":          "4",
		"my_bool":     "true",
		"temperature": "1, NaN, 0.123456789",
	}
	if diff := cmp.Diff(want, set.Strings()); diff != "" {
		t.Errorf("strings mismatch (-want +got):\n%s", diff)
	}
}
