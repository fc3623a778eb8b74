package experiment

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/san-kum/physsm/internal/params"
)

// OutputKey names the parameter holding the output file path.
const OutputKey = "outputfile"

// ErrOverflow is returned when a result does not fit in 64 bits.
var ErrOverflow = errors.New("result overflows uint64")

// Report is the computed result of one mock experiment.
type Report struct {
	// Summary is the one-line status printed before writing.
	Summary string
	// Lines are written verbatim to the output file.
	Lines  []string
	Labels []string
	Values []float64
}

func (r *Report) Body() string {
	return strings.Join(r.Lines, "\n") + "\n"
}

// ComputeFunc turns a validated parameter set into a report.
type ComputeFunc func(set *params.Set) (*Report, error)

// Variant couples a parameter schema with the computation run on it.
type Variant struct {
	Name    string
	Schema  *params.Schema
	Compute ComputeFunc
	// Example is a parameter file body accepted by Schema.
	Example string
}

var (
	fieldOutput = params.Field{Key: OutputKey, Kind: params.KindString, Required: true}
	fieldTrials = params.Field{Key: "monte_carlo_trials", Kind: params.KindUint, Required: true}
	fieldTemps  = params.Field{Key: "temperature", Kind: params.KindFloatList, Required: true}
)

func isingVariant() *Variant {
	return &Variant{
		Name: "ising",
		Schema: params.MustSchema(
			fieldOutput,
			params.Field{Key: "Lx", Kind: params.KindUint, Required: true},
			params.Field{Key: "Ly", Kind: params.KindUint, Required: true},
			fieldTrials,
			fieldTemps,
		),
		Compute: computeIsing,
		Example: "outputfile: out.txt\nLx: 4\nLy: 4\nmonte_carlo_trials: 10\ntemperature: 1.0, 2.0, 3.0\n",
	}
}

func computeIsing(set *params.Set) (*Report, error) {
	lx, err := uintField(set, "Lx")
	if err != nil {
		return nil, err
	}
	ly, err := uintField(set, "Ly")
	if err != nil {
		return nil, err
	}
	trials, err := uintField(set, "monte_carlo_trials")
	if err != nil {
		return nil, err
	}
	temps, err := listField(set, "temperature")
	if err != nil {
		return nil, err
	}

	r1 := float64(lx) + 0.42
	r2 := float64(trials) + 0.42
	return &Report{
		Summary: fmt.Sprintf("N=%dx%d with trials=%d with %s", lx, ly, trials, tempRange(temps)),
		Lines: []string{
			"Layout: result1, result2",
			fmt.Sprintf("%.2f, %.2f", r1, r2),
		},
		Labels: []string{"result1", "result2"},
		Values: []float64{r1, r2},
	}, nil
}

func chainVariant() *Variant {
	return &Variant{
		Name: "chain",
		Schema: params.MustSchema(
			fieldOutput,
			params.Field{Key: "length", Kind: params.KindUint, Required: true},
			fieldTrials,
			fieldTemps,
		),
		Compute: computeChain,
		Example: "outputfile: out.txt\nlength: 8\nmonte_carlo_trials: 10\ntemperature: 0.5, 1.0, 1.5\n",
	}
}

func computeChain(set *params.Set) (*Report, error) {
	length, err := uintField(set, "length")
	if err != nil {
		return nil, err
	}
	trials, err := uintField(set, "monte_carlo_trials")
	if err != nil {
		return nil, err
	}
	temps, err := listField(set, "temperature")
	if err != nil {
		return nil, err
	}

	r1 := float64(length)*100 + 42
	r2 := float64(trials) + 42
	return &Report{
		Summary: fmt.Sprintf("length=%d with trials=%d with %s", length, trials, tempRange(temps)),
		Lines: []string{
			"Mock chain experiment",
			fmt.Sprintf("result1 => %.2f", r1),
			fmt.Sprintf("result2 => %.2f", r2),
		},
		Labels: []string{"result1", "result2"},
		Values: []float64{r1, r2},
	}, nil
}

func helloVariant() *Variant {
	return &Variant{
		Name: "hello",
		Schema: params.MustSchema(
			fieldOutput,
			params.Field{Key: "Lx", Kind: params.KindUint, Required: true},
			params.Field{Key: "my_bool", Kind: params.KindBool, Required: true},
		),
		Compute: computeHello,
		Example: "outputfile: out.txt\nLx: 4\nmy_bool: true\n",
	}
}

func computeHello(set *params.Set) (*Report, error) {
	lx, err := uintField(set, "Lx")
	if err != nil {
		return nil, err
	}
	flag, _ := set.Bool("my_bool")

	sum, carry := bits.Add64(lx, lx, 0)
	hi, product := bits.Mul64(lx, lx)
	if carry != 0 || hi != 0 {
		return nil, fmt.Errorf("Lx=%d: %w", lx, ErrOverflow)
	}
	return &Report{
		Summary: fmt.Sprintf("Lx=%d with my_bool=%t", lx, flag),
		Lines: []string{
			fmt.Sprintf("Hello world! [Lx=%d]", lx),
			fmt.Sprintf("%d, %d", sum, product),
		},
		Labels: []string{"sum", "product"},
		Values: []float64{float64(sum), float64(product)},
	}, nil
}

// SchemaVariant wraps a user supplied schema. Its computation offsets every
// unsigned field by 0.42, in declaration order.
func SchemaVariant(name string, schema *params.Schema) (*Variant, error) {
	if _, ok := schema.Lookup(OutputKey); !ok {
		return nil, fmt.Errorf("schema for %s must declare %q", name, OutputKey)
	}
	var keys []string
	for _, f := range schema.Fields() {
		if f.Kind == params.KindUint {
			keys = append(keys, f.Key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("schema for %s declares no uint fields", name)
	}

	compute := func(set *params.Set) (*Report, error) {
		r := &Report{}
		var parts, desc []string
		for _, k := range keys {
			v, ok := set.Uint(k)
			if !ok {
				continue
			}
			result := float64(v) + 0.42
			r.Labels = append(r.Labels, k)
			r.Values = append(r.Values, result)
			parts = append(parts, fmt.Sprintf("%.2f", result))
			desc = append(desc, fmt.Sprintf("%s=%d", k, v))
		}
		r.Lines = []string{
			"Layout: " + strings.Join(r.Labels, ", "),
			strings.Join(parts, ", "),
		}
		r.Summary = strings.Join(desc, " ")
		return r, nil
	}

	return &Variant{Name: name, Schema: schema, Compute: compute}, nil
}

func uintField(set *params.Set, key string) (uint64, error) {
	v, ok := set.Uint(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", params.ErrMissingField, key)
	}
	return v, nil
}

func listField(set *params.Set, key string) ([]float64, error) {
	v, ok := set.Floats(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", params.ErrMissingField, key)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: %q", params.ErrEmptyList, key)
	}
	return v, nil
}

func tempRange(temps []float64) string {
	return fmt.Sprintf("%d temps from %.2f to %.2f", len(temps), temps[0], temps[len(temps)-1])
}
