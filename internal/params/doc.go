// Package params reads colon-delimited parameter files into typed values.
//
// A parameter file holds one declaration per line:
//
//	outputfile: out.txt
//	Lx: 4
//	temperature: 1.0, 2.0, 3.0
//
// Each line is split on its first colon and both halves are trimmed. The key
// is looked up in a [Schema], which decides how the value is converted
// (string, unsigned integer, boolean or list of floats) and whether the key
// must be present. Unknown keys are logged as warnings and skipped.
//
// # Example
//
//	loader := params.NewLoader(schema, params.Options{Logger: logger})
//	set, err := loader.Load("parameter.txt")
//	if errors.Is(err, params.ErrMissingField) {
//		// ...
//	}
//	lx, _ := set.Uint("Lx")
//
// The inverse operation, [Write], renders a [Set] back into the same format.
package params
