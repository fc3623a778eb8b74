package params

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of decimals kept when writing float lists.
const DefaultPrecision = 3

// Write renders the fields of set present in schema as "key: value" lines,
// in schema order. Float lists are rounded to precision decimals.
func Write(w io.Writer, schema *Schema, set *Set, precision int) error {
	bw := bufio.NewWriter(w)
	for _, f := range schema.fields {
		v, ok := set.values[f.Key]
		if !ok {
			continue
		}
		if err := WriteLine(bw, f.Key, v, precision); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteLine writes a single "key: value" line.
func WriteLine(w io.Writer, key string, value any, precision int) error {
	s, err := FormatValue(value, precision)
	if err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	_, err = fmt.Fprintf(w, "%s: %s\n", key, s)
	return err
}

// FormatValue renders value the way the loader reads it back. Slices of
// numbers become comma separated lists. A negative precision keeps floats
// unrounded.
func FormatValue(value any, precision int) (string, error) {
	switch v := value.(type) {
	case string:
		if strings.Contains(v, "\n") {
			return "", fmt.Errorf("value contains a newline")
		}
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return formatFloat(v, precision), nil
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = formatFloat(f, precision)
		}
		return strings.Join(parts, ", "), nil
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			f, ok := toFloat(item)
			if !ok {
				return "", fmt.Errorf("list element %v is not a number", item)
			}
			parts[i] = formatFloat(f, precision)
		}
		return strings.Join(parts, ", "), nil
	}
	return "", fmt.Errorf("unsupported value type %T", value)
}

func formatFloat(f float64, precision int) string {
	if precision < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	scale := math.Pow(10, float64(precision))
	return strconv.FormatFloat(math.Round(f*scale)/scale, 'f', -1, 64)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
