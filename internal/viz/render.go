package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/physsm/internal/params"
)

// RenderSet lists the fields of set in schema order followed by any
// remaining keys. List fields get a sparkline.
func RenderSet(schema *params.Schema, set *params.Set) string {
	keys := make([]string, 0, set.Len())
	listed := make(map[string]bool)
	for _, f := range schema.Fields() {
		if set.Has(f.Key) {
			keys = append(keys, f.Key)
			listed[f.Key] = true
		}
	}
	for _, k := range set.Keys() {
		if !listed[k] {
			keys = append(keys, k)
		}
	}

	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	var b strings.Builder
	for _, k := range keys {
		v, _ := set.Value(k)
		line := fmt.Sprintf("%s  %s", Label.Render(fmt.Sprintf("%-*s", width, k)), Value.Render(formatValue(v)))
		if list, ok := v.([]float64); ok && len(list) > 1 {
			line += "  " + Sparkline(list, 40)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// PlotList draws values as an asciigraph line plot.
func PlotList(values []float64, caption string) string {
	if len(values) == 0 {
		return ""
	}
	data := values
	if len(values) == 1 {
		data = []float64{values[0], values[0]}
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}
