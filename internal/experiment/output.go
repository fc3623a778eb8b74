package experiment

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/physsm/internal/params"
)

// Output is a result file read back from disk.
type Output struct {
	Title  string
	Labels []string
	Rows   [][]float64
	Values map[string]float64
}

// Value returns the labelled value, if any.
func (o *Output) Value(label string) (float64, bool) {
	v, ok := o.Values[label]
	return v, ok
}

// ReadOutput parses a result file. The first line is a title; when it has
// the form "<prefix>: a, b" the names after the colon become labels. Each
// further line is either "label => value" or a comma separated row of
// numbers. A single row is matched against the labels.
func ReadOutput(path string) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, params.IOError(path, err)
	}
	defer f.Close()

	out := &Output{Values: make(map[string]float64)}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo == 1 {
			out.Title = line
			if _, labels, ok := strings.Cut(line, ":"); ok {
				for _, l := range strings.Split(labels, ",") {
					if l = strings.TrimSpace(l); l != "" {
						out.Labels = append(out.Labels, l)
					}
				}
			}
			continue
		}
		if line == "" {
			continue
		}

		if label, raw, ok := strings.Cut(line, "=>"); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			out.Values[strings.TrimSpace(label)] = v
			continue
		}

		fields := strings.Split(line, ",")
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			row[i] = v
		}
		out.Rows = append(out.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, params.IOError(path, err)
	}
	if lineNo == 0 {
		return nil, fmt.Errorf("%s: empty output file", path)
	}

	if len(out.Rows) == 1 && len(out.Labels) == len(out.Rows[0]) {
		for i, l := range out.Labels {
			out.Values[l] = out.Rows[0][i]
		}
	}
	return out, nil
}
