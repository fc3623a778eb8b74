package params

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Options tunes a Loader.
type Options struct {
	// Logger receives unknown-key warnings. A nil Logger discards them.
	Logger *zap.Logger

	// RejectDuplicates turns a repeated recognized key into ErrDuplicateKey.
	// By default the last occurrence wins.
	RejectDuplicates bool
}

// Loader parses parameter files against a fixed schema.
type Loader struct {
	schema *Schema
	logger *zap.Logger
	strict bool
}

func NewLoader(schema *Schema, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		schema: schema,
		logger: logger,
		strict: opts.RejectDuplicates,
	}
}

func (l *Loader) Schema() *Schema {
	return l.schema
}

// Load reads the file at path and parses it.
func (l *Loader) Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, IOError(path, err)
	}
	set, err := l.parse(data)
	if cfgErr, ok := err.(*ConfigError); ok {
		cfgErr.Path = path
	}
	return set, err
}

// Parse reads all of r and parses it.
func (l *Loader) Parse(r io.Reader) (*Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, IOError("", err)
	}
	return l.parse(data)
}

func (l *Loader) parse(data []byte) (*Set, error) {
	set := NewSet()
	seen := make(map[string]int)

	for i, raw := range splitLines(data) {
		lineNo := i + 1

		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, &ConfigError{Kind: ErrMalformedLine, Line: lineNo}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		field, known := l.schema.Lookup(key)
		if !known {
			l.logger.Warn("unknown key", zap.String("key", key), zap.Int("line", lineNo))
			continue
		}

		if l.strict {
			if _, dup := seen[key]; dup {
				return nil, &ConfigError{Kind: ErrDuplicateKey, Line: lineNo, Key: key, Value: value}
			}
		}
		seen[key] = lineNo

		v, err := convert(field.Kind, value)
		if err != nil {
			return nil, &ConfigError{Kind: ErrTypeMismatch, Line: lineNo, Key: key, Value: value, Err: err}
		}
		set.put(key, v)
	}

	if err := l.validate(set); err != nil {
		return nil, err
	}
	return set, nil
}

func (l *Loader) validate(set *Set) error {
	for _, f := range l.schema.fields {
		if !f.Required {
			continue
		}
		v, ok := set.values[f.Key]
		if !ok {
			return &ConfigError{Kind: ErrMissingField, Key: f.Key}
		}
		if list, isList := v.([]float64); isList && len(list) == 0 {
			return &ConfigError{Kind: ErrEmptyList, Key: f.Key}
		}
	}
	return nil
}

// splitLines splits on '\n', dropping a trailing '\r' from each line. A
// final newline does not start another line.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	parts := strings.Split(string(data), "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

func convert(kind Kind, value string) (any, error) {
	switch kind {
	case KindString:
		return value, nil
	case KindUint:
		return strconv.ParseUint(value, 10, 64)
	case KindBool:
		return parseBool(value)
	case KindFloatList:
		return parseFloats(value)
	}
	return nil, errUnknownKind
}

func parseBool(value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errNotBool
}

func parseFloats(value string) ([]float64, error) {
	if value == "" {
		return []float64{}, nil
	}
	pieces := strings.Split(value, ",")
	out := make([]float64, 0, len(pieces))
	for _, p := range pieces {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
