package params

import (
	"errors"
	"fmt"
)

// Error kinds reported while loading a parameter file.
var (
	// ErrIO indicates the parameter file (or an output file) could not be read or created.
	ErrIO = errors.New("params: i/o failure")

	// ErrMalformedLine indicates a line without a colon separator.
	ErrMalformedLine = errors.New("params: malformed line")

	// ErrTypeMismatch indicates a value that does not convert to its field's kind.
	ErrTypeMismatch = errors.New("params: type mismatch")

	// ErrMissingField indicates a required key that never appeared.
	ErrMissingField = errors.New("params: missing field")

	// ErrEmptyList indicates a required list field that holds no elements.
	ErrEmptyList = errors.New("params: empty list")

	// ErrDuplicateKey indicates a repeated key when duplicates are rejected.
	ErrDuplicateKey = errors.New("params: duplicate key")
)

// ConfigError describes a single load failure. Kind is one of the Err*
// sentinels above; errors.Is matches against it.
type ConfigError struct {
	Kind  error
	Path  string
	Line  int
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	var msg string
	switch e.Kind {
	case ErrIO:
		msg = fmt.Sprintf("%v: %s", e.Kind, e.Path)
	case ErrMalformedLine:
		msg = fmt.Sprintf("%v: line %d has no ':' separator", e.Kind, e.Line)
	case ErrTypeMismatch:
		msg = fmt.Sprintf("%v: line %d: cannot convert %q for key %q", e.Kind, e.Line, e.Value, e.Key)
	case ErrMissingField:
		msg = fmt.Sprintf("%v: %q", e.Kind, e.Key)
	case ErrEmptyList:
		msg = fmt.Sprintf("%v: %q must contain at least one value", e.Kind, e.Key)
	case ErrDuplicateKey:
		msg = fmt.Sprintf("%v: %q repeated on line %d", e.Kind, e.Key, e.Line)
	default:
		msg = fmt.Sprintf("%v", e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Is(target error) bool {
	return e.Kind == target
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IOError wraps an operating system error for path as an ErrIO ConfigError.
func IOError(path string, err error) error {
	return &ConfigError{Kind: ErrIO, Path: path, Err: err}
}

var (
	errNotBool     = errors.New("expected true or false")
	errUnknownKind = errors.New("unknown field kind")
)
