package params

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the target type of a field.
type Kind int

const (
	KindString Kind = iota
	KindUint
	KindBool
	KindFloatList
)

var kindNames = map[Kind]string{
	KindString:    "string",
	KindUint:      "uint",
	KindBool:      "bool",
	KindFloatList: "float_list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name as written in schema files to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown field kind: %s", name)
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseKind(strings.TrimSpace(name))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Field declares one recognized key.
type Field struct {
	Key      string `yaml:"key"`
	Kind     Kind   `yaml:"kind"`
	Required bool   `yaml:"required"`
}

// Schema is the ordered table of recognized keys.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from fields. Keys must be non-empty and unique.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Key == "" {
			return nil, fmt.Errorf("schema: empty key")
		}
		if strings.ContainsAny(f.Key, ":\n") {
			return nil, fmt.Errorf("schema: key %q contains a separator", f.Key)
		}
		if _, dup := s.index[f.Key]; dup {
			return nil, fmt.Errorf("schema: duplicate key %q", f.Key)
		}
		if _, ok := kindNames[f.Kind]; !ok {
			return nil, fmt.Errorf("schema: key %q has invalid kind %v", f.Key, f.Kind)
		}
		s.index[f.Key] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for
// package-level schema tables.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Lookup(key string) (Field, bool) {
	i, ok := s.index[key]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Required returns the keys that must be present.
func (s *Schema) Required() []string {
	var keys []string
	for _, f := range s.fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

type schemaFile struct {
	Fields []Field `yaml:"fields"`
}

// DecodeSchema decodes a YAML schema definition.
func DecodeSchema(data []byte) (*Schema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if len(sf.Fields) == 0 {
		return nil, fmt.Errorf("schema: no fields declared")
	}
	return NewSchema(sf.Fields...)
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSchema(data)
}

func (s *Schema) MarshalYAML() (interface{}, error) {
	return schemaFile{Fields: s.fields}, nil
}
