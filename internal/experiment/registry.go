package experiment

import (
	"fmt"
	"sort"
)

type Registry struct {
	variants map[string]func() *Variant
}

func NewRegistry() *Registry {
	r := &Registry{
		variants: make(map[string]func() *Variant),
	}

	r.variants["ising"] = isingVariant
	r.variants["chain"] = chainVariant
	r.variants["hello"] = helloVariant

	return r
}

// Register adds v under its name, replacing any variant of the same name.
func (r *Registry) Register(v *Variant) {
	r.variants[v.Name] = func() *Variant { return v }
}

func (r *Registry) Get(name string) (*Variant, error) {
	fn, ok := r.variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant: %s (available: %v)", name, r.List())
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
