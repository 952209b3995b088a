package schema

import (
	"fmt"
	"os"
	"slices"

	pkgconfig "github.com/starford/tagsense/pkg/config"
)

// Registry maps tag names to schema records. It is never modified after
// NewRegistry returns, so it can be shared freely; reloads build a new one.
type Registry struct {
	names   []string
	records map[string]Record
}

// NewRegistry builds a registry from list. A later schema with the same
// name replaces the earlier record but keeps its position.
func NewRegistry(list []Schema) *Registry {
	r := &Registry{records: make(map[string]Record, len(list))}
	for _, s := range list {
		if s.Name == "" {
			continue
		}
		if _, dup := r.records[s.Name]; !dup {
			r.names = append(r.names, s.Name)
		}
		r.records[s.Name] = s.Record()
	}
	return r
}

// Lookup returns the record for a tag name. A nil registry has no records.
func (r *Registry) Lookup(name string) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	rec, ok := r.records[name]
	return rec, ok
}

// Names returns the registered tag names in declaration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.names)
}

// Len returns the number of registered tags.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Parse decodes and validates a YAML (or JSON) schema list.
func Parse(data []byte) (*Registry, error) {
	var list List
	if err := pkgconfig.Parse(data, &list); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return NewRegistry(list), nil
}

// Load reads a schema list file. Unlike application config, schema files
// are not subject to environment expansion.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return reg, nil
}
