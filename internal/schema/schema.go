// Package schema holds the tag schemas that drive suggestions and hover text.
package schema

import (
	"fmt"
	"regexp"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

var nameRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

// Property describes one key a tag body may carry.
type Property struct {
	Name        string `yaml:"-" json:"name"`
	Type        string `yaml:"type" json:"type,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Properties keeps the declaration order of a YAML properties mapping.
type Properties []Property

// UnmarshalYAML decodes a mapping of key -> property, preserving key order.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: properties must be a mapping (line %d)", node.Line)
	}
	out := make(Properties, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var prop Property
		if err := node.Content[i+1].Decode(&prop); err != nil {
			return fmt.Errorf("schema: property %q: %w", node.Content[i].Value, err)
		}
		prop.Name = node.Content[i].Value
		out = append(out, prop)
	}
	*p = out
	return nil
}

// Get returns the property named name.
func (p Properties) Get(name string) (Property, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// Schema is one entry of the inbound schema list.
type Schema struct {
	Name        string     `yaml:"name" json:"name"`
	Properties  Properties `yaml:"properties" json:"properties,omitempty"`
	Required    []string   `yaml:"required" json:"required,omitempty"`
	Description string     `yaml:"description" json:"description,omitempty"`
}

// Validate checks that the schema names a valid tag.
func (s Schema) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Match(nameRe)),
	)
}

// Record returns a copy of s without its name.
func (s Schema) Record() Record {
	return Record{
		Properties:  slices.Clone(s.Properties),
		Required:    slices.Clone(s.Required),
		Description: s.Description,
	}
}

// List is the inbound schema list as loaded from a file.
type List []Schema

// Validate validates every schema in the list.
func (l List) Validate() error {
	for i, s := range l {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("schema[%d]: %w", i, err)
		}
	}
	return nil
}

// Record is a registered schema, keyed by tag name in a Registry.
type Record struct {
	Properties  Properties `json:"properties"`
	Required    []string   `json:"required,omitempty"`
	Description string     `json:"description,omitempty"`
}
