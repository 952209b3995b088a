// Package suggest turns a resolved cursor context into completion items and
// hover text using the tag schema registry.
package suggest

import (
	"fmt"
	"strings"

	"github.com/starford/tagsense/internal/models"
	"github.com/starford/tagsense/internal/schema"
)

// Kind is the category of a suggestion, used by hosts to pick an icon.
type Kind int

const (
	KindSnippet Kind = iota + 1
	KindProperty
	KindValue
)

// String returns the JSON-facing name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSnippet:
		return "snippet"
	case KindProperty:
		return "property"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindSnippet, KindProperty, KindValue} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("suggest: unknown kind %q", text)
}

// Item is one completion suggestion.
type Item struct {
	Label      string `json:"label"`
	Kind       Kind   `json:"kind"`
	InsertText string `json:"insert_text"`
}

// HoverInfo is the description shown for a tag.
type HoverInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Suggest returns the completions for the character typed just before the
// cursor. Unknown triggers, tags and keys produce no items.
func Suggest(trigger string, pc models.PositionContext, reg *schema.Registry) []Item {
	switch trigger {
	case "!":
		return tagSnippets(reg)
	case ",", "{":
		return propertyKeys(pc, reg)
	case ":":
		return propertyValues(pc, reg)
	}
	return nil
}

// Hover returns the description of the enclosing tag, or nil when the tag
// is unknown or undocumented.
func Hover(pc models.PositionContext, reg *schema.Registry) *HoverInfo {
	rec, ok := reg.Lookup(pc.Tag)
	if !ok || rec.Description == "" {
		return nil
	}
	return &HoverInfo{Title: pc.Tag, Description: rec.Description}
}

// tagSnippets offers every known tag with its required keys pre-filled,
// e.g. "Foo{a: , b: }".
func tagSnippets(reg *schema.Registry) []Item {
	names := reg.Names()
	items := make([]Item, 0, len(names))
	for _, name := range names {
		rec, _ := reg.Lookup(name)
		keys := make([]string, len(rec.Required))
		for i, req := range rec.Required {
			keys[i] = req + ": "
		}
		items = append(items, Item{
			Label:      name,
			Kind:       KindSnippet,
			InsertText: name + "{" + strings.Join(keys, ", ") + "}",
		})
	}
	return items
}

func propertyKeys(pc models.PositionContext, reg *schema.Registry) []Item {
	rec, ok := reg.Lookup(pc.Tag)
	if !ok {
		return nil
	}
	items := make([]Item, 0, len(rec.Properties))
	for _, p := range rec.Properties {
		items = append(items, Item{Label: p.Name, Kind: KindProperty, InsertText: " " + p.Name})
	}
	return items
}

// propertyValues only knows boolean values; other types get nothing.
func propertyValues(pc models.PositionContext, reg *schema.Registry) []Item {
	rec, ok := reg.Lookup(pc.Tag)
	if !ok {
		return nil
	}
	prop, ok := rec.Properties.Get(pc.Key)
	if !ok || prop.Type != "boolean" {
		return nil
	}
	return []Item{
		{Label: "true", Kind: KindValue, InsertText: " true"},
		{Label: "false", Kind: KindValue, InsertText: " false"},
	}
}
