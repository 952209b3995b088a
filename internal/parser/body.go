package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/tagsense/internal/models"
)

// resolveBlock fills in the body of an occurrence that had no balanced
// inline braces. The body is every line after the tag's line up to (not
// including) the first one indented at or left of the tag marker. A tag with
// no following line keeps BodyNone.
func resolveBlock(occ *models.Occurrence, lines []string) {
	if occ.Line >= len(lines) {
		return
	}

	base := occ.StartColumn - 1
	var b strings.Builder
	for _, line := range lines[occ.Line:] {
		if indentation(line) <= base {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	body := StripTags(b.String())
	occ.BodyKind = models.BodyBlock
	occ.RawBody = body
	occ.Parsed = ParseBody(body)
}

// ParseBody decodes body text as YAML. Malformed text yields ParseFailed
// rather than an error.
func ParseBody(text string) (res models.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.ParseResult{
				Status: models.ParseFailed,
				Err:    fmt.Errorf("parser: body: %v", r),
			}
		}
	}()

	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return models.ParseResult{Status: models.ParseFailed, Err: err}
	}
	return models.ParseResult{Status: models.ParseOK, Value: stringKeys(v)}
}

// stringKeys rewrites mappings with non-string keys (e.g. {1: a}) so every
// parsed value can be encoded as JSON.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = stringKeys(e)
		}
		return m
	case map[string]any:
		for k, e := range t {
			t[k] = stringKeys(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = stringKeys(e)
		}
		return t
	default:
		return v
	}
}
