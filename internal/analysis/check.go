package analysis

import (
	"context"
	"fmt"
	"slices"

	"github.com/starford/tagsense/internal/models"
	"github.com/starford/tagsense/internal/parser"
	"github.com/starford/tagsense/internal/schema"
)

// Severity ranks a Problem.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// Problem is one finding about a tag occurrence. Columns are 1-based and
// EndColumn is exclusive, matching models.Occurrence.
type Problem struct {
	Tag         string   `json:"tag"`
	Line        int      `json:"line"`
	StartColumn int      `json:"start_column"`
	EndColumn   int      `json:"end_column"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
}

// Check reports tag bodies that fail to parse and, when schemas are
// registered, tags and keys that do not match them.
func (s *Service) Check(_ context.Context, text string) []Problem {
	reg := s.Registry()
	out := []Problem{}
	for _, occ := range parser.Scan(text) {
		out = append(out, checkOccurrence(occ, reg)...)
	}
	return out
}

func checkOccurrence(occ models.Occurrence, reg *schema.Registry) []Problem {
	at := func(sev Severity, format string, args ...any) Problem {
		return Problem{
			Tag:         occ.Tag,
			Line:        occ.Line,
			StartColumn: occ.StartColumn,
			EndColumn:   occ.EndColumn,
			Severity:    sev,
			Message:     fmt.Sprintf(format, args...),
		}
	}

	if occ.Parsed.Status == models.ParseFailed {
		return []Problem{at(SeverityError, "body of !%s does not parse: %v", occ.Tag, occ.Parsed.Err)}
	}
	if reg.Len() == 0 {
		return nil
	}
	rec, ok := reg.Lookup(occ.Tag)
	if !ok {
		return []Problem{at(SeverityWarning, "unknown tag !%s", occ.Tag)}
	}

	body, isMap := occ.Parsed.Value.(map[string]any)
	if occ.Parsed.Value != nil && !isMap {
		return []Problem{at(SeverityWarning, "body of !%s is not a mapping", occ.Tag)}
	}

	var out []Problem
	for _, req := range rec.Required {
		if _, ok := body[req]; !ok {
			out = append(out, at(SeverityWarning, "!%s is missing required property %q", occ.Tag, req))
		}
	}
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, ok := rec.Properties.Get(k); !ok {
			out = append(out, at(SeverityWarning, "!%s has no property %q", occ.Tag, k))
		}
	}
	return out
}
