// Package models defines the domain types for tagsense.
package models

import "fmt"

// BodyKind tells where a tag's body came from.
type BodyKind int

const (
	// BodyNone means no body text was ever found (the null body).
	BodyNone BodyKind = iota
	// BodyInline is a balanced {...} span on the tag's own line.
	BodyInline
	// BodyBlock is the run of more-indented lines following the tag.
	BodyBlock
)

// String returns the JSON-facing name of the kind.
func (k BodyKind) String() string {
	switch k {
	case BodyInline:
		return "inline"
	case BodyBlock:
		return "block"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BodyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BodyKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "inline":
		*k = BodyInline
	case "block":
		*k = BodyBlock
	case "none":
		*k = BodyNone
	default:
		return fmt.Errorf("models: unknown body kind %q", text)
	}
	return nil
}

// ParseStatus is the outcome of parsing a tag body.
type ParseStatus int

const (
	ParseAbsent ParseStatus = iota // no body to parse
	ParseOK
	ParseFailed
)

// String returns the JSON-facing name of the status.
func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "ok"
	case ParseFailed:
		return "failed"
	default:
		return "absent"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ParseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ParseStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ok":
		*s = ParseOK
	case "failed":
		*s = ParseFailed
	case "absent":
		*s = ParseAbsent
	default:
		return fmt.Errorf("models: unknown parse status %q", text)
	}
	return nil
}

// ParseResult separates "body absent" from "body present but unparsable".
type ParseResult struct {
	Status ParseStatus `json:"status"`
	Value  any         `json:"value,omitempty"`
	Err    error       `json:"-"`
}

// Occurrence is one located custom tag.
type Occurrence struct {
	Tag         string      `json:"tag"`
	Line        int         `json:"line"`
	StartColumn int         `json:"start_column"`
	EndColumn   int         `json:"end_column"`
	BodyKind    BodyKind    `json:"body_kind"`
	RawBody     string      `json:"raw_body,omitempty"`
	Parsed      ParseResult `json:"parsed"`
}

// HasBody reports whether the occurrence carries body text (possibly empty).
func (o Occurrence) HasBody() bool {
	return o.BodyKind != BodyNone
}

// PositionContext is the tag and key a cursor is logically inside.
// Empty strings mean nothing was found.
type PositionContext struct {
	Tag string `json:"tag,omitempty"`
	Key string `json:"key,omitempty"`
}
