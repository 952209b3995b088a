// Package parser locates custom !Tag regions in YAML-like text, parses their
// bodies, and resolves cursor positions against them. It tolerates partial
// and malformed input: nothing in this package returns an error or panics on
// bad text.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/tagsense/internal/models"
)

// The patterns are compiled once and hold no match state between calls;
// every lookup below asks for a complete match list.
var (
	tagRe       = regexp.MustCompile(`!([A-Z][A-Za-z0-9_]*)`)
	keyRe       = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_-]*):`)
	lineBreakRe = regexp.MustCompile(`\r?\n`)
)

// Scan returns every tag occurrence in doc, ordered by line and then column.
func Scan(doc string) []models.Occurrence {
	lines := SplitLines(doc)

	var out []models.Occurrence
	for i, line := range lines {
		for _, m := range tagRe.FindAllStringSubmatchIndex(line, -1) {
			occ := models.Occurrence{
				Tag:         line[m[2]:m[3]],
				Line:        i + 1,
				StartColumn: column(line, m[0]),
				EndColumn:   column(line, len(line)),
			}

			if open, closing, ok := inlineSpan(line, m[1]); ok {
				body := StripTags(line[open : closing+1])
				occ.EndColumn = column(line, closing+1)
				occ.BodyKind = models.BodyInline
				occ.RawBody = body
				occ.Parsed = ParseBody(body)
			} else {
				resolveBlock(&occ, lines)
			}

			out = append(out, occ)
		}
	}
	return out
}

// SplitLines splits doc on "\n" and "\r\n" line endings.
func SplitLines(doc string) []string {
	return lineBreakRe.Split(doc, -1)
}

// StripTags removes every tag marker from s. It is idempotent.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// inlineSpan looks for the first '{' at or after byte offset from and
// returns the byte offsets of it and its balancing '}'. ok is false when
// there is no '{' or the braces never balance on this line.
func inlineSpan(line string, from int) (open, closing int, ok bool) {
	idx := strings.IndexByte(line[from:], '{')
	if idx < 0 {
		return 0, 0, false
	}
	open = from + idx

	depth := 0
	for j := open; j < len(line); j++ {
		switch line[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return open, j, true
			}
		}
	}
	return 0, 0, false
}

// column converts a byte offset within line to a 1-based rune column.
func column(line string, off int) int {
	return utf8.RuneCountInString(line[:off]) + 1
}

// indentation is the rune index of the first non-whitespace rune, or the
// rune length of the line when it is blank.
func indentation(line string) int {
	n := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			return n
		}
		n++
	}
	return n
}
