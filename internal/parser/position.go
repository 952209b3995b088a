package parser

import (
	"regexp"
	"unicode"

	"github.com/starford/tagsense/internal/models"
)

// Resolve finds the tag and key the cursor at (line, col) is inside. Both
// are 1-based; col counts runes. Out-of-range positions resolve to an empty
// context.
//
// The cursor line is cut at the first whitespace, '{', '}' or end of line at
// or after the cursor. The last tag marker left of the cut wins; without one,
// the last marker on the nearest preceding line that has any is used. The
// key is the last "name:" on the cut line, right of the tag when the tag is
// on the same line.
func Resolve(doc string, line, col int) models.PositionContext {
	lines := SplitLines(doc)
	if line < 1 || line > len(lines) {
		return models.PositionContext{}
	}

	current := []rune(lines[line-1])
	target := string(current[:boundary(current, col)])

	var pc models.PositionContext
	keyFrom := 0
	if m := lastMatch(tagRe, target); m != nil {
		pc.Tag = target[m[2]:m[3]]
		keyFrom = m[0]
	} else {
		for i := line - 2; i >= 0; i-- {
			if m := lastMatch(tagRe, lines[i]); m != nil {
				pc.Tag = lines[i][m[2]:m[3]]
				break
			}
		}
	}

	if m := lastMatch(keyRe, target[keyFrom:]); m != nil {
		pc.Key = target[keyFrom+m[2] : keyFrom+m[3]]
	}
	return pc
}

// CharBefore returns the rune immediately left of the cursor, or "" when
// the cursor is at column 1 or outside the document.
func CharBefore(doc string, line, col int) string {
	lines := SplitLines(doc)
	if line < 1 || line > len(lines) || col < 2 {
		return ""
	}
	current := []rune(lines[line-1])
	if col-2 >= len(current) {
		return ""
	}
	return string(current[col-2])
}

func boundary(line []rune, col int) int {
	start := max(col-1, 0)
	for i := start; i < len(line); i++ {
		if r := line[i]; unicode.IsSpace(r) || r == '{' || r == '}' {
			return i
		}
	}
	return len(line)
}

func lastMatch(re *regexp.Regexp, s string) []int {
	all := re.FindAllStringSubmatchIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}
