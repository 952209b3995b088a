package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/starford/tagsense/internal/analysis"
	"github.com/starford/tagsense/internal/models"
)

type scannedFile struct {
	Path     string               `json:"path"`
	Result   *analysis.ScanResult `json:"result"`
	Problems []analysis.Problem   `json:"problems"`
}

func countErrors(files []scannedFile) int {
	n := 0
	for _, f := range files {
		for _, p := range f.Problems {
			if p.Severity == analysis.SeverityError {
				n++
			}
		}
	}
	return n
}

// reporter prints human-readable results, colored when w is a terminal.
type reporter struct {
	w    io.Writer
	path *color.Color
	tag  *color.Color
	key  *color.Color
	err  *color.Color
	warn *color.Color
	dim  *color.Color
}

func newReporter(w io.Writer, noColor bool) *reporter {
	colored := !noColor && os.Getenv("NO_COLOR") == "" && isTerminal(w)
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &reporter{
		w:    w,
		path: mk(color.Bold),
		tag:  mk(color.FgCyan, color.Bold),
		key:  mk(color.FgGreen),
		err:  mk(color.FgRed, color.Bold),
		warn: mk(color.FgYellow),
		dim:  mk(color.Faint),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *reporter) scan(files []scannedFile) {
	for _, f := range files {
		r.path.Fprintln(r.w, f.Path)
		if len(f.Result.Occurrences) == 0 {
			r.dim.Fprintln(r.w, "  no tags")
		}
		for _, occ := range f.Result.Occurrences {
			fmt.Fprintf(r.w, "  %d:%d-%d %s %s\n",
				occ.Line, occ.StartColumn, occ.EndColumn,
				r.tag.Sprint("!"+occ.Tag),
				r.dim.Sprint(describeBody(occ)))
		}
		for _, p := range f.Problems {
			c := r.warn
			if p.Severity == analysis.SeverityError {
				c = r.err
			}
			fmt.Fprintf(r.w, "  %d:%d %s %s\n", p.Line, p.StartColumn, c.Sprint(p.Severity), p.Message)
		}
	}
}

func describeBody(occ models.Occurrence) string {
	if !occ.HasBody() {
		return "no body"
	}
	return fmt.Sprintf("%s body, %s", occ.BodyKind, occ.Parsed.Status)
}

func (r *reporter) context(pc models.PositionContext) {
	if pc.Tag == "" {
		r.dim.Fprintln(r.w, "no tag at cursor")
		return
	}
	fmt.Fprint(r.w, r.tag.Sprint("!"+pc.Tag))
	if pc.Key != "" {
		fmt.Fprintf(r.w, " %s", r.key.Sprint(pc.Key))
	}
	fmt.Fprintln(r.w)
}

func (r *reporter) completion(c *analysis.Completion) {
	if len(c.Items) == 0 {
		r.dim.Fprintln(r.w, "no suggestions")
		return
	}
	for _, it := range c.Items {
		fmt.Fprintf(r.w, "%-10s %q\n", r.dim.Sprint(it.Kind), it.InsertText)
	}
}
