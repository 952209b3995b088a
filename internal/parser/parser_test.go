package parser

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/starford/tagsense/internal/models"
)

func TestScan_InlineBody(t *testing.T) {
	occs := Scan("key: !Foo{a: 1, b: 2}")
	if len(occs) != 1 {
		t.Fatalf("len(occs) = %d, want 1", len(occs))
	}
	o := occs[0]
	if o.Tag != "Foo" || o.Line != 1 {
		t.Errorf("tag/line = %q/%d, want Foo/1", o.Tag, o.Line)
	}
	if o.StartColumn != 6 || o.EndColumn != 22 {
		t.Errorf("columns = [%d,%d), want [6,22)", o.StartColumn, o.EndColumn)
	}
	if o.BodyKind != models.BodyInline {
		t.Errorf("body kind = %v, want inline", o.BodyKind)
	}
	if o.RawBody != "{a: 1, b: 2}" {
		t.Errorf("raw body = %q", o.RawBody)
	}
	want := map[string]any{"a": 1, "b": 2}
	if o.Parsed.Status != models.ParseOK || !reflect.DeepEqual(o.Parsed.Value, want) {
		t.Errorf("parsed = %+v, want %v", o.Parsed, want)
	}
}

func TestScan_NestedInlineTagsStripped(t *testing.T) {
	occs := Scan("!Foo{a: !Bar{x: 1}, b: 2}")
	if len(occs) != 2 {
		t.Fatalf("len(occs) = %d, want 2", len(occs))
	}
	if occs[0].Tag != "Foo" || occs[1].Tag != "Bar" {
		t.Fatalf("tags = %q, %q", occs[0].Tag, occs[1].Tag)
	}
	if occs[0].RawBody != "{a: {x: 1}, b: 2}" {
		t.Errorf("outer body = %q", occs[0].RawBody)
	}
	want := map[string]any{"a": map[string]any{"x": 1}, "b": 2}
	if !reflect.DeepEqual(occs[0].Parsed.Value, want) {
		t.Errorf("outer parsed = %v, want %v", occs[0].Parsed.Value, want)
	}
	if occs[1].RawBody != "{x: 1}" {
		t.Errorf("inner body = %q", occs[1].RawBody)
	}
}

func TestScan_BlockBody(t *testing.T) {
	occs := Scan("!Bar\n  x: true\n  y: false\n")
	if len(occs) != 1 {
		t.Fatalf("len(occs) = %d, want 1", len(occs))
	}
	o := occs[0]
	if o.BodyKind != models.BodyBlock {
		t.Fatalf("body kind = %v, want block", o.BodyKind)
	}
	if o.EndColumn != 5 {
		t.Errorf("end column = %d, want 5", o.EndColumn)
	}
	if o.RawBody != "  x: true\n  y: false\n" {
		t.Errorf("raw body = %q", o.RawBody)
	}
	want := map[string]any{"x": true, "y": false}
	if !reflect.DeepEqual(o.Parsed.Value, want) {
		t.Errorf("parsed = %v, want %v", o.Parsed.Value, want)
	}
}

func TestScan_BlockStopsAtDedent(t *testing.T) {
	occs := Scan("root:\n  !Foo\n    a: 1\n  b: 2\n")
	if len(occs) != 1 {
		t.Fatalf("len(occs) = %d, want 1", len(occs))
	}
	o := occs[0]
	if o.Line != 2 || o.StartColumn != 3 {
		t.Errorf("position = %d:%d, want 2:3", o.Line, o.StartColumn)
	}
	if o.RawBody != "    a: 1\n" {
		t.Errorf("raw body = %q", o.RawBody)
	}
}

func TestScan_BlockAbsorbsRemainder(t *testing.T) {
	occs := Scan("!Foo\n  a: 1\n  b: 2")
	if len(occs) != 1 {
		t.Fatalf("len(occs) = %d, want 1", len(occs))
	}
	if occs[0].RawBody != "  a: 1\n  b: 2\n" {
		t.Errorf("raw body = %q", occs[0].RawBody)
	}
}

func TestScan_CRLF(t *testing.T) {
	occs := Scan("!Bar\r\n  x: 1\r\n")
	if len(occs) != 1 {
		t.Fatalf("len(occs) = %d, want 1", len(occs))
	}
	if occs[0].RawBody != "  x: 1\n" {
		t.Errorf("raw body = %q", occs[0].RawBody)
	}
}

func TestScan_UnbalancedFallsBackToBlock(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		body string
	}{
		{"indented next line absorbed", "!Foo{a: 1\n  b: 2\n", "  b: 2\n"},
		{"same indent leaves empty body", "!Foo{a: 1\nb: 2\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs := Scan(tt.doc)
			if len(occs) != 1 {
				t.Fatalf("len(occs) = %d, want 1", len(occs))
			}
			o := occs[0]
			if o.BodyKind != models.BodyBlock {
				t.Errorf("body kind = %v, want block", o.BodyKind)
			}
			if o.RawBody != tt.body {
				t.Errorf("raw body = %q, want %q", o.RawBody, tt.body)
			}
			if o.Parsed.Status != models.ParseOK {
				t.Errorf("parse status = %v, want ok", o.Parsed.Status)
			}
		})
	}
}

func TestScan_TagOnLastLineHasNoBody(t *testing.T) {
	occs := Scan("x: !Foo")
	if len(occs) != 1 {
		t.Fatalf("len(occs) = %d, want 1", len(occs))
	}
	if occs[0].HasBody() {
		t.Errorf("expected no body, got kind %v", occs[0].BodyKind)
	}
	if occs[0].Parsed.Status != models.ParseAbsent {
		t.Errorf("parse status = %v, want absent", occs[0].Parsed.Status)
	}
}

func TestScan_MalformedBodyDoesNotAbortScan(t *testing.T) {
	occs := Scan("!Foo\n  a: [1, 2\n!Bar{x: 1}\n")
	if len(occs) != 2 {
		t.Fatalf("len(occs) = %d, want 2", len(occs))
	}
	if occs[0].Parsed.Status != models.ParseFailed || occs[0].Parsed.Err == nil {
		t.Errorf("first parse = %+v, want failed with error", occs[0].Parsed)
	}
	if occs[0].Parsed.Value != nil {
		t.Errorf("failed parse carries value %v", occs[0].Parsed.Value)
	}
	if occs[1].Parsed.Status != models.ParseOK {
		t.Errorf("second parse = %v, want ok", occs[1].Parsed.Status)
	}
}

func TestScan_NestedBlockTagStripped(t *testing.T) {
	occs := Scan("!Foo\n  a: !Bar\n  b: 1\n")
	if len(occs) != 2 {
		t.Fatalf("len(occs) = %d, want 2", len(occs))
	}
	if occs[0].RawBody != "  a: \n  b: 1\n" {
		t.Errorf("outer body = %q", occs[0].RawBody)
	}
	want := map[string]any{"a": nil, "b": 1}
	if !reflect.DeepEqual(occs[0].Parsed.Value, want) {
		t.Errorf("outer parsed = %v, want %v", occs[0].Parsed.Value, want)
	}
	if occs[1].Tag != "Bar" || occs[1].Line != 2 || occs[1].StartColumn != 6 {
		t.Errorf("inner = %+v", occs[1])
	}
}

func TestScan_Ordering(t *testing.T) {
	occs := Scan("a: !Foo{x: 1} b: !Baz{y: 2}\nc: !Qux{}\n")
	var got []string
	for _, o := range occs {
		got = append(got, o.Tag)
	}
	want := []string{"Foo", "Baz", "Qux"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
	if occs[0].StartColumn >= occs[1].StartColumn {
		t.Errorf("same-line columns out of order: %d, %d", occs[0].StartColumn, occs[1].StartColumn)
	}
}

func TestScan_IgnoresLowercaseAndDoubleBang(t *testing.T) {
	occs := Scan("a: !foo\nb: !!str x\n")
	if len(occs) != 0 {
		t.Errorf("expected no occurrences, got %+v", occs)
	}
}

func TestScan_InlineEndColumnOnePastBalancedBrace(t *testing.T) {
	docs := []string{
		"!A{}",
		"x: !A{b: {c: 1}} tail",
		"é: !A{k: v}",
		"!A{a: 1} !B{b: {c: {d: 2}}}",
	}
	for _, doc := range docs {
		lines := SplitLines(doc)
		for _, o := range Scan(doc) {
			if o.BodyKind != models.BodyInline {
				continue
			}
			runes := []rune(lines[o.Line-1])
			if got := runes[o.EndColumn-2]; got != '}' {
				t.Errorf("%q: rune before end column = %q, want '}'", doc, got)
			}
			depth, zeroes := 0, 0
			for _, r := range runes[o.StartColumn-1 : o.EndColumn-1] {
				switch r {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						zeroes++
					}
				}
			}
			if depth != 0 || zeroes != 1 {
				t.Errorf("%q: span for %s: depth %d, returned to zero %d times", doc, o.Tag, depth, zeroes)
			}
		}
	}
}

func TestScan_BodyRoundTripKeys(t *testing.T) {
	occs := Scan("!Foo{alpha: 1, beta: !Bar{x: y}, gamma: [1, 2]}")
	m, ok := occs[0].Parsed.Value.(map[string]any)
	if !ok {
		t.Fatalf("parsed value is %T, want map", occs[0].Parsed.Value)
	}
	for _, k := range []string{"alpha", "beta", "gamma"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q in %v", k, m)
		}
	}
	if len(m) != 3 {
		t.Errorf("len(keys) = %d, want 3", len(m))
	}
}

func TestStripTags_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"{a: !Foo{b: 1}}",
		"!!Foo!Bar",
		"x: !A !B !C\n  y: !D{}",
		"!Foo-Bar !foo",
	}
	for _, in := range inputs {
		once := StripTags(in)
		if twice := StripTags(once); twice != once {
			t.Errorf("StripTags not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestParseBody_NeverFails(t *testing.T) {
	bad := []string{"{a: 1", ": : :", "a:\n\tb: 1", "[", "{{{{"}
	for _, in := range bad {
		res := ParseBody(in)
		if res.Status == models.ParseAbsent {
			t.Errorf("ParseBody(%q) reported absent", in)
		}
	}
	if res := ParseBody("k: v"); res.Status != models.ParseOK {
		t.Errorf("ParseBody(valid) = %v, want ok", res.Status)
	}
}

func TestParseBody_NonStringKeysAreJSONSafe(t *testing.T) {
	res := ParseBody("{1: a, b: [{2: c}]}")
	if res.Status != models.ParseOK {
		t.Fatalf("status = %v", res.Status)
	}
	if _, err := json.Marshal(res.Value); err != nil {
		t.Fatalf("value not JSON encodable: %v", err)
	}
	m := res.Value.(map[string]any)
	if m["1"] != "a" {
		t.Errorf("value = %#v", m)
	}
}
