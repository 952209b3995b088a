package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/tagsense/internal/apperr"
	"github.com/starford/tagsense/internal/checksum"
	"github.com/starford/tagsense/internal/schema"
)

func testService(t *testing.T) *Service {
	t.Helper()
	reg, err := schema.Parse([]byte(`
- name: Foo
  description: The foo tag.
  properties:
    a: {type: integer}
    b: {type: boolean}
  required: [a]
`))
	if err != nil {
		t.Fatalf("schema.Parse: %v", err)
	}
	return NewService(reg)
}

func TestScan(t *testing.T) {
	svc := testService(t)
	text := "x: !Foo{a: 1}\n"
	res := svc.Scan(context.Background(), text)
	if res.Checksum != checksum.String(text) {
		t.Errorf("checksum = %q", res.Checksum)
	}
	if len(res.Occurrences) != 1 || res.Occurrences[0].Tag != "Foo" {
		t.Errorf("occurrences = %+v", res.Occurrences)
	}
	if empty := svc.Scan(context.Background(), "plain: yaml"); empty.Occurrences == nil {
		t.Error("occurrences should be an empty slice, not nil")
	}
}

func TestComplete_UsesCharBeforeCursor(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	c, err := svc.Complete(ctx, "x: !Foo{", 1, 9)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Trigger != "{" || c.Context.Tag != "Foo" {
		t.Errorf("trigger/context = %q/%+v", c.Trigger, c.Context)
	}
	if len(c.Items) != 2 || c.Items[0].InsertText != " a" {
		t.Errorf("items = %+v", c.Items)
	}

	c, err = svc.Complete(ctx, "x: !", 1, 5)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].InsertText != "Foo{a: }" {
		t.Errorf("tag items = %+v", c.Items)
	}

	c, err = svc.Complete(ctx, "x: !Foo{b:", 1, 11)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(c.Items) != 2 || c.Items[0].Label != "true" {
		t.Errorf("value items = %+v", c.Items)
	}

	c, err = svc.Complete(ctx, "plain", 1, 1)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Items == nil || len(c.Items) != 0 {
		t.Errorf("column 1 items = %+v, want empty", c.Items)
	}
}

func TestHover(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	h, err := svc.Hover(ctx, "x: !Foo{a: 1}", 1, 6)
	if err != nil {
		t.Fatalf("Hover: %v", err)
	}
	if h.Title != "Foo" || h.Description != "The foo tag." {
		t.Errorf("hover = %+v", h)
	}

	if _, err := svc.Hover(ctx, "x: !Nope{}", 1, 6); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown tag err = %v, want ErrNotFound", err)
	}
}

func TestInvalidPosition(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	for _, pos := range [][2]int{{0, 1}, {1, 0}, {-3, 2}} {
		if _, err := svc.Resolve(ctx, "x", pos[0], pos[1]); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Resolve(%v) err = %v, want ErrInvalidInput", pos, err)
		}
		if _, err := svc.Complete(ctx, "x", pos[0], pos[1]); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Complete(%v) err = %v, want ErrInvalidInput", pos, err)
		}
	}
	if _, err := svc.Resolve(ctx, "x", 99, 99); err != nil {
		t.Errorf("out-of-document position should not error: %v", err)
	}
}

func TestSetRegistry_ConcurrentQueries(t *testing.T) {
	svc := testService(t)
	next := schema.NewRegistry([]schema.Schema{{Name: "Bar"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c, err := svc.Complete(context.Background(), "!", 1, 2)
				if err != nil || len(c.Items) != 1 {
					t.Errorf("complete = %+v, %v", c, err)
					return
				}
			}
		}()
	}
	svc.SetRegistry(next)
	wg.Wait()

	if names := svc.Registry().Names(); len(names) != 1 || names[0] != "Bar" {
		t.Errorf("names = %v", names)
	}
	svc.SetRegistry(nil)
	if svc.Registry().Len() != 0 {
		t.Error("nil registry should reset to empty")
	}
}

func TestSchemas(t *testing.T) {
	svc := testService(t)
	list := svc.Schemas(context.Background())
	if len(list) != 1 || list[0].Name != "Foo" || list[0].Description != "The foo tag." {
		t.Errorf("schemas = %+v", list)
	}
}

func TestCheck(t *testing.T) {
	svc := testService(t)
	doc := "a: !Foo{a: [}\n" +
		"b: !Nope{}\n" +
		"c: !Foo{b: true, z: 1}\n" +
		"d: !Foo{a: 1}\n"

	got := svc.Check(context.Background(), doc)
	want := []struct {
		line int
		sev  Severity
	}{
		{1, SeverityError},
		{2, SeverityWarning},
		{3, SeverityWarning}, // missing a
		{3, SeverityWarning}, // unknown z
	}
	if len(got) != len(want) {
		t.Fatalf("problems = %+v", got)
	}
	for i, w := range want {
		if got[i].Line != w.line || got[i].Severity != w.sev {
			t.Errorf("problem[%d] = %+v, want line %d %v", i, got[i], w.line, w.sev)
		}
	}
	if got[0].StartColumn != 4 || got[0].EndColumn != 14 {
		t.Errorf("error span = [%d,%d)", got[0].StartColumn, got[0].EndColumn)
	}
}

func TestCheck_NoSchemasOnlyReportsParseFailures(t *testing.T) {
	svc := NewService(nil)
	got := svc.Check(context.Background(), "a: !Nope{x: 1}\nb: !Bad{[}\n")
	if len(got) != 1 || got[0].Tag != "Bad" || got[0].Severity != SeverityError {
		t.Errorf("problems = %+v", got)
	}
}
