package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadSchemas_MissingFileIsEmpty(t *testing.T) {
	reg, err := LoadSchemas(filepath.Join(t.TempDir(), "tags.yaml"), discardLogger())
	if err != nil {
		t.Fatalf("LoadSchemas: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("len = %d, want 0", reg.Len())
	}
}

func TestLoadSchemas_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	if err := os.WriteFile(path, []byte("- name: lower\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSchemas(path, discardLogger()); err == nil {
		t.Error("invalid tag name should fail")
	}
}

func TestLoadSchemas_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	if err := os.WriteFile(path, []byte("- name: Foo\n  properties:\n    a: {type: string}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadSchemas(path, discardLogger())
	if err != nil {
		t.Fatalf("LoadSchemas: %v", err)
	}
	if _, ok := reg.Lookup("Foo"); !ok {
		t.Error("Foo not registered")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("Run without config should fail")
	}
	if err := RunLSP(context.Background(), nil, nil); err == nil {
		t.Error("RunLSP without config should fail")
	}
}
