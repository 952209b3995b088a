// Package testutil provides shared test helpers for schema registries and workspaces.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/tagsense/internal/analysis"
	"github.com/starford/tagsense/internal/schema"
	"github.com/starford/tagsense/internal/storage"
)

// SchemaYAML is the schema file used across package tests.
const SchemaYAML = `
- name: Foo
  description: The foo tag.
  properties:
    a: {type: integer, description: First operand.}
    b: {type: boolean}
  required: [a]
- name: Bar
  properties:
    flag: {type: boolean}
`

// TestRegistry parses SchemaYAML into a registry.
func TestRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.Parse([]byte(SchemaYAML))
	if err != nil {
		t.Fatalf("schema.Parse: %v", err)
	}
	return reg
}

// TestService returns an analysis service backed by TestRegistry.
func TestService(t *testing.T) *analysis.Service {
	t.Helper()
	return analysis.NewService(TestRegistry(t))
}

// SchemaFile writes content to a temporary schema file and returns its path.
func SchemaFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tags.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestWorkspace creates a temporary workspace directory holding files and
// returns it with a storage.Provider rooted there.
func TestWorkspace(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
