// Package storage defines read access to a directory of YAML documents.
package storage

import "github.com/starford/tagsense/internal/models"

// Provider is the interface for workspace document reads.
type Provider interface {
	// List returns metadata for every YAML file under dir (relative to the root).
	List(dir string) ([]models.DocumentMeta, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
}
