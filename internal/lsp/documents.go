package lsp

import (
	"sync"

	"go.lsp.dev/protocol"
)

type document struct {
	uri     string
	content string
	version int32
}

// documentStore holds the latest text of every open document.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]*document
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]*document)}
}

func (ds *documentStore) get(uri string) *document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.docs[uri]
}

func (ds *documentStore) put(uri, content string, version int32) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[uri] = &document{uri: uri, content: content, version: version}
}

func (ds *documentStore) remove(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, uri)
}

// contentChange mirrors protocol.TextDocumentContentChangeEvent with an
// optional range, so a full replacement is told apart from an edit at 0:0.
type contentChange struct {
	Range *protocol.Range `json:"range,omitempty"`
	Text  string          `json:"text"`
}

type didChangeParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange                          `json:"contentChanges"`
}

// applyChange returns content with ch applied.
func applyChange(content string, ch contentChange) string {
	if ch.Range == nil {
		return ch.Text
	}
	runes := []rune(content)
	start := lineColToOffset(runes, int(ch.Range.Start.Line), int(ch.Range.Start.Character))
	end := lineColToOffset(runes, int(ch.Range.End.Line), int(ch.Range.End.Character))
	if end < start {
		start, end = end, start
	}
	return string(runes[:start]) + ch.Text + string(runes[end:])
}

// lineColToOffset converts a 0-based line and character to a rune offset.
// Positions past the end of a line clamp to the line end; lines past the
// end of the document clamp to the document end.
func lineColToOffset(runes []rune, line, col int) int {
	i := 0
	for cur := 0; cur < line; i++ {
		if i >= len(runes) {
			return len(runes)
		}
		if runes[i] == '\n' {
			cur++
		}
	}
	for c := 0; c < col && i < len(runes) && runes[i] != '\n'; c++ {
		i++
	}
	return i
}
