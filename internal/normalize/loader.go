package normalize

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/piprate/json-gold/ld"
)

// offlineLoader serves a fixed set of context documents and refuses every
// other URL.
type offlineLoader struct {
	docs map[string]any
}

func newOfflineLoader(raw []byte, urls ...string) (*offlineLoader, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse embedded crate context: %w", err)
	}
	l := &offlineLoader{docs: make(map[string]any, len(urls))}
	for _, u := range urls {
		l.docs[u] = doc
	}
	return l, nil
}

// LoadDocument implements ld.DocumentLoader.
func (l *offlineLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	doc, ok := l.docs[u]
	if !ok {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, fmt.Sprintf("remote context %s is not available offline", u))
	}
	return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
}
