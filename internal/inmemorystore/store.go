package inmemorystore

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/vk/ocfltools/internal/search"
)

// Store keeps indices, their mappings and their documents in memory.
type Store struct {
	mu       sync.RWMutex
	indices  map[string]*index
	rejected map[string]string
}

type index struct {
	mapping map[string]any
	docs    map[string]map[string]any
}

var _ search.Sink = (*Store)(nil)

// New creates a new, empty store.
func New() *Store {
	return &Store{
		indices:  make(map[string]*index),
		rejected: make(map[string]string),
	}
}

// Reject makes every later document write to name fail with reason.
func (s *Store) Reject(name, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[name] = reason
}

// IndexExists implements search.Sink.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[name]
	return ok, nil
}

// CreateIndex implements search.Sink.
func (s *Store) CreateIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; ok {
		return &search.Error{
			Op:     "create",
			Index:  name,
			Status: http.StatusBadRequest,
			Type:   search.TypeAlreadyExists,
			Reason: fmt.Sprintf("index [%s] already exists", name),
		}
	}
	s.indices[name] = newIndex()
	return nil
}

// PutMapping implements search.Sink.
func (s *Store) PutMapping(_ context.Context, name string, mapping map[string]any) error {
	decoded, err := roundTrip(mapping)
	if err != nil {
		return &search.Error{Op: "put_mapping", Index: name, Status: http.StatusBadRequest, Reason: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		return &search.Error{Op: "put_mapping", Index: name, Status: http.StatusNotFound, Type: "index_not_found_exception", Reason: "no such index"}
	}
	idx.mapping = decoded
	return nil
}

// Index implements search.Sink. Like the real engine, writing to a missing
// index creates it without a mapping.
func (s *Store) Index(_ context.Context, name, id string, body any) error {
	decoded, err := roundTrip(body)
	if err != nil {
		return &search.Error{Op: "index", Index: name, Status: http.StatusBadRequest, Type: "mapper_parsing_exception", Reason: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason, ok := s.rejected[name]; ok {
		return &search.Error{Op: "index", Index: name, Status: http.StatusBadRequest, Type: "mapper_parsing_exception", Reason: reason}
	}
	s.target(name).docs[id] = decoded
	return nil
}

// Bulk implements search.Sink. The batch is applied only if every document
// encodes.
func (s *Store) Bulk(_ context.Context, name string, docs []search.BulkDoc) error {
	if len(docs) == 0 {
		return nil
	}
	decoded := make([]map[string]any, len(docs))
	for i, d := range docs {
		m, err := roundTrip(d.Body)
		if err != nil {
			return &search.Error{Op: "bulk", Index: name, Status: http.StatusBadRequest, Reason: fmt.Sprintf("document '%s': %v", d.ID, err)}
		}
		decoded[i] = m
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason, ok := s.rejected[name]; ok {
		return &search.Error{Op: "bulk", Index: name, Status: http.StatusBadRequest, Reason: fmt.Sprintf("document '%s': %s", docs[0].ID, reason)}
	}
	idx := s.target(name)
	for i, d := range docs {
		idx.docs[d.ID] = decoded[i]
	}
	return nil
}

// target must be called with the write lock held.
func (s *Store) target(name string) *index {
	idx, ok := s.indices[name]
	if !ok {
		idx = newIndex()
		s.indices[name] = idx
	}
	return idx
}

// Document returns the stored body of id in index.
func (s *Store) Document(name, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil, false
	}
	doc, ok := idx.docs[id]
	return doc, ok
}

// IDs returns the document ids of index in lexical order.
func (s *Store) IDs(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(idx.docs))
	for id := range idx.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Indices returns the index names in lexical order.
func (s *Store) Indices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indices))
	for n := range s.indices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Mapping returns the mapping last put on index.
func (s *Store) Mapping(name string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[name]
	if !ok || idx.mapping == nil {
		return nil, false
	}
	return idx.mapping, true
}

// Count returns the number of documents across all indices.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, idx := range s.indices {
		n += len(idx.docs)
	}
	return n
}

func newIndex() *index {
	return &index{docs: make(map[string]map[string]any)}
}

func roundTrip(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
