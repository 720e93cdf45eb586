// Package search delivers documents to the search engine. Sink is the
// engine-agnostic capability the pipeline needs; Elastic implements it over
// the Elasticsearch v8 client.
package search

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/failure"
)

//go:embed mappings/default.json
var defaultMapping []byte

// TypeAlreadyExists is the error type of a create on an existing index.
const TypeAlreadyExists = "resource_already_exists_exception"

// DefaultMapping returns a fresh copy of the built-in field mapping.
func DefaultMapping() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(defaultMapping, &m); err != nil {
		panic(fmt.Sprintf("embedded default mapping is invalid: %v", err))
	}
	return m
}

// BulkDoc is one document of a bulk request.
type BulkDoc struct {
	ID   string
	Body any
}

// Sink is the search engine capability.
type Sink interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string) error
	PutMapping(ctx context.Context, index string, mapping map[string]any) error
	Index(ctx context.Context, index, id string, body any) error
	Bulk(ctx context.Context, index string, docs []BulkDoc) error
}

// Error is a request the search engine rejected.
type Error struct {
	Op     string
	Index  string
	Status int
	Type   string
	Reason string
}

func (e *Error) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("search %s on '%s' failed with status %d: %s", e.Op, e.Index, e.Status, e.Reason)
	}
	return fmt.Sprintf("search %s on '%s' failed with status %d: %s: %s", e.Op, e.Index, e.Status, e.Type, e.Reason)
}

// FailureClass implements failure.Classifier.
func (e *Error) FailureClass() failure.Class { return failure.Sink }

// IsAlreadyExists reports whether err is a create on an existing index.
func IsAlreadyExists(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == TypeAlreadyExists
}

// EnsureIndex creates index with mapping unless it already exists. A failed
// create is logged and tolerated, since another worker may have won the
// race; a failed mapping update is returned.
func EnsureIndex(ctx context.Context, sink Sink, index string, mapping map[string]any) error {
	created, err := createIndex(ctx, sink, index)
	if err != nil || !created {
		return err
	}
	return putMapping(ctx, sink, index, mapping)
}

// createIndex reports whether index was missing and needs its mapping.
func createIndex(ctx context.Context, sink Sink, index string) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("index", index)

	exists, err := sink.IndexExists(ctx, index)
	if err != nil {
		return false, err
	}
	if exists {
		logger.Debug("Index already exists.")
		return false, nil
	}

	if err := sink.CreateIndex(ctx, index); err != nil {
		if IsAlreadyExists(err) {
			logger.Warn("Index was created concurrently.")
			return false, nil
		}
		logger.Warn("Index creation failed.", "error", err)
	} else {
		logger.Info("Index created.")
	}
	return true, nil
}

func putMapping(ctx context.Context, sink Sink, index string, mapping map[string]any) error {
	if len(mapping) == 0 {
		return nil
	}
	if err := sink.PutMapping(ctx, index, mapping); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Index mapping applied.", "index", index)
	return nil
}

type indexState int

const (
	stateUnknown indexState = iota
	// stateUnmapped marks an index this run created whose mapping failed.
	stateUnmapped
	stateReady
)

// Ensurer runs EnsureIndex at most once per index with success. An index
// whose mapping failed gets the mapping again on the next call, even though
// it now exists. It is safe for concurrent use; two workers racing on a new
// index may both attempt it.
type Ensurer struct {
	sink  Sink
	mu    sync.Mutex
	state map[string]indexState
}

// NewEnsurer returns an Ensurer over sink.
func NewEnsurer(sink Sink) *Ensurer {
	return &Ensurer{sink: sink, state: make(map[string]indexState)}
}

// Ensure makes sure index exists and carries mapping.
func (e *Ensurer) Ensure(ctx context.Context, index string, mapping map[string]any) error {
	e.mu.Lock()
	state := e.state[index]
	e.mu.Unlock()

	switch state {
	case stateReady:
		return nil
	case stateUnknown:
		created, err := createIndex(ctx, e.sink, index)
		if err != nil {
			return err
		}
		if !created {
			e.set(index, stateReady)
			return nil
		}
	}

	if err := putMapping(ctx, e.sink, index, mapping); err != nil {
		e.set(index, stateUnmapped)
		return err
	}
	e.set(index, stateReady)
	return nil
}

func (e *Ensurer) set(index string, s indexState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state[index] != stateReady {
		e.state[index] = s
	}
}
