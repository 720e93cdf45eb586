package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocfltools/internal/failure"
)

// recordingSink is a Sink that records calls and fails on demand.
type recordingSink struct {
	mu        sync.Mutex
	calls     []string
	exists    bool
	createErr error
	mapErr    error
}

func (s *recordingSink) record(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *recordingSink) IndexExists(_ context.Context, index string) (bool, error) {
	s.record("exists " + index)
	return s.exists, nil
}

func (s *recordingSink) CreateIndex(_ context.Context, index string) error {
	s.record("create " + index)
	return s.createErr
}

func (s *recordingSink) PutMapping(_ context.Context, index string, _ map[string]any) error {
	s.record("mapping " + index)
	return s.mapErr
}

func (s *recordingSink) Index(context.Context, string, string, any) error { return nil }

func (s *recordingSink) Bulk(context.Context, string, []BulkDoc) error { return nil }

func TestEnsureIndex(t *testing.T) {
	t.Parallel()

	mapping := map[string]any{"properties": map[string]any{}}

	testCases := []struct {
		name      string
		sink      *recordingSink
		mapping   map[string]any
		wantCalls []string
		wantErr   bool
	}{
		{
			name:      "existing index is left alone",
			sink:      &recordingSink{exists: true},
			mapping:   mapping,
			wantCalls: []string{"exists d"},
		},
		{
			name:      "new index gets created and mapped",
			sink:      &recordingSink{},
			mapping:   mapping,
			wantCalls: []string{"exists d", "create d", "mapping d"},
		},
		{
			name:      "no mapping",
			sink:      &recordingSink{},
			wantCalls: []string{"exists d", "create d"},
		},
		{
			name:      "lost creation race is benign",
			sink:      &recordingSink{createErr: &Error{Op: "create", Index: "d", Status: 400, Type: TypeAlreadyExists}},
			mapping:   mapping,
			wantCalls: []string{"exists d", "create d"},
		},
		{
			name:      "other create failure still tries the mapping",
			sink:      &recordingSink{createErr: errors.New("timeout")},
			mapping:   mapping,
			wantCalls: []string{"exists d", "create d", "mapping d"},
		},
		{
			name:      "mapping failure is returned",
			sink:      &recordingSink{mapErr: &Error{Op: "put_mapping", Index: "d", Status: 400}},
			mapping:   mapping,
			wantCalls: []string{"exists d", "create d", "mapping d"},
			wantErr:   true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := EnsureIndex(context.Background(), tc.sink, "d", tc.mapping)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, failure.Is(err, failure.Sink))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantCalls, tc.sink.calls)
		})
	}
}

func TestEnsurer_OnlyOncePerIndex(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sink := &recordingSink{}
	e := NewEnsurer(sink)
	ctx := context.Background()

	// --- Act ---
	require.NoError(t, e.Ensure(ctx, "a", nil))
	require.NoError(t, e.Ensure(ctx, "a", nil))
	require.NoError(t, e.Ensure(ctx, "b", nil))

	// --- Assert ---
	assert.Equal(t, []string{"exists a", "create a", "exists b", "create b"}, sink.calls)
}

func TestEnsurer_RetriesMappingAfterFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sink := &recordingSink{mapErr: errors.New("rejected")}
	e := NewEnsurer(sink)
	m := map[string]any{"properties": map[string]any{}}
	ctx := context.Background()

	// --- Act ---
	require.Error(t, e.Ensure(ctx, "a", m))
	// The failed attempt still created the index.
	sink.exists = true
	sink.mapErr = nil
	require.NoError(t, e.Ensure(ctx, "a", m))
	require.NoError(t, e.Ensure(ctx, "a", m))

	// --- Assert ---
	assert.Equal(t, []string{"exists a", "create a", "mapping a", "mapping a"}, sink.calls)
}

func TestEnsurer_KeepsRetryingFailedMapping(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{mapErr: errors.New("rejected")}
	e := NewEnsurer(sink)
	m := map[string]any{"properties": map[string]any{}}

	require.Error(t, e.Ensure(context.Background(), "a", m))
	sink.exists = true
	require.Error(t, e.Ensure(context.Background(), "a", m))

	assert.Equal(t, []string{"exists a", "create a", "mapping a", "mapping a"}, sink.calls)
}

func TestDefaultMapping(t *testing.T) {
	t.Parallel()

	m := DefaultMapping()
	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "identifier")
	assert.Contains(t, props, "contributor")

	delete(props, "identifier")
	assert.Contains(t, DefaultMapping()["properties"], "identifier", "each call returns a fresh copy")
}

func TestError_Classification(t *testing.T) {
	t.Parallel()

	err := &Error{Op: "index", Index: "x", Status: 400, Type: "mapper_parsing_exception", Reason: "bad"}
	assert.Equal(t, "search index on 'x' failed with status 400: mapper_parsing_exception: bad", err.Error())
	assert.True(t, failure.Is(err, failure.Sink))
	assert.False(t, IsAlreadyExists(err))
	assert.True(t, IsAlreadyExists(failure.Wrap(failure.Sink, "ensure", &Error{Type: TypeAlreadyExists})))
}
