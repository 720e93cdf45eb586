package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocfltools/internal/document"
	"github.com/vk/ocfltools/internal/failure"
	"github.com/vk/ocfltools/internal/inmemorystore"
	"github.com/vk/ocfltools/internal/metrics"
	"github.com/vk/ocfltools/internal/normalize"
	"github.com/vk/ocfltools/internal/ocfl"
	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/internal/resolve"
	fixtures "github.com/vk/ocfltools/internal/testutil"
	"github.com/vk/ocfltools/internal/transcription"
	"github.com/vk/ocfltools/internal/transform"
	"github.com/vk/ocfltools/internal/validate"
)

// parseLines reads "<begin> <end> <text>" lines.
func parseLines(r io.Reader) ([]transcription.Segment, error) {
	var out []transcription.Segment
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.SplitN(sc.Text(), " ", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed line %q", sc.Text())
		}
		begin, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, err
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, transcription.Segment{Text: fields[2], TimeBegin: begin, TimeEnd: end})
	}
	return out, sc.Err()
}

func flattenLines(s []transcription.Segment) []transcription.Segment { return s }

var explode = transform.Pass{Name: "explode", Apply: func(document.Document) (document.Document, error) {
	panic("boom")
}}

type fixture struct {
	pipeline *Pipeline
	store    *inmemorystore.Store
	metrics  *metrics.Metrics
	repo     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	r := registry.New()
	r.RegisterPass(transform.HasContent)
	r.RegisterPass(explode)
	r.RegisterTranscription(transcription.NewFormat("lines", parseLines, flattenLines))
	r.RegisterDomain(registry.Domain{
		Name:       "example.org",
		Schema:     []byte(`{"required": ["name"]}`),
		Transforms: []string{transform.HasContentName},
	})
	r.RegisterDomain(registry.Domain{Name: "broken.org", Transforms: []string{"explode"}})
	catalog, err := r.Ready(ctx)
	require.NoError(t, err)

	n, err := normalize.New()
	require.NoError(t, err)
	v, err := validate.New(catalog)
	require.NoError(t, err)

	f := &fixture{store: inmemorystore.New(), metrics: metrics.New(), repo: fixtures.NewRepository(t)}
	f.pipeline = New(Deps{
		Expander:  n,
		Resolver:  resolve.New(resolve.WithCompactor(n)),
		Validator: v,
		Catalog:   catalog,
		Sink:      f.store,
		Metrics:   f.metrics,
	})
	return f
}

// object writes a single-version object whose crate is built from crate and
// whose other files are given by name.
func (f *fixture) object(t *testing.T, rel string, crate map[string]any, files map[string]string) *ocfl.Object {
	t.Helper()
	v := fixtures.Version{}
	if crate != nil {
		v["ro-crate-metadata.json"] = fixtures.MustJSON(t, crate)
	}
	for name, content := range files {
		v[name] = content
	}
	return ocfl.NewObject(fixtures.WriteObject(t, f.repo, rel, "arcp://name,"+rel, v))
}

func item(domain, id string, root map[string]any, extra ...map[string]any) map[string]any {
	base := map[string]any{"name": "An item", "additionalType": "item"}
	for k, val := range root {
		base[k] = val
	}
	return fixtures.IdentifiedCrate(domain, id, base, extra...)
}

func TestProcess_IndexesDocumentAndSegments(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	obj := f.object(t, "item-1", item("example.org", "item-1",
		map[string]any{"hasPart": []any{
			map[string]any{"@id": "talk.lines"},
			map[string]any{"@id": "photo.jpg"},
		}},
		map[string]any{"@id": "talk.lines", "@type": "File", "name": "talk.lines"},
		map[string]any{"@id": "photo.jpg", "@type": "File"},
	), map[string]string{
		"talk.lines": "0 1.5 hello there\n1.5 3 general\n",
		"photo.jpg":  "not a transcription",
	})

	// --- Act ---
	out := f.pipeline.Process(context.Background(), obj)

	// --- Assert ---
	require.NoError(t, out.Err)
	assert.Equal(t, StatusIndexed, out.Status)
	assert.Equal(t, "example.org", out.Domain)
	assert.Equal(t, "v1", out.Version)
	assert.Equal(t, 2, out.Segments)

	hashID := fixtures.HashID("example.org", "item-1")
	assert.Equal(t, hashID, out.HashID)
	doc, ok := f.store.Document("example.org", hashID)
	require.True(t, ok)
	assert.Equal(t, MetaTypeDocument, doc[document.MetaTypeKey])
	assert.Equal(t, true, doc["hasContent"])
	assert.Equal(t, "An item", doc["name"])
	assert.NotContains(t, doc, "@context")

	segID := "/example.org/item-1?ocfl_version=v1-talk.lines-1.5"
	seg, ok := f.store.Document("example.org", segID)
	require.True(t, ok, "documents: %v", f.store.IDs("example.org"))
	assert.Equal(t, map[string]any{
		"text":               "general",
		"timeBegin":          1.5,
		"timeEnd":            float64(3),
		"resource":           "/example.org/item-1",
		"ocflVersion":        "v1",
		"file":               "talk.lines",
		document.MetaTypeKey: transcription.MetaTypeSegment,
	}, seg)
	assert.Equal(t, 3, f.store.Count())

	_, ok = f.store.Mapping("example.org")
	assert.True(t, ok, "index created with the default mapping")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Packages.WithLabelValues("indexed", "")))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.Segments))
}

func TestProcess_InvalidPackageIsNotIndexed(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	crate := item("example.org", "item-2", nil)
	graph := crate["@graph"].([]any)
	delete(graph[1].(map[string]any), "name")
	obj := f.object(t, "item-2", crate, nil)

	// --- Act ---
	out := f.pipeline.Process(context.Background(), obj)

	// --- Assert ---
	assert.Equal(t, StatusInvalid, out.Status)
	assert.True(t, errors.Is(out.Err, ErrInvalid))
	assert.Equal(t, failure.Validation, out.Class())
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, "example.org/schema.json", out.Errors[0].Schema)
	assert.Empty(t, f.store.Indices())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Packages.WithLabelValues("invalid", "validation")))
}

func TestProcess_Failures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		crate     map[string]any
		reject    string
		wantClass failure.Class
		wantErr   string
	}{
		{
			name:      "object without a crate",
			wantClass: failure.Structural,
			wantErr:   "has no crate file",
		},
		{
			name: "crate without an id identifier",
			crate: fixtures.Crate(
				map[string]any{"@id": "./", "@type": "Dataset", "name": "x", "identifier": map[string]any{"@id": "#domain"}},
				map[string]any{"@id": "#domain", "@type": "PropertyValue", "name": "domain", "value": "example.org"},
			),
			wantClass: failure.Structural,
			wantErr:   `"id"`,
		},
		{
			name: "two root datasets",
			crate: fixtures.Crate(
				map[string]any{"@id": "./", "@type": "Dataset"},
				map[string]any{"@id": "#other", "@type": "Dataset"},
			),
			wantClass: failure.Structural,
		},
		{
			name:      "rejected by the search engine",
			crate:     item("example.org", "item-3", nil),
			reject:    "example.org",
			wantClass: failure.Sink,
			wantErr:   "mapper_parsing_exception",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			f := newFixture(t)
			files := map[string]string{}
			if tc.crate == nil {
				files["readme.txt"] = "no crate here"
			}
			obj := f.object(t, "obj", tc.crate, files)
			if tc.reject != "" {
				f.store.Reject(tc.reject, "rejected")
			}

			// --- Act ---
			out := f.pipeline.Process(context.Background(), obj)

			// --- Assert ---
			require.Error(t, out.Err)
			assert.Equal(t, StatusFailed, out.Status)
			assert.Equal(t, tc.wantClass, out.Class(), "error: %v", out.Err)
			if tc.wantErr != "" {
				assert.Contains(t, out.Err.Error(), tc.wantErr)
			}
		})
	}
}

func TestProcess_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	obj := f.object(t, "item-4", item("broken.org", "item-4", nil), nil)

	var out Outcome
	require.NotPanics(t, func() { out = f.pipeline.Process(context.Background(), obj) })

	assert.Equal(t, StatusFailed, out.Status)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "boom")
	assert.Empty(t, f.store.Indices())
}

func TestProcess_UnreadableTranscriptionIsSkipped(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	obj := f.object(t, "item-5", item("example.org", "item-5",
		map[string]any{"hasPart": []any{
			map[string]any{"@id": "broken.lines"},
			map[string]any{"@id": "missing.lines"},
		}},
		map[string]any{"@id": "broken.lines", "@type": "File"},
	), map[string]string{"broken.lines": "garbage"})

	// --- Act ---
	out := f.pipeline.Process(context.Background(), obj)

	// --- Assert ---
	require.NoError(t, out.Err)
	assert.Equal(t, StatusIndexed, out.Status)
	assert.Zero(t, out.Segments)
	assert.Equal(t, 1, f.store.Count())
}

func TestProcess_TranscriptionsFollowDeclaredEncoding(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	obj := f.object(t, "item-7", item("example.org", "item-7",
		map[string]any{"hasPart": []any{
			map[string]any{"@id": "declared.lines"},
			map[string]any{"@id": "plain.lines"},
			map[string]any{"@id": "audio.lines"},
		}},
		map[string]any{"@id": "declared.lines", "@type": "File", "encodingFormat": "application/xml"},
		map[string]any{"@id": "plain.lines", "@type": "File"},
		map[string]any{"@id": "audio.lines", "@type": "File", "encodingFormat": "audio/x-wav"},
	), map[string]string{
		"declared.lines": "0 1 declared\n",
		"plain.lines":    "0 1 plain\n",
		"audio.lines":    "0 1 audio\n",
	})

	// --- Act ---
	out := f.pipeline.Process(context.Background(), obj)

	// --- Assert ---
	require.NoError(t, out.Err)
	assert.Equal(t, 2, out.Segments)
	_, ok := f.store.Document("example.org", "/example.org/item-7?ocfl_version=v1-audio.lines-0")
	assert.False(t, ok, "non-XML encodingFormat is not a transcription")
	_, ok = f.store.Document("example.org", "/example.org/item-7?ocfl_version=v1-declared.lines-0")
	assert.True(t, ok)
}

func TestCheck_ReportsValidationWithoutIndexing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	obj := f.object(t, "item-6", item("bad domain.org", "item-6", nil), nil)

	checked, err := f.pipeline.Check(context.Background(), obj)

	require.NoError(t, err)
	assert.False(t, checked.Result.Valid)
	assert.Equal(t, "bad domain.org", checked.Result.Domain)
	require.NotEmpty(t, checked.Result.Errors)
	assert.Equal(t, validate.KindForbiddenCharacter, checked.Result.Errors[0].Kind)
	assert.Equal(t, " ", checked.Result.Errors[0].Char)
	assert.Empty(t, f.store.Indices())
}
