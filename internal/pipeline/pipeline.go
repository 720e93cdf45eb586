package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/vk/ocfltools/internal/crate"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/document"
	"github.com/vk/ocfltools/internal/failure"
	"github.com/vk/ocfltools/internal/graph"
	"github.com/vk/ocfltools/internal/metrics"
	"github.com/vk/ocfltools/internal/ocfl"
	"github.com/vk/ocfltools/internal/search"
	"github.com/vk/ocfltools/internal/transcription"
	"github.com/vk/ocfltools/internal/transform"
	"github.com/vk/ocfltools/internal/validate"
)

// MetaTypeDocument is the type marker of an indexed package document.
const MetaTypeDocument = "document"

// ErrInvalid marks a package that failed validation and was not indexed.
var ErrInvalid = errors.New("package failed validation")

// Expander turns a crate document into a flat graph.
type Expander interface {
	Expand(ctx context.Context, crate map[string]any) (*graph.Graph, error)
}

// Resolver turns a graph into a resolved, compacted document.
type Resolver interface {
	Resolve(ctx context.Context, g *graph.Graph) (document.Document, error)
}

// Validator runs the schemas of a resolved document.
type Validator interface {
	Validate(ctx context.Context, doc document.Document) (validate.Result, error)
}

// Catalog provides the per-domain capabilities. *registry.Catalog
// implements it.
type Catalog interface {
	Pipeline(domain string) *transform.Pipeline
	Mapping(domain string) map[string]any
	Transcriptions() *transcription.Table
}

// Deps are the collaborators of a Pipeline. Metrics may be nil.
type Deps struct {
	Expander  Expander
	Resolver  Resolver
	Validator Validator
	Catalog   Catalog
	Sink      search.Sink
	Metrics   *metrics.Metrics
}

// Pipeline processes packages. It is safe for concurrent use.
type Pipeline struct {
	expander  Expander
	resolver  Resolver
	validator Validator
	catalog   Catalog
	sink      search.Sink
	ensurer   *search.Ensurer
	metrics   *metrics.Metrics
}

// New returns a Pipeline over deps. Indices are ensured at most once per
// Pipeline.
func New(deps Deps) *Pipeline {
	return &Pipeline{
		expander:  deps.Expander,
		resolver:  deps.Resolver,
		validator: deps.Validator,
		catalog:   deps.Catalog,
		sink:      deps.Sink,
		ensurer:   search.NewEnsurer(deps.Sink),
		metrics:   deps.Metrics,
	}
}

// Checked is a loaded, resolved and validated package.
type Checked struct {
	Crate    *crate.Crate
	Document document.Document
	Result   validate.Result
}

// Check loads the head version of obj, resolves its crate and validates the
// result. An invalid document is not an error; see Checked.Result.
func (p *Pipeline) Check(ctx context.Context, obj *ocfl.Object) (*Checked, error) {
	logger := ctxlog.FromContext(ctx)

	start := time.Now()
	if obj.Inventory() == nil {
		if err := obj.Load(); err != nil {
			return nil, err
		}
	}
	c, err := crate.Load(obj)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveStage("load", start)
	logger.Debug("Crate loaded.", "version", c.Version, "file", c.File)

	start = time.Now()
	g, err := p.expander.Expand(ctx, c.Doc)
	if err != nil {
		return nil, classify(failure.Structural, "expand crate", err)
	}
	doc, err := p.resolver.Resolve(ctx, g)
	if err != nil {
		return nil, classify(failure.Structural, "resolve crate", err)
	}
	p.metrics.ObserveStage("resolve", start)

	start = time.Now()
	res, err := p.validator.Validate(ctx, doc)
	if err != nil {
		return nil, classify(failure.Validation, "validate", err)
	}
	p.metrics.ObserveStage("validate", start)

	return &Checked{Crate: c, Document: doc, Result: res}, nil
}

// Process indexes one package. It never panics and never returns an error;
// the outcome says what happened.
func (p *Pipeline) Process(ctx context.Context, obj *ocfl.Object) (out Outcome) {
	out.Object = obj.Root()
	ctx = ctxlog.With(ctx, "object", obj.Root())

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic while processing package: %v", r)
		}
		out.Status = statusOf(out.Err)
		p.report(ctx, out)
	}()

	out.Err = p.process(ctx, obj, &out)
	return out
}

func (p *Pipeline) process(ctx context.Context, obj *ocfl.Object, out *Outcome) error {
	checked, err := p.Check(ctx, obj)
	if err != nil {
		return err
	}
	out.Version = checked.Crate.Version
	out.Domain = checked.Result.Domain
	if !checked.Result.Valid {
		out.Errors = checked.Result.Errors
		return failure.Wrap(failure.Validation, "validate", ErrInvalid)
	}

	di, err := document.Identify(checked.Document)
	if err != nil {
		return err
	}
	out.Domain, out.ID, out.HashID = di.Domain, di.ID, di.HashID
	ctx = ctxlog.With(ctx, "domain", di.Domain, "id", di.ID)

	start := time.Now()
	doc, err := p.catalog.Pipeline(di.Domain).Run(ctx, checked.Document)
	if err != nil {
		return err
	}
	p.metrics.ObserveStage("transform", start)

	start = time.Now()
	index := di.Index()
	if err := p.ensurer.Ensure(ctx, index, p.catalog.Mapping(di.Domain)); err != nil {
		return classify(failure.Sink, "ensure index", err)
	}
	doc[document.MetaTypeKey] = MetaTypeDocument
	if err := p.sink.Index(ctx, index, di.HashID, doc); err != nil {
		return classify(failure.Sink, "index document", err)
	}
	p.metrics.ObserveStage("index", start)

	n, err := p.segments(ctx, obj, checked, di)
	out.Segments = n
	return err
}

// segments indexes the transcriptions among the hasPart entries of the
// package. Entries declaring a non-XML encodingFormat are not considered.
// Files that are missing or do not parse are skipped with a warning; a
// rejected bulk request fails the package.
func (p *Pipeline) segments(ctx context.Context, obj *ocfl.Object, checked *Checked, di document.DomainIdentifier) (int, error) {
	logger := ctxlog.FromContext(ctx)
	table := p.catalog.Transcriptions()
	total := 0

	for _, part := range checked.Document.Entries("hasPart") {
		m, ok := document.AsMap(part)
		if !ok {
			continue
		}
		fileID, _ := document.FirstString(m["id"])
		name, _ := document.FirstString(m["name"])
		ref := fileID
		if ref == "" {
			ref = name
		}
		if _, ok := table.Lookup(ref); !ok || declaresNonXML(m) {
			continue
		}
		if name == "" {
			name = path.Base(ref)
		}
		if fileID == "" {
			fileID = name
		}

		logical, entry, ok := checked.Crate.State.Find(ref)
		if !ok {
			logger.Warn("Transcription is not part of the object, skipped.", "file", ref)
			continue
		}

		file, err := obj.ResolveFilePath(entry.Path)
		if err != nil {
			logger.Warn("Transcription is outside the object, skipped.", "file", logical, "error", err)
			continue
		}
		start := time.Now()
		segs, err := extract(table, logical, file)
		if err != nil {
			logger.Warn("Transcription could not be read, skipped.", "file", logical, "error", err)
			continue
		}
		docs := transcription.Documents(transcription.Origin{
			Resource: di.ID,
			Version:  checked.Crate.Version,
			FileID:   fileID,
			FileName: name,
		}, segs)
		if len(docs) == 0 {
			continue
		}

		bulk := make([]search.BulkDoc, len(docs))
		for i, d := range docs {
			bulk[i] = search.BulkDoc{ID: d.ID, Body: d.Body}
		}
		if err := p.sink.Bulk(ctx, di.Index(), bulk); err != nil {
			return total, classify(failure.Sink, "index segments", fmt.Errorf("%s: %w", logical, err))
		}
		total += len(docs)
		p.metrics.AddSegments(len(docs))
		p.metrics.ObserveStage("segments", start)
		logger.Debug("Transcription indexed.", "file", logical, "segments", len(docs))
	}
	return total, nil
}

// declaresNonXML reports whether a File entry names an encodingFormat that is
// not an XML media type. Entries without one are judged by extension alone.
func declaresNonXML(m map[string]any) bool {
	f, _ := document.FirstString(m["encodingFormat"])
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "" {
		return false
	}
	return f != "application/xml" && f != "text/xml" && !strings.HasSuffix(f, "+xml")
}

func extract(table *transcription.Table, logical, file string) ([]transcription.Segment, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return table.Extract(logical, f)
}

// classify wraps err with class unless it already carries one.
func classify(class failure.Class, op string, err error) error {
	if failure.ClassOf(err) != failure.Unclassified {
		return err
	}
	return failure.Wrap(class, op, err)
}
