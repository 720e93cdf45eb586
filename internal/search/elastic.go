package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	json "github.com/goccy/go-json"
)

// ElasticConfig holds the connection settings of the search engine.
type ElasticConfig struct {
	Host     string
	Username string
	Password string
	// Transport replaces the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// Elastic is a Sink backed by Elasticsearch.
type Elastic struct {
	es *elasticsearch.Client
}

var _ Sink = (*Elastic)(nil)

// NewElastic builds a client for cfg. No request is made.
func NewElastic(cfg ElasticConfig) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Host},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	return &Elastic{es: es}, nil
}

// IndexExists implements Sink.
func (e *Elastic) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := e.es.Indices.Exists([]string{index}, e.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, &Error{Op: "exists", Index: index, Reason: err.Error()}
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError("exists", index, res)
	}
}

// CreateIndex implements Sink.
func (e *Elastic) CreateIndex(ctx context.Context, index string) error {
	res, err := e.es.Indices.Create(index, e.es.Indices.Create.WithContext(ctx))
	return check("create", index, res, err)
}

// PutMapping implements Sink.
func (e *Elastic) PutMapping(ctx context.Context, index string, mapping map[string]any) error {
	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode mapping for '%s': %w", index, err)
	}
	res, err := e.es.Indices.PutMapping([]string{index}, bytes.NewReader(body), e.es.Indices.PutMapping.WithContext(ctx))
	return check("put_mapping", index, res, err)
}

// Index implements Sink.
func (e *Elastic) Index(ctx context.Context, index, id string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode document '%s': %w", id, err)
	}
	res, err := e.es.Index(index, bytes.NewReader(raw),
		e.es.Index.WithDocumentID(id),
		e.es.Index.WithContext(ctx),
	)
	return check("index", index, res, err)
}

// Bulk implements Sink. The request asks for a refresh so that the documents
// are searchable when it returns.
func (e *Elastic) Bulk(ctx context.Context, index string, docs []BulkDoc) error {
	if len(docs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		action := map[string]any{"index": map[string]any{"_index": index, "_id": d.ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("failed to encode bulk action for '%s': %w", d.ID, err)
		}
		if err := enc.Encode(d.Body); err != nil {
			return fmt.Errorf("failed to encode bulk document '%s': %w", d.ID, err)
		}
	}
	res, err := e.es.Bulk(&buf,
		e.es.Bulk.WithRefresh("true"),
		e.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return &Error{Op: "bulk", Index: index, Reason: err.Error()}
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("bulk", index, res)
	}
	return bulkItemError(index, res.Body)
}

func check(op, index string, res *esapi.Response, err error) error {
	if err != nil {
		return &Error{Op: op, Index: index, Reason: err.Error()}
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(op, index, res)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func responseError(op, index string, res *esapi.Response) error {
	se := &Error{Op: op, Index: index, Status: res.StatusCode}
	raw, _ := io.ReadAll(res.Body)
	var body errorBody
	if json.Unmarshal(raw, &body) == nil && body.Error.Type != "" {
		se.Type, se.Reason = body.Error.Type, body.Error.Reason
	} else {
		se.Reason = http.StatusText(res.StatusCode)
	}
	return se
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// bulkItemError returns the first failed item of a bulk response.
func bulkItemError(index string, r io.Reader) error {
	var body bulkResponse
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return &Error{Op: "bulk", Index: index, Reason: fmt.Sprintf("unreadable response: %v", err)}
	}
	if !body.Errors {
		return nil
	}
	failed := 0
	var first *Error
	for _, item := range body.Items {
		for _, result := range item {
			if result.Error == nil {
				continue
			}
			failed++
			if first == nil {
				first = &Error{
					Op:     "bulk",
					Index:  index,
					Status: result.Status,
					Type:   result.Error.Type,
					Reason: fmt.Sprintf("document '%s': %s", result.ID, result.Error.Reason),
				}
			}
		}
	}
	if first == nil {
		return &Error{Op: "bulk", Index: index, Reason: "response flagged errors without failed items"}
	}
	if failed > 1 {
		first.Reason = fmt.Sprintf("%s (and %d more)", first.Reason, failed-1)
	}
	return first
}
