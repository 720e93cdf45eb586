// Package transcription turns annotation files into time-ranged text
// segments that are indexed as child documents of their package.
//
// Each file extension maps to one Format. A Format pairs a parser, which
// decodes the file into that format's own nested result, with a flattener
// that walks the result into segments.
package transcription

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// Segment is a span of transcribed text. Times are in seconds.
type Segment struct {
	Text      string
	TimeBegin float64
	TimeEnd   float64
}

// Format extracts segments from one kind of annotation file.
type Format interface {
	Extension() string
	Segments(r io.Reader) ([]Segment, error)
}

// Parser decodes a file into the native result of a format.
type Parser[T any] func(r io.Reader) (T, error)

// Flattener walks a native result into segments.
type Flattener[T any] func(result T) []Segment

type format[T any] struct {
	ext     string
	parse   Parser[T]
	flatten Flattener[T]
}

// NewFormat builds a Format from a parser and a flattener.
func NewFormat[T any](ext string, parse Parser[T], flatten Flattener[T]) Format {
	return &format[T]{ext: normalizeExt(ext), parse: parse, flatten: flatten}
}

func (f *format[T]) Extension() string { return f.ext }

func (f *format[T]) Segments(r io.Reader) ([]Segment, error) {
	result, err := f.parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s file: %w", f.ext, err)
	}
	return f.flatten(result), nil
}

// Table maps file extensions to formats.
type Table struct {
	formats map[string]Format
}

// NewTable returns a table of formats. A later format replaces an earlier
// one with the same extension.
func NewTable(formats ...Format) *Table {
	t := &Table{formats: make(map[string]Format, len(formats))}
	for _, f := range formats {
		t.formats[f.Extension()] = f
	}
	return t
}

// Lookup returns the format for the extension of file.
func (t *Table) Lookup(file string) (Format, bool) {
	if t == nil {
		return nil, false
	}
	f, ok := t.formats[normalizeExt(path.Ext(file))]
	return f, ok
}

// Extensions returns the known extensions in sorted order.
func (t *Table) Extensions() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.formats))
	for ext := range t.formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract returns the segments of file. An unknown extension yields no
// segments and no error.
func (t *Table) Extract(file string, r io.Reader) ([]Segment, error) {
	f, ok := t.Lookup(file)
	if !ok {
		return nil, nil
	}
	return f.Segments(r)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// JoinText joins the non-empty parts with single spaces.
func JoinText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
