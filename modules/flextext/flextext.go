// Package flextext reads FLEx interlinear text exports. Every timed phrase
// becomes one segment holding its transcription, its free translation and
// the text of its morphemes.
package flextext

import (
	"fmt"
	"io"
	"strconv"

	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/internal/transcription"
)

// Extension is the file extension handled by this module.
const Extension = "flextext"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the flextext format with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTranscription(Format())
}

// Format returns the flextext transcription format.
func Format() transcription.Format {
	return transcription.NewFormat(Extension, Parse, Flatten)
}

// Result is the paragraph and phrase tree of an interlinear text.
type Result struct {
	Paragraphs []Paragraph
}

type Paragraph struct {
	Phrases []Phrase
}

// Phrase is one interlinearized phrase. Untimed phrases have Timed false.
type Phrase struct {
	Transcription string
	Translation   string
	Words         []Word
	Begin, End    float64
	Timed         bool
}

type Word struct {
	Text      string
	Morphemes []string
}

type item struct {
	Type  string `xml:"type,attr"`
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

type doc struct {
	Paragraphs []struct {
		Phrases []struct {
			Begin string `xml:"begin-time-offset,attr"`
			End   string `xml:"end-time-offset,attr"`
			Items []item `xml:"item"`
			Words []struct {
				Items  []item `xml:"item"`
				Morphs []struct {
					Items []item `xml:"item"`
				} `xml:"morphemes>morph"`
			} `xml:"words>word"`
		} `xml:"phrases>phrase"`
	} `xml:"interlinear-text>paragraphs>paragraph"`
}

// Parse decodes a flextext document. Time offsets are milliseconds.
func Parse(r io.Reader) (Result, error) {
	var d doc
	if err := transcription.NewXMLDecoder(r).Decode(&d); err != nil {
		return Result{}, err
	}
	var res Result
	for _, p := range d.Paragraphs {
		var para Paragraph
		for _, ph := range p.Phrases {
			phrase := Phrase{
				Transcription: itemText(ph.Items, "txt"),
				Translation:   itemText(ph.Items, "gls"),
			}
			if ph.Begin != "" && ph.End != "" {
				begin, err := strconv.ParseFloat(ph.Begin, 64)
				if err != nil {
					return Result{}, fmt.Errorf("bad begin-time-offset %q: %w", ph.Begin, err)
				}
				end, err := strconv.ParseFloat(ph.End, 64)
				if err != nil {
					return Result{}, fmt.Errorf("bad end-time-offset %q: %w", ph.End, err)
				}
				phrase.Begin, phrase.End, phrase.Timed = begin/1000, end/1000, true
			}
			for _, w := range ph.Words {
				word := Word{Text: itemText(w.Items, "txt")}
				for _, m := range w.Morphs {
					if t := itemText(m.Items, "txt"); t != "" {
						word.Morphemes = append(word.Morphemes, t)
					}
				}
				phrase.Words = append(phrase.Words, word)
			}
			para.Phrases = append(para.Phrases, phrase)
		}
		res.Paragraphs = append(res.Paragraphs, para)
	}
	return res, nil
}

func itemText(items []item, kind string) string {
	for _, it := range items {
		if it.Type == kind {
			return it.Value
		}
	}
	return ""
}

// Flatten emits one segment per timed phrase.
func Flatten(res Result) []transcription.Segment {
	var out []transcription.Segment
	for _, p := range res.Paragraphs {
		for _, ph := range p.Phrases {
			if !ph.Timed {
				continue
			}
			parts := []string{ph.Transcription, ph.Translation}
			for _, w := range ph.Words {
				parts = append(parts, w.Morphemes...)
			}
			out = append(out, transcription.Segment{
				Text:      transcription.JoinText(parts...),
				TimeBegin: ph.Begin,
				TimeEnd:   ph.End,
			})
		}
	}
	return out
}
