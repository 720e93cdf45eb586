// Package ixt reads interlinear text (.ixt) files. Every timed phrase
// becomes one segment holding its transcription, its translation and the
// text of its morphemes, in that order.
package ixt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/internal/transcription"
)

// Extension is the file extension handled by this module.
const Extension = "ixt"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the ixt format with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTranscription(Format())
}

// Format returns the ixt transcription format.
func Format() transcription.Format {
	return transcription.NewFormat(Extension, Parse, Flatten)
}

// Result holds the phrases of an interlinear text in document order.
type Result struct {
	Phrases []Phrase
}

// Phrase is one interlinear phrase. Untimed phrases have Timed false.
type Phrase struct {
	ID            string
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

type phrase struct {
	ID            string `xml:"id,attr"`
	Start         string `xml:"startTime,attr"`
	End           string `xml:"endTime,attr"`
	Transcription string `xml:"transcription"`
	Translation   string `xml:"translation"`
	Words         []struct {
		Text      string   `xml:"text"`
		Morphemes []string `xml:"morphemelist>morpheme>text"`
	} `xml:"wordlist>word"`
}

type doc struct {
	Body    []phrase `xml:"body>phrase"`
	Phrases []phrase `xml:"phrases>phrase"`
}

// Parse decodes an ixt document. Phrase times are seconds.
func Parse(r io.Reader) (Result, error) {
	var d doc
	if err := transcription.NewXMLDecoder(r).Decode(&d); err != nil {
		return Result{}, err
	}

	var res Result
	for _, p := range append(d.Body, d.Phrases...) {
		ph := Phrase{
			ID:            p.ID,
			Transcription: strings.TrimSpace(p.Transcription),
			Translation:   strings.TrimSpace(p.Translation),
		}
		if p.Start != "" && p.End != "" {
			begin, err := strconv.ParseFloat(p.Start, 64)
			if err != nil {
				return Result{}, fmt.Errorf("phrase %s: bad startTime %q: %w", p.ID, p.Start, err)
			}
			end, err := strconv.ParseFloat(p.End, 64)
			if err != nil {
				return Result{}, fmt.Errorf("phrase %s: bad endTime %q: %w", p.ID, p.End, err)
			}
			ph.Begin, ph.End, ph.Timed = begin, end, true
		}
		for _, w := range p.Words {
			word := Word{Text: strings.TrimSpace(w.Text)}
			for _, m := range w.Morphemes {
				if m = strings.TrimSpace(m); m != "" {
					word.Morphemes = append(word.Morphemes, m)
				}
			}
			ph.Words = append(ph.Words, word)
		}
		res.Phrases = append(res.Phrases, ph)
	}
	return res, nil
}

// Flatten emits one segment per timed phrase.
func Flatten(res Result) []transcription.Segment {
	var out []transcription.Segment
	for _, ph := range res.Phrases {
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
	return out
}
