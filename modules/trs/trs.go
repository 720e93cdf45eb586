// Package trs reads Transcriber files. Every speaker turn becomes one
// segment.
package trs

import (
	"fmt"
	"io"
	"strconv"

	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/internal/transcription"
)

// Extension is the file extension handled by this module.
const Extension = "trs"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the Transcriber format with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTranscription(Format())
}

// Format returns the Transcriber transcription format.
func Format() transcription.Format {
	return transcription.NewFormat(Extension, Parse, Flatten)
}

// Result is the episode, section and turn tree of a Transcriber file.
type Result struct {
	Episodes []Episode
}

type Episode struct {
	Sections []Section
}

type Section struct {
	Type  string
	Turns []Turn
}

type Turn struct {
	Speaker    string
	Text       string
	Begin, End float64
}

type trans struct {
	Episodes []struct {
		Sections []struct {
			Type  string `xml:"type,attr"`
			Turns []struct {
				Speaker   string `xml:"speaker,attr"`
				StartTime string `xml:"startTime,attr"`
				EndTime   string `xml:"endTime,attr"`
				Text      string `xml:",chardata"`
			} `xml:"Turn"`
		} `xml:"Section"`
	} `xml:"Episode"`
}

// Parse decodes a Transcriber document. Times are already in seconds.
func Parse(r io.Reader) (Result, error) {
	var doc trans
	if err := transcription.NewXMLDecoder(r).Decode(&doc); err != nil {
		return Result{}, err
	}
	var res Result
	for _, e := range doc.Episodes {
		var ep Episode
		for _, s := range e.Sections {
			sec := Section{Type: s.Type}
			for _, t := range s.Turns {
				begin, err := parseTime(t.StartTime)
				if err != nil {
					return Result{}, err
				}
				end, err := parseTime(t.EndTime)
				if err != nil {
					return Result{}, err
				}
				sec.Turns = append(sec.Turns, Turn{
					Speaker: t.Speaker,
					Text:    transcription.JoinText(t.Text),
					Begin:   begin,
					End:     end,
				})
			}
			ep.Sections = append(ep.Sections, sec)
		}
		res.Episodes = append(res.Episodes, ep)
	}
	return res, nil
}

func parseTime(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad turn time %q: %w", s, err)
	}
	return v, nil
}

// Flatten emits one segment per turn, episodes first, then sections.
func Flatten(res Result) []transcription.Segment {
	var out []transcription.Segment
	for _, e := range res.Episodes {
		for _, s := range e.Sections {
			for _, t := range s.Turns {
				out = append(out, transcription.Segment{Text: t.Text, TimeBegin: t.Begin, TimeEnd: t.End})
			}
		}
	}
	return out
}
