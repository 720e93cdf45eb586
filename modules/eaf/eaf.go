// Package eaf reads ELAN annotation files. Every time-aligned annotation of
// a top-level tier becomes one segment whose text is the annotation value
// followed by the values of its dependent annotations.
package eaf

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/internal/transcription"
)

// Extension is the file extension handled by this module.
const Extension = "eaf"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the EAF format with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTranscription(Format())
}

// Format returns the EAF transcription format.
func Format() transcription.Format {
	return transcription.NewFormat(Extension, Parse, Flatten)
}

// Result is the parsed form of an EAF file: annotations grouped by the time
// slot pair they are aligned to, in time order.
type Result struct {
	Timeslots []Timeslot
}

// Timeslot groups the top-level annotations aligned to one time range.
type Timeslot struct {
	Begin, End  float64
	Annotations []Annotation
}

// Annotation is an annotation and the annotations depending on it.
type Annotation struct {
	ID       string
	Tier     string
	Value    string
	Begin    float64
	End      float64
	Children []Annotation
}

type document struct {
	TimeSlots []timeSlot `xml:"TIME_ORDER>TIME_SLOT"`
	Tiers     []tier     `xml:"TIER"`
}

type timeSlot struct {
	ID    string `xml:"TIME_SLOT_ID,attr"`
	Value string `xml:"TIME_VALUE,attr"`
}

type tier struct {
	ID          string    `xml:"TIER_ID,attr"`
	Parent      string    `xml:"PARENT_REF,attr"`
	Annotations []wrapper `xml:"ANNOTATION"`
}

type wrapper struct {
	Alignable *alignable `xml:"ALIGNABLE_ANNOTATION"`
	Ref       *reference `xml:"REF_ANNOTATION"`
}

type alignable struct {
	ID    string `xml:"ANNOTATION_ID,attr"`
	Slot1 string `xml:"TIME_SLOT_REF1,attr"`
	Slot2 string `xml:"TIME_SLOT_REF2,attr"`
	Value string `xml:"ANNOTATION_VALUE"`
}

type reference struct {
	ID    string `xml:"ANNOTATION_ID,attr"`
	Ref   string `xml:"ANNOTATION_REF,attr"`
	Value string `xml:"ANNOTATION_VALUE"`
}

// Parse decodes an EAF document. TIME_VALUE milliseconds become seconds.
func Parse(r io.Reader) (Result, error) {
	var doc document
	if err := transcription.NewXMLDecoder(r).Decode(&doc); err != nil {
		return Result{}, err
	}

	slots := make(map[string]float64, len(doc.TimeSlots))
	for _, ts := range doc.TimeSlots {
		if ts.Value == "" {
			continue
		}
		ms, err := strconv.ParseFloat(ts.Value, 64)
		if err != nil {
			return Result{}, fmt.Errorf("time slot %s: %w", ts.ID, err)
		}
		slots[ts.ID] = ms / 1000
	}

	// aligned annotations per tier, and reference annotations per target id
	aligned := make(map[string][]Annotation)
	refs := make(map[string][]Annotation)
	childTiers := make(map[string][]string)
	var topTiers []string
	for _, t := range doc.Tiers {
		if t.Parent == "" {
			topTiers = append(topTiers, t.ID)
		} else {
			childTiers[t.Parent] = append(childTiers[t.Parent], t.ID)
		}
		for _, w := range t.Annotations {
			switch {
			case w.Alignable != nil:
				a := w.Alignable
				begin, ok1 := slots[a.Slot1]
				end, ok2 := slots[a.Slot2]
				if !ok1 || !ok2 {
					continue
				}
				aligned[t.ID] = append(aligned[t.ID], Annotation{ID: a.ID, Tier: t.ID, Value: a.Value, Begin: begin, End: end})
			case w.Ref != nil:
				refs[w.Ref.Ref] = append(refs[w.Ref.Ref], Annotation{ID: w.Ref.ID, Tier: t.ID, Value: w.Ref.Value})
			}
		}
	}

	// tiers and ids count the ancestors of the annotation being expanded.
	// A child whose tier or id is already among them would recurse forever.
	tiers := make(map[string]int)
	ids := make(map[string]int)
	var children func(a Annotation) []Annotation
	children = func(a Annotation) []Annotation {
		tiers[a.Tier]++
		ids[a.ID]++
		defer func() {
			tiers[a.Tier]--
			ids[a.ID]--
		}()

		var out []Annotation
		for _, c := range refs[a.ID] {
			if ids[c.ID] > 0 {
				continue
			}
			c.Begin, c.End = a.Begin, a.End
			c.Children = children(c)
			out = append(out, c)
		}
		for _, ct := range childTiers[a.Tier] {
			if tiers[ct] > 0 {
				continue
			}
			for _, c := range aligned[ct] {
				if ids[c.ID] > 0 {
					continue
				}
				if c.Begin >= a.Begin && c.End <= a.End {
					c.Children = children(c)
					out = append(out, c)
				}
			}
		}
		return out
	}

	type span struct{ begin, end float64 }
	bySpan := make(map[span]int)
	var res Result
	for _, tid := range topTiers {
		for _, a := range aligned[tid] {
			a.Children = children(a)
			k := span{a.Begin, a.End}
			i, ok := bySpan[k]
			if !ok {
				i = len(res.Timeslots)
				bySpan[k] = i
				res.Timeslots = append(res.Timeslots, Timeslot{Begin: a.Begin, End: a.End})
			}
			res.Timeslots[i].Annotations = append(res.Timeslots[i].Annotations, a)
		}
	}
	sort.SliceStable(res.Timeslots, func(i, j int) bool {
		if res.Timeslots[i].Begin != res.Timeslots[j].Begin {
			return res.Timeslots[i].Begin < res.Timeslots[j].Begin
		}
		return res.Timeslots[i].End < res.Timeslots[j].End
	})
	return res, nil
}

// Flatten emits one segment per top-level annotation.
func Flatten(res Result) []transcription.Segment {
	var out []transcription.Segment
	for _, ts := range res.Timeslots {
		for _, a := range ts.Annotations {
			parts := []string{a.Value}
			parts = appendValues(parts, a.Children)
			out = append(out, transcription.Segment{
				Text:      transcription.JoinText(parts...),
				TimeBegin: a.Begin,
				TimeEnd:   a.End,
			})
		}
	}
	return out
}

func appendValues(parts []string, as []Annotation) []string {
	for _, a := range as {
		parts = append(parts, a.Value)
		parts = appendValues(parts, a.Children)
	}
	return parts
}
