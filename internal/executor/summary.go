package executor

import (
	"github.com/vk/ocfltools/internal/pipeline"
)

// Summary counts the outcomes of a run.
type Summary struct {
	Packages int
	Indexed  int
	Invalid  int
	Failed   int
	Segments int
}

// Add counts one outcome.
func (s *Summary) Add(o pipeline.Outcome) {
	s.Packages++
	s.Segments += o.Segments
	switch o.Status {
	case pipeline.StatusIndexed:
		s.Indexed++
	case pipeline.StatusInvalid:
		s.Invalid++
	default:
		s.Failed++
	}
}

// Merge adds the counts of other.
func (s *Summary) Merge(other Summary) {
	s.Packages += other.Packages
	s.Indexed += other.Indexed
	s.Invalid += other.Invalid
	s.Failed += other.Failed
	s.Segments += other.Segments
}
