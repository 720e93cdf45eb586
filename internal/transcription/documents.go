package transcription

import (
	"fmt"
	"strconv"

	"github.com/vk/ocfltools/internal/document"
)

// MetaTypeSegment is the document type marker of a segment document.
const MetaTypeSegment = "segment"

// Origin names the file and package version a segment came from.
type Origin struct {
	// Resource is the external id of the package.
	Resource string
	Version  string
	// FileID is the id of the file entry in the crate; FileName its name.
	FileID   string
	FileName string
}

// Document is a segment ready for indexing.
type Document struct {
	ID   string
	Body document.Document
}

// DocumentID returns <resource>?ocfl_version=<version>-<fileID>-<timeBegin>.
func DocumentID(o Origin, timeBegin float64) string {
	return fmt.Sprintf("%s?ocfl_version=%s-%s-%s", o.Resource, o.Version, o.FileID, formatTime(timeBegin))
}

// Documents turns the segments of one file into indexable documents.
func Documents(o Origin, segments []Segment) []Document {
	out := make([]Document, 0, len(segments))
	for _, s := range segments {
		out = append(out, Document{
			ID:   DocumentID(o, s.TimeBegin),
			Body: document.Document{
				"text":               s.Text,
				"timeBegin":          s.TimeBegin,
				"timeEnd":            s.TimeEnd,
				"resource":           o.Resource,
				"ocflVersion":        o.Version,
				"file":               o.FileName,
				document.MetaTypeKey: MetaTypeSegment,
			},
		})
	}
	return out
}

func formatTime(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
