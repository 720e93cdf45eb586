package ixt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/internal/transcription"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<interlinear-text>
  <header><title>Story</title></header>
  <body>
    <phrase id="p1" startTime="0.5" endTime="2.25">
      <transcription>mi go</transcription>
      <wordlist>
        <word>
          <text>mi</text>
          <morphemelist><morpheme><text>mi</text><gloss>1SG</gloss></morpheme></morphemelist>
        </word>
        <word>
          <text>go</text>
          <morphemelist><morpheme><text>go</text></morpheme></morphemelist>
        </word>
      </wordlist>
      <translation>I go</translation>
    </phrase>
    <phrase id="p2">
      <transcription>no time</transcription>
    </phrase>
    <phrase id="p3" startTime="3" endTime="4">
      <transcription>yu</transcription>
    </phrase>
  </body>
</interlinear-text>`

func TestFormat_Segments(t *testing.T) {
	t.Parallel()

	// --- Act ---
	segments, err := Format().Segments(strings.NewReader(sample))

	// --- Assert ---
	require.NoError(t, err)
	want := []transcription.Segment{
		{Text: "mi go I go mi go", TimeBegin: 0.5, TimeEnd: 2.25},
		{Text: "yu", TimeBegin: 3, TimeEnd: 4},
	}
	if diff := cmp.Diff(want, segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_KeepsUntimedPhrases(t *testing.T) {
	t.Parallel()

	res, err := Parse(strings.NewReader(sample))

	require.NoError(t, err)
	require.Len(t, res.Phrases, 3)
	assert.False(t, res.Phrases[1].Timed)
	assert.Equal(t, []string{"mi"}, res.Phrases[0].Words[0].Morphemes)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "truncated", doc: "<interlinear-text><body>", wantErr: "failed to parse ixt file"},
		{
			name:    "bad time",
			doc:     `<interlinear-text><body><phrase id="p1" startTime="soon" endTime="2"/></body></interlinear-text>`,
			wantErr: `phrase p1: bad startTime "soon"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Format().Segments(strings.NewReader(tc.doc))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestModule_RegistersFormat(t *testing.T) {
	t.Parallel()

	r := registry.New()
	(&Module{}).Register(r)

	_, ok := r.Transcriptions().Lookup("story.IXT")
	assert.True(t, ok)
}
