package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maastricht-university/speech-emotion/transcribe"
)

func TestSummarize(t *testing.T) {
	assert.Equal(t, NoTranscript, Summarize(""))
	assert.Equal(t, NoTranscript, Summarize(transcribe.Failed))
	assert.Equal(t, "hi", Summarize("hi"))

	long := strings.Repeat("A", 200)
	got := Summarize(long)
	assert.Len(t, got, 123)
	assert.Equal(t, strings.Repeat("A", 120)+"...", got)
}

func TestSummarizeBoundary(t *testing.T) {
	nineteen := strings.Repeat("b", 19)
	assert.Equal(t, nineteen, Summarize(nineteen))

	twenty := strings.Repeat("b", 20)
	assert.Equal(t, twenty+"...", Summarize(twenty))
}

func TestSummarizeCountsCodePoints(t *testing.T) {
	text := strings.Repeat("é", 150)
	got := Summarize(text)
	assert.Equal(t, 123, len([]rune(got)))
	assert.True(t, strings.HasPrefix(got, strings.Repeat("é", 120)))
}

func TestNarrative(t *testing.T) {
	got := Narrative(Input{
		Emotions:       []string{"happy (62.0%)", "neutral (20.1%)"},
		PaceWPM:        200,
		PitchHz:        150,
		SilenceSeconds: 3,
	})
	assert.Contains(t, got, "indicates happy, neutral emotions")
	assert.Contains(t, got, "speaking at a faster pace")
	assert.Contains(t, got, "using a moderate pitch")
	assert.Contains(t, got, "with noticeable pauses")
	assert.Contains(t, got, "a positive and engaged communication style")
	assert.Contains(t, got, "enthusiasm or urgency")
}

func TestNarrativeDefaults(t *testing.T) {
	got := Narrative(Input{PaceWPM: 150, PitchHz: 50, SilenceSeconds: 0.1})
	assert.Contains(t, got, "was neutral")
	assert.Contains(t, got, "moderate speaking pace")
	assert.Contains(t, got, "lower pitch")
	assert.Contains(t, got, "minimal pauses")
	assert.Contains(t, got, "a balanced communication style")

	sad := Narrative(Input{Emotions: []string{"sad (40.0%)"}, PaceWPM: 90, PitchHz: 250, SilenceSeconds: 1})
	assert.Contains(t, sad, "more intense emotional")
	assert.Contains(t, sad, "careful consideration")
	assert.Contains(t, sad, "higher pitch")
	assert.Contains(t, sad, "natural pauses")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "neutral", Label("neutral (100%)"))
	assert.Equal(t, "calm", Label("calm"))
}
