// Package summary produces the short text shown under the transcript and a
// plain-language reading of the measurements.
package summary

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/maastricht-university/speech-emotion/transcribe"
)

// NoTranscript replaces the summary when nothing was transcribed.
const NoTranscript = "No transcript available"

const (
	shortRunes = 20
	headRunes  = 120
)

// Summarize keeps short texts as they are and cuts longer ones to their first
// 120 characters followed by "...". The cut ignores word boundaries.
func Summarize(text string) string {
	if !transcribe.Usable(text) {
		return NoTranscript
	}
	runes := []rune(text)
	if len(runes) < shortRunes {
		return text
	}
	return string(runes[:min(headRunes, len(runes))]) + "..."
}

// Input is what Narrative needs, in canonical units.
type Input struct {
	Emotions       []string
	PaceWPM        float64
	PitchHz        float64
	SilenceSeconds float64
}

// Narrative describes pace, pitch, pauses and the overall emotional tone.
func Narrative(in Input) string {
	labels := lo.Uniq(lo.Map(in.Emotions, func(e string, _ int) string { return Label(e) }))

	var b strings.Builder
	if len(labels) > 0 {
		fmt.Fprintf(&b, "The speech analysis indicates %s emotions. ", strings.Join(labels, ", "))
	} else {
		b.WriteString("The emotional content of the speech was neutral. ")
	}

	pace := "maintaining a moderate speaking pace"
	flow := "a natural flow"
	switch {
	case in.PaceWPM < 120:
		pace, flow = "speaking at a slower pace", "careful consideration"
	case in.PaceWPM > 180:
		pace, flow = "speaking at a faster pace", "enthusiasm or urgency"
	}

	pitch := "using a moderate pitch"
	switch {
	case in.PitchHz < 100:
		pitch = "using a lower pitch"
	case in.PitchHz > 200:
		pitch = "using a higher pitch"
	}

	pauses := "with natural pauses"
	switch {
	case in.SilenceSeconds > 2:
		pauses = "with noticeable pauses"
	case in.SilenceSeconds < 0.5:
		pauses = "with minimal pauses"
	}

	style := "a balanced"
	switch {
	case lo.Contains(labels, "happy") || lo.Contains(labels, "excited"):
		style = "a positive and engaged"
	case lo.Contains(labels, "sad") || lo.Contains(labels, "angry"):
		style = "a more intense emotional"
	}

	fmt.Fprintf(&b, "The patient is %s, %s, %s. ", pace, pitch, pauses)
	fmt.Fprintf(&b, "This combination suggests %s communication style. ", style)
	fmt.Fprintf(&b, "The speech pattern indicates %s in communication.", flow)
	return b.String()
}

// Label strips the " (xx.x%)" suffix from a formatted emotion.
func Label(emotion string) string {
	if i := strings.Index(emotion, " ("); i >= 0 {
		return emotion[:i]
	}
	return strings.TrimSpace(emotion)
}
