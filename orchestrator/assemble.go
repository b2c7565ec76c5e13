package orchestrator

import (
	"fmt"
	"math"
	"time"

	"github.com/maastricht-university/speech-emotion/emotion"
	"github.com/maastricht-university/speech-emotion/features"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
	"github.com/maastricht-university/speech-emotion/summary"
	"github.com/maastricht-university/speech-emotion/transcribe"
)

// Stage names used as keys of AnalysisResult.Degraded.
const (
	StageAudio         = "audio"
	StageTranscription = "transcription"
	StageEmotion       = "emotion"
)

// Parts are the stage outputs combined into one AnalysisResult.
type Parts struct {
	Patient    Patient
	Transcript transcribe.Result
	Emotions   emotion.Result
	Features   features.Set
	// Duration of the clip the features were measured on, in seconds.
	Duration float64
	// AudioDegraded and AudioReason come from the decoded clip.
	AudioDegraded bool
	AudioReason   string
	GeneratedAt   time.Time
}

// Assemble builds the result document. It fails only when the parts violate
// the result's invariants.
func Assemble(p Parts) (AnalysisResult, error) {
	if len(p.Emotions.Emotions) == 0 {
		return AnalysisResult{}, pipelineerr.Wrap(pipelineerr.ErrValidation, "assemble", "emotions", "emotion list is empty", nil)
	}
	for name, v := range map[string]float64{"pitch": p.Features.Pitch, "pace": p.Features.Pace, "silence": p.Features.Silence} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return AnalysisResult{}, pipelineerr.Wrap(pipelineerr.ErrValidation, "assemble", name, fmt.Sprintf("invalid value %v", v), nil)
		}
	}

	patient := p.Patient.withDefaults()
	text := p.Transcript.Text
	if text == "" && p.Transcript.Status.Degraded() {
		text = transcribe.Failed
	}
	generated := p.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	emotions := append([]string(nil), p.Emotions.Emotions...)

	res := AnalysisResult{
		PatientName:   patient.Name,
		PatientAge:    patient.Age,
		PatientGender: patient.Gender,
		Transcript:    text,
		AudioEmotions: emotions,
		Emotions:      append([]string(nil), emotions...),
		Pitch:         p.Features.Pitch,
		Pace:          p.Features.Pace,
		PaceUnit:      p.Features.PaceUnit,
		Silence:       p.Features.Silence,
		SilenceUnit:   p.Features.SilenceUnit,
		Summary:       summary.Summarize(text),
		Narrative:     summary.Narrative(narrativeInput(emotions, p.Features, p.Duration)),
		GeneratedAt:   generated,
	}

	degraded := map[string]string{}
	if p.AudioDegraded {
		degraded[StageAudio] = p.AudioReason
	}
	if p.Transcript.Status.Degraded() {
		degraded[StageTranscription] = p.Transcript.Reason
	}
	if p.Emotions.Status.Degraded() {
		degraded[StageEmotion] = p.Emotions.Reason
	}
	if len(degraded) > 0 {
		res.Degraded = degraded
	}
	return res, nil
}

// narrativeInput converts the configured units to words per minute and
// seconds.
func narrativeInput(emotions []string, set features.Set, duration float64) summary.Input {
	pace := set.Pace
	if set.PaceUnit == features.UnitWordsPerSecond {
		pace *= 60
	}
	silence := set.Silence
	if set.SilenceUnit == features.UnitRatio {
		silence *= duration
	}
	return summary.Input{Emotions: emotions, PaceWPM: pace, PitchHz: set.Pitch, SilenceSeconds: silence}
}
