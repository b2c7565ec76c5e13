package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/speech-emotion/emotion"
	"github.com/maastricht-university/speech-emotion/features"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
	"github.com/maastricht-university/speech-emotion/transcribe"
)

func featureSet(pitch, pace, silence float64) features.Set {
	return features.Set{
		Pitch:       pitch,
		Pace:        pace,
		Silence:     silence,
		PaceUnit:    features.UnitWordsPerMinute,
		SilenceUnit: features.UnitSeconds,
	}
}

func TestAssembleRejectsEmptyEmotions(t *testing.T) {
	_, err := Assemble(Parts{Features: featureSet(0, 0, 0)})
	assert.ErrorIs(t, err, pipelineerr.ErrValidation)
}

func TestAssembleRejectsNegativeMeasurements(t *testing.T) {
	_, err := Assemble(Parts{
		Emotions: emotion.Result{Emotions: []string{emotion.Fallback}},
		Features: featureSet(-1, 0, 0),
	})
	assert.ErrorIs(t, err, pipelineerr.ErrValidation)
}

func TestAssembleDefaultsAndDegraded(t *testing.T) {
	res, err := Assemble(Parts{
		Transcript:    transcribe.Result{Status: pipelineerr.StatusDegraded, Reason: "timeout"},
		Emotions:      emotion.Result{Emotions: []string{emotion.Fallback}, Status: pipelineerr.StatusOK},
		Features:      featureSet(0, 0, 0),
		AudioDegraded: true,
		AudioReason:   "ffmpeg failed",
	})
	require.NoError(t, err)

	assert.Equal(t, NotAvailable, res.PatientName)
	assert.Equal(t, NotAvailable, res.PatientAge)
	assert.Equal(t, NotAvailable, res.PatientGender)
	assert.Equal(t, transcribe.Failed, res.Transcript)
	assert.Equal(t, map[string]string{StageAudio: "ffmpeg failed", StageTranscription: "timeout"}, res.Degraded)
	assert.Equal(t, res.AudioEmotions, res.Emotions)
	assert.False(t, res.GeneratedAt.IsZero())
}

func TestNarrativeUsesCanonicalUnits(t *testing.T) {
	set := features.Set{
		Pitch:       150,
		Pace:        4, // words per second, 240 wpm
		Silence:     0.5,
		PaceUnit:    features.UnitWordsPerSecond,
		SilenceUnit: features.UnitRatio,
	}
	res, err := Assemble(Parts{
		Transcript: transcribe.Result{Text: "one two three", Status: pipelineerr.StatusOK},
		Emotions:   emotion.Result{Emotions: []string{"neutral (80.0%)"}},
		Features:   set,
		Duration:   10,
	})
	require.NoError(t, err)
	assert.Contains(t, res.Narrative, "faster pace")
	assert.Contains(t, res.Narrative, "noticeable pauses")
	assert.Equal(t, set, res.Measurements())
}
