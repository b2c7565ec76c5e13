package orchestrator

import (
	"time"

	"github.com/maastricht-university/speech-emotion/features"
)

// NotAvailable stands in for patient details that were not supplied.
const NotAvailable = "N/A"

type Patient struct {
	Name   string
	Age    string
	Gender string
}

func (p Patient) withDefaults() Patient {
	if p.Name == "" {
		p.Name = NotAvailable
	}
	if p.Age == "" {
		p.Age = NotAvailable
	}
	if p.Gender == "" {
		p.Gender = NotAvailable
	}
	return p
}

// AnalysisResult is the single JSON object emitted per analyzed clip.
type AnalysisResult struct {
	PatientName   string `json:"patientName" jsonschema:"required" jsonschema_description:"Patient name or N/A"`
	PatientAge    string `json:"patientAge" jsonschema:"required" jsonschema_description:"Patient age as given or N/A"`
	PatientGender string `json:"patientGender" jsonschema:"required" jsonschema_description:"Patient gender as given or N/A"`

	Transcript string `json:"transcript" jsonschema:"required" jsonschema_description:"Recognized speech or the literal 'Transcription failed'"`
	// AudioEmotions and Emotions carry the same list under both historical keys.
	AudioEmotions []string `json:"audioEmotions" jsonschema:"required" jsonschema_description:"Reported emotions formatted as 'label (xx.x%)'; never empty"`
	Emotions      []string `json:"emotions" jsonschema:"required" jsonschema_description:"Same list as audioEmotions"`

	Pitch       float64 `json:"pitch" jsonschema:"required,minimum=0" jsonschema_description:"Average pitch in Hz"`
	Pace        float64 `json:"pace" jsonschema:"required,minimum=0" jsonschema_description:"Speaking pace in paceUnit (words per minute by default)"`
	PaceUnit    string  `json:"paceUnit" jsonschema:"required,enum=words_per_minute,enum=words_per_second"`
	Silence     float64 `json:"silence" jsonschema:"required,minimum=0" jsonschema_description:"Silence in silenceUnit (seconds by default)"`
	SilenceUnit string  `json:"silenceUnit" jsonschema:"required,enum=seconds,enum=ratio"`

	Summary     string    `json:"summary" jsonschema:"required" jsonschema_description:"First 120 characters of the transcript"`
	Narrative   string    `json:"narrative" jsonschema:"required" jsonschema_description:"Plain-language reading of the measurements"`
	GeneratedAt time.Time `json:"generatedAt" jsonschema:"required"`

	// Degraded maps a stage name to the reason it fell back to a placeholder.
	Degraded   map[string]string `json:"degraded,omitempty"`
	ReportPath string            `json:"reportPath,omitempty" jsonschema_description:"Path of the PDF report when one was written"`
}

// Measurements returns the feature set carried by r.
func (r AnalysisResult) Measurements() features.Set {
	return features.Set{
		Pitch:       r.Pitch,
		Pace:        r.Pace,
		Silence:     r.Silence,
		PaceUnit:    r.PaceUnit,
		SilenceUnit: r.SilenceUnit,
	}
}
