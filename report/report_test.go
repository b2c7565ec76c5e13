package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/speech-emotion/features"
	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/orchestrator"
)

func sampleResult() orchestrator.AnalysisResult {
	return orchestrator.AnalysisResult{
		PatientName:   "Zoë",
		PatientAge:    "31",
		PatientGender: "N/A",
		Transcript:    strings.Repeat("a long transcript line ", 40),
		AudioEmotions: []string{"happy (71.2%)", "sad (18.0%)"},
		Pitch:         212.3456,
		Pace:          133.3333,
		PaceUnit:      features.UnitWordsPerMinute,
		Silence:       1.2,
		SilenceUnit:   features.UnitSeconds,
		Summary:       "a long transcript line...",
		Narrative:     "The speech analysis indicates happy, sad emotions.",
	}
}

func TestWriteGeneratesNamedReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logging.Discard())
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	path, ok := w.Write(sampleResult(), "")
	require.True(t, ok)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `^report_[0-9a-f-]{36}\.pdf$`, filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestWriteExplicitPaths(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logging.Discard())

	path, ok := w.Write(sampleResult(), filepath.Join("nested", "out.pdf"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "nested", "out.pdf"), path)

	abs := filepath.Join(t.TempDir(), "abs.pdf")
	path, ok = w.Write(orchestrator.AnalysisResult{}, abs)
	require.True(t, ok)
	assert.Equal(t, abs, path)
	assert.FileExists(t, abs)
}

func TestWriteFailsWhenDirectoryCannotBeCreated(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	w := NewWriter(blocker, logging.Discard())
	_, ok := w.Write(sampleResult(), "out.pdf")
	assert.False(t, ok)
}

func TestGeneratedOnUsesResultTimestamp(t *testing.T) {
	w := NewWriter(t.TempDir(), logging.Discard())
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	res := sampleResult()
	res.GeneratedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "Generated on: 2025-01-02 03:04:05", w.generatedOn(res))

	res.GeneratedAt = time.Time{}
	assert.Equal(t, "Generated on: 2025-06-01 12:00:00", w.generatedOn(res))
}

func TestAnalysisText(t *testing.T) {
	got := analysis(sampleResult().Measurements().Rounded())
	assert.Equal(t, "Average Pitch: 212.35 Hz\nSilence Duration: 1.20 seconds\nSpeaking Pace: 133.33 words per minute", got)

	ratio := analysis(features.Set{Silence: 0.25, SilenceUnit: features.UnitRatio, PaceUnit: features.UnitWordsPerSecond})
	assert.Contains(t, ratio, "Silence Ratio: 0.25 of the recording")
	assert.Contains(t, ratio, "words per second")
}
