package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/speech-emotion/audio/ffprobe"
	"github.com/maastricht-university/speech-emotion/config"
	"github.com/maastricht-university/speech-emotion/emotion"
	"github.com/maastricht-university/speech-emotion/orchestrator"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

type fakeAnalyzer struct {
	res       orchestrator.AnalysisResult
	err       error
	gotPath   string
	gotPerson orchestrator.Patient
	forgotten []string
}

func (f *fakeAnalyzer) Run(_ context.Context, path string, p orchestrator.Patient) (orchestrator.AnalysisResult, error) {
	f.gotPath, f.gotPerson = path, p
	return f.res, f.err
}

func (f *fakeAnalyzer) Forget(path string) { f.forgotten = append(f.forgotten, path) }

func (f *fakeAnalyzer) factory() AnalyzerFactory {
	return func(*config.Root, logrus.FieldLogger) (Analyzer, func() error, error) {
		return f, func() error { return nil }, nil
	}
}

func sampleResult() orchestrator.AnalysisResult {
	return orchestrator.AnalysisResult{
		PatientName:   "Ana",
		PatientAge:    "N/A",
		PatientGender: "N/A",
		Transcript:    "hello",
		AudioEmotions: []string{emotion.Fallback},
		Emotions:      []string{emotion.Fallback},
		PaceUnit:      "words_per_minute",
		SilenceUnit:   "seconds",
		Summary:       "hello",
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, opts []Option, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand(opts...)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestProcessPrintsOnlyJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "pipeline:\n  log_level: debug\n  log_format: text\n")
	audioPath := writeFile(t, dir, "clip.wav", "RIFF")
	fake := &fakeAnalyzer{res: sampleResult()}

	stdout, _, err := execute(t, []Option{WithAnalyzerFactory(fake.factory())},
		"process", audioPath, "Ana", "30", "--config", cfgPath)
	require.NoError(t, err)

	var got orchestrator.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "Ana", got.PatientName)
	assert.Equal(t, audioPath, fake.gotPath)
	assert.Equal(t, orchestrator.Patient{Name: "Ana", Age: "30"}, fake.gotPerson)
}

func TestProcessMissingFile(t *testing.T) {
	fake := &fakeAnalyzer{res: sampleResult()}
	stdout, _, err := execute(t, []Option{WithAnalyzerFactory(fake.factory())},
		"process", filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pipelineerr.ErrValidation)
	assert.NotZero(t, pipelineerr.ExitCode(err))
	assert.Empty(t, stdout)
	assert.Empty(t, fake.gotPath)
}

func TestProcessPipelineErrorEmitsNoJSON(t *testing.T) {
	dir := t.TempDir()
	audioPath := writeFile(t, dir, "clip.wav", "RIFF")
	fake := &fakeAnalyzer{err: pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "decode", "", errors.New("bad codec"))}

	stdout, _, err := execute(t, []Option{WithAnalyzerFactory(fake.factory())}, "process", audioPath)
	require.Error(t, err)
	assert.Equal(t, 4, pipelineerr.ExitCode(err))
	assert.Empty(t, stdout)
}

func TestProcessWritesPDFAndBundle(t *testing.T) {
	dir := t.TempDir()
	reports := filepath.Join(dir, "reports")
	outputs := filepath.Join(dir, "outputs")
	cfgPath := writeFile(t, dir, "config.yaml", "paths:\n  reports: "+reports+"\n  outputs: "+outputs+"\n")
	audioPath := writeFile(t, dir, "clip.wav", "RIFF")
	fake := &fakeAnalyzer{res: sampleResult()}

	stdout, _, err := execute(t, []Option{WithAnalyzerFactory(fake.factory())},
		"process", audioPath, "--pdf", "--save", "--config", cfgPath)
	require.NoError(t, err)

	var got orchestrator.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.NotEmpty(t, got.ReportPath)
	assert.Equal(t, reports, filepath.Dir(got.ReportPath))
	assert.FileExists(t, got.ReportPath)

	bundles, err := filepath.Glob(filepath.Join(outputs, "session_*", "result.json"))
	require.NoError(t, err)
	assert.Len(t, bundles, 1)
}

func TestProcessExplicitPDFPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "paths:\n  reports: "+filepath.Join(dir, "reports")+"\n")
	audioPath := writeFile(t, dir, "clip.wav", "RIFF")
	fake := &fakeAnalyzer{res: sampleResult()}
	target := filepath.Join(dir, "mine.pdf")

	stdout, _, err := execute(t, []Option{WithAnalyzerFactory(fake.factory())},
		"process", audioPath, "--pdf="+target, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"reportPath": "`+target+`"`)
	assert.FileExists(t, target)
}

func TestSchemaDocumentsUnits(t *testing.T) {
	stdout, _, err := execute(t, nil, "schema")
	require.NoError(t, err)

	var schema struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Description string `json:"description"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &schema))
	assert.Contains(t, schema.Required, "audioEmotions")
	assert.NotContains(t, schema.Required, "degraded")
	assert.Contains(t, schema.Properties["pitch"].Description, "Hz")
	assert.Contains(t, schema.Properties["silence"].Description, "seconds")
}

func TestInspectRendersTable(t *testing.T) {
	probe := func(_ context.Context, binary, path string) (ffprobe.Result, error) {
		assert.Equal(t, "ffprobe", binary)
		return ffprobe.Result{
			Streams: []ffprobe.Stream{
				{Index: 0, CodecName: "mp3", CodecType: "audio", SampleRate: "44100", Channels: 2, ChannelLayout: "stereo"},
				{Index: 1, CodecName: "mjpeg", CodecType: "video"},
			},
			Format: ffprobe.Format{Filename: path, FormatName: "mp3", Duration: "3.5"},
		}, nil
	}
	stdout, _, err := execute(t, []Option{WithProbe(probe)}, "inspect", "song.mp3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "song.mp3 (mp3, 3.50s)")
	assert.Contains(t, stdout, "44100")
	assert.Contains(t, stdout, "stereo")
	assert.NotContains(t, stdout, "mjpeg")
}

func TestInspectProbeFailure(t *testing.T) {
	probe := func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("ffprobe: not found")
	}
	_, _, err := execute(t, []Option{WithProbe(probe)}, "inspect", "x.mp3")
	assert.ErrorIs(t, err, pipelineerr.ErrDecode)
}
