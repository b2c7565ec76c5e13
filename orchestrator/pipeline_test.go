package orchestrator

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maastricht-university/speech-emotion/audio"
	"github.com/maastricht-university/speech-emotion/config"
	"github.com/maastricht-university/speech-emotion/emotion"
	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/mocks"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
	"github.com/maastricht-university/speech-emotion/transcribe"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func writeTone(t *testing.T, freq, seconds float64) string {
	t.Helper()
	n := int(seconds * audio.TargetRate)
	s := make([]float64, n)
	for i := range s {
		s[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/audio.TargetRate)
	}
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, audio.WriteWAV(path, audio.Waveform{Samples: s, SampleRate: audio.TargetRate}))
	return path
}

type fixture struct {
	pipeline    *Pipeline
	transcriber *mocks.MockTranscriber
	model       *mocks.MockModel
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Audio.CacheDir = t.TempDir()

	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTranscriber(ctrl)
	model := mocks.NewMockModel(ctrl)

	logger := logging.Discard()
	models := &ModelContext{
		Normalizer: audio.NewNormalizer(audio.NewDecoder("ffmpeg", audio.TargetRate, logger), audio.Options{
			Rate:      audio.TargetRate,
			TrimTopDB: cfg.Audio.TrimTopDB,
			CacheDir:  cfg.Audio.CacheDir,
		}, logger),
		Transcriber: tr,
		Classifier:  emotion.NewClassifier(model, EmotionOptions(cfg), logger),
	}
	t.Cleanup(func() { _ = models.Close() })

	p := NewPipeline(cfg, models, logger)
	p.now = func() time.Time { return fixedNow }
	return fixture{pipeline: p, transcriber: tr, model: model}
}

func TestRunToneMatchesFixture(t *testing.T) {
	f := newFixture(t)
	path := writeTone(t, 440, 2)

	f.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, clip audio.Clip) transcribe.Result {
			assert.FileExists(t, clip.WAVPath)
			assert.Equal(t, audio.TargetRate, clip.Normalized.SampleRate)
			return transcribe.Result{Text: "hello world this is fine", Status: pipelineerr.StatusOK}
		})
	f.model.EXPECT().Labels(gomock.Any()).Return([]string{"angry", "happy", "neutral", "sad"}, nil)
	f.model.EXPECT().Infer(gomock.Any(), gomock.Any()).Return([]float64{0, 1, 0.2, 0}, nil)

	got, err := f.pipeline.Run(context.Background(), path, Patient{Name: "Jane Doe", Age: "42"})
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("testdata", "tone_result.json"))
	require.NoError(t, err)
	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(out))
}

func TestRunDecodeFailureSkipsModels(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Run(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), Patient{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipelineerr.ErrDecode)
	assert.Equal(t, 4, pipelineerr.ExitCode(err))
}

func TestRunSurfacesDegradedStages(t *testing.T) {
	f := newFixture(t)
	path := writeTone(t, 220, 1.5)

	f.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		Return(transcribe.Result{Text: transcribe.Failed, Status: pipelineerr.StatusDegraded, Reason: "asr down"})
	f.model.EXPECT().Labels(gomock.Any()).Return(nil, assert.AnError)

	got, err := f.pipeline.Run(context.Background(), path, Patient{})
	require.NoError(t, err)

	assert.Equal(t, transcribe.Failed, got.Transcript)
	assert.Equal(t, []string{emotion.Fallback}, got.AudioEmotions)
	assert.Equal(t, "No transcript available", got.Summary)
	assert.Zero(t, got.Pace)
	assert.Equal(t, NotAvailable, got.PatientName)
	assert.Equal(t, "asr down", got.Degraded[StageTranscription])
	assert.Contains(t, got.Degraded[StageEmotion], assert.AnError.Error())
}

func TestResultJSONRoundTrip(t *testing.T) {
	res, err := Assemble(Parts{
		Patient:     Patient{Name: "A"},
		Transcript:  transcribe.Result{Text: "short", Status: pipelineerr.StatusOK},
		Emotions:    emotion.Result{Emotions: []string{"sad (50.0%)"}, Status: pipelineerr.StatusOK},
		Features:    featureSet(120.5, 90, 1.25),
		Duration:    4,
		GeneratedAt: fixedNow,
	})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(data, &keys))
	for _, k := range []string{"patientName", "patientAge", "patientGender", "transcript", "audioEmotions", "pitch", "pace", "silence", "summary"} {
		assert.Contains(t, keys, k)
	}
	assert.NotContains(t, keys, "degraded")
	assert.NotContains(t, keys, "reportPath")

	var back AnalysisResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, res.GeneratedAt.Equal(back.GeneratedAt))
	back.GeneratedAt = res.GeneratedAt
	assert.Equal(t, res, back)
}

func TestPersistWritesSessionBundle(t *testing.T) {
	root := t.TempDir()
	res := AnalysisResult{PatientName: "B", AudioEmotions: []string{emotion.Fallback}, GeneratedAt: fixedNow}

	path, err := Persist(root, "/data/in.wav", res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "session_20250102-030405", "result.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var bundle PersistBundle
	require.NoError(t, json.Unmarshal(raw, &bundle))
	assert.Equal(t, "session_20250102-030405", bundle.SessionID)
	assert.Equal(t, "/data/in.wav", bundle.AudioPath)
	assert.Equal(t, "B", bundle.Result.PatientName)
}

func TestPreflightReportsMissingBinaries(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Transcriber.Backend = transcribe.BackendWhisperX

	orig := LookPath
	t.Cleanup(func() { LookPath = orig })
	LookPath = func(name string) (string, error) {
		if name == "ffmpeg" {
			return "/usr/bin/ffmpeg", nil
		}
		return "", os.ErrNotExist
	}
	assert.Equal(t, []string{"uvx"}, Preflight(cfg))

	cfg.Transcriber.Backend = transcribe.BackendHTTP
	assert.Empty(t, Preflight(cfg))
}

func TestNewModelContext(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	models, err := NewModelContext(cfg, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, models.Classifier)
	assert.NoError(t, models.Close())

	cfg.Audio.SampleRate = 22050
	models, err = NewModelContext(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 22050, models.Normalizer.Rate())
	assert.NoError(t, models.Close())

	cfg.Transcriber.Backend = "telegraph"
	_, err = NewModelContext(cfg, logging.Discard())
	assert.ErrorIs(t, err, pipelineerr.ErrConfiguration)
}
