package orchestrator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/speech-emotion/audio"
	"github.com/maastricht-university/speech-emotion/clients"
	"github.com/maastricht-university/speech-emotion/config"
	"github.com/maastricht-university/speech-emotion/emotion"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
	"github.com/maastricht-university/speech-emotion/transcribe"
)

// ModelContext holds everything that is built once per process: the audio
// cache, the transcriber and the emotion classifier.
type ModelContext struct {
	Normalizer  *audio.Normalizer
	Transcriber transcribe.Transcriber
	Classifier  *emotion.Classifier
}

// NewModelContext wires the configured backends. Labels are fetched lazily on
// first use, so no network call happens here.
func NewModelContext(c *config.Root, logger logrus.FieldLogger) (*ModelContext, error) {
	http := clients.NewHTTP(c.ServiceTimeout())

	backend, err := newBackend(c, http)
	if err != nil {
		return nil, err
	}

	decoder := audio.NewDecoder(c.Audio.FFmpeg, c.Audio.SampleRate, logger)
	normalizer := audio.NewNormalizer(decoder, audio.Options{
		Rate:      c.Audio.SampleRate,
		TrimTopDB: c.Audio.TrimTopDB,
		CacheDir:  c.Audio.CacheDir,
	}, logger)

	model := emotion.NewHTTPModel(http, c.Services.Emotion.URL, c.Audio.CacheDir)
	return &ModelContext{
		Normalizer:  normalizer,
		Transcriber: transcribe.NewService(backend, c.Transcriber.Language, logger),
		Classifier:  emotion.NewClassifier(model, EmotionOptions(c), logger),
	}, nil
}

func newBackend(c *config.Root, http *clients.HTTP) (transcribe.Backend, error) {
	switch c.Transcriber.Backend {
	case transcribe.BackendHTTP, "":
		return transcribe.NewHTTPBackend(http, c.Services.ASR.URL), nil
	case transcribe.BackendWhisperX:
		return transcribe.NewWhisperXBackend(c.Transcriber.Model, c.Transcriber.CUDA, c.Transcriber.WorkDir), nil
	case transcribe.BackendOpenAI:
		return transcribe.NewOpenAIBackend(c.Transcriber.OpenAIAPIKey), nil
	default:
		msg := fmt.Sprintf("unknown transcriber backend %q", c.Transcriber.Backend)
		return nil, pipelineerr.Wrap(pipelineerr.ErrConfiguration, "models", "transcriber", msg, nil)
	}
}

// EmotionOptions maps the emotion section of the configuration.
func EmotionOptions(c *config.Root) emotion.Options {
	return emotion.Options{
		Temperature:        c.Emotion.Temperature,
		MinDurationSeconds: c.Emotion.MinDurationSeconds,
		MaxInputSeconds:    c.Emotion.MaxInputSeconds,
		AllowList:          c.Emotion.AllowList,
		Policy:             emotion.Policy{Mode: c.Emotion.Policy.Mode, Value: c.Emotion.Policy.Value},
	}
}

func (m *ModelContext) Close() error {
	if m == nil || m.Normalizer == nil {
		return nil
	}
	return m.Normalizer.Close()
}
