package emotion

import (
	"context"
	"os"
	"sync"

	"github.com/maastricht-university/speech-emotion/audio"
	"github.com/maastricht-university/speech-emotion/clients"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_model.go -package=mocks github.com/maastricht-university/speech-emotion/emotion Model

// Model is an audio classifier producing one logit per label.
type Model interface {
	Labels(ctx context.Context) ([]string, error)
	Infer(ctx context.Context, w audio.Waveform) ([]float64, error)
}

// HTTPModel serves a Model from the emotion model service. The label
// vocabulary is fetched once and kept for the life of the process.
type HTTPModel struct {
	client  *clients.HTTP
	url     string
	tempDir string

	mu     sync.Mutex
	labels []string
}

func NewHTTPModel(client *clients.HTTP, url, tempDir string) *HTTPModel {
	return &HTTPModel{client: client, url: url, tempDir: tempDir}
}

func (m *HTTPModel) Labels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.labels != nil {
		return m.labels, nil
	}
	cfg, err := m.client.EmotionConfig(ctx, m.url)
	if err != nil {
		return nil, err
	}
	labels, err := cfg.Labels()
	if err != nil {
		return nil, err
	}
	m.labels = labels
	return labels, nil
}

func (m *HTTPModel) Infer(ctx context.Context, w audio.Waveform) ([]float64, error) {
	f, err := os.CreateTemp(m.tempDir, "emotion-*.wav")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	_ = f.Close()
	defer os.Remove(path)

	if err := audio.WriteWAV(path, w); err != nil {
		return nil, err
	}
	out, err := m.client.EmotionLogits(ctx, m.url, path)
	if err != nil {
		return nil, err
	}
	return out.Logits, nil
}
