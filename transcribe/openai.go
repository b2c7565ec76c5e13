package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIBackend uses the hosted whisper-1 transcription endpoint.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend builds a client that never retries. Extra options (for
// example option.WithBaseURL) are applied last.
func NewOpenAIBackend(apiKey string, opts ...option.RequestOption) *OpenAIBackend {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &OpenAIBackend{client: openai.NewClient(all...)}
}

func (b *OpenAIBackend) Name() string { return BackendOpenAI }

func (b *OpenAIBackend) Recognize(ctx context.Context, wavPath, language string) (string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModelWhisper1,
	}
	if language != "" {
		params.Language = openai.String(language)
	}
	resp, err := b.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
