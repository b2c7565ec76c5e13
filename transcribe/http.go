package transcribe

import (
	"context"

	"github.com/maastricht-university/speech-emotion/clients"
)

// HTTPBackend calls the ASR model service.
type HTTPBackend struct {
	client *clients.HTTP
	url    string
}

func NewHTTPBackend(client *clients.HTTP, url string) *HTTPBackend {
	return &HTTPBackend{client: client, url: url}
}

func (b *HTTPBackend) Name() string { return BackendHTTP }

func (b *HTTPBackend) Recognize(ctx context.Context, wavPath, language string) (string, error) {
	resp, err := b.client.ASR(ctx, b.url, wavPath, language)
	if err != nil {
		return "", err
	}
	return resp.Transcript(), nil
}
