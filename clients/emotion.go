package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
)

// --- Audio emotion classification (/config, /classify) ---
type EmoConfig struct {
	Model        string            `json:"model"`
	ID2Label     map[string]string `json:"id2label"`
	SamplingRate int               `json:"sampling_rate"`
}

// Labels returns the vocabulary ordered by label index.
func (c *EmoConfig) Labels() ([]string, error) {
	type entry struct {
		id    int
		label string
	}
	entries := make([]entry, 0, len(c.ID2Label))
	for k, v := range c.ID2Label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("emotion config: label id %q: %w", k, err)
		}
		entries = append(entries, entry{id: id, label: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	labels := make([]string, len(entries))
	for i, e := range entries {
		if e.id != i {
			return nil, fmt.Errorf("emotion config: label ids are not contiguous at %d", i)
		}
		labels[i] = e.label
	}
	return labels, nil
}

type EmoLogits struct {
	Logits []float64 `json:"logits"`
}

// EmotionConfig fetches the model's label vocabulary.
func (h *HTTP) EmotionConfig(ctx context.Context, url string) (*EmoConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/config", nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("emotion config %s: %s", resp.Status, string(body))
	}

	var out EmoConfig
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("emotion config decode: %w", err)
	}
	return &out, nil
}

// EmotionLogits uploads wavPath to {url}/classify and returns raw logits.
func (h *HTTP) EmotionLogits(ctx context.Context, url, wavPath string) (*EmoLogits, error) {
	body, contentType, err := fileForm(wavPath, nil)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/classify", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("emotion %s: %s", resp.Status, string(b))
	}

	var out EmoLogits
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("emotion decode: %w", err)
	}
	return &out, nil
}
