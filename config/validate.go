package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

var validate = validator.New()

// Validate checks field constraints plus the cross-field rules the struct tags
// cannot express.
func (c *Root) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", strings.Join(msgs, "; "), nil)
		}
		return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", "", err)
	}

	switch c.Emotion.Policy.Mode {
	case "threshold":
		if c.Emotion.Policy.Value > 100 {
			return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", "emotion.policy.value is a percentage and must be <= 100", nil)
		}
	case "top_n":
		if c.Emotion.Policy.Value < 1 || c.Emotion.Policy.Value != float64(int(c.Emotion.Policy.Value)) {
			return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", "emotion.policy.value must be a positive integer for top_n", nil)
		}
	}
	if _, ok := c.Emotion.AllowList[""]; ok {
		return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", "emotion.allow_list contains an empty label", nil)
	}
	switch c.Transcriber.Backend {
	case "http":
		if c.Services.ASR.URL == "" {
			return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", "services.asr.url is required for the http transcriber", nil)
		}
	case "openai":
		if c.Transcriber.OpenAIAPIKey == "" {
			return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", "transcriber.openai_api_key is required for the openai transcriber", nil)
		}
	}
	if c.Services.Emotion.URL == "" {
		return pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "validate", "services.emotion.url is required", nil)
	}
	return nil
}
