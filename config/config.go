package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// EnvPrefix namespaces environment overrides, e.g. SER_EMOTION_TEMPERATURE.
const EnvPrefix = "SER"

type Service struct {
	URL string `yaml:"url" validate:"omitempty,url"`
}
type Services struct {
	ASR            Service `yaml:"asr"`
	Emotion        Service `yaml:"emotion"`
	TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gte=0"`
}
type Audio struct {
	SampleRate int     `yaml:"sample_rate" validate:"oneof=8000 16000 22050 44100 48000"`
	TrimTopDB  float64 `yaml:"trim_top_db" validate:"gt=0"`
	FFmpeg     string  `yaml:"ffmpeg"`
	FFprobe    string  `yaml:"ffprobe"`
	CacheDir   string  `yaml:"cache_dir"`
}
type Transcriber struct {
	Backend      string `yaml:"backend" validate:"oneof=http whisperx openai"`
	Language     string `yaml:"language" validate:"required"`
	Model        string `yaml:"model"`
	CUDA         bool   `yaml:"cuda"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	WorkDir      string `yaml:"work_dir"`
}

// Policy selects which ranked emotions are reported. For "threshold" Value is
// a percentage; for "top_n" it is a count.
type Policy struct {
	Mode  string  `yaml:"mode" validate:"oneof=threshold top_n"`
	Value float64 `yaml:"value" validate:"gte=0"`
}
type Emotion struct {
	Temperature        float64           `yaml:"temperature" validate:"gt=0"`
	MinDurationSeconds float64           `yaml:"min_duration_seconds" validate:"gte=0"`
	MaxInputSeconds    float64           `yaml:"max_input_seconds" validate:"gte=0"`
	AllowList          map[string]string `yaml:"allow_list"`
	Policy             Policy            `yaml:"policy"`
}
type Features struct {
	Source             string  `yaml:"source" validate:"oneof=decoded normalized"`
	PaceUnit           string  `yaml:"pace_unit" validate:"oneof=words_per_minute words_per_second"`
	SilenceUnit        string  `yaml:"silence_unit" validate:"oneof=seconds ratio"`
	SilenceThresholdDB float64 `yaml:"silence_threshold_db" validate:"lte=0"`
}
type Server struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb" validate:"gt=0"`
}
type Root struct {
	Pipeline struct {
		Name      string `yaml:"name"`
		Version   string `yaml:"version"`
		LogLvl    string `yaml:"log_level" validate:"oneof=trace debug info warn warning error"`
		LogFormat string `yaml:"log_format" validate:"oneof=auto text json"`
	} `yaml:"pipeline"`
	Audio       Audio       `yaml:"audio"`
	Services    Services    `yaml:"services"`
	Transcriber Transcriber `yaml:"transcriber"`
	Emotion     Emotion     `yaml:"emotion"`
	Features    Features    `yaml:"features"`
	Paths       struct {
		Outputs string `yaml:"outputs"`
		Reports string `yaml:"reports" validate:"required"`
	} `yaml:"paths"`
	Server Server `yaml:"server"`
}

// DefaultAllowList is the emotion vocabulary surfaced when the config file
// does not provide one.
func DefaultAllowList() map[string]string {
	return map[string]string{
		"neutral":   "neutral",
		"happy":     "happy",
		"surprised": "surprised",
		"sad":       "sad",
		"angry":     "angry",
	}
}

// Default returns the built-in configuration.
func Default() (*Root, error) {
	var cfg Root
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// Load reads the configuration at path (or the first candidate location when
// path is empty), layers SER_* environment overrides on top and validates the
// result. A missing config file is not an error: defaults apply.
func Load(path string) (*Root, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultsYAML)); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "defaults", "", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file, err := locate(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "read", file, err)
		}
	}

	cfg := &Root{}
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "decode", file, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func locate(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "locate", explicit, err)
		}
		return explicit, nil
	}
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	var guess []string = []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("src", "shared", "config.yaml"),
	}
	for _, p := range guess {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", pipelineerr.Wrap(pipelineerr.ErrConfiguration, "config", "locate", p, err)
		}
	}
	return "", nil
}

func (c *Root) normalize() {
	if len(c.Emotion.AllowList) == 0 {
		c.Emotion.AllowList = DefaultAllowList()
	}
	lowered := make(map[string]string, len(c.Emotion.AllowList))
	for k, v := range c.Emotion.AllowList {
		lowered[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	c.Emotion.AllowList = lowered
	c.Transcriber.Backend = strings.ToLower(strings.TrimSpace(c.Transcriber.Backend))
	c.Emotion.Policy.Mode = strings.ToLower(strings.TrimSpace(c.Emotion.Policy.Mode))
	c.Pipeline.LogLvl = strings.ToLower(strings.TrimSpace(c.Pipeline.LogLvl))
	if c.Audio.FFmpeg == "" {
		c.Audio.FFmpeg = "ffmpeg"
	}
	if c.Audio.FFprobe == "" {
		c.Audio.FFprobe = "ffprobe"
	}
}

// ServiceTimeout returns the HTTP timeout for model services.
func (c *Root) ServiceTimeout() time.Duration { return DurSeconds(c.Services.TimeoutSeconds) }

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
