// Package emotion ranks speech emotions from a model's logits.
package emotion

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/speech-emotion/audio"
	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

// Fallback is reported whenever no usable prediction exists.
const Fallback = "neutral (100%)"

const (
	PolicyThreshold = "threshold"
	PolicyTopN      = "top_n"
)

// Policy selects which ranked emotions are reported. Value is a percentage
// for PolicyThreshold and a count for PolicyTopN.
type Policy struct {
	Mode  string
	Value float64
}

type Options struct {
	Temperature        float64
	MinDurationSeconds float64
	MaxInputSeconds    float64
	// AllowList maps lower-cased model labels to reported labels.
	AllowList map[string]string
	Policy    Policy
}

// DefaultOptions mirrors the built-in configuration.
func DefaultOptions() Options {
	return Options{
		Temperature:        0.2,
		MinDurationSeconds: 1,
		MaxInputSeconds:    1,
		AllowList: map[string]string{
			"neutral":   "neutral",
			"happy":     "happy",
			"surprised": "surprised",
			"sad":       "sad",
			"angry":     "angry",
		},
		Policy: Policy{Mode: PolicyThreshold, Value: 15},
	}
}

type Score struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

func (s Score) String() string {
	return fmt.Sprintf("%s (%.1f%%)", s.Label, s.Probability*100)
}

type Result struct {
	Emotions []string
	// Probabilities is the full distribution in model label order, with
	// labels lower-cased but not mapped.
	Probabilities []Score
	Status        pipelineerr.Status
	Reason        string
}

type Classifier struct {
	model  Model
	opts   Options
	logger logrus.FieldLogger
}

func NewClassifier(model Model, opts Options, logger logrus.FieldLogger) *Classifier {
	if opts.Temperature <= 0 {
		opts.Temperature = 1
	}
	if len(opts.AllowList) == 0 {
		opts.AllowList = DefaultOptions().AllowList
	}
	if opts.Policy.Mode == "" {
		opts.Policy = DefaultOptions().Policy
	}
	return &Classifier{model: model, opts: opts, logger: logging.Component(logger, "emotion")}
}

// Classify never fails: model errors yield the fallback tagged as degraded.
func (c *Classifier) Classify(ctx context.Context, w audio.Waveform) Result {
	if w.Seconds() < c.opts.MinDurationSeconds {
		c.logger.WithField(logging.FieldDuration, w.Seconds()).Debug("clip shorter than minimum, skipping model")
		return Result{Emotions: []string{Fallback}, Status: pipelineerr.StatusOK, Reason: "clip shorter than minimum"}
	}

	input := audio.Resample(w.Head(c.opts.MaxInputSeconds), audio.TargetRate)
	probs, err := c.distribution(ctx, input)
	if err != nil {
		c.logger.WithError(err).Warn("emotion inference failed, reporting fallback")
		return Result{Emotions: []string{Fallback}, Status: pipelineerr.StatusDegraded, Reason: err.Error()}
	}
	for _, p := range probs {
		c.logger.WithField("label", p.Label).Debugf("probability %.2f%%", p.Probability*100)
	}
	return Result{
		Emotions:      c.Select(probs),
		Probabilities: probs,
		Status:        pipelineerr.StatusOK,
	}
}

func (c *Classifier) distribution(ctx context.Context, w audio.Waveform) ([]Score, error) {
	labels, err := c.model.Labels(ctx)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ErrModelInference, "emotion", "labels", "", err)
	}
	logits, err := c.model.Infer(ctx, w)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ErrModelInference, "emotion", "infer", "", err)
	}
	if len(logits) != len(labels) || len(logits) == 0 {
		msg := fmt.Sprintf("got %d logits for %d labels", len(logits), len(labels))
		return nil, pipelineerr.Wrap(pipelineerr.ErrModelInference, "emotion", "infer", msg, nil)
	}
	for i, v := range logits {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			msg := fmt.Sprintf("logit %d for %q is %v", i, labels[i], v)
			return nil, pipelineerr.Wrap(pipelineerr.ErrModelInference, "emotion", "infer", msg, nil)
		}
	}
	probs := Softmax(logits, c.opts.Temperature)
	out := make([]Score, len(labels))
	for i, l := range labels {
		out[i] = Score{Label: strings.ToLower(strings.TrimSpace(l)), Probability: probs[i]}
	}
	return out, nil
}

// Select applies the allow-list and policy to a distribution in model order.
func (c *Classifier) Select(probs []Score) []string {
	ranked := make([]Score, len(probs))
	copy(ranked, probs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Probability > ranked[j].Probability })
	if len(ranked) == 0 {
		return []string{Fallback}
	}

	allowed := lo.FilterMap(ranked, func(s Score, _ int) (Score, bool) {
		mapped, ok := c.opts.AllowList[s.Label]
		return Score{Label: mapped, Probability: s.Probability}, ok
	})

	var picked []Score
	switch c.opts.Policy.Mode {
	case PolicyTopN:
		picked = lo.Slice(allowed, 0, int(c.opts.Policy.Value))
	default:
		picked = lo.Filter(allowed, func(s Score, _ int) bool {
			return s.Probability*100 >= c.opts.Policy.Value
		})
	}

	if len(picked) == 0 {
		top := ranked[0]
		mapped, ok := c.opts.AllowList[top.Label]
		if !ok {
			return []string{Fallback}
		}
		picked = []Score{{Label: mapped, Probability: top.Probability}}
	}
	return lo.Map(picked, func(s Score, _ int) string { return s.String() })
}

// Softmax returns softmax(logits / temperature). The result sums to 1.
func Softmax(logits []float64, temperature float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	if temperature <= 0 {
		temperature = 1
	}
	out := make([]float64, len(logits))
	floats.ScaleTo(out, 1/temperature, logits)
	peak := floats.Max(out)
	for i, v := range out {
		out[i] = math.Exp(v - peak)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
