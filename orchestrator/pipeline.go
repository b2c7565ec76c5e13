package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/speech-emotion/audio"
	"github.com/maastricht-university/speech-emotion/config"
	"github.com/maastricht-university/speech-emotion/features"
	"github.com/maastricht-university/speech-emotion/logging"
)

type Pipeline struct {
	cfg    *config.Root
	models *ModelContext
	logger logrus.FieldLogger
	now    func() time.Time

	// mu serializes use of models; the model services handle one clip at a time.
	mu sync.Mutex
}

func NewPipeline(c *config.Root, models *ModelContext, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{cfg: c, models: models, logger: logging.Component(logger, "pipeline"), now: time.Now}
}

// Run analyzes one clip. Only decoding and assembly failures are returned;
// model failures surface in AnalysisResult.Degraded.
func (p *Pipeline) Run(ctx context.Context, path string, patient Patient) (AnalysisResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := p.logger.WithField(logging.FieldPath, path)
	start := time.Now()

	clip, err := p.models.Normalizer.Load(ctx, path)
	if err != nil {
		log.WithError(err).Error("audio could not be decoded")
		return AnalysisResult{}, err
	}
	log.WithField(logging.FieldStage, "normalize").
		WithField(logging.FieldDuration, clip.Normalized.Seconds()).
		Debug("audio normalized")

	tr := p.models.Transcriber.Transcribe(ctx, clip)
	log.WithField(logging.FieldStage, "transcribe").WithField("status", tr.Status).Info("transcription done")

	emo := p.models.Classifier.Classify(ctx, clip.Normalized)
	log.WithField(logging.FieldStage, "emotion").WithField("emotions", emo.Emotions).Info("emotions classified")

	source := p.featureSource(clip)
	set := features.Extract(source, tr.Text, p.featureOptions())
	log.WithField(logging.FieldStage, "features").WithFields(logrus.Fields{
		"pitch":   set.Pitch,
		"pace":    set.Pace,
		"silence": set.Silence,
	}).Debug("features extracted")

	res, err := Assemble(Parts{
		Patient:       patient,
		Transcript:    tr,
		Emotions:      emo,
		Features:      set,
		Duration:      source.Seconds(),
		AudioDegraded: clip.Degraded,
		AudioReason:   clip.Reason,
		GeneratedAt:   p.now(),
	})
	if err != nil {
		log.WithError(err).Error("result assembly failed")
		return AnalysisResult{}, err
	}
	log.WithField(logging.FieldDuration, time.Since(start).String()).Info("analysis complete")
	return res, nil
}

// Forget drops path from the audio cache.
func (p *Pipeline) Forget(path string) { p.models.Normalizer.Forget(path) }

func (p *Pipeline) featureSource(clip audio.Clip) audio.Waveform {
	if p.cfg.Features.Source == "normalized" || clip.Decoded.Empty() {
		return clip.Normalized
	}
	return clip.Decoded
}

func (p *Pipeline) featureOptions() features.Options {
	return features.Options{
		PaceUnit:           p.cfg.Features.PaceUnit,
		SilenceUnit:        p.cfg.Features.SilenceUnit,
		SilenceThresholdDB: p.cfg.Features.SilenceThresholdDB,
	}
}
