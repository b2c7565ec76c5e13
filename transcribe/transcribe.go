// Package transcribe turns a normalized clip into text using one of several
// speech recognition backends.
package transcribe

import (
	"context"
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/maastricht-university/speech-emotion/audio"
	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_transcriber.go -package=mocks github.com/maastricht-university/speech-emotion/transcribe Transcriber

// Failed is the transcript reported when recognition did not succeed.
const Failed = "Transcription failed"

const (
	BackendHTTP     = "http"
	BackendWhisperX = "whisperx"
	BackendOpenAI   = "openai"
)

type Result struct {
	Text   string
	Status pipelineerr.Status
	Reason string
}

// Usable reports whether text is a real transcript rather than empty or the
// Failed marker.
func Usable(text string) bool { return text != "" && text != Failed }

// Transcriber never returns an error; failures come back as a degraded
// Result carrying Failed.
type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip) Result
}

// Backend performs recognition of a 16 kHz mono WAV file.
type Backend interface {
	Name() string
	Recognize(ctx context.Context, wavPath, language string) (string, error)
}

// Service adapts a Backend into a Transcriber.
type Service struct {
	backend  Backend
	language string
	logger   logrus.FieldLogger
}

func NewService(backend Backend, language string, logger logrus.FieldLogger) *Service {
	if language == "" {
		language = "en"
	}
	return &Service{
		backend:  backend,
		language: strings.ToLower(language),
		logger:   logging.Component(logger, "transcribe").WithField("backend", backend.Name()),
	}
}

func (s *Service) Transcribe(ctx context.Context, clip audio.Clip) Result {
	log := s.logger.WithField(logging.FieldPath, clip.Source)
	if clip.WAVPath == "" {
		log.Warn("no normalized audio to transcribe")
		return Result{Text: Failed, Status: pipelineerr.StatusDegraded, Reason: "no normalized audio"}
	}

	raw, err := s.backend.Recognize(ctx, clip.WAVPath, s.language)
	if err != nil {
		err = pipelineerr.Wrap(pipelineerr.ErrModelInference, "transcribe", s.backend.Name(), "", err)
		log.WithError(err).Warn("transcription failed")
		return Result{Text: Failed, Status: pipelineerr.StatusDegraded, Reason: err.Error()}
	}

	text := Clean(raw)
	s.checkLanguage(log, text)
	log.WithField("characters", len([]rune(text))).Debug("transcription complete")
	return Result{Text: text, Status: pipelineerr.StatusOK}
}

// minDetectRunes keeps language detection away from fragments too short to
// classify.
const minDetectRunes = 20

func (s *Service) checkLanguage(log logrus.FieldLogger, text string) {
	if len([]rune(text)) < minDetectRunes {
		return
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return
	}
	if got := info.Lang.Iso6391(); got != "" && got != s.language {
		log.WithFields(logrus.Fields{
			"expected": s.language,
			"detected": got,
		}).Warn("transcript language differs from the configured language")
	}
}

var spaces = regexp.MustCompile(`\s+`)

// Clean NFC-normalizes text and collapses runs of whitespace.
func Clean(text string) string {
	text = norm.NFC.String(text)
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}
