// Package report renders an AnalysisResult as a PDF document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/maastricht-university/speech-emotion/features"
	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/orchestrator"
)

const title = "Speech Emotion Analysis Report"

// Writer places reports under a base directory.
type Writer struct {
	dir    string
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewWriter(dir string, logger logrus.FieldLogger) *Writer {
	if dir == "" {
		dir = "reports"
	}
	return &Writer{dir: dir, logger: logging.Component(logger, "report"), now: time.Now}
}

// Resolve maps the requested path to the file that will be written: empty
// means report_<uuid>.pdf in the base directory, relative paths are joined to
// it and absolute paths are kept.
func (w *Writer) Resolve(path string) string {
	switch {
	case path == "":
		return filepath.Join(w.dir, fmt.Sprintf("report_%s.pdf", uuid.NewString()))
	case filepath.IsAbs(path):
		return path
	default:
		return filepath.Join(w.dir, path)
	}
}

// Write renders res and reports where it went and whether the file exists
// afterwards. Failures are logged, never returned.
func (w *Writer) Write(res orchestrator.AnalysisResult, path string) (string, bool) {
	target := w.Resolve(path)
	log := w.logger.WithField(logging.FieldPath, target)

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).Error("cannot create report directory")
		return target, false
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		log.WithError(err).Error("report directory is not writable")
		return target, false
	}

	pdf := w.render(res)
	if err := pdf.OutputFileAndClose(target); err != nil {
		log.WithError(err).Error("pdf generation failed")
		return target, false
	}
	if _, err := os.Stat(target); err != nil {
		log.WithError(err).Error("pdf was not created")
		return target, false
	}
	log.Info("pdf report written")
	return target, true
}

func (w *Writer) render(res orchestrator.AnalysisResult) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 15)
		pdf.Cell(80, 10, "")
		pdf.CellFormat(30, 10, title, "", 0, "C", false, 0, "")
		pdf.Ln(20)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, w.generatedOn(res), "", 1, "", false, 0, "")
	pdf.Ln(10)

	chapter := func(name, body string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(200, 220, 255)
		pdf.CellFormat(0, 6, name, "", 1, "L", true, 0, "")
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 5, tr(body), "", "", false)
		pdf.Ln(-1)
	}

	chapter("Patient", fmt.Sprintf("Name: %s\nAge: %s\nGender: %s", res.PatientName, res.PatientAge, res.PatientGender))
	chapter("Transcription", res.Transcript)

	emotions := "No emotions detected"
	if len(res.AudioEmotions) > 0 {
		emotions = strings.Join(res.AudioEmotions, ", ")
	}
	chapter("Detected Emotions", emotions)
	chapter("Analysis", analysis(res.Measurements().Rounded()))

	body := res.Summary
	if res.Narrative != "" {
		body += "\n\n" + res.Narrative
	}
	chapter("Summary", body)
	return pdf
}

// generatedOn stamps the report with the analysis time so it agrees with the
// JSON result; the writer's clock is only used when the result has none.
func (w *Writer) generatedOn(res orchestrator.AnalysisResult) string {
	at := res.GeneratedAt
	if at.IsZero() {
		at = w.now()
	}
	return "Generated on: " + at.Format("2006-01-02 15:04:05")
}

func analysis(set features.Set) string {
	pace := "words per minute"
	if set.PaceUnit == features.UnitWordsPerSecond {
		pace = "words per second"
	}
	silenceLabel, silenceUnit := "Silence Duration", "seconds"
	if set.SilenceUnit == features.UnitRatio {
		silenceLabel, silenceUnit = "Silence Ratio", "of the recording"
	}
	return fmt.Sprintf("Average Pitch: %.2f Hz\n%s: %.2f %s\nSpeaking Pace: %.2f %s",
		set.Pitch, silenceLabel, set.Silence, silenceUnit, set.Pace, pace)
}
