package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

// CommandRunner executes an external tool; swapped out in tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Decoder turns an audio file of any ffmpeg-supported container into PCM.
type Decoder struct {
	ffmpeg string
	rate   int
	run    CommandRunner
	logger *logrus.Entry
}

func NewDecoder(ffmpegBinary string, rate int, logger logrus.FieldLogger) *Decoder {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if rate <= 0 {
		rate = TargetRate
	}
	return &Decoder{
		ffmpeg: ffmpegBinary,
		rate:   rate,
		run:    runCommand,
		logger: logging.Component(logger, "audio-decode"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Decoder) WithCommandRunner(runner CommandRunner) {
	d.run = runner
}

// Decoded is the result of Decode.
type Decoded struct {
	Waveform Waveform
	MIME     string
	// Degraded reports that conversion failed and the source was read as WAV.
	Degraded bool
	Reason   string
}

// Decode reads path into a mono waveform. WAV input is read directly; other
// containers are converted with ffmpeg into workDir first. When ffmpeg fails
// the source is read as if it were already WAV before giving up.
func (d *Decoder) Decode(ctx context.Context, path, workDir string) (Decoded, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Decoded{}, pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "stat", path, err)
	}
	if info.IsDir() {
		return Decoded{}, pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "stat", path+" is a directory", nil)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Decoded{}, pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "sniff", path, err)
	}
	out := Decoded{MIME: mt.String()}
	logger := d.logger.WithFields(logrus.Fields{logging.FieldPath: path, "mime": out.MIME})

	if isWAV(mt) {
		if w, err := ReadWAV(path); err == nil {
			out.Waveform = w
			logger.Debug("decoded wav directly")
			return out, nil
		} else {
			logger.WithError(err).Debug("direct wav read failed; converting with ffmpeg")
		}
	}

	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Decoded{}, pipelineerr.Wrap(pipelineerr.ErrIO, "audio", "ensure work dir", workDir, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dest := filepath.Join(workDir, base+".decoded.wav")

	convErr := d.run(ctx, d.ffmpeg, ffmpegArgs(path, dest, d.rate)...)
	if convErr == nil {
		w, err := ReadWAV(dest)
		if err == nil {
			out.Waveform = w
			logger.WithField("wav", dest).Debug("converted with ffmpeg")
			return out, nil
		}
		convErr = fmt.Errorf("read converted wav: %w", err)
	}

	logger.WithError(convErr).Warn("audio conversion failed; reading source as wav")
	w, err := ReadWAV(path)
	if err != nil {
		return Decoded{}, pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "decode", path, errors.Join(convErr, err))
	}
	out.Waveform = w
	out.Degraded = true
	out.Reason = convErr.Error()
	return out, nil
}

func isWAV(mt *mimetype.MIME) bool {
	return mt != nil && (mt.Is("audio/wav") || mt.Is("audio/x-wav"))
}

// ffmpegArgs converts any input to mono 16-bit PCM at rate.
func ffmpegArgs(source string, dest string, rate int) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", rate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
