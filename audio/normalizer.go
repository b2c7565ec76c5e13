package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

// Options tunes the conditioning chain.
type Options struct {
	Rate      int
	TrimTopDB float64
	// CacheDir holds decoded and normalized WAV files. Empty means a private
	// temp dir removed by Close.
	CacheDir string
}

// Normalizer decodes and conditions input files, caching one Clip per path.
type Normalizer struct {
	decoder  *Decoder
	opts     Options
	logger   *logrus.Entry
	ownCache bool

	mu    sync.Mutex
	clips map[string]Clip
}

func NewNormalizer(decoder *Decoder, opts Options, logger logrus.FieldLogger) *Normalizer {
	if opts.Rate <= 0 {
		opts.Rate = TargetRate
	}
	if opts.TrimTopDB <= 0 {
		opts.TrimTopDB = 25
	}
	return &Normalizer{
		decoder: decoder,
		opts:    opts,
		logger:  logging.Component(logger, "audio-normalizer"),
		clips:   map[string]Clip{},
	}
}

// Rate is the sample rate of every clip the normalizer produces.
func (n *Normalizer) Rate() int { return n.opts.Rate }

// Load returns the cached clip for path, decoding and normalizing it on first
// use.
func (n *Normalizer) Load(ctx context.Context, path string) (Clip, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Clip{}, pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "resolve path", path, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if clip, ok := n.clips[abs]; ok {
		return clip, nil
	}

	dir, err := n.cacheDir()
	if err != nil {
		return Clip{}, err
	}
	key := cacheKey(abs)
	started := time.Now()

	decoded, err := n.decoder.Decode(ctx, abs, filepath.Join(dir, key))
	if err != nil {
		return Clip{}, err
	}
	raw := Resample(decoded.Waveform, n.opts.Rate)
	if raw.Empty() {
		return Clip{}, pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "decode", abs+" contains no samples", nil)
	}
	normalized := Normalize(raw, n.opts.Rate, n.opts.TrimTopDB)

	wavPath := filepath.Join(dir, key+".wav")
	if err := WriteWAV(wavPath, normalized); err != nil {
		return Clip{}, pipelineerr.Wrap(pipelineerr.ErrIO, "audio", "cache normalized", wavPath, err)
	}

	clip := Clip{
		Source:     abs,
		Decoded:    raw,
		Normalized: normalized,
		WAVPath:    wavPath,
		Degraded:   decoded.Degraded,
		Reason:     decoded.Reason,
	}
	n.clips[abs] = clip
	n.logger.WithFields(logrus.Fields{
		logging.FieldPath:     abs,
		"mime":                decoded.MIME,
		"decoded_seconds":     raw.Seconds(),
		"normalized_seconds":  normalized.Seconds(),
		logging.FieldDuration: time.Since(started).String(),
	}).Debug("audio normalized")
	return clip, nil
}

// Forget drops the cached clip for path and removes its files.
func (n *Normalizer) Forget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	clip, ok := n.clips[abs]
	if !ok {
		return
	}
	delete(n.clips, abs)
	_ = os.Remove(clip.WAVPath)
	_ = os.RemoveAll(filepath.Join(filepath.Dir(clip.WAVPath), cacheKey(abs)))
}

// Close removes the private cache directory, if one was created.
func (n *Normalizer) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clips = map[string]Clip{}
	if n.ownCache && n.opts.CacheDir != "" {
		dir := n.opts.CacheDir
		n.opts.CacheDir = ""
		n.ownCache = false
		return os.RemoveAll(dir)
	}
	return nil
}

func (n *Normalizer) cacheDir() (string, error) {
	if n.opts.CacheDir != "" {
		if err := os.MkdirAll(n.opts.CacheDir, 0o755); err != nil {
			return "", pipelineerr.Wrap(pipelineerr.ErrIO, "audio", "ensure cache dir", n.opts.CacheDir, err)
		}
		return n.opts.CacheDir, nil
	}
	dir, err := os.MkdirTemp("", "speech-emotion-")
	if err != nil {
		return "", pipelineerr.Wrap(pipelineerr.ErrIO, "audio", "create cache dir", "", err)
	}
	n.opts.CacheDir = dir
	n.ownCache = true
	return dir, nil
}

func cacheKey(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:8])
}
