// Package features computes the prosodic measurements reported alongside the
// emotions: average pitch, silence and speaking pace.
package features

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/maastricht-university/speech-emotion/audio"
	"github.com/maastricht-university/speech-emotion/transcribe"
)

const (
	UnitWordsPerMinute = "words_per_minute"
	UnitWordsPerSecond = "words_per_second"
	UnitSeconds        = "seconds"
	UnitRatio          = "ratio"
)

const (
	pitchFFT       = 2048
	pitchHop       = 512
	pitchMinHz     = 150
	pitchMaxHz     = 4000
	pitchThreshold = 0.1

	chunkSeconds = 0.1
)

type Options struct {
	PaceUnit           string
	SilenceUnit        string
	SilenceThresholdDB float64
}

func DefaultOptions() Options {
	return Options{PaceUnit: UnitWordsPerMinute, SilenceUnit: UnitSeconds, SilenceThresholdDB: -40}
}

// Set holds one clip's measurements. Pitch is in Hz; Pace and Silence are in
// PaceUnit and SilenceUnit.
type Set struct {
	Pitch       float64
	Pace        float64
	Silence     float64
	PaceUnit    string
	SilenceUnit string
}

func Extract(w audio.Waveform, transcript string, opts Options) Set {
	if opts.PaceUnit == "" {
		opts.PaceUnit = UnitWordsPerMinute
	}
	if opts.SilenceUnit == "" {
		opts.SilenceUnit = UnitSeconds
	}
	return Set{
		Pitch:       Pitch(w),
		Pace:        Pace(transcript, w.Seconds(), opts.PaceUnit),
		Silence:     Silence(w, opts.SilenceUnit, opts.SilenceThresholdDB),
		PaceUnit:    opts.PaceUnit,
		SilenceUnit: opts.SilenceUnit,
	}
}

// Rounded returns s with every measurement rounded to two decimals.
func (s Set) Rounded() Set {
	s.Pitch = Round2(s.Pitch)
	s.Pace = Round2(s.Pace)
	s.Silence = Round2(s.Silence)
	return s
}

func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Pitch averages the piptrack-style pitch candidates whose magnitude exceeds
// the median magnitude of the whole bin-by-frame grid. 0 when nothing voiced
// is found.
func Pitch(w audio.Waveform) float64 {
	if w.Empty() || w.SampleRate <= 0 {
		return 0
	}
	spec := audio.STFT(w.Samples, pitchFFT, pitchHop)
	mag := spec.Magnitude()

	var grid []float64
	var pitches, mags []float64
	for _, frame := range mag {
		ref := 0.0
		for _, v := range frame {
			ref = math.Max(ref, v)
		}
		ref *= pitchThreshold

		for k := range frame {
			// non-candidate bins still count toward the median
			grid = append(grid, 0)
			if k == 0 || k == len(frame)-1 {
				continue
			}
			f := spec.BinFrequency(k, w.SampleRate)
			if f < pitchMinHz || f >= pitchMaxHz {
				continue
			}
			prev, cur, next := frame[k-1], frame[k], frame[k+1]
			if !(cur > prev && cur >= next) || cur <= ref {
				continue
			}
			avg := 0.5 * (next - prev)
			shift := 2*cur - next - prev
			if math.Abs(shift) < math.SmallestNonzeroFloat64 {
				shift = 1
			}
			shift = avg / shift
			m := cur + 0.5*avg*shift
			grid[len(grid)-1] = m
			pitches = append(pitches, (float64(k)+shift)*float64(w.SampleRate)/float64(pitchFFT))
			mags = append(mags, m)
		}
	}
	if len(pitches) == 0 {
		return 0
	}

	cut := median(grid)
	var voiced []float64
	for i, m := range mags {
		if m > cut {
			voiced = append(voiced, pitches[i])
		}
	}
	if len(voiced) == 0 {
		return 0
	}
	return stat.Mean(voiced, nil)
}

// median is the empirical 0.5 quantile; for an even count that is the lower
// of the two middle values.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// Silence counts 100 ms chunks quieter than thresholdDB (dBFS). The trailing
// partial chunk counts as a chunk. UnitSeconds reports count*0.1, UnitRatio
// the fraction of chunks that are silent.
func Silence(w audio.Waveform, unit string, thresholdDB float64) float64 {
	if w.Empty() || w.SampleRate <= 0 {
		return 0
	}
	size := int(float64(w.SampleRate) * chunkSeconds)
	if size < 1 {
		size = 1
	}
	total, silent := 0, 0
	for start := 0; start < len(w.Samples); start += size {
		end := min(start+size, len(w.Samples))
		total++
		if dBFS(w.Samples[start:end]) < thresholdDB {
			silent++
		}
	}
	if unit == UnitRatio {
		return float64(silent) / float64(total)
	}
	return float64(silent) * chunkSeconds
}

func dBFS(chunk []float64) float64 {
	sum := 0.0
	for _, s := range chunk {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(chunk)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// Pace is words per minute (or per second). A zero duration or a failed
// transcript yields 0.
func Pace(transcript string, durationSeconds float64, unit string) float64 {
	if durationSeconds <= 0 || !transcribe.Usable(transcript) {
		return 0
	}
	words := float64(len(strings.Fields(transcript)))
	if unit == UnitWordsPerSecond {
		return words / durationSeconds
	}
	return words / (durationSeconds / 60)
}
