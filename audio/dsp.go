package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	frameLength = 2048
	hopLength   = 512
	amin        = 1e-10
)

// Resample converts w to rate using linear interpolation.
func Resample(w Waveform, rate int) Waveform {
	if rate <= 0 || w.SampleRate == rate || w.SampleRate <= 0 || len(w.Samples) == 0 {
		return Waveform{Samples: w.Samples, SampleRate: pickRate(w.SampleRate, rate)}
	}
	ratio := float64(w.SampleRate) / float64(rate)
	outLen := int(float64(len(w.Samples)) / ratio)
	out := make([]float64, outLen)
	last := len(w.Samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = w.Samples[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = w.Samples[idx]*(1-frac) + w.Samples[idx+1]*frac
	}
	return Waveform{Samples: out, SampleRate: rate}
}

func pickRate(current, target int) int {
	if target > 0 {
		return target
	}
	return current
}

// PeakNormalize scales w so its largest absolute sample is 1. Silent input is
// returned unchanged.
func PeakNormalize(w Waveform) Waveform {
	peak := 0.0
	for _, s := range w.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak < amin {
		return w
	}
	out := make([]float64, len(w.Samples))
	copy(out, w.Samples)
	floats.Scale(1/peak, out)
	return Waveform{Samples: out, SampleRate: w.SampleRate}
}

// PreEmphasis applies y[n] = x[n] - coef*x[n-1], with x[-1] taken as x[0].
func PreEmphasis(w Waveform, coef float64) Waveform {
	if len(w.Samples) == 0 {
		return w
	}
	out := make([]float64, len(w.Samples))
	prev := w.Samples[0]
	for i, s := range w.Samples {
		out[i] = s - coef*prev
		prev = s
	}
	return Waveform{Samples: out, SampleRate: w.SampleRate}
}

// FrameRMS returns the RMS of centered frames, zero padded at both ends.
func FrameRMS(samples []float64, frame, hop int) []float64 {
	if len(samples) == 0 || frame <= 0 || hop <= 0 {
		return nil
	}
	pad := frame / 2
	total := len(samples) + 2*pad
	count := 1 + (total-frame)/hop
	out := make([]float64, count)
	for f := 0; f < count; f++ {
		start := f*hop - pad
		sum := 0.0
		for i := start; i < start+frame; i++ {
			if i < 0 || i >= len(samples) {
				continue
			}
			sum += samples[i] * samples[i]
		}
		out[f] = math.Sqrt(sum / float64(frame))
	}
	return out
}

// TrimSilence drops leading and trailing frames quieter than topDB below the
// loudest frame.
func TrimSilence(w Waveform, topDB float64) Waveform {
	rms := FrameRMS(w.Samples, frameLength, hopLength)
	if len(rms) == 0 {
		return w
	}
	ref := floats.Max(rms)
	if ref <= amin {
		return w
	}
	first, last := -1, -1
	for i, r := range rms {
		db := 20 * math.Log10(math.Max(r, amin)/ref)
		if db > -topDB {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Waveform{SampleRate: w.SampleRate}
	}
	start := first * hopLength
	end := (last + 1) * hopLength
	if end > len(w.Samples) {
		end = len(w.Samples)
	}
	if start >= end {
		return Waveform{SampleRate: w.SampleRate}
	}
	return Waveform{Samples: w.Samples[start:end], SampleRate: w.SampleRate}
}

// Normalize runs the full conditioning chain on an already decoded waveform.
func Normalize(w Waveform, rate int, topDB float64) Waveform {
	w = Resample(w, rate)
	w = PeakNormalize(w)
	w = PreEmphasis(w, 0.97)
	w = TrimSilence(w, topDB)
	// Repeated pre-emphasis stands in for compression and noise reduction.
	w = PreEmphasis(w, 0.97)
	w = PreEmphasis(w, 0.95)
	// Filtering can push the peak past full scale; the cached WAV must not clip.
	return PeakNormalize(Harmonic(w))
}
