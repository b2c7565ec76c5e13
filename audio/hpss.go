package audio

import (
	"math"
	"sort"
)

const hpssKernel = 31

// Harmonic separates w into harmonic and percussive parts by median filtering
// the magnitude spectrogram and returns only the harmonic part.
func Harmonic(w Waveform) Waveform {
	if len(w.Samples) == 0 {
		return w
	}
	spec := STFT(w.Samples, frameLength, hopLength)
	mag := spec.Magnitude()
	harm := medianAcrossTime(mag, hpssKernel)
	perc := medianAcrossFrequency(mag, hpssKernel)

	masked := Spectrogram{NFFT: spec.NFFT, Hop: spec.Hop, Length: spec.Length}
	masked.Frames = make([][]complex128, len(spec.Frames))
	for t, frame := range spec.Frames {
		row := make([]complex128, len(frame))
		for k, c := range frame {
			row[k] = c * complex(softMask(harm[t][k], perc[t][k], 2), 0)
		}
		masked.Frames[t] = row
	}
	return Waveform{Samples: masked.Inverse(), SampleRate: w.SampleRate}
}

// softMask is the Wiener-style ratio x^p / (x^p + y^p); 0 when both vanish.
func softMask(x, y, power float64) float64 {
	z := math.Max(x, y)
	if z < amin {
		return 0
	}
	xp := math.Pow(x/z, power)
	yp := math.Pow(y/z, power)
	return xp / (xp + yp)
}

func medianAcrossTime(mag [][]float64, kernel int) [][]float64 {
	frames := len(mag)
	if frames == 0 {
		return nil
	}
	bins := len(mag[0])
	out := make([][]float64, frames)
	for t := range out {
		out[t] = make([]float64, bins)
	}
	half := kernel / 2
	scratch := make([]float64, 0, kernel)
	for k := 0; k < bins; k++ {
		for t := 0; t < frames; t++ {
			scratch = scratch[:0]
			for j := t - half; j <= t+half; j++ {
				scratch = append(scratch, mag[reflectIndex(j, frames)][k])
			}
			out[t][k] = median(scratch)
		}
	}
	return out
}

func medianAcrossFrequency(mag [][]float64, kernel int) [][]float64 {
	out := make([][]float64, len(mag))
	half := kernel / 2
	scratch := make([]float64, 0, kernel)
	for t, row := range mag {
		bins := len(row)
		out[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			scratch = scratch[:0]
			for j := k - half; j <= k+half; j++ {
				scratch = append(scratch, row[reflectIndex(j, bins)])
			}
			out[t][k] = median(scratch)
		}
	}
	return out
}

// reflectIndex mirrors i into [0, n) the way scipy's "reflect" mode does.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// median sorts values in place.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
