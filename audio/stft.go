package audio

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrogram is a centered short-time Fourier transform. Frames[t][k] holds
// bins 0..NFFT/2 of frame t.
type Spectrogram struct {
	Frames [][]complex128
	NFFT   int
	Hop    int
	// Length is the number of samples of the analyzed signal.
	Length int
}

// STFT transforms samples with a Hann window, zero padding NFFT/2 on each side.
func STFT(samples []float64, nfft, hop int) Spectrogram {
	spec := Spectrogram{NFFT: nfft, Hop: hop, Length: len(samples)}
	if len(samples) == 0 || nfft <= 0 || hop <= 0 {
		return spec
	}
	win := window.Hann(nfft)
	pad := nfft / 2
	total := len(samples) + 2*pad
	count := 1 + (total-nfft)/hop
	bins := nfft/2 + 1

	spec.Frames = make([][]complex128, count)
	buf := make([]float64, nfft)
	for t := 0; t < count; t++ {
		start := t*hop - pad
		for i := range buf {
			j := start + i
			if j < 0 || j >= len(samples) {
				buf[i] = 0
				continue
			}
			buf[i] = samples[j] * win[i]
		}
		full := fft.FFTReal(buf)
		spec.Frames[t] = append([]complex128(nil), full[:bins]...)
	}
	return spec
}

// Magnitude returns |Frames| with the same layout.
func (s Spectrogram) Magnitude() [][]float64 {
	out := make([][]float64, len(s.Frames))
	for t, frame := range s.Frames {
		row := make([]float64, len(frame))
		for k, c := range frame {
			row[k] = cmplx.Abs(c)
		}
		out[t] = row
	}
	return out
}

// BinFrequency returns the center frequency of bin k in Hz.
func (s Spectrogram) BinFrequency(k, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(s.NFFT)
}

// Inverse resynthesizes the signal by weighted overlap-add.
func (s Spectrogram) Inverse() []float64 {
	if len(s.Frames) == 0 || s.Length == 0 {
		return nil
	}
	nfft := s.NFFT
	win := window.Hann(nfft)
	pad := nfft / 2
	total := nfft + (len(s.Frames)-1)*s.Hop
	out := make([]float64, total)
	norm := make([]float64, total)

	full := make([]complex128, nfft)
	for t, frame := range s.Frames {
		for k := range full {
			full[k] = 0
		}
		for k, c := range frame {
			full[k] = c
			if k > 0 && k < nfft-k {
				full[nfft-k] = cmplx.Conj(c)
			}
		}
		timeDomain := fft.IFFT(full)
		offset := t * s.Hop
		for i := 0; i < nfft; i++ {
			out[offset+i] += real(timeDomain[i]) * win[i]
			norm[offset+i] += win[i] * win[i]
		}
	}

	result := make([]float64, s.Length)
	for i := range result {
		j := i + pad
		if j >= total {
			break
		}
		if norm[j] > amin {
			result[i] = out[j] / norm[j]
		}
	}
	return result
}
