package audio

// TargetRate is the sample rate the models expect.
const TargetRate = 16000

// Waveform is mono PCM in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Seconds returns the clip length in seconds, 0 for an empty or rateless clip.
func (w Waveform) Seconds() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

func (w Waveform) Empty() bool { return len(w.Samples) == 0 }

// Head returns at most the first seconds of the clip. A non-positive limit
// returns the clip unchanged.
func (w Waveform) Head(seconds float64) Waveform {
	if seconds <= 0 || w.SampleRate <= 0 {
		return w
	}
	n := int(seconds * float64(w.SampleRate))
	if n >= len(w.Samples) {
		return w
	}
	return Waveform{Samples: w.Samples[:n], SampleRate: w.SampleRate}
}

// Clip is one decoded input plus its normalized rendition.
type Clip struct {
	Source     string
	Decoded    Waveform
	Normalized Waveform
	// WAVPath is the cached 16-bit WAV of Normalized.
	WAVPath string
	// Degraded is set when ffmpeg failed and the source was read as-is.
	Degraded bool
	Reason   string
}
