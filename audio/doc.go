// Package audio turns an arbitrary recording into the canonical waveform the
// models consume.
//
// Load runs, in order:
//
//  1. Decode - WAV is read directly, other containers go through ffmpeg
//  2. Resample to 16 kHz
//  3. Peak normalization
//  4. Pre-emphasis (0.97)
//  5. Silence trim (25 dB below the loudest frame by default)
//  6. Pre-emphasis again (0.97, then 0.95), a crude denoise heuristic
//  7. Harmonic/percussive separation, keeping the harmonic part
//
// Every step is also exported as a pure function over Waveform. The
// normalized clip is written once per input path into a cache directory so the
// transcriber and the emotion classifier share one decode.
package audio
