package audio

import (
	"errors"
	"fmt"
	"time"
)

// ErrSampleRateMismatch is returned when joining waveforms recorded at different rates
var ErrSampleRateMismatch = errors.New("sample rate mismatch")

// Waveform is a mono buffer of normalized float samples at a fixed sample rate
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples in the waveform
func (w Waveform) Len() int {
	return len(w.Samples)
}

// Duration returns the playback length of the waveform
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// SilenceSamples returns how many samples d spans at sampleRate, truncated
func SilenceSamples(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(d.Seconds() * float64(sampleRate))
}

// Silence returns a zero-valued waveform of duration d
func Silence(d time.Duration, sampleRate int) Waveform {
	return Waveform{
		Samples:    make([]float32, SilenceSamples(d, sampleRate)),
		SampleRate: sampleRate,
	}
}

// Join concatenates pieces in order, inserting gap of silence between
// consecutive pieces only. All pieces must share one sample rate.
// Joining no pieces yields an empty waveform with a zero sample rate.
func Join(pieces []Waveform, gap time.Duration) (Waveform, error) {
	if len(pieces) == 0 {
		return Waveform{}, nil
	}

	sampleRate := pieces[0].SampleRate
	if sampleRate <= 0 {
		return Waveform{}, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	gapSamples := SilenceSamples(gap, sampleRate)
	total := gapSamples * (len(pieces) - 1)
	for i, p := range pieces {
		if p.SampleRate != sampleRate {
			return Waveform{}, fmt.Errorf("%w: piece %d is %d Hz, expected %d Hz",
				ErrSampleRateMismatch, i, p.SampleRate, sampleRate)
		}
		total += len(p.Samples)
	}

	out := make([]float32, 0, total)
	for i, p := range pieces {
		if i > 0 {
			// make() already zeroed the backing array past len
			out = out[:len(out)+gapSamples]
		}
		out = append(out, p.Samples...)
	}

	return Waveform{Samples: out, SampleRate: sampleRate}, nil
}
