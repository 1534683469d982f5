package audio

import "math"

// DefaultSampleRate is what decoded audio is conformed to when the
// source format requires resampling.
const DefaultSampleRate = 44100

// Buffer is decoded PCM audio: one float32 slice per channel, all the
// same length, with samples in [-1, 1] (unnormalized sums may exceed it).
type Buffer struct {
	Samples    [][]float32
	SampleRate int
}

func (b Buffer) Channels() int {
	return len(b.Samples)
}

func (b Buffer) NumFrames() int {
	if len(b.Samples) == 0 {
		return 0
	}

	return len(b.Samples[0])
}

// Mono averages all channels into a single channel.
func (b Buffer) Mono() []float32 {
	frames := b.NumFrames()
	channels := b.Channels()
	if channels == 0 {
		return nil
	}

	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := float32(0)
		for ch := 0; ch < channels; ch++ {
			sum += b.Samples[ch][i]
		}
		mono[i] = sum / float32(channels)
	}

	return mono
}

// Peak returns the maximum absolute sample value across all channels.
func (b Buffer) Peak() float32 {
	peak := float32(0)
	for _, channel := range b.Samples {
		for _, sample := range channel {
			abs := float32(math.Abs(float64(sample)))
			if abs > peak {
				peak = abs
			}
		}
	}

	return peak
}
