package testing

import (
	"math"
	"os"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
)

func ExpectSuccess[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

func SetTestEnv() {
	if err := os.Setenv("ENVIRONMENT", "test"); err != nil {
		panic(err)
	}
}

// SineBuffer synthesizes a stereo sine tone for test inputs.
func SineBuffer(freqHz float64, seconds float64, sampleRate int, amplitude float64) audio.Buffer {
	numFrames := int(seconds * float64(sampleRate))
	left := make([]float32, numFrames)
	right := make([]float32, numFrames)

	for i := 0; i < numFrames; i++ {
		sample := float32(amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate)))
		left[i] = sample
		right[i] = sample
	}

	return audio.Buffer{
		Samples:    [][]float32{left, right},
		SampleRate: sampleRate,
	}
}

// ClickTrackBuffer synthesizes a stereo click track at the given tempo,
// useful for exercising onset and tempo analysis.
func ClickTrackBuffer(bpm float64, seconds float64, sampleRate int) audio.Buffer {
	numFrames := int(seconds * float64(sampleRate))
	left := make([]float32, numFrames)
	right := make([]float32, numFrames)

	framesPerBeat := int(float64(sampleRate) * 60.0 / bpm)
	clickLength := sampleRate / 100

	for start := 0; start < numFrames; start += framesPerBeat {
		for i := 0; i < clickLength && start+i < numFrames; i++ {
			decay := 1.0 - float64(i)/float64(clickLength)
			sample := float32(0.9 * decay)
			left[start+i] = sample
			right[start+i] = sample
		}
	}

	return audio.Buffer{
		Samples:    [][]float32{left, right},
		SampleRate: sampleRate,
	}
}
