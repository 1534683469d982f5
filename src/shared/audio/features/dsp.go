package features

import (
	"math"
	"math/cmplx"
)

func nextPow2(n int) int {
	v := 1
	for v < n {
		v <<= 1
	}
	return v
}

func fft(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	copy(out, x)
	if n <= 1 {
		return out
	}

	// Bit reversal permutation
	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			out[i], out[j] = out[j], out[i]
		}
		m := n >> 1
		for j >= m && m > 0 {
			j -= m
			m >>= 1
		}
		j += m
	}

	// Iterative Cooley-Tukey
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := -2 * math.Pi / float64(size)
		wLen := complex(math.Cos(step), math.Sin(step))
		for i := 0; i < n; i += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				u := out[i+k]
				v := out[i+k+half] * w
				out[i+k] = u + v
				out[i+k+half] = u - v
				w *= wLen
			}
		}
	}
	return out
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// spectrogram returns per-frame magnitude spectra (numFrames x numBins).
func spectrogram(samples []float32, frameSize, hopSize int) [][]float64 {
	n := len(samples)
	numFrames := (n - frameSize) / hopSize
	if numFrames <= 0 {
		return nil
	}

	fftSize := nextPow2(frameSize)
	numBins := fftSize/2 + 1
	window := hannWindow(frameSize)

	frames := make([][]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		frame := make([]complex128, fftSize)
		for j := 0; j < frameSize && start+j < n; j++ {
			frame[j] = complex(float64(samples[start+j])*window[j], 0)
		}

		spec := fft(frame)
		mag := make([]float64, numBins)
		for j := 0; j < numBins; j++ {
			mag[j] = cmplx.Abs(spec[j])
		}
		frames[i] = mag
	}

	return frames
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}

// melFilterbank builds numMels triangular filters over numBins linear
// frequency bins at the given sample rate.
func melFilterbank(numMels, numBins, fftSize, sampleRate int) [][]float64 {
	lowMel := hzToMel(0)
	highMel := hzToMel(float64(sampleRate) / 2)

	melPoints := make([]float64, numMels+2)
	for i := range melPoints {
		mel := lowMel + (highMel-lowMel)*float64(i)/float64(numMels+1)
		melPoints[i] = melToHz(mel)
	}

	binOf := func(hz float64) float64 {
		return hz * float64(fftSize) / float64(sampleRate)
	}

	filters := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		filters[m] = make([]float64, numBins)
		left := binOf(melPoints[m])
		center := binOf(melPoints[m+1])
		right := binOf(melPoints[m+2])

		for bin := 0; bin < numBins; bin++ {
			b := float64(bin)
			switch {
			case b > left && b <= center:
				filters[m][bin] = (b - left) / (center - left)
			case b > center && b < right:
				filters[m][bin] = (right - b) / (right - center)
			}
		}
	}

	return filters
}

// dct computes the first numCoeffs DCT-II coefficients of the input.
func dct(input []float64, numCoeffs int) []float64 {
	n := len(input)
	out := make([]float64, numCoeffs)
	for k := 0; k < numCoeffs && k < n; k++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += input[i] * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n))
		}
		out[k] = sum
	}
	return out
}
