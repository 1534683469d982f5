// Package features computes the per-stem analysis data that drives the
// waveform and spectral visualizations.
package features

import (
	"math"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
)

const (
	frameSize = 2048
	hopSize   = 512

	numMelBands   = 128
	numMFCCCoeffs = 13
	numChromaBins = 12

	rolloffEnergyFraction = 0.85

	minTempoBPM = 60.0
	maxTempoBPM = 200.0
)

// Bundle holds every feature series extracted from a single stem.
// Frame-indexed series share the same hop size so the frontend can
// align them on one time axis.
type Bundle struct {
	SampleRate        int         `json:"sample_rate"`
	FrameSize         int         `json:"frame_size"`
	HopSize           int         `json:"hop_size"`
	AmplitudeEnvelope []float64   `json:"amplitude_envelope"`
	SpectralCentroid  []float64   `json:"spectral_centroid"`
	SpectralRolloff   []float64   `json:"spectral_rolloff"`
	Chroma            [][]float64 `json:"chroma"`
	OnsetStrength     []float64   `json:"onset_strength"`
	MelSpectrogram    [][]float64 `json:"mel_spectrogram"`
	MFCC              [][]float64 `json:"mfcc"`
	Tempo             float64     `json:"tempo"`
}

// Extract computes the full feature bundle from an audio buffer.
// Multichannel input is mixed down to mono first.
func Extract(buffer audio.Buffer) Bundle {
	mono := buffer.Mono()
	spec := spectrogram(mono, frameSize, hopSize)

	onsets := onsetStrength(spec)

	return Bundle{
		SampleRate:        buffer.SampleRate,
		FrameSize:         frameSize,
		HopSize:           hopSize,
		AmplitudeEnvelope: amplitudeEnvelope(mono),
		SpectralCentroid:  spectralCentroid(spec, buffer.SampleRate),
		SpectralRolloff:   spectralRolloff(spec, buffer.SampleRate),
		Chroma:            chroma(spec, buffer.SampleRate),
		OnsetStrength:     onsets,
		MelSpectrogram:    melSpectrogram(spec, buffer.SampleRate),
		MFCC:              mfcc(spec, buffer.SampleRate),
		Tempo:             estimateTempo(onsets, buffer.SampleRate),
	}
}

// amplitudeEnvelope is the RMS of each analysis frame.
func amplitudeEnvelope(samples []float32) []float64 {
	numFrames := (len(samples) - frameSize) / hopSize
	if numFrames <= 0 {
		return nil
	}

	envelope := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		sum := 0.0
		for j := 0; j < frameSize; j++ {
			s := float64(samples[start+j])
			sum += s * s
		}
		envelope[i] = math.Sqrt(sum / float64(frameSize))
	}
	return envelope
}

func binFrequencies(numBins, sampleRate int) []float64 {
	fftSize := (numBins - 1) * 2
	freqs := make([]float64, numBins)
	for i := range freqs {
		freqs[i] = float64(i) * float64(sampleRate) / float64(fftSize)
	}
	return freqs
}

func spectralCentroid(spec [][]float64, sampleRate int) []float64 {
	if len(spec) == 0 {
		return nil
	}

	freqs := binFrequencies(len(spec[0]), sampleRate)
	centroids := make([]float64, len(spec))
	for i, mags := range spec {
		var weighted, total float64
		for bin, mag := range mags {
			weighted += freqs[bin] * mag
			total += mag
		}
		if total > 0 {
			centroids[i] = weighted / total
		}
	}
	return centroids
}

// spectralRolloff finds the frequency below which 85% of each frame's
// spectral energy sits.
func spectralRolloff(spec [][]float64, sampleRate int) []float64 {
	if len(spec) == 0 {
		return nil
	}

	freqs := binFrequencies(len(spec[0]), sampleRate)
	rolloffs := make([]float64, len(spec))
	for i, mags := range spec {
		total := 0.0
		for _, mag := range mags {
			total += mag * mag
		}

		threshold := rolloffEnergyFraction * total
		cumulative := 0.0
		for bin, mag := range mags {
			cumulative += mag * mag
			if cumulative >= threshold {
				rolloffs[i] = freqs[bin]
				break
			}
		}
	}
	return rolloffs
}

// chroma folds spectral energy into 12 pitch classes (C at index 0).
func chroma(spec [][]float64, sampleRate int) [][]float64 {
	if len(spec) == 0 {
		return nil
	}

	freqs := binFrequencies(len(spec[0]), sampleRate)
	out := make([][]float64, numChromaBins)
	for pc := range out {
		out[pc] = make([]float64, len(spec))
	}

	for i, mags := range spec {
		for bin, mag := range mags {
			freq := freqs[bin]
			if freq < 20 {
				continue
			}
			// MIDI note number, folded to a pitch class.
			midi := 69 + 12*math.Log2(freq/440.0)
			pc := int(math.Round(midi)) % numChromaBins
			if pc < 0 {
				pc += numChromaBins
			}
			out[pc][i] += mag
		}

		// Normalize the frame so chord shapes compare across dynamics.
		max := 0.0
		for pc := 0; pc < numChromaBins; pc++ {
			if out[pc][i] > max {
				max = out[pc][i]
			}
		}
		if max > 0 {
			for pc := 0; pc < numChromaBins; pc++ {
				out[pc][i] /= max
			}
		}
	}

	return out
}

// onsetStrength is the half-wave rectified spectral flux between
// consecutive frames. The first frame has zero flux.
func onsetStrength(spec [][]float64) []float64 {
	if len(spec) == 0 {
		return nil
	}

	flux := make([]float64, len(spec))
	for i := 1; i < len(spec); i++ {
		sum := 0.0
		for bin := range spec[i] {
			diff := spec[i][bin] - spec[i-1][bin]
			if diff > 0 {
				sum += diff
			}
		}
		flux[i] = sum
	}
	return flux
}

func melSpectrogram(spec [][]float64, sampleRate int) [][]float64 {
	if len(spec) == 0 {
		return nil
	}

	numBins := len(spec[0])
	fftSize := (numBins - 1) * 2
	filters := melFilterbank(numMelBands, numBins, fftSize, sampleRate)

	out := make([][]float64, numMelBands)
	for m := range out {
		out[m] = make([]float64, len(spec))
	}

	for i, mags := range spec {
		for m, filter := range filters {
			sum := 0.0
			for bin, weight := range filter {
				if weight > 0 {
					sum += weight * mags[bin] * mags[bin]
				}
			}
			out[m][i] = sum
		}
	}

	return out
}

func mfcc(spec [][]float64, sampleRate int) [][]float64 {
	mel := melSpectrogram(spec, sampleRate)
	if len(mel) == 0 {
		return nil
	}

	numFrames := len(mel[0])
	out := make([][]float64, numMFCCCoeffs)
	for c := range out {
		out[c] = make([]float64, numFrames)
	}

	logMel := make([]float64, numMelBands)
	for i := 0; i < numFrames; i++ {
		for m := 0; m < numMelBands; m++ {
			logMel[m] = math.Log(mel[m][i] + 1e-10)
		}
		coeffs := dct(logMel, numMFCCCoeffs)
		for c := 0; c < numMFCCCoeffs; c++ {
			out[c][i] = coeffs[c]
		}
	}

	return out
}

// estimateTempo autocorrelates the onset envelope and picks the
// strongest lag inside the plausible BPM range.
func estimateTempo(onsets []float64, sampleRate int) float64 {
	if len(onsets) < 4 {
		return 0
	}

	framesPerSecond := float64(sampleRate) / float64(hopSize)
	minLag := int(framesPerSecond * 60.0 / maxTempoBPM)
	maxLag := int(framesPerSecond * 60.0 / minTempoBPM)
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag > maxLag {
		return 0
	}

	bestLag := 0
	bestScore := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		score := 0.0
		for i := 0; i < len(onsets)-lag; i++ {
			score += onsets[i] * onsets[i+lag]
		}
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0
	}
	return 60.0 * framesPerSecond / float64(bestLag)
}
