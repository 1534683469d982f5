package features_test

import (
	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/features"
	testhelpers "github.com/PMosby/Stem-Visualizer/src/shared/testing"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extract", func() {
	const sampleRate = 44100

	Describe("on a 440 Hz sine tone", func() {
		var bundle features.Bundle

		BeforeEach(func() {
			buffer := testhelpers.SineBuffer(440, 2.0, sampleRate, 0.5)
			bundle = features.Extract(buffer)
		})

		It("records the analysis parameters", func() {
			Expect(bundle.SampleRate).To(Equal(sampleRate))
			Expect(bundle.FrameSize).To(Equal(2048))
			Expect(bundle.HopSize).To(Equal(512))
		})

		It("produces a steady amplitude envelope near the tone's RMS", func() {
			Expect(bundle.AmplitudeEnvelope).NotTo(BeEmpty())

			// RMS of a 0.5 amplitude sine is 0.5/sqrt(2)
			for _, rms := range bundle.AmplitudeEnvelope {
				Expect(rms).To(BeNumerically("~", 0.354, 0.05))
			}
		})

		It("centers the spectrum around the tone's frequency", func() {
			Expect(bundle.SpectralCentroid).NotTo(BeEmpty())
			for _, centroid := range bundle.SpectralCentroid {
				Expect(centroid).To(BeNumerically("~", 440, 150))
			}
		})

		It("rolls off just above the tone's frequency", func() {
			Expect(bundle.SpectralRolloff).NotTo(BeEmpty())
			for _, rolloff := range bundle.SpectralRolloff {
				Expect(rolloff).To(BeNumerically("~", 440, 150))
			}
		})

		It("puts the chroma peak on pitch class A", func() {
			// A440 is MIDI note 69, pitch class 9 with C at index 0
			const aPitchClass = 9

			Expect(bundle.Chroma).To(HaveLen(12))

			numFrames := len(bundle.Chroma[0])
			Expect(numFrames).To(BeNumerically(">", 0))

			midFrame := numFrames / 2
			Expect(bundle.Chroma[aPitchClass][midFrame]).To(BeNumerically("~", 1.0, 0.001))
			for pc := 0; pc < 12; pc++ {
				if pc == aPitchClass {
					continue
				}
				Expect(bundle.Chroma[pc][midFrame]).To(BeNumerically("<", 1.0))
			}
		})

		It("shapes the spectral series consistently", func() {
			numFrames := len(bundle.AmplitudeEnvelope)

			Expect(bundle.MelSpectrogram).To(HaveLen(128))
			Expect(bundle.MelSpectrogram[0]).To(HaveLen(numFrames))

			Expect(bundle.MFCC).To(HaveLen(13))
			Expect(bundle.MFCC[0]).To(HaveLen(numFrames))

			Expect(bundle.OnsetStrength).To(HaveLen(numFrames))
			Expect(bundle.SpectralCentroid).To(HaveLen(numFrames))
			Expect(bundle.SpectralRolloff).To(HaveLen(numFrames))
		})

		It("shows almost no onset activity after the attack", func() {
			numFrames := len(bundle.OnsetStrength)
			peak := 0.0
			for _, flux := range bundle.OnsetStrength {
				if flux > peak {
					peak = flux
				}
			}

			// steady-state flux should be tiny compared to the attack
			for i := numFrames / 2; i < numFrames; i++ {
				Expect(bundle.OnsetStrength[i]).To(BeNumerically("<", peak/10))
			}
		})
	})

	Describe("on a click track", func() {
		It("estimates the tempo close to the click rate", func() {
			buffer := testhelpers.ClickTrackBuffer(120, 8.0, sampleRate)
			bundle := features.Extract(buffer)

			Expect(bundle.Tempo).To(BeNumerically("~", 120, 5))
		})

		It("tracks a slower click rate too", func() {
			buffer := testhelpers.ClickTrackBuffer(90, 8.0, sampleRate)
			bundle := features.Extract(buffer)

			Expect(bundle.Tempo).To(BeNumerically("~", 90, 5))
		})
	})

	Describe("on audio shorter than one analysis frame", func() {
		It("returns empty series without panicking", func() {
			short := audio.Buffer{
				Samples:    [][]float32{make([]float32, 100), make([]float32, 100)},
				SampleRate: sampleRate,
			}

			bundle := features.Extract(short)

			Expect(bundle.AmplitudeEnvelope).To(BeEmpty())
			Expect(bundle.SpectralCentroid).To(BeEmpty())
			Expect(bundle.MelSpectrogram).To(BeEmpty())
			Expect(bundle.Tempo).To(BeZero())
		})
	})
})
