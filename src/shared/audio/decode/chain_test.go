package decode_test

import (
	"os"
	"path/filepath"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/decode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/wavfile"
	testhelpers "github.com/PMosby/Stem-Visualizer/src/shared/testing"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type scriptedDecoder struct {
	name    string
	failure error
	buffer  audio.Buffer
	calls   *[]string
}

func (s scriptedDecoder) Name() string {
	return s.name
}

func (s scriptedDecoder) Decode(path string) (audio.Buffer, error) {
	*s.calls = append(*s.calls, s.name)

	if s.failure != nil {
		return audio.Buffer{}, s.failure
	}

	return s.buffer, nil
}

var _ = Describe("Decode chain", func() {
	var (
		calls      []string
		toneBuffer audio.Buffer
	)

	BeforeEach(func() {
		calls = []string{}
		toneBuffer = testhelpers.SineBuffer(440, 0.05, 44100, 0.5)
	})

	Describe("Short circuiting", func() {
		It("stops at the first decoder that succeeds", func() {
			chain := decode.NewChainOf(
				scriptedDecoder{name: "first", buffer: toneBuffer, calls: &calls},
				scriptedDecoder{name: "second", buffer: toneBuffer, calls: &calls},
			)

			buffer, err := chain.Decode("input.wav")
			Expect(err).NotTo(HaveOccurred())
			Expect(buffer.NumFrames()).To(Equal(toneBuffer.NumFrames()))
			Expect(calls).To(Equal([]string{"first"}))
		})

		It("falls through to the next decoder on failure", func() {
			chain := decode.NewChainOf(
				scriptedDecoder{name: "first", failure: errors.New("unsupported container"), calls: &calls},
				scriptedDecoder{name: "second", buffer: toneBuffer, calls: &calls},
			)

			buffer, err := chain.Decode("input.wav")
			Expect(err).NotTo(HaveOccurred())
			Expect(buffer.NumFrames()).To(Equal(toneBuffer.NumFrames()))
			Expect(calls).To(Equal([]string{"first", "second"}))
		})
	})

	Describe("All decoders failing", func() {
		It("tries every decoder and reports the aggregate failure", func() {
			chain := decode.NewChainOf(
				scriptedDecoder{name: "first", failure: errors.New("bad header"), calls: &calls},
				scriptedDecoder{name: "second", failure: errors.New("no backend"), calls: &calls},
			)

			_, err := chain.Decode("input.wav")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("All decode strategies failed"))
			Expect(calls).To(Equal([]string{"first", "second"}))
		})
	})

	Describe("Sniff driven ordering", func() {
		var (
			wavPath    string
			notWAVPath string
		)

		BeforeEach(func() {
			tempDir := GinkgoT().TempDir()

			wavPath = filepath.Join(tempDir, "tone.wav")
			Expect(wavfile.Write(wavPath, toneBuffer)).To(Succeed())

			notWAVPath = filepath.Join(tempDir, "tone.mp3")
			Expect(os.WriteFile(notWAVPath, []byte("not a wav file at all"), os.ModePerm)).To(Succeed())
		})

		It("lets the native parser handle files that sniff as WAV", func() {
			chain := decode.NewChainOf(
				decode.NativeWAVDecoder{},
				scriptedDecoder{name: "fallback", buffer: toneBuffer, calls: &calls},
			)

			buffer, err := chain.Decode(wavPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(buffer.NumFrames()).To(Equal(toneBuffer.NumFrames()))
			Expect(calls).To(BeEmpty())
		})

		It("demotes the native parser for files that don't sniff as WAV", func() {
			chain := decode.NewChainOf(
				decode.NativeWAVDecoder{},
				scriptedDecoder{name: "fallback", buffer: toneBuffer, calls: &calls},
			)

			buffer, err := chain.Decode(notWAVPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(buffer.NumFrames()).To(Equal(toneBuffer.NumFrames()))
			Expect(calls).To(Equal([]string{"fallback"}))
		})

		It("still attempts the native parser last when the sniff was wrong", func() {
			chain := decode.NewChainOf(
				decode.NativeWAVDecoder{},
				scriptedDecoder{name: "fallback", failure: errors.New("no backend"), calls: &calls},
			)

			_, err := chain.Decode(notWAVPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("All decode strategies failed"))
			Expect(calls).To(Equal([]string{"fallback"}))
		})
	})

	Describe("Channel conforming", func() {
		It("duplicates a mono channel into stereo", func() {
			mono := audio.Buffer{
				Samples:    [][]float32{{0.1, 0.2, 0.3}},
				SampleRate: 44100,
			}

			chain := decode.NewChainOf(
				scriptedDecoder{name: "mono", buffer: mono, calls: &calls},
			)

			buffer, err := chain.Decode("input.wav")
			Expect(err).NotTo(HaveOccurred())
			Expect(buffer.Channels()).To(Equal(2))
			Expect(buffer.Samples[0]).To(Equal(buffer.Samples[1]))
		})

		It("truncates more than two channels down to stereo", func() {
			surround := audio.Buffer{
				Samples: [][]float32{
					{0.1, 0.2},
					{0.3, 0.4},
					{0.5, 0.6},
				},
				SampleRate: 44100,
			}

			chain := decode.NewChainOf(
				scriptedDecoder{name: "surround", buffer: surround, calls: &calls},
			)

			buffer, err := chain.Decode("input.wav")
			Expect(err).NotTo(HaveOccurred())
			Expect(buffer.Channels()).To(Equal(2))
			Expect(buffer.Samples[0]).To(Equal(surround.Samples[0]))
			Expect(buffer.Samples[1]).To(Equal(surround.Samples[1]))
		})
	})
})
