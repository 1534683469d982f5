package decode_test

import (
	"bytes"
	"encoding/binary"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio/decode"
	"github.com/PMosby/Stem-Visualizer/src/shared/testing/dummy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FFmpeg pipe decoder", func() {
	var (
		ffmpegBinPath string
		dummyExecutor *dummy.FFmpegExecutor
		decoder       decode.FFmpegPipeDecoder
	)

	BeforeEach(func() {
		ffmpegBinPath = "/bin/ffmpeg"
		dummyExecutor = dummy.NewDummyFFmpegExecutor()
		decoder = decode.NewFFmpegPipeDecoder(ffmpegBinPath, 44100, dummyExecutor)
	})

	Describe("Decoding piped PCM", func() {
		BeforeEach(func() {
			// two interleaved stereo frames
			raw := &bytes.Buffer{}
			for _, sample := range []float32{0.5, -0.5, 0.25, -0.25} {
				Expect(binary.Write(raw, binary.LittleEndian, sample)).To(Succeed())
			}
			dummyExecutor.StdoutPayload = raw.Bytes()
		})

		It("deinterleaves ffmpeg's stdout into a stereo buffer", func() {
			buffer, err := decoder.Decode("song.mp3")
			Expect(err).NotTo(HaveOccurred())

			Expect(buffer.SampleRate).To(Equal(44100))
			Expect(buffer.Samples).To(Equal([][]float32{
				{0.5, 0.25},
				{-0.5, -0.25},
			}))
		})

		It("asks ffmpeg for raw f32le stereo at the target rate", func() {
			_, err := decoder.Decode("song.mp3")
			Expect(err).NotTo(HaveOccurred())

			Expect(dummyExecutor.Commands).To(HaveLen(1))
			command := dummyExecutor.Commands[0]
			Expect(command[0]).To(Equal(ffmpegBinPath))
			Expect(command).To(ContainElements("-f", "f32le", "-ac", "2", "-ar", "44100", "song.mp3"))
		})
	})

	Describe("ffmpeg failing", func() {
		BeforeEach(func() {
			dummyExecutor.Unavailable = true
		})

		It("returns an error", func() {
			_, err := decoder.Decode("song.mp3")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ffmpeg producing no samples", func() {
		It("returns an error", func() {
			_, err := decoder.Decode("song.mp3")
			Expect(err).To(HaveOccurred())
		})
	})
})
