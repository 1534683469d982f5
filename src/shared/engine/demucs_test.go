package engine_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/PMosby/Stem-Visualizer/src/shared/testing/dummy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DemucsSeparator", func() {
	var (
		separator      engine.DemucsSeparator
		demucsExecutor *dummy.DemucsExecutor
		inputFilePath  string
		outputDir      string
	)

	BeforeEach(func() {
		demucsExecutor = dummy.NewDummyDemucsExecutor()

		var err error
		separator, err = engine.NewDemucsSeparator(GinkgoT().TempDir(), "/bin/demucs", demucsExecutor)
		Expect(err).NotTo(HaveOccurred())

		inputFilePath = filepath.Join(GinkgoT().TempDir(), "song.mp3")
		Expect(os.WriteFile(inputFilePath, []byte("compressed audio"), 0644)).To(Succeed())

		outputDir = GinkgoT().TempDir()
	})

	It("collects all four stems from the nested output layout", func() {
		stemPaths, err := separator.SeparateFile(context.Background(), inputFilePath, outputDir, engine.ModelHTDemucs, engine.DeviceCPU)
		Expect(err).NotTo(HaveOccurred())

		Expect(stemPaths).To(HaveLen(len(stem.Names)))
		for _, stemName := range stem.Names {
			path, ok := stemPaths[stemName]
			Expect(ok).To(BeTrue())

			_, statErr := os.Stat(path)
			Expect(statErr).NotTo(HaveOccurred())
		}
	})

	It("passes the model, device, and paths to the binary", func() {
		_, err := separator.SeparateFile(context.Background(), inputFilePath, outputDir, engine.ModelMDXExtra, engine.DeviceGPU)
		Expect(err).NotTo(HaveOccurred())

		Expect(demucsExecutor.Commands).To(HaveLen(1))

		command := demucsExecutor.Commands[0]
		Expect(command[0]).To(Equal("/bin/demucs"))
		Expect(command).To(ContainElements("-n", "mdx_extra"))
		Expect(command).To(ContainElements("-d", "cuda"))
		Expect(command[len(command)-1]).To(Equal(inputFilePath))
	})

	It("rejects an unknown model without running the binary", func() {
		_, err := separator.SeparateFile(context.Background(), inputFilePath, outputDir, "spleeter", engine.DeviceCPU)
		Expect(err).To(HaveOccurred())
		Expect(demucsExecutor.Commands).To(BeEmpty())
	})

	It("rejects an unknown device without running the binary", func() {
		_, err := separator.SeparateFile(context.Background(), inputFilePath, outputDir, engine.ModelHTDemucs, "tpu")
		Expect(err).To(HaveOccurred())
		Expect(demucsExecutor.Commands).To(BeEmpty())
	})

	It("surfaces a binary failure", func() {
		demucsExecutor.Unavailable = true

		_, err := separator.SeparateFile(context.Background(), inputFilePath, outputDir, engine.ModelHTDemucs, engine.DeviceCPU)
		Expect(err).To(HaveOccurred())
	})

	It("stops before running when the context is already cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := separator.SeparateFile(ctx, inputFilePath, outputDir, engine.ModelHTDemucs, engine.DeviceCPU)
		Expect(err).To(HaveOccurred())
		Expect(demucsExecutor.Commands).To(BeEmpty())
	})
})

var _ = Describe("Models and devices", func() {
	It("accepts every listed model", func() {
		for _, modelID := range engine.ModelIDs {
			Expect(engine.IsValidModel(modelID)).To(BeTrue())
		}
	})

	It("rejects models outside the list", func() {
		Expect(engine.IsValidModel("")).To(BeFalse())
		Expect(engine.IsValidModel("htdemucs2")).To(BeFalse())
	})

	It("maps gpu to the cuda flag value", func() {
		Expect(engine.DeviceArg(engine.DeviceGPU)).To(Equal("cuda"))
		Expect(engine.DeviceArg(engine.DeviceCPU)).To(Equal("cpu"))
	})
})
