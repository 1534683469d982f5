package engine_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/PMosby/Stem-Visualizer/src/shared/stemcache"
	"github.com/PMosby/Stem-Visualizer/src/shared/testing/dummy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CachedSeparator", func() {
	var (
		cachedSeparator engine.CachedSeparator
		demucsExecutor  *dummy.DemucsExecutor
		cacheDirPath    string
		inputFilePath   string
	)

	separate := func() stem.FilePaths {
		outputDir := GinkgoT().TempDir()
		stemPaths, err := cachedSeparator.SeparateFile(context.Background(), inputFilePath, outputDir, engine.ModelHTDemucs, engine.DeviceCPU)
		Expect(err).NotTo(HaveOccurred())
		return stemPaths
	}

	BeforeEach(func() {
		demucsExecutor = dummy.NewDummyDemucsExecutor()

		demucsSeparator, err := engine.NewDemucsSeparator(GinkgoT().TempDir(), "/bin/demucs", demucsExecutor)
		Expect(err).NotTo(HaveOccurred())

		cacheDirPath = GinkgoT().TempDir()
		cache, err := stemcache.NewCache(cacheDirPath)
		Expect(err).NotTo(HaveOccurred())

		cachedSeparator = engine.NewCachedSeparator(cache, demucsSeparator)

		inputFilePath = filepath.Join(GinkgoT().TempDir(), "song.mp3")
		Expect(os.WriteFile(inputFilePath, []byte("compressed audio"), 0644)).To(Succeed())
	})

	It("runs separation on a cache miss and stores the result", func() {
		stemPaths := separate()

		Expect(demucsExecutor.Commands).To(HaveLen(1))
		Expect(stemPaths).To(HaveLen(len(stem.Names)))

		// returned paths point into the cache, not the scratch output dir
		for _, path := range stemPaths {
			Expect(path).To(HavePrefix(cacheDirPath))
		}
	})

	It("skips separation entirely on a cache hit", func() {
		firstPaths := separate()
		secondPaths := separate()

		Expect(demucsExecutor.Commands).To(HaveLen(1))
		Expect(secondPaths).To(Equal(firstPaths))
	})

	It("separates again for a different model", func() {
		separate()

		outputDir := GinkgoT().TempDir()
		_, err := cachedSeparator.SeparateFile(context.Background(), inputFilePath, outputDir, engine.ModelMDXExtra, engine.DeviceCPU)
		Expect(err).NotTo(HaveOccurred())

		Expect(demucsExecutor.Commands).To(HaveLen(2))
	})

	It("propagates a separation failure", func() {
		demucsExecutor.Unavailable = true

		outputDir := GinkgoT().TempDir()
		_, err := cachedSeparator.SeparateFile(context.Background(), inputFilePath, outputDir, engine.ModelHTDemucs, engine.DeviceCPU)
		Expect(err).To(HaveOccurred())
	})
})
