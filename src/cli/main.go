// Command stem-visualizer separates an audio file into stems on the
// local machine, without the server and worker, and optionally renders a
// remix of selected stems.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/decode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/encode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/features"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/mix"
	"github.com/PMosby/Stem-Visualizer/src/shared/config"
	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/PMosby/Stem-Visualizer/src/shared/stemcache"
	"github.com/apex/log"
)

func main() {
	modelID := flag.String("model", engine.DefaultModel, "separation model: "+strings.Join(engine.ModelIDs, ", "))
	device := flag.String("device", engine.DefaultDevice, "separation device: cpu or gpu")
	forceCPU := flag.Bool("cpu", false, "force separation on the CPU")
	outDir := flag.String("out", "separated", "directory to write stems into")
	cacheDir := flag.String("cache-dir", ".stem-cache", "directory for cached separation results")
	demucsBin := flag.String("demucs-bin", "", "path to the demucs binary (default: look up on PATH)")
	ffmpegBin := flag.String("ffmpeg-bin", "", "path to the ffmpeg binary (default: look up on PATH)")

	makeMix := flag.Bool("mix", false, "render a remix of the separated stems")
	noVocals := flag.Bool("no-vocals", false, "leave vocals out of the mix")
	noDrums := flag.Bool("no-drums", false, "leave drums out of the mix")
	noBass := flag.Bool("no-bass", false, "leave bass out of the mix")
	noOther := flag.Bool("no-other", false, "leave other out of the mix")

	writeFeatures := flag.Bool("features", false, "write a features JSON file next to each stem")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: stem-visualizer [flags] <audio-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	inputFilePath := flag.Arg(0)

	if *forceCPU {
		*device = engine.DeviceCPU
	}

	if !engine.IsValidModel(*modelID) {
		log.Fatalf("Unrecognized model %q, available models: %s", *modelID, strings.Join(engine.ModelIDs, ", "))
	}

	if !engine.IsValidDevice(*device) {
		log.Fatalf("Unrecognized device %q, available devices: cpu, gpu", *device)
	}

	if *demucsBin == "" {
		*demucsBin = config.DemucsPath()
	}

	if *ffmpegBin == "" {
		*ffmpegBin = config.FFmpegPath()
	}

	if err := run(inputFilePath, runConfig{
		modelID:       *modelID,
		device:        *device,
		outDir:        *outDir,
		cacheDir:      *cacheDir,
		demucsBin:     *demucsBin,
		ffmpegBin:     *ffmpegBin,
		makeMix:       *makeMix,
		excludedStems: excludedStems(*noVocals, *noDrums, *noBass, *noOther),
		writeFeatures: *writeFeatures,
	}); err != nil {
		log.WithError(err).Fatal("Separation failed")
	}
}

type runConfig struct {
	modelID       string
	device        string
	outDir        string
	cacheDir      string
	demucsBin     string
	ffmpegBin     string
	makeMix       bool
	excludedStems map[string]bool
	writeFeatures bool
}

func run(inputFilePath string, cfg runConfig) error {
	if err := os.MkdirAll(cfg.outDir, os.ModePerm); err != nil {
		return err
	}

	cache, err := stemcache.NewCache(cfg.cacheDir)
	if err != nil {
		return err
	}

	demucsSeparator, err := engine.NewDemucsSeparator(cfg.outDir, cfg.demucsBin, executor.BinaryFileExecutor{})
	if err != nil {
		return err
	}

	cachedSeparator := engine.NewCachedSeparator(cache, demucsSeparator)

	workDir, err := os.MkdirTemp(cfg.outDir, "demucs-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	stemPaths, err := cachedSeparator.SeparateFile(context.Background(), inputFilePath, workDir, cfg.modelID, cfg.device)
	if err != nil {
		return err
	}

	decoder := decode.NewChain(cfg.ffmpegBin, audio.DefaultSampleRate, executor.BinaryFileExecutor{})

	for stemName, cachedPath := range stemPaths {
		outPath := filepath.Join(cfg.outDir, stemName+".wav")
		if err := copyFile(cachedPath, outPath); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"stem": stemName,
			"path": outPath,
		}).Info("Wrote stem")

		if cfg.writeFeatures {
			if err := writeFeatureFile(decoder, outPath); err != nil {
				return err
			}
		}
	}

	if cfg.makeMix {
		return renderMix(decoder, cfg, stemPaths)
	}

	return nil
}

func excludedStems(noVocals, noDrums, noBass, noOther bool) map[string]bool {
	return map[string]bool{
		stem.Vocals: noVocals,
		stem.Drums:  noDrums,
		stem.Bass:   noBass,
		stem.Other:  noOther,
	}
}

func renderMix(decoder decode.AudioDecoder, cfg runConfig, stemPaths stem.FilePaths) error {
	selected := []string{}
	for _, stemName := range stem.Names {
		if !cfg.excludedStems[stemName] {
			selected = append(selected, stemName)
		}
	}

	mixer := mix.NewMixer(decoder, encode.NewChain(cfg.ffmpegBin, executor.BinaryFileExecutor{}))
	mixPath := filepath.Join(cfg.outDir, "custom_mix.wav")

	outputPath, ok, err := mixer.Mix(stemPaths, selected, mixPath)
	if err != nil {
		return err
	}

	if !ok {
		log.Warn("Every stem was excluded, no mix was written")
		return nil
	}

	log.WithField("path", outputPath).Info("Wrote mix")
	return nil
}

func writeFeatureFile(decoder decode.AudioDecoder, stemFilePath string) error {
	buffer, err := decoder.Decode(stemFilePath)
	if err != nil {
		return err
	}

	bundle := features.Extract(buffer)

	contents, err := json.Marshal(bundle)
	if err != nil {
		return err
	}

	featurePath := strings.TrimSuffix(stemFilePath, filepath.Ext(stemFilePath)) + ".features.json"
	return os.WriteFile(featurePath, contents, 0644)
}

func copyFile(sourcePath string, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
