package mix

import (
	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/decode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/encode"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/apex/log"
)

// normalizeTarget keeps the summed waveform out of clipping range.
const normalizeTarget = 0.9

func NewMixer(decoder decode.AudioDecoder, writer encode.AudioWriter) Mixer {
	return Mixer{
		decoder: decoder,
		writer:  writer,
	}
}

type Mixer struct {
	decoder decode.AudioDecoder
	writer  encode.AudioWriter
}

// Mix sums the selected stems sample-wise and writes the result to
// outputPath. An empty selection is not an error, it just produces
// nothing (ok=false). A stem that fails to load is skipped so a partial
// selection still mixes; only a fully failed load set is an error.
//
// No resampling or alignment happens here: stems from one separation
// call share a sample rate and length by construction.
func (m Mixer) Mix(stemPaths stem.FilePaths, selectedNames []string, outputPath string) (string, bool, error) {
	if len(selectedNames) == 0 {
		return "", false, nil
	}

	var mixed audio.Buffer
	loadedCount := 0

	for _, name := range selectedNames {
		path, ok := stemPaths[name]
		if !ok {
			log.WithField("stem", name).Info("Stem not present in the stem set, skipping")
			continue
		}

		logger := log.WithFields(log.Fields{
			"stem": name,
			"path": path,
		})

		buffer, err := m.decoder.Decode(path)
		if err != nil {
			cerr.Log(cerr.Field("stem", name).
				Wrap(err).Error("Failed to load stem for mixing, skipping it"))
			continue
		}

		logger.Info("Adding stem to mix")

		if loadedCount == 0 {
			mixed = buffer
		} else {
			addInto(&mixed, buffer)
		}
		loadedCount++
	}

	if loadedCount == 0 {
		return "", false, cerr.Field("selected_names", selectedNames).
			Error("None of the selected stems could be loaded")
	}

	normalize(&mixed)

	if err := m.writer.Write(outputPath, mixed); err != nil {
		return "", false, cerr.Field("output_path", outputPath).
			Wrap(err).Error("Failed to write the mixed audio")
	}

	return outputPath, true, nil
}

func addInto(mixed *audio.Buffer, buffer audio.Buffer) {
	for ch := 0; ch < mixed.Channels() && ch < buffer.Channels(); ch++ {
		frames := len(mixed.Samples[ch])
		if len(buffer.Samples[ch]) < frames {
			frames = len(buffer.Samples[ch])
		}

		for i := 0; i < frames; i++ {
			mixed.Samples[ch][i] += buffer.Samples[ch][i]
		}
	}
}

func normalize(mixed *audio.Buffer) {
	peak := mixed.Peak()
	if peak <= 0 {
		return
	}

	scale := float32(normalizeTarget) / peak
	for _, channel := range mixed.Samples {
		for i := range channel {
			channel[i] *= scale
		}
	}
}
