package encode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/wavfile"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Writer
type Writer interface {
	Name() string
	Write(path string, buffer audio.Buffer) error
}

// AudioWriter is what producers of audio files depend on.
//
//counterfeiter:generate . AudioWriter
type AudioWriter interface {
	Write(path string, buffer audio.Buffer) error
}

var _ AudioWriter = Chain{}

// NewChain builds the output backend fallback: native WAV encoding
// first, ffmpeg as the fallback when the direct write fails.
func NewChain(ffmpegBinPath string, executor executor.Executor) Chain {
	return NewChainOf(
		NativeWAVWriter{},
		NewFFmpegWriter(ffmpegBinPath, executor),
	)
}

func NewChainOf(writers ...Writer) Chain {
	return Chain{
		writers: writers,
	}
}

type Chain struct {
	writers []Writer
}

func (c Chain) Write(path string, buffer audio.Buffer) error {
	var combined error
	for _, writer := range c.writers {
		err := writer.Write(path, buffer)
		if err == nil {
			return nil
		}

		log.WithFields(log.Fields{
			"writer": writer.Name(),
			"path":   path,
		}).Info("Writer failed, falling back to the next backend")

		combined = errors.CombineErrors(combined, errors.Wrapf(err, "%s writer failed", writer.Name()))
	}

	return cerr.Field("path", path).
		Wrap(combined).Error("All output backends failed")
}

var _ Writer = NativeWAVWriter{}

type NativeWAVWriter struct{}

func (n NativeWAVWriter) Name() string {
	return "native-wav"
}

func (n NativeWAVWriter) Write(path string, buffer audio.Buffer) error {
	return wavfile.Write(path, buffer)
}

var _ Writer = FFmpegWriter{}

func NewFFmpegWriter(ffmpegBinPath string, executor executor.Executor) FFmpegWriter {
	return FFmpegWriter{
		ffmpegBinPath: ffmpegBinPath,
		executor:      executor,
	}
}

// FFmpegWriter pipes raw f32le PCM into ffmpeg and lets it produce the
// output file, so the container format follows the path's extension.
type FFmpegWriter struct {
	ffmpegBinPath string
	executor      executor.Executor
}

func (f FFmpegWriter) Name() string {
	return "ffmpeg"
}

func (f FFmpegWriter) Write(path string, buffer audio.Buffer) error {
	channels := buffer.Channels()
	if channels == 0 {
		return cerr.Error("Buffer has no channels")
	}

	raw := &bytes.Buffer{}
	frames := buffer.NumFrames()
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			_ = binary.Write(raw, binary.LittleEndian, buffer.Samples[ch][i])
		}
	}

	cmd := f.executor.Command(f.ffmpegBinPath,
		"-y",
		"-f", "f32le",
		"-ar", fmt.Sprintf("%d", buffer.SampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-i", "-",
		path,
	)
	cmd.SetStdin(raw)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return cerr.Field("ffmpeg_output", string(output)).
			Wrap(err).Error("ffmpeg encode failed")
	}

	return nil
}
