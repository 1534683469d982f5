package decode

import (
	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Decoder
type Decoder interface {
	Name() string
	Decode(path string) (audio.Buffer, error)
}

// AudioDecoder is what consumers of decoded audio depend on.
// Chain is the production implementation.
//
//counterfeiter:generate . AudioDecoder
type AudioDecoder interface {
	Decode(path string) (audio.Buffer, error)
}

var _ AudioDecoder = Chain{}

// NewChain builds the layered decode fallback: native WAV parsing,
// then an ffmpeg pipe decode, then an ffmpeg conversion to a temporary
// WAV file. Each strategy is materially different, not a retry of the
// previous one.
func NewChain(ffmpegBinPath string, targetSampleRate int, executor executor.Executor) Chain {
	return NewChainOf(
		NativeWAVDecoder{},
		NewFFmpegPipeDecoder(ffmpegBinPath, targetSampleRate, executor),
		NewFFmpegConvertDecoder(ffmpegBinPath, targetSampleRate, executor),
	)
}

func NewChainOf(decoders ...Decoder) Chain {
	return Chain{
		decoders: decoders,
	}
}

type Chain struct {
	decoders []Decoder
}

func (c Chain) Decode(path string) (audio.Buffer, error) {
	ordered := c.orderFor(path)

	var combined error
	for _, decoder := range ordered {
		buffer, err := decoder.Decode(path)
		if err == nil {
			return conformChannels(buffer), nil
		}

		log.WithFields(log.Fields{
			"decoder": decoder.Name(),
			"path":    path,
		}).Info("Decoder failed, falling back to the next strategy")

		combined = errors.CombineErrors(combined, errors.Wrapf(err, "%s decoder failed", decoder.Name()))
	}

	return audio.Buffer{}, cerr.Field("path", path).
		Wrap(combined).Error("All decode strategies failed")
}

// orderFor puts the native WAV parser first only when the file actually
// sniffs as WAV, otherwise it would fail pointlessly before ffmpeg runs.
func (c Chain) orderFor(path string) []Decoder {
	kind, err := filetype.MatchFile(path)
	if err == nil && kind == matchers.TypeWav {
		return c.decoders
	}

	ordered := []Decoder{}
	for _, decoder := range c.decoders {
		if _, isNative := decoder.(NativeWAVDecoder); isNative {
			continue
		}
		ordered = append(ordered, decoder)
	}

	// native still runs last in case the sniff was wrong
	for _, decoder := range c.decoders {
		if _, isNative := decoder.(NativeWAVDecoder); isNative {
			ordered = append(ordered, decoder)
		}
	}

	return ordered
}

func conformChannels(buffer audio.Buffer) audio.Buffer {
	switch {
	case buffer.Channels() > 2:
		return audio.Buffer{
			Samples:    buffer.Samples[:2],
			SampleRate: buffer.SampleRate,
		}
	case buffer.Channels() == 1:
		return audio.Buffer{
			Samples:    [][]float32{buffer.Samples[0], buffer.Samples[0]},
			SampleRate: buffer.SampleRate,
		}
	default:
		return buffer
	}
}
