package decode

import (
	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/wavfile"
)

var _ Decoder = NativeWAVDecoder{}

type NativeWAVDecoder struct{}

func (n NativeWAVDecoder) Name() string {
	return "native-wav"
}

func (n NativeWAVDecoder) Decode(path string) (audio.Buffer, error) {
	return wavfile.Read(path)
}
