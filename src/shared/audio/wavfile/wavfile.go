package wavfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/pkg/errors"
)

const (
	formatPCM       = 1
	formatIEEEFloat = 3
)

// Read parses a RIFF/WAVE file holding 16-bit PCM or 32-bit float samples.
func Read(path string) (audio.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Buffer{}, errors.Wrap(err, "Failed to read wav file")
	}

	return Decode(data)
}

func Decode(data []byte) (audio.Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return audio.Buffer{}, errors.New("Not a RIFF/WAVE file")
	}

	var (
		format     uint16
		channels   uint16
		sampleRate uint32
		bitDepth   uint16
		pcm        []byte
	)

	// walk the chunk list for fmt and data
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return audio.Buffer{}, errors.New("fmt chunk is too short")
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitDepth = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// chunks are word aligned
		offset = body + chunkSize + chunkSize%2
	}

	if channels == 0 {
		return audio.Buffer{}, errors.New("No fmt chunk found")
	}

	if pcm == nil {
		return audio.Buffer{}, errors.New("No data chunk found")
	}

	switch {
	case format == formatPCM && bitDepth == 16:
		return decodePCM16(pcm, int(channels), int(sampleRate)), nil
	case format == formatIEEEFloat && bitDepth == 32:
		return decodeFloat32(pcm, int(channels), int(sampleRate)), nil
	default:
		return audio.Buffer{}, errors.Errorf("Unsupported wav encoding: format %d, bit depth %d", format, bitDepth)
	}
}

func decodePCM16(pcm []byte, channels int, sampleRate int) audio.Buffer {
	frames := len(pcm) / 2 / channels
	samples := makeChannels(channels, frames)

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			raw := int16(binary.LittleEndian.Uint16(pcm[(i*channels+ch)*2:]))
			samples[ch][i] = float32(raw) / 32768.0
		}
	}

	return audio.Buffer{Samples: samples, SampleRate: sampleRate}
}

func decodeFloat32(pcm []byte, channels int, sampleRate int) audio.Buffer {
	frames := len(pcm) / 4 / channels
	samples := makeChannels(channels, frames)

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			bits := binary.LittleEndian.Uint32(pcm[(i*channels+ch)*4:])
			samples[ch][i] = math.Float32frombits(bits)
		}
	}

	return audio.Buffer{Samples: samples, SampleRate: sampleRate}
}

func makeChannels(channels int, frames int) [][]float32 {
	samples := make([][]float32, channels)
	for ch := range samples {
		samples[ch] = make([]float32, frames)
	}

	return samples
}

// Write saves the buffer as a 32-bit float WAVE file.
func Write(path string, buffer audio.Buffer) error {
	encoded, err := Encode(buffer)
	if err != nil {
		return errors.Wrap(err, "Failed to encode wav data")
	}

	if err := os.WriteFile(path, encoded, os.ModePerm); err != nil {
		return errors.Wrap(err, "Failed to write wav file")
	}

	return nil
}

func Encode(buffer audio.Buffer) ([]byte, error) {
	channels := buffer.Channels()
	if channels == 0 {
		return nil, errors.New("Buffer has no channels")
	}

	frames := buffer.NumFrames()
	dataSize := frames * channels * 4

	out := &bytes.Buffer{}
	writeString(out, "RIFF")
	writeUint32(out, uint32(36+dataSize))
	writeString(out, "WAVE")

	writeString(out, "fmt ")
	writeUint32(out, 16)
	writeUint16(out, formatIEEEFloat)
	writeUint16(out, uint16(channels))
	writeUint32(out, uint32(buffer.SampleRate))
	writeUint32(out, uint32(buffer.SampleRate*channels*4)) // byte rate
	writeUint16(out, uint16(channels*4))                   // block align
	writeUint16(out, 32)                                   // bit depth

	writeString(out, "data")
	writeUint32(out, uint32(dataSize))
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			writeUint32(out, math.Float32bits(buffer.Samples[ch][i]))
		}
	}

	return out.Bytes(), nil
}

func writeString(w io.Writer, s string) {
	_, _ = w.Write([]byte(s))
}

func writeUint32(w io.Writer, v uint32) {
	_ = binary.Write(w, binary.LittleEndian, v)
}

func writeUint16(w io.Writer, v uint16) {
	_ = binary.Write(w, binary.LittleEndian, v)
}
