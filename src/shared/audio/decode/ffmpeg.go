package decode

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/wavfile"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/cockroachdb/errors"
)

var _ Decoder = FFmpegPipeDecoder{}

func NewFFmpegPipeDecoder(ffmpegBinPath string, targetSampleRate int, executor executor.Executor) FFmpegPipeDecoder {
	return FFmpegPipeDecoder{
		ffmpegBinPath:    ffmpegBinPath,
		targetSampleRate: targetSampleRate,
		executor:         executor,
	}
}

// FFmpegPipeDecoder streams raw f32le stereo PCM out of ffmpeg's stdout.
type FFmpegPipeDecoder struct {
	ffmpegBinPath    string
	targetSampleRate int
	executor         executor.Executor
}

func (f FFmpegPipeDecoder) Name() string {
	return "ffmpeg-pipe"
}

func (f FFmpegPipeDecoder) Decode(path string) (audio.Buffer, error) {
	cmd := f.executor.Command(f.ffmpegBinPath,
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "2",
		"-ar", fmt.Sprintf("%d", f.targetSampleRate),
		"-",
	)

	raw, err := cmd.Output()
	if err != nil {
		return audio.Buffer{}, ffmpegError(err, "ffmpeg decode failed")
	}

	frames := len(raw) / 4 / 2
	if frames == 0 {
		return audio.Buffer{}, cerr.Field("path", path).
			Error("ffmpeg produced no samples")
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
		right[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
	}

	return audio.Buffer{
		Samples:    [][]float32{left, right},
		SampleRate: f.targetSampleRate,
	}, nil
}

var _ Decoder = FFmpegConvertDecoder{}

func NewFFmpegConvertDecoder(ffmpegBinPath string, targetSampleRate int, executor executor.Executor) FFmpegConvertDecoder {
	return FFmpegConvertDecoder{
		ffmpegBinPath:    ffmpegBinPath,
		targetSampleRate: targetSampleRate,
		executor:         executor,
	}
}

// FFmpegConvertDecoder converts the input to a temporary WAV file and
// parses that natively. Last resort for containers the pipe decode
// chokes on.
type FFmpegConvertDecoder struct {
	ffmpegBinPath    string
	targetSampleRate int
	executor         executor.Executor
}

func (f FFmpegConvertDecoder) Name() string {
	return "ffmpeg-convert"
}

func (f FFmpegConvertDecoder) Decode(path string) (audio.Buffer, error) {
	tempDir, err := os.MkdirTemp("", "decode-*")
	if err != nil {
		return audio.Buffer{}, cerr.Wrap(err).Error("Failed to create temp dir for conversion")
	}
	defer os.RemoveAll(tempDir)

	tempWAVPath := filepath.Join(tempDir, "converted.wav")

	cmd := f.executor.Command(f.ffmpegBinPath,
		"-y",
		"-i", path,
		"-ar", fmt.Sprintf("%d", f.targetSampleRate),
		"-ac", "2",
		tempWAVPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return audio.Buffer{}, cerr.Field("ffmpeg_output", string(output)).
			Wrap(err).Error("ffmpeg conversion failed")
	}

	return wavfile.Read(tempWAVPath)
}

// ffmpegError pulls ffmpeg's stderr out of an exec failure so the
// diagnostic survives into the wrapped error.
func ffmpegError(err error, msg string) error {
	exitErr := &exec.ExitError{}
	if errors.As(err, &exitErr) {
		return cerr.Field("ffmpeg_output", string(exitErr.Stderr)).
			Wrap(err).Error(msg)
	}

	return cerr.Wrap(err).Error(msg)
}
