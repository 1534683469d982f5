package dummy

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/wavfile"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
)

var _ executor.Executor = &DemucsExecutor{}

func NewDummyDemucsExecutor() *DemucsExecutor {
	return &DemucsExecutor{}
}

// DemucsExecutor stands in for the demucs binary. It writes a small WAV
// file per stem into the output directory layout the real binary
// produces: <out>/<model>/<track>/<stem>.wav.
type DemucsExecutor struct {
	Unavailable bool
	Commands    [][]string
}

func (d *DemucsExecutor) Command(name string, arg ...string) executor.Command {
	d.Commands = append(d.Commands, append([]string{name}, arg...))

	return &demucsCommand{
		executor: d,
		args:     arg,
	}
}

type demucsCommand struct {
	executor *DemucsExecutor
	args     []string
	dir      string
}

func (d *demucsCommand) SetDir(dir string) {
	d.dir = dir
}

func (d *demucsCommand) SetStdin(stdin io.Reader) {}

func (d *demucsCommand) Output() ([]byte, error) {
	return d.CombinedOutput()
}

func (d *demucsCommand) CombinedOutput() ([]byte, error) {
	if d.executor.Unavailable {
		return []byte("dummy demucs failure"), NetworkFailure
	}

	outputDir := flagValue(d.args, "-o")
	model := flagValue(d.args, "-n")
	sourcePath := d.args[len(d.args)-1]

	trackName := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	stemDir := filepath.Join(outputDir, model, trackName)
	if err := os.MkdirAll(stemDir, os.ModePerm); err != nil {
		return nil, err
	}

	// each stem gets a different constant level so tests can tell them
	// apart after a mix
	levels := map[string]float32{
		stem.Vocals: 0.1,
		stem.Drums:  0.2,
		stem.Bass:   0.3,
		stem.Other:  0.4,
	}

	for stemName, level := range levels {
		samples := make([]float32, 256)
		for i := range samples {
			samples[i] = level
		}

		buffer := audio.Buffer{
			Samples:    [][]float32{samples, samples},
			SampleRate: audio.DefaultSampleRate,
		}

		if err := wavfile.Write(filepath.Join(stemDir, stemName+".wav"), buffer); err != nil {
			return nil, err
		}
	}

	return []byte("dummy demucs ok"), nil
}

func flagValue(args []string, flagName string) string {
	for i, arg := range args {
		if arg == flagName && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
