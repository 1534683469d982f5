package dummy

import (
	"io"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
)

var _ executor.Executor = &FFmpegExecutor{}

func NewDummyFFmpegExecutor() *FFmpegExecutor {
	return &FFmpegExecutor{}
}

// FFmpegExecutor stands in for the ffmpeg binary. It records every
// command and any piped stdin, and answers with a canned stdout payload.
type FFmpegExecutor struct {
	Unavailable   bool
	StdoutPayload []byte
	Commands      [][]string
	StdinPayloads [][]byte
}

func (f *FFmpegExecutor) Command(name string, arg ...string) executor.Command {
	f.Commands = append(f.Commands, append([]string{name}, arg...))

	return &ffmpegCommand{
		executor: f,
	}
}

type ffmpegCommand struct {
	executor *FFmpegExecutor
	stdin    io.Reader
}

func (f *ffmpegCommand) SetDir(dir string) {}

func (f *ffmpegCommand) SetStdin(stdin io.Reader) {
	f.stdin = stdin
}

func (f *ffmpegCommand) CombinedOutput() ([]byte, error) {
	return f.run()
}

func (f *ffmpegCommand) Output() ([]byte, error) {
	return f.run()
}

func (f *ffmpegCommand) run() ([]byte, error) {
	if f.executor.Unavailable {
		return []byte("dummy ffmpeg failure"), NetworkFailure
	}

	if f.stdin != nil {
		payload, err := io.ReadAll(f.stdin)
		if err != nil {
			return nil, err
		}
		f.executor.StdinPayloads = append(f.executor.StdinPayloads, payload)
	}

	return f.executor.StdoutPayload, nil
}
