package executor

import (
	"io"
	"os/exec"
)

// Executor abstracts exec.Command so that job handlers can be tested
// without the real binaries installed.
type Executor interface {
	Command(name string, arg ...string) Command
}

type Command interface {
	SetDir(dir string)
	SetStdin(stdin io.Reader)
	CombinedOutput() ([]byte, error)
	// Output returns stdout alone, for commands whose stdout carries
	// binary data that must not be interleaved with diagnostics.
	Output() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

type BinaryFileExecutor struct{}

func (b BinaryFileExecutor) Command(name string, arg ...string) Command {
	return BinaryFileCommand{
		cmd: exec.Command(name, arg...),
	}
}

var _ Command = BinaryFileCommand{}

type BinaryFileCommand struct {
	cmd *exec.Cmd
}

func (b BinaryFileCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b BinaryFileCommand) SetStdin(stdin io.Reader) {
	b.cmd.Stdin = stdin
}

func (b BinaryFileCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}

func (b BinaryFileCommand) Output() ([]byte, error) {
	return b.cmd.Output()
}
