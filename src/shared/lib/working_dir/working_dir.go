package working_dir

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func NewWorkingDir(dirPath string) (WorkingDir, error) {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to convert working dir path to absolute format")
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to create working dir")
	}

	return WorkingDir{
		root: absPath,
	}, nil
}

type WorkingDir struct {
	root string
}

func (w WorkingDir) Root() string {
	return w.root
}

// TempDir creates a fresh directory under the working dir root. Each
// separation run gets its own so concurrent jobs can't collide.
func (w WorkingDir) TempDir() (string, error) {
	tempDirPath, err := os.MkdirTemp(w.root, "job-*")
	if err != nil {
		return "", errors.Wrap(err, "Failed to create temp dir in working dir")
	}

	return tempDirPath, nil
}
