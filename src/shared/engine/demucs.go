package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/working_dir"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"

	"github.com/apex/log"
)

var _ Separator = DemucsSeparator{}

func NewDemucsSeparator(workingDirStr string, demucsBinPath string, executor executor.Executor) (DemucsSeparator, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return DemucsSeparator{}, cerr.Wrap(err).Error("Failed to convert working dir to absolute format")
	}

	return DemucsSeparator{
		workingDir:    workingDir,
		demucsBinPath: demucsBinPath,
		executor:      executor,
	}, nil
}

// DemucsSeparator shells out to the demucs CLI to split one audio file
// into stems.
type DemucsSeparator struct {
	workingDir    working_dir.WorkingDir
	demucsBinPath string
	executor      executor.Executor
}

func (d DemucsSeparator) SeparateFile(ctx context.Context, inputFilePath string, stemsOutputDir string, modelID string, device string) (stem.FilePaths, error) {
	if !IsValidModel(modelID) {
		return nil, cerr.Field("model_id", modelID).Error("Invalid separation model")
	}

	if !IsValidDevice(device) {
		return nil, cerr.Field("device", device).Error("Invalid separation device")
	}

	absInputFilePath, err := filepath.Abs(inputFilePath)
	if err != nil {
		return nil, cerr.Wrap(err).Error("Cannot convert input path to absolute format")
	}

	errctx := cerr.Field("input_filepath", absInputFilePath)

	absStemsOutputDir, err := filepath.Abs(stemsOutputDir)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Cannot convert output path to absolute format")
	}

	// separation is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return nil, cerr.Wrap(ctx.Err()).Error("Context cancelled before separation could happen")
	}

	if err := d.runDemucs(absInputFilePath, absStemsOutputDir, modelID, device); err != nil {
		return nil, errctx.Field("output_dir", absStemsOutputDir).
			Wrap(err).Error("Failed to execute demucs")
	}

	return collectStemFilePaths(absStemsOutputDir)
}

func (d DemucsSeparator) runDemucs(sourcePath string, destPath string, modelID string, device string) error {
	logger := log.WithFields(log.Fields{
		"sourcePath": sourcePath,
		"destPath":   destPath,
		"modelID":    modelID,
		"device":     device,
		"workingDir": d.workingDir,
	})

	logger.Info("Running demucs command")

	args := []string{"-n", modelID, "-d", DeviceArg(device), "-o", destPath, "--filename", "{stem}.{ext}", sourcePath}

	errctx := cerr.Field("demucs_bin_path", d.demucsBinPath).Field("demucs_args", args)

	cmd := d.executor.Command(d.demucsBinPath, args...)
	cmd.SetDir(d.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errctx.Field("demucs_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running demucs: %s", string(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished demucs command")

	return nil
}

// collectStemFilePaths gathers the stem files demucs produced. Demucs
// nests its output under <outputDir>/<model>/<track>/, so single-child
// directories are descended before collecting.
func collectStemFilePaths(dir string) (stem.FilePaths, error) {
	logger := log.WithFields(log.Fields{
		"dir": dir,
	})

	logger.Info("Reading directory to collect stem file paths")

	stemDir, err := descendToStemDir(dir)
	if err != nil {
		return nil, cerr.Wrap(err).Error("Failed to locate the stem output directory")
	}

	dirEntries, err := os.ReadDir(stemDir)
	if err != nil {
		return nil, cerr.Wrap(err).Error("Error reading output directory")
	}

	outputs := stem.FilePaths{}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}

		fileName := dirEntry.Name()
		filePath, err := filepath.Abs(filepath.Join(stemDir, fileName))
		if err != nil {
			return nil, cerr.Field("file_name", fileName).
				Wrap(err).Error("Failed to convert file path to absolute format")
		}

		stemName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		if !stem.IsValidName(stemName) {
			logger.WithField("stem_name", stemName).Warn("Skipping unrecognized output file")
			continue
		}

		outputs[stemName] = filePath
	}

	if len(outputs) == 0 {
		return nil, cerr.Field("dir", stemDir).Error("No stem files in output directory")
	}

	return outputs, nil
}

func descendToStemDir(dir string) (string, error) {
	current := dir
	for {
		dirEntries, err := os.ReadDir(current)
		if err != nil {
			return "", cerr.Field("dir", current).Wrap(err).Error("Error reading directory")
		}

		if len(dirEntries) == 1 && dirEntries[0].IsDir() {
			current = filepath.Join(current, dirEntries[0].Name())
			continue
		}

		return current, nil
	}
}
