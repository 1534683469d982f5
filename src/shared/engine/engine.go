// Package engine defines the boundary to the stem separation backend and
// the vocabulary of models and devices it accepts.
package engine

import (
	"context"

	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const (
	ModelHTDemucs   = "htdemucs"
	ModelHTDemucsFT = "htdemucs_ft"
	ModelMDXExtra   = "mdx_extra"
	ModelMDXExtraQ  = "mdx_extra_q"

	DefaultModel = ModelHTDemucs
)

const (
	DeviceCPU = "cpu"
	DeviceGPU = "gpu"

	DefaultDevice = DeviceCPU
)

// ModelIDs lists every separation model that can be requested, in
// display order.
var ModelIDs = []string{ModelHTDemucs, ModelHTDemucsFT, ModelMDXExtra, ModelMDXExtraQ}

func IsValidModel(modelID string) bool {
	switch modelID {
	case ModelHTDemucs, ModelHTDemucsFT, ModelMDXExtra, ModelMDXExtraQ:
		return true
	default:
		return false
	}
}

func IsValidDevice(device string) bool {
	return device == DeviceCPU || device == DeviceGPU
}

// DeviceArg maps the user-facing device name to the flag value the
// separation binary expects.
func DeviceArg(device string) string {
	if device == DeviceGPU {
		return "cuda"
	}
	return DeviceCPU
}

//counterfeiter:generate . Separator
type Separator interface {
	SeparateFile(ctx context.Context, inputFilePath string, stemsOutputDir string, modelID string, device string) (stem.FilePaths, error)
}
