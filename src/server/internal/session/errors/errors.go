package sessionerrors

import (
	"github.com/PMosby/Stem-Visualizer/src/server/internal/errors/api"
)

const (
	SessionNotFoundCode      = api.ErrorCode("session_not_found")
	BadUploadCode            = api.ErrorCode("bad_upload")
	InvalidModelCode         = api.ErrorCode("invalid_model")
	InvalidDeviceCode        = api.ErrorCode("invalid_device")
	SeparationIncompleteCode = api.ErrorCode("separation_incomplete")
	SeparationFailedCode     = api.ErrorCode("separation_failed")
	StemNotFoundCode         = api.ErrorCode("stem_not_found")
	UndecodableStemCode      = api.ErrorCode("undecodable_stem")
	NoStemsSelectedCode      = api.ErrorCode("no_stems_selected")
	MixFailedCode            = api.ErrorCode("mix_failed")
)
