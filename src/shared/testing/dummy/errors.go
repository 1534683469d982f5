package dummy

import (
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/errors/mark"
	sessionstorage "github.com/PMosby/Stem-Visualizer/src/shared/session/storage"
)

var (
	NetworkFailure = mark.Message(sessionstorage.DefaultErrorMark, "Dummy network failure")
	NotFound       = mark.Message(sessionstorage.SessionNotFound, "Dummy session not found")
)
