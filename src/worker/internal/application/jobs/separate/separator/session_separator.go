package separator

import (
	"context"

	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/working_dir"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
)

type SessionSeparator struct {
	sessionStore sessionentity.Store
	separator    engine.Separator
	workingDir   working_dir.WorkingDir
}

func NewSessionSeparator(separator engine.Separator, sessionStore sessionentity.Store, workingDir working_dir.WorkingDir) SessionSeparator {
	return SessionSeparator{
		sessionStore: sessionStore,
		separator:    separator,
		workingDir:   workingDir,
	}
}

// SeparateSession loads the session, runs the separation engine on its
// input file, and returns the resulting stem paths. Session state is not
// written here, that belongs to the save results job.
func (s SessionSeparator) SeparateSession(ctx context.Context, sessionID string) (stem.FilePaths, error) {
	errctx := cerr.Field("session_id", sessionID)

	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to get session from session store")
	}

	errctx = errctx.Field("session", session)

	if session.Status != sessionentity.StatusProcessing {
		return nil, errctx.Error("Unexpected: session is not in processing status")
	}

	modelID := session.ModelID
	if modelID == "" {
		modelID = engine.DefaultModel
	}

	device := session.Device
	if device == "" {
		device = engine.DefaultDevice
	}

	outputDir, err := s.workingDir.TempDir()
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to create an output directory for stems")
	}

	stemPaths, err := s.separator.SeparateFile(ctx, session.InputFilePath, outputDir, modelID, device)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to separate the session's input file")
	}

	return stemPaths, nil
}
