package save_results

import (
	"context"
	"encoding/json"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_message"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "save_results"
const ErrorMessage string = "Failed to save the separated stems"

type JobParams struct {
	job_message.SessionIdentifier
	StemFilePaths map[string]string `json:"stem_file_paths"`
}

//counterfeiter:generate . SaveResultsJobHandler
type SaveResultsJobHandler interface {
	HandleSaveResultsJob(message []byte) error
}

func NewJobHandler(sessionStore sessionentity.Store, exporter StemExporter) JobHandler {
	return JobHandler{
		sessionStore: sessionStore,
		exporter:     exporter,
	}
}

type JobHandler struct {
	sessionStore sessionentity.Store
	exporter     StemExporter
}

func (s JobHandler) HandleSaveResultsJob(message []byte) error {
	params, err := unmarshalMessage(message)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_params", params)

	session, err := s.sessionStore.GetSession(context.Background(), params.SessionID)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to fetch the session")
	}

	remoteURLs, err := s.exporter.ExportStems(context.Background(), params.SessionID, params.StemFilePaths)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to export the stems")
	}

	session.StemFilePaths = params.StemFilePaths
	session.RemoteStemURLs = remoteURLs
	session.Status = sessionentity.StatusCompleted
	session.StatusMessage = ""
	session.StatusDebugLog = ""
	session.Progress = 100

	err = s.sessionStore.SetSession(context.Background(), session)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to update the session")
	}

	return nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_params", params)

	if params.SessionID == "" {
		return JobParams{}, errctx.Error("Missing session ID")
	}

	if len(params.StemFilePaths) == 0 {
		return JobParams{}, errctx.Error("Missing stem file paths")
	}

	return params, nil
}
