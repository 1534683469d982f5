package separate

import (
	"context"
	"encoding/json"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_message"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/separate/separator"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "separate_stems"
const ErrorMessage string = "Failed to separate the audio into stems. Try a different model or input format"

//counterfeiter:generate . SeparateJobHandler
type SeparateJobHandler interface {
	HandleSeparateJob(message []byte) (JobParams, stem.FilePaths, error)
}

type JobParams struct {
	job_message.SessionIdentifier
}

func NewJobHandler(sessionSeparator separator.SessionSeparator) JobHandler {
	return JobHandler{
		sessionSeparator: sessionSeparator,
	}
}

type JobHandler struct {
	sessionSeparator separator.SessionSeparator
}

func (s JobHandler) HandleSeparateJob(message []byte) (JobParams, stem.FilePaths, error) {
	params, err := unmarshalMessage(message)
	if err != nil {
		return JobParams{}, nil, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	stemPaths, err := s.sessionSeparator.SeparateSession(context.Background(), params.SessionID)
	if err != nil {
		return JobParams{}, nil, cerr.Field("session_id", params.SessionID).
			Wrap(err).Error("Failed to separate session audio")
	}

	return params, stemPaths, nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.SessionID == "" {
		return JobParams{}, cerr.Field("job_params", params).Error("Missing session ID")
	}

	return params, nil
}
