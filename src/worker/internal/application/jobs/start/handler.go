package start

import (
	"context"
	"encoding/json"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_message"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "start_separation"
const ErrorMessage string = "Failed to start processing stem separation"

//counterfeiter:generate . StartJobHandler
type StartJobHandler interface {
	HandleStartJob(message []byte) (JobParams, error)
}

type JobParams struct {
	job_message.SessionIdentifier
}

func NewJobHandler(sessionStore sessionentity.Store) JobHandler {
	return JobHandler{
		sessionStore: sessionStore,
	}
}

type JobHandler struct {
	sessionStore sessionentity.Store
}

func (d JobHandler) HandleStartJob(message []byte) (JobParams, error) {
	params, err := unmarshalMessage(message)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("session_id", params.SessionID)

	session, err := d.sessionStore.GetSession(context.Background(), params.SessionID)
	if err != nil {
		return JobParams{}, errctx.Wrap(err).Error("Failed to fetch the session")
	}

	if session.Status != sessionentity.StatusRequested {
		return JobParams{}, errctx.Error("Session is not in requested status, abort processing to be safe")
	}

	session.Status = sessionentity.StatusProcessing
	session.Progress = 10

	err = d.sessionStore.SetSession(context.Background(), session)
	if err != nil {
		return JobParams{}, errctx.Wrap(err).Error("Failed to set the session status")
	}

	return params, nil
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
