package job_router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/rabbitmq"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_message"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/save_results"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/separate"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/start"
	"github.com/rabbitmq/amqp091-go"
)

// jobErrorMessages maps each job type to the user visible message shown
// on the session when that job fails.
var jobErrorMessages = map[string]string{
	start.JobType:        start.ErrorMessage,
	separate.JobType:     separate.ErrorMessage,
	save_results.JobType: save_results.ErrorMessage,
}

func NewJobRouter(
	sessionStore sessionentity.Store,
	publisher rabbitmq.Publisher,
	startHandler start.StartJobHandler,
	separateHandler separate.SeparateJobHandler,
	saveResultsHandler save_results.SaveResultsJobHandler,
) JobRouter {
	return JobRouter{
		sessionStore:       sessionStore,
		publisher:          publisher,
		startHandler:       startHandler,
		separateHandler:    separateHandler,
		saveResultsHandler: saveResultsHandler,
	}
}

// JobRouter dispatches queue messages to their job handlers and chains
// the next job in the pipeline when a step succeeds. When a step fails,
// the session is marked errored so the frontend can surface it.
type JobRouter struct {
	sessionStore       sessionentity.Store
	publisher          rabbitmq.Publisher
	startHandler       start.StartJobHandler
	separateHandler    separate.SeparateJobHandler
	saveResultsHandler save_results.SaveResultsJobHandler
}

func (j JobRouter) HandleMessage(message amqp091.Delivery) error {
	err := j.routeMessage(message)
	if err != nil {
		j.reportJobError(message, err)
		return cerr.Field("message_type", message.Type).
			Wrap(err).Error("Failed to handle the job message")
	}

	return nil
}

func (j JobRouter) routeMessage(message amqp091.Delivery) error {
	switch message.Type {
	case start.JobType:
		params, err := j.startHandler.HandleStartJob(message.Body)
		if err != nil {
			return cerr.Wrap(err).Error("Failed to handle the start job")
		}

		return j.publishSeparateJob(params)

	case separate.JobType:
		params, stemPaths, err := j.separateHandler.HandleSeparateJob(message.Body)
		if err != nil {
			return cerr.Wrap(err).Error("Failed to handle the separate job")
		}

		return j.publishSaveResultsJob(params, stemPaths)

	case save_results.JobType:
		if err := j.saveResultsHandler.HandleSaveResultsJob(message.Body); err != nil {
			return cerr.Wrap(err).Error("Failed to handle the save results job")
		}

		return nil

	default:
		return cerr.Field("message_type", message.Type).Error("Unrecognized message type")
	}
}

func (j JobRouter) publishSeparateJob(startParams start.JobParams) error {
	job := separate.JobParams{
		SessionIdentifier: startParams.SessionIdentifier,
	}

	return j.publishJob(separate.JobType, job)
}

func (j JobRouter) publishSaveResultsJob(separateParams separate.JobParams, stemPaths map[string]string) error {
	job := save_results.JobParams{
		SessionIdentifier: separateParams.SessionIdentifier,
		StemFilePaths:     stemPaths,
	}

	return j.publishJob(save_results.JobType, job)
}

func (j JobRouter) publishJob(jobType string, jobParams any) error {
	jobBody, err := json.Marshal(jobParams)
	if err != nil {
		return cerr.Field("job_type", jobType).
			Wrap(err).Error("Failed to marshal the next job's params")
	}

	err = j.publisher.Publish(amqp091.Publishing{
		Type: jobType,
		Body: jobBody,
	})

	if err != nil {
		return cerr.Field("job_type", jobType).
			Wrap(err).Error("Failed to publish the next job")
	}

	return nil
}

// reportJobError marks the session as errored with a user presentable
// message. Best effort - if the session can't be loaded or written, the
// error is logged and the nack path still proceeds.
func (j JobRouter) reportJobError(message amqp091.Delivery, jobErr error) {
	identifier := job_message.SessionIdentifier{}
	if err := json.Unmarshal(message.Body, &identifier); err != nil || identifier.SessionID == "" {
		cerr.Log(cerr.Wrap(jobErr).Error("Can't identify the session for a failed job"))
		return
	}

	session, err := j.sessionStore.GetSession(context.Background(), identifier.SessionID)
	if err != nil {
		cerr.Log(cerr.Field("session_id", identifier.SessionID).
			Wrap(err).Error("Failed to fetch the session of a failed job"))
		return
	}

	userMessage, ok := jobErrorMessages[message.Type]
	if !ok {
		userMessage = "Failed to process the separation job"
	}

	session.SetError(userMessage, fmt.Sprintf("%+v", jobErr))

	if err := j.sessionStore.SetSession(context.Background(), session); err != nil {
		cerr.Log(cerr.Field("session_id", identifier.SessionID).
			Wrap(err).Error("Failed to record the job error on the session"))
	}
}
