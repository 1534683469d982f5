package sessionusecase

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PMosby/Stem-Visualizer/src/server/internal/errors/api"
	sessionerrors "github.com/PMosby/Stem-Visualizer/src/server/internal/session/errors"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/decode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/features"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/mix"
	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/rabbitmq"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	sessionstorage "github.com/PMosby/Stem-Visualizer/src/shared/session/storage"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
)

const startJobType = "start_separation"

type Usecase struct {
	db            sessionentity.Store
	publisher     rabbitmq.Publisher
	decoder       decode.AudioDecoder
	mixer         mix.Mixer
	uploadDirPath string
}

func NewUsecase(db sessionentity.Store, publisher rabbitmq.Publisher, decoder decode.AudioDecoder, mixer mix.Mixer, uploadDirPath string) Usecase {
	return Usecase{
		db:            db,
		publisher:     publisher,
		decoder:       decoder,
		mixer:         mixer,
		uploadDirPath: uploadDirPath,
	}
}

// CreateSession saves the uploaded audio to disk, records a new session,
// and enqueues the separation pipeline for it.
func (u Usecase) CreateSession(ctx context.Context, fileName string, fileContents io.Reader, modelID string, device string) (sessionentity.Session, *api.Error) {
	if modelID == "" {
		modelID = engine.DefaultModel
	}

	if device == "" {
		device = engine.DefaultDevice
	}

	if !engine.IsValidModel(modelID) {
		err := errors.Newf("Unrecognized model ID: %s", modelID)
		return sessionentity.Session{}, api.CommitError(err,
			sessionerrors.InvalidModelCode,
			"The requested separation model doesn't exist. Available models: "+strings.Join(engine.ModelIDs, ", "))
	}

	if !engine.IsValidDevice(device) {
		err := errors.Newf("Unrecognized device: %s", device)
		return sessionentity.Session{}, api.CommitError(err,
			sessionerrors.InvalidDeviceCode,
			"The requested device doesn't exist. Available devices: cpu, gpu")
	}

	inputFilePath, fileSize, err := u.saveUpload(fileName, fileContents)
	if err != nil {
		err = errors.Wrap(err, "Failed to save the uploaded file")
		return sessionentity.Session{}, api.CommitError(err,
			sessionerrors.BadUploadCode,
			"The uploaded file couldn't be saved. Please try again")
	}

	session := sessionentity.NewSession(fileName, fileSize, inputFilePath)
	session.ModelID = modelID
	session.Device = device

	if err := u.db.SetSession(ctx, session); err != nil {
		err = errors.Wrap(err, "Failed to store the new session")
		return sessionentity.Session{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to create the session. Please contact the developer")
	}

	if err := u.publishStartJob(session.ID); err != nil {
		err = errors.Wrap(err, "Failed to publish the start job")
		u.markSessionFailedToStart(session, err)
		return sessionentity.Session{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to start separation. Please contact the developer")
	}

	return session, nil
}

func (u Usecase) GetSession(ctx context.Context, sessionID string) (sessionentity.Session, *api.Error) {
	session, err := u.db.GetSession(ctx, sessionID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get session from DB")
		switch {
		case markers.Is(err, sessionstorage.SessionNotFound):
			fallthrough
		case markers.Is(err, sessionstorage.IDEmptyMark):
			return sessionentity.Session{}, api.CommitError(err,
				sessionerrors.SessionNotFoundCode,
				"This separation session couldn't be found")

		default:
			return sessionentity.Session{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to fetch the session")
		}
	}

	return session, nil
}

// StemFilePath returns the local path of one separated stem, verifying
// the session has completed and the stem exists.
func (u Usecase) StemFilePath(ctx context.Context, sessionID string, stemName string) (string, *api.Error) {
	session, apiErr := u.completedSession(ctx, sessionID)
	if apiErr != nil {
		return "", api.WrapError(apiErr, "Can't serve a stem for this session")
	}

	if !stem.IsValidName(stemName) {
		err := errors.Newf("Unrecognized stem name: %s", stemName)
		return "", api.CommitError(err,
			sessionerrors.StemNotFoundCode,
			"This stem doesn't exist. Available stems: "+strings.Join(stem.Names, ", "))
	}

	stemFilePath, ok := session.StemFilePaths[stemName]
	if !ok {
		err := errors.Newf("Stem %s is missing from the session's results", stemName)
		return "", api.CommitError(err,
			sessionerrors.StemNotFoundCode,
			"This stem wasn't produced by the separation")
	}

	return stemFilePath, nil
}

// StemFeatures decodes one stem and computes its analysis features.
func (u Usecase) StemFeatures(ctx context.Context, sessionID string, stemName string) (features.Bundle, *api.Error) {
	stemFilePath, apiErr := u.StemFilePath(ctx, sessionID, stemName)
	if apiErr != nil {
		return features.Bundle{}, api.WrapError(apiErr, "Can't locate the stem to analyze")
	}

	buffer, err := u.decoder.Decode(stemFilePath)
	if err != nil {
		err = errors.Wrap(err, "Failed to decode the stem file")
		return features.Bundle{}, api.CommitError(err,
			sessionerrors.UndecodableStemCode,
			"The stem audio couldn't be decoded for analysis")
	}

	return features.Extract(buffer), nil
}

// CreateMix sums the selected stems into one WAV and records it on the
// session, returning the mix file's path.
func (u Usecase) CreateMix(ctx context.Context, sessionID string, stemNames []string) (string, *api.Error) {
	session, apiErr := u.completedSession(ctx, sessionID)
	if apiErr != nil {
		return "", api.WrapError(apiErr, "Can't mix stems for this session")
	}

	for _, stemName := range stemNames {
		if !stem.IsValidName(stemName) {
			err := errors.Newf("Unrecognized stem name: %s", stemName)
			return "", api.CommitError(err,
				sessionerrors.StemNotFoundCode,
				"An unrecognized stem was selected. Available stems: "+strings.Join(stem.Names, ", "))
		}
	}

	if len(stemNames) == 0 {
		err := errors.New("No stems were selected")
		return "", api.CommitError(err,
			sessionerrors.NoStemsSelectedCode,
			"Select at least one stem to mix")
	}

	mixKey := mixKeyFor(stemNames)
	mixFilePath := filepath.Join(filepath.Dir(session.InputFilePath), "mixes", mixKey+".wav")

	if err := os.MkdirAll(filepath.Dir(mixFilePath), os.ModePerm); err != nil {
		err = errors.Wrap(err, "Failed to create the mix output directory")
		return "", api.CommitError(err,
			sessionerrors.MixFailedCode,
			"The mix couldn't be written. Please try again")
	}

	outputPath, ok, err := u.mixer.Mix(session.StemFilePaths, stemNames, mixFilePath)
	if err != nil {
		err = errors.Wrap(err, "Failed to mix the selected stems")
		return "", api.CommitError(err,
			sessionerrors.MixFailedCode,
			"The selected stems couldn't be mixed")
	}

	if !ok {
		err := errors.New("The mixer produced no output")
		return "", api.CommitError(err,
			sessionerrors.NoStemsSelectedCode,
			"Select at least one stem to mix")
	}

	if session.MixFilePaths == nil {
		session.MixFilePaths = map[string]string{}
	}
	session.MixFilePaths[mixKey] = outputPath

	if err := u.db.SetSession(ctx, session); err != nil {
		// the mix file itself was produced, record-keeping is secondary
		log.WithField("session_id", sessionID).
			WithError(err).
			Error("Failed to record the mix on the session")
	}

	return outputPath, nil
}

func (u Usecase) completedSession(ctx context.Context, sessionID string) (sessionentity.Session, *api.Error) {
	session, apiErr := u.GetSession(ctx, sessionID)
	if apiErr != nil {
		return sessionentity.Session{}, apiErr
	}

	switch session.Status {
	case sessionentity.StatusCompleted:
		return session, nil

	case sessionentity.StatusError:
		err := errors.Newf("Session is in error state: %s", session.StatusDebugLog)
		return sessionentity.Session{}, api.CommitError(err,
			sessionerrors.SeparationFailedCode,
			session.StatusMessage)

	default:
		err := errors.Newf("Session status is %s", session.Status)
		return sessionentity.Session{}, api.CommitError(err,
			sessionerrors.SeparationIncompleteCode,
			"Separation hasn't finished for this session yet")
	}
}

func (u Usecase) saveUpload(fileName string, fileContents io.Reader) (string, int64, error) {
	// each upload gets its own directory so identical basenames from
	// different users can't collide
	uploadDir, err := os.MkdirTemp(u.uploadDirPath, "upload-*")
	if err != nil {
		return "", 0, errors.Wrap(err, "Failed to create a directory for the upload")
	}

	inputFilePath := filepath.Join(uploadDir, filepath.Base(fileName))
	destFile, err := os.Create(inputFilePath)
	if err != nil {
		return "", 0, errors.Wrap(err, "Failed to create the upload file")
	}
	defer destFile.Close()

	fileSize, err := io.Copy(destFile, fileContents)
	if err != nil {
		return "", 0, errors.Wrap(err, "Failed to write the upload contents")
	}

	return inputFilePath, fileSize, nil
}

func (u Usecase) publishStartJob(sessionID string) error {
	jsonBytes, err := json.Marshal(map[string]string{
		"session_id": sessionID,
	})

	if err != nil {
		return errors.Wrap(err, "Failed to marshal the session ID for the queue msg")
	}

	publishMsg := amqp091.Publishing{
		Type: startJobType,
		Body: jsonBytes,
	}

	err = u.publisher.Publish(publishMsg)
	if err != nil {
		return errors.Wrap(err, "Failed to publish message to rabbitmq")
	}

	return nil
}

func (u Usecase) markSessionFailedToStart(session sessionentity.Session, startErr error) {
	session.SetError("Failed to start processing stem separation", startErr.Error())

	if err := u.db.SetSession(context.Background(), session); err != nil {
		log.WithField("session_id", session.ID).
			WithError(err).
			Error("Failed to set session in DB")
	}
}

func mixKeyFor(stemNames []string) string {
	names := append([]string{}, stemNames...)
	sort.Strings(names)
	return strings.Join(names, "-")
}
