// Package sessionentity defines the separation session, the unit of work
// that tracks one uploaded file from upload through separation to
// remixing.
package sessionentity

import (
	"context"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRequested  Status = "requested"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Session is the persisted state of one separation request.
//
// StemFilePaths and MixFilePaths refer to files on the worker's local
// disk, RemoteStemURLs to copies exported to cloud storage.
type Session struct {
	ID            string `json:"id" dynamo:"id"`
	InputFileName string `json:"input_file_name" dynamo:"input_file_name"`
	InputFileSize int64  `json:"input_file_size" dynamo:"input_file_size"`
	InputFilePath string `json:"input_file_path" dynamo:"input_file_path"`
	ModelID       string `json:"model_id" dynamo:"model_id"`
	Device        string `json:"device" dynamo:"device"`

	Status         Status `json:"status" dynamo:"status"`
	StatusMessage  string `json:"status_message,omitempty" dynamo:"status_message"`
	StatusDebugLog string `json:"status_debug_log,omitempty" dynamo:"status_debug_log"`
	Progress       int    `json:"progress" dynamo:"progress"`

	StemFilePaths  map[string]string `json:"stem_file_paths,omitempty" dynamo:"stem_file_paths"`
	RemoteStemURLs map[string]string `json:"remote_stem_urls,omitempty" dynamo:"remote_stem_urls"`
	MixFilePaths   map[string]string `json:"mix_file_paths,omitempty" dynamo:"mix_file_paths"`
}

func NewSession(inputFileName string, inputFileSize int64, inputFilePath string) Session {
	return Session{
		ID:            uuid.New().String(),
		InputFileName: inputFileName,
		InputFileSize: inputFileSize,
		InputFilePath: inputFilePath,
		Status:        StatusRequested,
	}
}

func (s *Session) SetError(userMessage string, debugLog string) {
	s.Status = StatusError
	s.StatusMessage = userMessage
	s.StatusDebugLog = debugLog
}

type Store interface {
	GetSession(ctx context.Context, sessionID string) (Session, error)
	SetSession(ctx context.Context, session Session) error
}
