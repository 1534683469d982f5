package sessionstorage

import (
	"github.com/cockroachdb/errors/domains"
)

var (
	SessionNotFound  = domains.New("The separation session couldn't be found")
	IDEmptyMark      = domains.New("The session ID is empty")
	UnmarshalMark    = domains.New("Failed to unmarshal DB contents")
	MarshalMark      = domains.New("Failed to marshal contents for the DB")
	DefaultErrorMark = domains.New("Default storage error")
)
