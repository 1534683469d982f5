package sessionstorage

import (
	"context"

	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"

	dynamolib "github.com/PMosby/Stem-Visualizer/src/shared/lib/dynamo"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/errors/mark"
)

const (
	SessionsTable = "SeparationSessions"
	idKey         = "id"
)

var _ sessionentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetSession(ctx context.Context, sessionID string) (sessionentity.Session, error) {
	if sessionID == "" {
		return sessionentity.Session{}, mark.Message(IDEmptyMark, "No session ID was provided")
	}

	session := sessionentity.Session{}
	err := d.dynamoDB.Table(SessionsTable).
		Get(idKey, sessionID).
		OneWithContext(ctx, &session)

	if err != nil {
		switch {
		case errors.Is(err, dynamo.ErrNotFound):
			return sessionentity.Session{}, mark.Wrap(err, SessionNotFound, "Session is not found")
		default:
			return sessionentity.Session{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch session")
		}
	}

	return session, nil
}

func (d DB) SetSession(ctx context.Context, session sessionentity.Session) error {
	if session.ID == "" {
		return mark.Message(IDEmptyMark, "Session ID is not defined on session")
	}

	err := d.dynamoDB.Table(SessionsTable).
		Put(session).
		RunWithContext(ctx)

	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to put the session in the DB")
	}

	return nil
}
