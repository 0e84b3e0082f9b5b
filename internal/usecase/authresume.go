package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// AuthRecord is one change-feed record from the auth-session store,
// already decoded from the provider envelope by the handler.
type AuthRecord struct {
	EventName     string // INSERT, MODIFY or REMOVE
	CorrelationID string
	PK            string // USER#<number>; empty means the attribute was absent
}

// AuthResume reacts to a session becoming authenticated by greeting the
// user so the interrupted conversation continues.
type AuthResume struct {
	messenger Messenger
	logger    *zap.Logger
}

// NewAuthResume creates an AuthResume service.
func NewAuthResume(messenger Messenger, logger *zap.Logger) (*AuthResume, error) {
	if messenger == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthResume{messenger: messenger, logger: logger}, nil
}

// Handle processes one auth-session change record. Removal records (session
// expiry) are skipped. A record without a PK fails loudly: malformed records
// on this path indicate a broken producer, not a condition to paper over.
// A failed send, in contrast, is only logged: returning an error here would
// make the platform redeliver the record and spam the user.
func (a *AuthResume) Handle(ctx context.Context, rec AuthRecord) error {
	logger := a.logger.With(
		zap.String("correlation_id", rec.CorrelationID),
		zap.String("event_name", rec.EventName),
	)

	if rec.EventName == "REMOVE" {
		logger.Info("skipping auth record, not an insert event")
		return nil
	}

	if rec.PK == "" {
		logger.Error("auth record is missing PK")
		return newError(ErrorMalformedRecord, "missing_pk", nil)
	}
	_, number, found := strings.Cut(rec.PK, "#")
	if !found || number == "" {
		logger.Error("auth record PK is not USER#<number>", zap.String("pk", rec.PK))
		return newError(ErrorMalformedRecord, "unexpected_pk_shape", nil)
	}
	number = strings.TrimPrefix(number, "+")

	if err := a.messenger.SendText(ctx, number, authResumeMessage); err != nil {
		logger.Error("auth resume send failed", zap.Error(err))
		return nil
	}

	logger.Info("auth resume message sent", zap.String("to", number))
	return nil
}
