package handler

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"bank-chatbot/internal/usecase"
)

// AuthTriggerHandler resumes conversations when the auth-session stream
// reports a newly authenticated user.
type AuthTriggerHandler struct {
	resume *usecase.AuthResume
	logger *zap.Logger
}

// NewAuthTriggerHandler creates an AuthTriggerHandler.
func NewAuthTriggerHandler(resume *usecase.AuthResume, logger *zap.Logger) (*AuthTriggerHandler, error) {
	if resume == nil {
		return nil, errors.New("handler: auth resume service must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthTriggerHandler{resume: resume, logger: logger}, nil
}

// Handle processes one auth-session stream batch. Malformed records fail
// the batch loudly; everything else is handled per record with no ordering
// guarantee across users.
func (h *AuthTriggerHandler) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		rec := authRecordFromStreamRecord(record)
		h.logger.Info("processing auth session record",
			zap.String("event_id", record.EventID),
			zap.String("event_name", rec.EventName),
		)
		if err := h.resume.Handle(ctx, rec); err != nil {
			h.logger.Error("auth session record failed", zap.Error(err))
			return err
		}
	}
	return nil
}

func authRecordFromStreamRecord(record events.DynamoDBEventRecord) usecase.AuthRecord {
	img := record.Change.NewImage
	return usecase.AuthRecord{
		EventName:     record.EventName,
		CorrelationID: stringAttr(img, "correlation_id"),
		PK:            stringAttr(img, "PK"),
	}
}
