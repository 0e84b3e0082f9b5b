package handler

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"bank-chatbot/internal/domain"
	"bank-chatbot/internal/usecase"
)

// StateMachineHandler drives the turn pipeline for each inbound-message
// stream record.
type StateMachineHandler struct {
	router *usecase.Router
	logger *zap.Logger
}

// NewStateMachineHandler creates a StateMachineHandler.
func NewStateMachineHandler(router *usecase.Router, logger *zap.Logger) (*StateMachineHandler, error) {
	if router == nil {
		return nil, errors.New("handler: router must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateMachineHandler{router: router, logger: logger}, nil
}

// Handle processes one DynamoDB stream batch. Each non-removal record is one
// conversational turn; a failed turn surfaces to the platform so its own
// retry and dead-letter policy applies.
func (h *StateMachineHandler) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if record.EventName == "REMOVE" {
			continue
		}
		ev := eventFromStreamRecord(record)
		logger := h.logger.With(
			zap.String("correlation_id", ev.CorrelationID),
			zap.String("event_id", record.EventID),
		)
		logger.Info("starting turn", zap.String("message_type", string(ev.MessageType)))

		result, err := h.router.Run(ctx, ev)
		if err != nil {
			logger.Error("turn failed", zap.Error(err))
			return err
		}
		logger.Info("turn finished", zap.String("state", string(result.State)))
	}
	return nil
}

// eventFromStreamRecord decodes the inbound-message change record into a
// turn event. The stream event id doubles as the correlation id for the
// whole turn.
func eventFromStreamRecord(record events.DynamoDBEventRecord) domain.MessageEvent {
	img := record.Change.NewImage
	return domain.MessageEvent{
		CorrelationID: record.EventID,
		MessageType:   domain.MessageType(stringAttr(img, "type")),
		FromNumber:    stringAttr(img, "from_number"),
		TextBody:      stringAttr(img, "text"),
	}
}

// stringAttr returns the S value of an attribute, or "" when the attribute
// is absent or not a string.
func stringAttr(img map[string]events.DynamoDBAttributeValue, key string) string {
	av, ok := img[key]
	if !ok || av.DataType() != events.DataTypeString {
		return ""
	}
	return av.String()
}
