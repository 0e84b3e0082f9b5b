package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bank-chatbot/internal/domain"
)

// TurnState is the terminal state of one conversational turn.
type TurnState string

const (
	StateUnauthorized TurnState = "UNAUTHORIZED"
	StateCompleted    TurnState = "COMPLETED"
	StateFailed       TurnState = "FAILED"
)

// TurnResult carries the terminal state of a turn together with the final
// enriched event.
type TurnResult struct {
	State TurnState
	Event domain.MessageEvent
}

// Router sequences the steps of a turn: validation, the unauthorized
// short-circuit, text processing, and delivery of the response.
//
// Turns for different users run fully in parallel. Concurrent turns for the
// same user are not serialized; their acknowledgements and responses may
// interleave.
type Router struct {
	validator *Validator
	processor *Processor
	messenger Messenger
	logger    *zap.Logger
}

// NewRouter creates a Router.
func NewRouter(validator *Validator, processor *Processor, messenger Messenger, logger *zap.Logger) (*Router, error) {
	if validator == nil {
		return nil, errors.New("usecase: validator must not be nil")
	}
	if processor == nil {
		return nil, errors.New("usecase: processor must not be nil")
	}
	if messenger == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		validator: validator,
		processor: processor,
		messenger: messenger,
		logger:    logger,
	}, nil
}

// Run drives one turn to a terminal state. Validation errors fail the turn
// and surface to the platform for its own retry policy. An unauthorized
// event skips processing and delivers the canned redirect. Everything else
// flows through the processor, whose response is always delivered.
func (r *Router) Run(ctx context.Context, ev domain.MessageEvent) (TurnResult, error) {
	enriched, err := r.validator.Validate(ctx, ev)
	if err != nil {
		return TurnResult{State: StateFailed, Event: enriched}, err
	}
	logger := r.logger.With(zap.String("correlation_id", enriched.CorrelationID))

	if enriched.MessageType == domain.MessageTypeUnauthorized {
		logger.Info("turn short-circuited, delivering auth redirect")
		if err := r.messenger.SendText(ctx, enriched.FromNumber, enriched.ResponseMessage); err != nil {
			logger.Error("auth redirect delivery failed", zap.Error(err))
			return TurnResult{State: StateFailed, Event: enriched},
				newError(ErrorDeliveryFailed, "redirect_send_error", err)
		}
		return TurnResult{State: StateUnauthorized, Event: enriched}, nil
	}

	processed := r.processor.Process(ctx, enriched)

	if err := r.messenger.SendText(ctx, processed.FromNumber, processed.ResponseMessage); err != nil {
		logger.Error("response delivery failed", zap.Error(err))
		return TurnResult{State: StateFailed, Event: processed},
			newError(ErrorDeliveryFailed, "response_send_error", err)
	}

	logger.Info("turn completed")
	return TurnResult{State: StateCompleted, Event: processed}, nil
}
