package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bank-chatbot/internal/domain"
)

// SessionGetter is the auth-session lookup consumed by the validator.
type SessionGetter interface {
	GetAuthSession(ctx context.Context, userID string) (*domain.AuthSession, error)
}

// Messenger is the outbound-message interface consumed by the pipeline.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendDocument(ctx context.Context, to, documentURL string) error
}

// Validator is the entry step of a turn: it gates the message type,
// enforces authentication when enabled, and acknowledges receipt.
type Validator struct {
	sessions    SessionGetter
	messenger   Messenger
	authEnabled bool
	logger      *zap.Logger
}

// NewValidator creates a Validator. sessions may be nil only when
// authEnabled is false.
func NewValidator(sessions SessionGetter, messenger Messenger, authEnabled bool, logger *zap.Logger) (*Validator, error) {
	if messenger == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	if authEnabled && sessions == nil {
		return nil, errors.New("usecase: session getter must not be nil when auth is enabled")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		sessions:    sessions,
		messenger:   messenger,
		authEnabled: authEnabled,
		logger:      logger,
	}, nil
}

// newCorrelationID generates the per-turn correlation id when the ingesting
// trigger did not supply one. Package-level var for deterministic tests.
var newCorrelationID = func() string {
	return uuid.NewString()
}

// Validate checks the inbound event and returns an enriched copy. An
// unsupported message type and a failed acknowledgement send are fatal for
// the turn. A missing auth session is not: the event is redirected to the
// unauthorized terminal with a canned response instead.
func (v *Validator) Validate(ctx context.Context, ev domain.MessageEvent) (domain.MessageEvent, error) {
	if ev.CorrelationID == "" {
		ev.CorrelationID = newCorrelationID()
	}
	logger := v.logger.With(zap.String("correlation_id", ev.CorrelationID))

	if ev.MessageType == "" {
		ev.MessageType = domain.MessageTypeNotFound
	}
	if !ev.MessageType.Allowed() {
		logger.Error("message type not allowed", zap.String("message_type", string(ev.MessageType)))
		return ev, newError(ErrorUnsupportedMessageType, "message_type_not_allowed", nil)
	}

	if v.authEnabled {
		logger.Debug("auth enabled, checking session status", zap.String("from_number", ev.FromNumber))
		session, err := v.sessions.GetAuthSession(ctx, ev.FromNumber)
		if err != nil {
			return ev, newError(ErrorInternal, "auth_session_lookup_error", err)
		}
		if session == nil {
			logger.Warn("user not authenticated", zap.String("from_number", ev.FromNumber))
			ev.MessageType = domain.MessageTypeUnauthorized
			ev.ResponseMessage = authRedirectMessage
		} else {
			logger.Info("user authenticated with active session", zap.String("from_number", ev.FromNumber))
		}
	}

	// Acknowledge before the agent runs so the user sees activity while the
	// completion is produced. A failed ack is fatal: the conversation must
	// not proceed silently.
	if err := v.messenger.SendText(ctx, ev.FromNumber, ackMessage); err != nil {
		logger.Error("acknowledgement send failed", zap.Error(err))
		return ev, newError(ErrorAcknowledgementFailed, "ack_send_error", err)
	}

	logger.Info("validation finished", zap.String("message_type", string(ev.MessageType)))
	return ev, nil
}
