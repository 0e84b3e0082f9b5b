package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bank-chatbot/internal/domain"
)

const (
	// maxAgentAttempts bounds the retry loop around the agent invocation.
	maxAgentAttempts = 4

	// defaultTextBody substitutes a missing text body instead of failing
	// the turn.
	defaultTextBody = "DEFAULT_RESPONSE"
)

// AgentInvoker is the reasoning-system interface consumed by the processor.
type AgentInvoker interface {
	Invoke(ctx context.Context, prompt, sessionHint string) (string, error)
}

// Processor builds the agent prompt from a validated event and produces the
// final response message. It never fails a turn: agent failures degrade to
// a canned apology once the attempts run out.
type Processor struct {
	agent  AgentInvoker
	logger *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(agent AgentInvoker, logger *zap.Logger) (*Processor, error) {
	if agent == nil {
		return nil, errors.New("usecase: agent invoker must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{agent: agent, logger: logger}, nil
}

// buildPrompt wraps the raw input and sender identifier in the request
// envelope the supervisor agent is instructed with. The same-language
// instruction keeps answers in the user's locale.
func buildPrompt(text, fromNumber string) string {
	return fmt.Sprintf(
		"<REQUEST>input: %s\nfrom_number: %s\nAnswer in same language as input. Use UTF-8 format.</REQUEST>",
		text, fromNumber,
	)
}

// Process invokes the agent with up to four attempts and returns the event
// enriched with the response message. An empty completion and a transport
// error both count as a failed attempt; retries are immediate. Errors stay
// here as log entries, and the single failure signal for the loop is the
// empty response.
func (p *Processor) Process(ctx context.Context, ev domain.MessageEvent) domain.MessageEvent {
	logger := p.logger.With(zap.String("correlation_id", ev.CorrelationID))

	text := ev.TextBody
	if text == "" {
		text = defaultTextBody
	}
	prompt := buildPrompt(text, ev.FromNumber)
	logger.Info("input message to agent", zap.String("prompt", prompt))

	response := ""
	for attempt := 1; attempt <= maxAgentAttempts; attempt++ {
		out, err := p.agent.Invoke(ctx, prompt, ev.FromNumber)
		if err != nil {
			logger.Warn("agent invocation failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAgentAttempts),
				zap.Error(err),
			)
		} else if out != "" {
			response = out
			break
		} else {
			logger.Info("agent returned empty response",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAgentAttempts),
			)
		}
	}
	if response == "" {
		logger.Warn("maximum attempts reached, no valid agent response")
		response = fallbackMessage
	}

	logger.Info("generated response message", zap.String("response_message", response))
	ev.ResponseMessage = response
	return ev
}
