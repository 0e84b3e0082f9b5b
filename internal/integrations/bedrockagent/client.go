package bedrockagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// agentAPI is the minimal Bedrock agent runtime interface required by Client.
// *bedrockagentruntime.Client satisfies this interface.
type agentAPI interface {
	InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// Invoker is the reasoning-system interface consumed by the text processor.
type Invoker interface {
	Invoke(ctx context.Context, prompt, sessionHint string) (string, error)
}

// completionStream abstracts the event stream returned by InvokeAgent so the
// aggregation loop can be exercised without a real AWS connection.
type completionStream interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

// getStream extracts the completion stream from an InvokeAgent output.
// Package-level var so tests can substitute a fake stream.
var getStream = func(out *bedrockagentruntime.InvokeAgentOutput) completionStream {
	return out.GetStream()
}

// newSessionID generates the per-invocation session identifier.
var newSessionID = func() string {
	return uuid.NewString()
}

// Client invokes the hierarchical Bedrock agent (one supervisor delegating
// to specialized sub-agents) and aggregates its streamed completion.
type Client struct {
	api     agentAPI
	agentID string
	aliasID string
	logger  *zap.Logger
}

// New creates a Client for the given agent coordinates.
func New(api agentAPI, agentID, aliasID string, logger *zap.Logger) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrockagent: api must not be nil")
	}
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(aliasID) == "" {
		return nil, errors.New("bedrockagent: agent id and alias id are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, agentID: agentID, aliasID: aliasID, logger: logger}, nil
}

// Invoke sends the prompt to the agent and returns the aggregated text
// completion. A fresh session id is generated on every call regardless of
// sessionHint: cross-turn memory is deliberately disabled, each turn stands
// alone. The hint stays in the signature so session reuse can be restored
// without an interface change.
func (c *Client) Invoke(ctx context.Context, prompt, sessionHint string) (string, error) {
	sessionID := newSessionID()
	c.logger.Debug("invoking agent with fresh session",
		zap.String("session_id", sessionID),
		zap.String("session_hint", sessionHint),
	)

	out, err := c.api.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(c.agentID),
		AgentAliasId: aws.String(c.aliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(prompt),
		EnableTrace:  aws.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("bedrockagent: invoke agent: %w", err)
	}

	text, err := collectCompletion(getStream(out))
	if err != nil {
		return "", fmt.Errorf("bedrockagent: read completion: %w", err)
	}
	return text, nil
}

// collectCompletion drains the event stream and concatenates every chunk
// into the final completion text.
func collectCompletion(stream completionStream) (string, error) {
	defer func() { _ = stream.Close() }()

	var b strings.Builder
	for event := range stream.Events() {
		if chunk, ok := event.(*types.ResponseStreamMemberChunk); ok {
			b.Write(chunk.Value.Bytes)
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
