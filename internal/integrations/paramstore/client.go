package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter.
// Consumers (the agent invoker, the WhatsApp client) should depend on this
// interface rather than the concrete *Client so they remain testable
// without real AWS calls.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// AgentIdentifiers holds the Bedrock agent coordinates stored in SSM by the
// provisioning stack.
type AgentIdentifiers struct {
	AgentID string
	AliasID string
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// LoadAgentIdentifiers resolves the Bedrock agent id and alias id under the
// given parameter prefix. The alias parameter is stored as the full alias
// string with the bare alias id as its last "|"-separated segment.
func LoadAgentIdentifiers(ctx context.Context, g Getter, prefix string) (AgentIdentifiers, error) {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return AgentIdentifiers{}, errors.New("paramstore: parameter prefix must not be empty")
	}

	agentID, err := g.GetParameter(ctx, prefix+"/bedrock-agent-id")
	if err != nil {
		return AgentIdentifiers{}, fmt.Errorf("paramstore: load agent id: %w", err)
	}

	aliasFull, err := g.GetParameter(ctx, prefix+"/bedrock-agent-alias-id-full-string")
	if err != nil {
		return AgentIdentifiers{}, fmt.Errorf("paramstore: load agent alias: %w", err)
	}
	parts := strings.Split(aliasFull, "|")
	aliasID := parts[len(parts)-1]

	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(aliasID) == "" {
		return AgentIdentifiers{}, errors.New("paramstore: agent identifiers are empty")
	}
	return AgentIdentifiers{AgentID: agentID, AliasID: aliasID}, nil
}
