package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bank-chatbot/internal/actions"
)

// ActionGroupRequest is the Bedrock agent function-invocation envelope.
type ActionGroupRequest struct {
	MessageVersion string              `json:"messageVersion"`
	ActionGroup    string              `json:"actionGroup"`
	Function       string              `json:"function"`
	Parameters     []actions.Parameter `json:"parameters"`
}

// ActionGroupResponse is the function-response envelope returned to the
// agent.
type ActionGroupResponse struct {
	MessageVersion string         `json:"messageVersion"`
	Response       ActionResponse `json:"response"`
}

type ActionResponse struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

type FunctionResponse struct {
	ResponseBody map[string]TextBody `json:"responseBody"`
}

type TextBody struct {
	Body string `json:"body"`
}

// ActionGroupHandler adapts the dispatch table to the Bedrock envelope.
type ActionGroupHandler struct {
	dispatcher *actions.Dispatcher
	logger     *zap.Logger
}

// NewActionGroupHandler creates an ActionGroupHandler.
func NewActionGroupHandler(dispatcher *actions.Dispatcher, logger *zap.Logger) (*ActionGroupHandler, error) {
	if dispatcher == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionGroupHandler{dispatcher: dispatcher, logger: logger}, nil
}

// Handle runs the requested action group and wraps its text payload for the
// agent. Unknown action groups and handler failures surface as errors so
// the agent sees the tool call fail.
func (h *ActionGroupHandler) Handle(ctx context.Context, req ActionGroupRequest) (ActionGroupResponse, error) {
	h.logger.Info("action group invocation",
		zap.String("action_group", req.ActionGroup),
		zap.String("function", req.Function),
	)

	body, err := h.dispatcher.Dispatch(ctx, req.ActionGroup, req.Parameters)
	if err != nil {
		h.logger.Error("action group failed",
			zap.String("action_group", req.ActionGroup),
			zap.Error(err),
		)
		return ActionGroupResponse{}, err
	}

	return ActionGroupResponse{
		MessageVersion: req.MessageVersion,
		Response: ActionResponse{
			ActionGroup: req.ActionGroup,
			Function:    req.Function,
			FunctionResponse: FunctionResponse{
				ResponseBody: map[string]TextBody{
					"TEXT": {Body: body},
				},
			},
		},
	}, nil
}
