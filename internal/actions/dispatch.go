package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Parameter is one name/value pair passed by the reasoning system to an
// action group.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HandlerFunc executes one action group and returns a text payload the
// reasoning system folds into its completion.
type HandlerFunc func(ctx context.Context, params []Parameter) (string, error)

// UnknownActionError reports a dispatch request for an unregistered action
// group.
type UnknownActionError struct {
	ActionGroup string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("actions: action group %q not supported", e.ActionGroup)
}

// Dispatcher routes action-group invocations to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{handlers: make(map[string]HandlerFunc), logger: logger}
}

// Register binds an action-group name to a handler. Registering the same
// name twice is a programming error.
func (d *Dispatcher) Register(name string, h HandlerFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("actions: action group name must not be empty")
	}
	if h == nil {
		return errors.New("actions: handler must not be nil")
	}
	if _, exists := d.handlers[name]; exists {
		return fmt.Errorf("actions: action group %q already registered", name)
	}
	d.handlers[name] = h
	return nil
}

// Dispatch runs the handler registered for the action group. The agent
// occasionally wraps the group name in angle brackets; those are stripped
// before lookup.
func (d *Dispatcher) Dispatch(ctx context.Context, actionGroup string, params []Parameter) (string, error) {
	name := strings.Trim(strings.TrimSpace(actionGroup), "<>")
	h, ok := d.handlers[name]
	if !ok {
		return "", &UnknownActionError{ActionGroup: actionGroup}
	}

	d.logger.Info("dispatching action group",
		zap.String("action_group", name),
		zap.Int("parameter_count", len(params)),
	)
	out, err := h(ctx, params)
	if err != nil {
		return "", fmt.Errorf("actions: %s: %w", name, err)
	}
	return out, nil
}

// paramValue returns the value of the named parameter, or "" when absent.
func paramValue(params []Parameter, name string) string {
	for _, p := range params {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}
