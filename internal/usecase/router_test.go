package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"bank-chatbot/internal/domain"
)

func newTestRouter(t *testing.T, sessions SessionGetter, authEnabled bool, agent AgentInvoker, messenger Messenger) *Router {
	t.Helper()
	v, err := NewValidator(sessions, messenger, authEnabled, nil)
	require.NoError(t, err)
	p, err := NewProcessor(agent, nil)
	require.NoError(t, err)
	r, err := NewRouter(v, p, messenger, nil)
	require.NoError(t, err)
	return r
}

func TestNewRouter_ValidatesDependencies(t *testing.T) {
	v, err := NewValidator(nil, &mockMessenger{}, false, nil)
	require.NoError(t, err)
	p, err := NewProcessor(&mockAgent{}, nil)
	require.NoError(t, err)

	_, err = NewRouter(nil, p, &mockMessenger{}, nil)
	require.Error(t, err)
	_, err = NewRouter(v, nil, &mockMessenger{}, nil)
	require.Error(t, err)
	_, err = NewRouter(v, p, nil, nil)
	require.Error(t, err)
}

func TestRun_CompletedTurn(t *testing.T) {
	messenger := &mockMessenger{}
	agent := &mockAgent{responses: []agentResponse{{text: "Hola!"}}}
	r := newTestRouter(t, nil, false, agent, messenger)

	res, err := r.Run(context.Background(), textEvent("+100", "hi"))
	require.NoError(t, err)
	require.Equal(t, StateCompleted, res.State)
	require.Equal(t, "Hola!", res.Event.ResponseMessage)
	require.Equal(t, "corr-1", res.Event.CorrelationID)

	// ack first, then the agent response, both to the sender
	require.Len(t, messenger.sentTexts, 2)
	require.Equal(t, sentMessage{to: "+100", body: ackMessage}, messenger.sentTexts[0])
	require.Equal(t, sentMessage{to: "+100", body: "Hola!"}, messenger.sentTexts[1])
}

func TestRun_UnauthorizedShortCircuit(t *testing.T) {
	messenger := &mockMessenger{}
	agent := &mockAgent{responses: []agentResponse{{text: "never sent"}}}
	r := newTestRouter(t, &mockSessions{session: nil}, true, agent, messenger)

	res, err := r.Run(context.Background(), textEvent("+100", "hi"))
	require.NoError(t, err)
	require.Equal(t, StateUnauthorized, res.State)
	require.Zero(t, agent.calls, "unauthorized turns must skip the agent entirely")

	require.Len(t, messenger.sentTexts, 2)
	require.Equal(t, authRedirectMessage, messenger.sentTexts[1].body)
}

func TestRun_ValidationFailureFailsTurn(t *testing.T) {
	messenger := &mockMessenger{}
	agent := &mockAgent{}
	r := newTestRouter(t, nil, false, agent, messenger)

	ev := textEvent("+100", "hi")
	ev.MessageType = "sticker"
	res, err := r.Run(context.Background(), ev)
	expectUsecaseError(t, err, ErrorUnsupportedMessageType, "message_type_not_allowed")
	require.Equal(t, StateFailed, res.State)
	require.Zero(t, agent.calls)
	require.Empty(t, messenger.sentTexts)
}

func TestRun_ExhaustedAgentStillCompletes(t *testing.T) {
	messenger := &mockMessenger{}
	agent := &mockAgent{} // always empty
	r := newTestRouter(t, nil, false, agent, messenger)

	res, err := r.Run(context.Background(), textEvent("+100", "hi"))
	require.NoError(t, err, "agent exhaustion must not fail the turn")
	require.Equal(t, StateCompleted, res.State)
	require.Equal(t, fallbackMessage, res.Event.ResponseMessage)
	require.Equal(t, fallbackMessage, messenger.sentTexts[len(messenger.sentTexts)-1].body)
}

// failAfterMessenger succeeds for the first n sends, then fails.
type failAfterMessenger struct {
	mockMessenger
	okSends int
	sent    int
}

func (m *failAfterMessenger) SendText(ctx context.Context, to, body string) error {
	m.sent++
	if m.sent > m.okSends {
		return errors.New("meta unavailable")
	}
	return m.mockMessenger.SendText(ctx, to, body)
}

func TestRun_ResponseDeliveryFailure(t *testing.T) {
	messenger := &failAfterMessenger{okSends: 1} // ack succeeds, delivery fails
	agent := &mockAgent{responses: []agentResponse{{text: "Hola!"}}}

	v, err := NewValidator(nil, messenger, false, nil)
	require.NoError(t, err)
	p, err := NewProcessor(agent, nil)
	require.NoError(t, err)
	r, err := NewRouter(v, p, messenger, nil)
	require.NoError(t, err)

	res, err := r.Run(context.Background(), textEvent("+100", "hi"))
	expectUsecaseError(t, err, ErrorDeliveryFailed, "response_send_error")
	require.Equal(t, StateFailed, res.State)
}

func TestRun_RedirectDeliveryFailure(t *testing.T) {
	// ack (send 1) succeeds, the redirect (send 2) fails
	messenger := &failAfterMessenger{okSends: 1}
	v, err := NewValidator(&mockSessions{session: nil}, messenger, true, nil)
	require.NoError(t, err)
	p, err := NewProcessor(&mockAgent{}, nil)
	require.NoError(t, err)
	r, err := NewRouter(v, p, messenger, nil)
	require.NoError(t, err)

	res, err := r.Run(context.Background(), textEvent("+100", "hi"))
	expectUsecaseError(t, err, ErrorDeliveryFailed, "redirect_send_error")
	require.Equal(t, StateFailed, res.State)
}

func TestRun_PropagatesCorrelationIDAcrossSteps(t *testing.T) {
	messenger := &mockMessenger{}
	r := newTestRouter(t, nil, false, &mockAgent{responses: []agentResponse{{text: "ok"}}}, messenger)

	orig := newCorrelationID
	newCorrelationID = func() string { return "turn-42" }
	t.Cleanup(func() { newCorrelationID = orig })

	ev := domain.MessageEvent{MessageType: domain.MessageTypeText, FromNumber: "+100", TextBody: "hi"}
	res, err := r.Run(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, "turn-42", res.Event.CorrelationID)
}
