package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"bank-chatbot/internal/usecase"
)

type sentMessage struct {
	to   string
	body string
}

type mockMessenger struct {
	textErr   error
	sentTexts []sentMessage
	sentDocs  []sentMessage
}

func (m *mockMessenger) SendText(_ context.Context, to, body string) error {
	if m.textErr != nil {
		return m.textErr
	}
	m.sentTexts = append(m.sentTexts, sentMessage{to: to, body: body})
	return nil
}

func (m *mockMessenger) SendDocument(_ context.Context, to, documentURL string) error {
	m.sentDocs = append(m.sentDocs, sentMessage{to: to, body: documentURL})
	return nil
}

type mockAgent struct {
	response string
	err      error
	calls    int
}

func (m *mockAgent) Invoke(_ context.Context, _, _ string) (string, error) {
	m.calls++
	return m.response, m.err
}

func newStateMachineHandler(t *testing.T, agent usecase.AgentInvoker, messenger usecase.Messenger) *StateMachineHandler {
	t.Helper()
	v, err := usecase.NewValidator(nil, messenger, false, nil)
	require.NoError(t, err)
	p, err := usecase.NewProcessor(agent, nil)
	require.NoError(t, err)
	r, err := usecase.NewRouter(v, p, messenger, nil)
	require.NoError(t, err)
	h, err := NewStateMachineHandler(r, nil)
	require.NoError(t, err)
	return h
}

func messageRecord(eventID, eventName string, image map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   eventID,
		EventName: eventName,
		Change:    events.DynamoDBStreamRecord{NewImage: image},
	}
}

func textImage(msgType, from, text string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"type":        events.NewStringAttribute(msgType),
		"from_number": events.NewStringAttribute(from),
		"text":        events.NewStringAttribute(text),
	}
}

func TestNewStateMachineHandler_NilRouter(t *testing.T) {
	_, err := NewStateMachineHandler(nil, nil)
	require.Error(t, err)
}

func TestHandle_CompletesTurn(t *testing.T) {
	messenger := &mockMessenger{}
	agent := &mockAgent{response: "Hola!"}
	h := newStateMachineHandler(t, agent, messenger)

	err := h.Handle(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		messageRecord("evt-1", "INSERT", textImage("text", "+100", "hi")),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, agent.calls)

	// ack then response
	require.Len(t, messenger.sentTexts, 2)
	require.Equal(t, "+100", messenger.sentTexts[1].to)
	require.Equal(t, "Hola!", messenger.sentTexts[1].body)
}

func TestHandle_SkipsRemoveRecords(t *testing.T) {
	messenger := &mockMessenger{}
	agent := &mockAgent{response: "never"}
	h := newStateMachineHandler(t, agent, messenger)

	err := h.Handle(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		messageRecord("evt-1", "REMOVE", nil),
	}})
	require.NoError(t, err)
	require.Zero(t, agent.calls)
	require.Empty(t, messenger.sentTexts)
}

func TestHandle_UnsupportedTypeFailsBatch(t *testing.T) {
	h := newStateMachineHandler(t, &mockAgent{}, &mockMessenger{})

	err := h.Handle(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		messageRecord("evt-1", "INSERT", textImage("sticker", "+100", "hi")),
	}})
	var usecaseErr *usecase.Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, usecase.ErrorUnsupportedMessageType, usecaseErr.Code)
}

func TestEventFromStreamRecord(t *testing.T) {
	ev := eventFromStreamRecord(messageRecord("evt-42", "INSERT", textImage("text", "+100", "hola")))
	require.Equal(t, "evt-42", ev.CorrelationID)
	require.Equal(t, "text", string(ev.MessageType))
	require.Equal(t, "+100", ev.FromNumber)
	require.Equal(t, "hola", ev.TextBody)
}

func TestEventFromStreamRecord_MissingAttributes(t *testing.T) {
	ev := eventFromStreamRecord(messageRecord("evt-42", "INSERT", map[string]events.DynamoDBAttributeValue{
		"from_number": events.NewStringAttribute("+100"),
		// "type" carries a non-string value, "text" is absent
		"type": events.NewNumberAttribute("7"),
	}))
	require.Empty(t, string(ev.MessageType))
	require.Empty(t, ev.TextBody)
	require.Equal(t, "+100", ev.FromNumber)
}

func TestHandle_ProcessesMultipleRecords(t *testing.T) {
	messenger := &mockMessenger{}
	agent := &mockAgent{response: "ok"}
	h := newStateMachineHandler(t, agent, messenger)

	err := h.Handle(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		messageRecord("evt-1", "INSERT", textImage("text", "+100", "hi")),
		messageRecord("evt-2", "INSERT", textImage("text", "+200", "hello")),
	}})
	require.NoError(t, err)
	require.Equal(t, 2, agent.calls)
	require.Len(t, messenger.sentTexts, 4)
}

func TestHandle_AckFailureStopsBatch(t *testing.T) {
	messenger := &mockMessenger{textErr: errors.New("meta unavailable")}
	h := newStateMachineHandler(t, &mockAgent{response: "ok"}, messenger)

	err := h.Handle(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		messageRecord("evt-1", "INSERT", textImage("text", "+100", "hi")),
	}})
	var usecaseErr *usecase.Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, usecase.ErrorAcknowledgementFailed, usecaseErr.Code)
}
