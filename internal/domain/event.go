package domain

// MessageType classifies an inbound WhatsApp message.
type MessageType string

const (
	MessageTypeText         MessageType = "text"
	MessageTypeImage        MessageType = "image"
	MessageTypeDocument     MessageType = "document"
	MessageTypeAudio        MessageType = "audio"
	MessageTypeVideo        MessageType = "video"
	MessageTypeLocation     MessageType = "location"
	MessageTypeContact      MessageType = "contact"
	MessageTypeUnauthorized MessageType = "unauthorized"

	// MessageTypeNotFound is the sentinel used when an inbound record
	// carries no type attribute at all.
	MessageTypeNotFound MessageType = "NOT_FOUND_MESSAGE_TYPE"
)

// allowedMessageTypes is the closed set of inbound types the pipeline accepts.
var allowedMessageTypes = map[MessageType]struct{}{
	MessageTypeText:         {},
	MessageTypeImage:        {},
	MessageTypeDocument:     {},
	MessageTypeAudio:        {},
	MessageTypeVideo:        {},
	MessageTypeLocation:     {},
	MessageTypeContact:      {},
	MessageTypeUnauthorized: {},
}

// Allowed reports whether t is part of the accepted message-type set.
func (t MessageType) Allowed() bool {
	_, ok := allowedMessageTypes[t]
	return ok
}

// MessageEvent is one conversational turn flowing through the pipeline.
// Steps return enriched copies; the correlation id, once assigned by the
// ingesting trigger, is carried unchanged through every step.
type MessageEvent struct {
	CorrelationID   string
	MessageType     MessageType
	FromNumber      string
	TextBody        string
	ResponseMessage string
}
