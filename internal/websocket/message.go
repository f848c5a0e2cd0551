package websocket

import (
	"encoding/json"
	"time"

	"bloglist-server/internal/domain"
)

type MessageType string

const (
	TypeBlogCreated MessageType = MessageType(domain.BlogCreated)
	TypeBlogUpdated MessageType = MessageType(domain.BlogUpdated)
	TypeBlogDeleted MessageType = MessageType(domain.BlogDeleted)
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
	TypeError       MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type BlogEventPayload struct {
	BlogID string           `json:"blog_id"`
	Blog   *domain.BlogView `json:"blog,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
