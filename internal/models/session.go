package models

import (
	"time"
)

// MessageType identifies what kind of content a message carries
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeAudio  MessageType = "audio"
	MessageTypePDF    MessageType = "pdf"
	MessageTypeSystem MessageType = "system"
)

// MessageDirection identifies whether a message came from or went to the customer
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// SessionStatus represents the lifecycle state of a conversation session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusExpired   SessionStatus = "expired"
)

// Message is a single message in a conversation.
// Messages are created once and never mutated; they are only removed
// wholesale when their owning session is purged.
type Message struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Type      MessageType      `json:"message_type"`
	Direction MessageDirection `json:"direction"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

// Session is the tracked conversation state for one customer phone number
type Session struct {
	SessionID    string         `json:"session_id"`
	PhoneNumber  string         `json:"phone_number"`
	Status       SessionStatus  `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Messages     []Message      `json:"messages"`
	Context      map[string]any `json:"context"`
	OrderDetails map[string]any `json:"order_details,omitempty"`
}

// SessionUpdate carries optional field updates for a session.
// Status is overwritten, Context is shallow-merged, OrderDetails is
// replaced outright when set.
type SessionUpdate struct {
	Status       *SessionStatus `json:"status,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	OrderDetails map[string]any `json:"order_details,omitempty"`
}

// SessionSummary is the projection returned to reporting endpoints
type SessionSummary struct {
	SessionID    string         `json:"session_id"`
	PhoneNumber  string         `json:"phone_number"`
	Status       SessionStatus  `json:"status"`
	CreatedAt    string         `json:"created_at"`
	LastActivity string         `json:"last_activity"`
	MessageCount int            `json:"message_count"`
	OrderDetails map[string]any `json:"order_details,omitempty"`
	Context      map[string]any `json:"context"`
}
