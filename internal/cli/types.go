package cli

import "time"

// Mode represents the CLI operation mode
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeHeadless    Mode = "headless"
)

// Request represents a JSON request in headless mode
type Request struct {
	ID      string                 `json:"id,omitempty"`
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Response represents a JSON response in headless mode
type Response struct {
	ID      string      `json:"id,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Event represents a real-time event
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventInboxUpdated    = "inbox_updated"
	EventMessageReceived = "message_received"
)

// ConversationInfo is one inbox row
type ConversationInfo struct {
	ConversationID     string    `json:"conversation_id"`
	PeerID             string    `json:"peer_id"`
	PeerName           string    `json:"peer_name"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// MessageInfo represents message information for responses
type MessageInfo struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	IsFromMe       bool      `json:"is_from_me"`
}

// SessionInfo describes an open conversation
type SessionInfo struct {
	ConversationID string `json:"conversation_id"`
	PeerID         string `json:"peer_id"`
	PeerName       string `json:"peer_name"`
	State          string `json:"state"`
}

// SendResult is a stored message plus a sync warning, if any
type SendResult struct {
	Message MessageInfo `json:"message"`
	Warning string      `json:"warning,omitempty"`
}

type ParticipantInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
