package grpc

import (
	"time"

	"github.com/needsclan/Gk1/internal/domain"
)

type Mirror struct {
	OwnerID            string    `json:"owner_id"`
	ConversationID     string    `json:"conversation_id"`
	PeerID             string    `json:"peer_id"`
	PeerDisplayName    string    `json:"peer_display_name"`
	LastMessagePreview string    `json:"last_message_preview"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateContactRequest struct {
	Me              string `json:"me"`
	Peer            string `json:"peer"`
	MyDisplayName   string `json:"my_display_name,omitempty"`
	PeerDisplayName string `json:"peer_display_name,omitempty"`
}

type CreateContactResponse struct {
	ConversationID string `json:"conversation_id"`
}

type EnterRequest struct {
	Me   string `json:"me"`
	Peer string `json:"peer"`
}

type EnterResponse struct {
	ConversationID string `json:"conversation_id"`
	MyName         string `json:"my_name"`
	PeerName       string `json:"peer_name"`
	State          string `json:"state"`
}

type SendRequest struct {
	Me   string `json:"me"`
	Peer string `json:"peer"`
	Text string `json:"text"`
}

// SendResponse carries the stored message. Warning is set when the message
// is durable but a mirror could not be refreshed.
type SendResponse struct {
	Message *Message `json:"message"`
	Warning string   `json:"warning,omitempty"`
}

type DisposeRequest struct {
	Owner          string `json:"owner"`
	ConversationID string `json:"conversation_id"`
	Peer           string `json:"peer"`
}

type DisposeResponse struct {
	ConversationID   string `json:"conversation_id"`
	HistoryCollected bool   `json:"history_collected"`
}

type GetMirrorRequest struct {
	Owner          string `json:"owner"`
	ConversationID string `json:"conversation_id"`
}

// GetMirrorResponse carries Found false and no mirror when the owner has no
// row for the conversation.
type GetMirrorResponse struct {
	Found  bool    `json:"found"`
	Mirror *Mirror `json:"mirror,omitempty"`
}

type DisplayNameRequest struct {
	ParticipantID string `json:"participant_id"`
}

type DisplayNameResponse struct {
	DisplayName string `json:"display_name"`
}

type SubscribeInboxRequest struct {
	Owner string `json:"owner"`
}

type InboxSnapshot struct {
	Mirrors []*Mirror `json:"mirrors"`
}

type SubscribeMessagesRequest struct {
	ConversationID string `json:"conversation_id"`
}

func mirrorToWire(m *domain.Mirror) *Mirror {
	if m == nil {
		return nil
	}
	return &Mirror{
		OwnerID:            m.OwnerID.String(),
		ConversationID:     m.ConversationID.String(),
		PeerID:             m.PeerID.String(),
		PeerDisplayName:    m.PeerDisplayName,
		LastMessagePreview: m.LastMessagePreview,
		UpdatedAt:          m.UpdatedAt,
	}
}

func messageToWire(m *domain.Message) *Message {
	if m == nil {
		return nil
	}
	return &Message{
		ID:             string(m.ID),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}
}
