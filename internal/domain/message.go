package domain

import (
	"sort"
	"time"
)

// MessageID is assigned by the message log in insertion order.
type MessageID string

type Message struct {
	ID             MessageID
	ConversationID ConversationID
	Seq            int64
	SenderID       ParticipantID
	Text           string
	CreatedAt      time.Time
}

func NewTextMessage(conversationID ConversationID, senderID ParticipantID, text string) *Message {
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	}
}

// SortByCreatedAt orders messages for presentation. Arrival order from a
// subscription is not createdAt order once two senders write concurrently.
func SortByCreatedAt(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
