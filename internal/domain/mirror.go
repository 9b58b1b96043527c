package domain

import (
	"sort"
	"time"
)

// Mirror is one participant's private summary of a conversation. The pair
// of mirrors of a conversation is written independently and may diverge.
type Mirror struct {
	OwnerID            ParticipantID
	ConversationID     ConversationID
	PeerID             ParticipantID
	PeerDisplayName    string
	LastMessagePreview string
	UpdatedAt          time.Time
}

func NewMirror(owner, peer ParticipantID, conversationID ConversationID, peerDisplayName, preview string) *Mirror {
	return &Mirror{
		OwnerID:            owner,
		ConversationID:     conversationID,
		PeerID:             peer,
		PeerDisplayName:    peerDisplayName,
		LastMessagePreview: preview,
	}
}

// SortByRecency puts the most recently active conversation first.
func SortByRecency(mirrors []*Mirror) {
	sort.SliceStable(mirrors, func(i, j int) bool {
		if !mirrors[i].UpdatedAt.Equal(mirrors[j].UpdatedAt) {
			return mirrors[i].UpdatedAt.After(mirrors[j].UpdatedAt)
		}
		return mirrors[i].ConversationID < mirrors[j].ConversationID
	})
}
