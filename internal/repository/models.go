package repository

import (
	"time"

	"github.com/needsclan/Gk1/internal/domain"
)

// Models are shared by both backends: gorm maps the columns and bbolt
// stores the JSON encoding.

type MessageModel struct {
	Seq            int64  `gorm:"primaryKey;autoIncrement;column:seq;index:idx_conversation_seq,priority:2" json:"seq"`
	ID             string `gorm:"column:id;uniqueIndex" json:"id"`
	ConversationID string `gorm:"column:conversation_id;index:idx_conversation_seq,priority:1" json:"conversation_id"`
	SenderID       string `gorm:"column:sender_id" json:"sender_id"`
	Text           string `gorm:"column:text" json:"text"`
	CreatedAtMs    int64  `gorm:"column:created_at" json:"created_at"`
}

func (MessageModel) TableName() string { return "messages" }

type MirrorModel struct {
	OwnerID            string `gorm:"primaryKey;column:owner_id" json:"owner_id"`
	ConversationID     string `gorm:"primaryKey;column:conversation_id" json:"conversation_id"`
	PeerID             string `gorm:"column:peer_id" json:"peer_id"`
	PeerDisplayName    string `gorm:"column:peer_display_name" json:"peer_display_name"`
	LastMessagePreview string `gorm:"column:last_message_preview" json:"last_message_preview"`
	UpdatedAtMs        int64  `gorm:"column:updated_at;index" json:"updated_at"`
}

func (MirrorModel) TableName() string { return "mirrors" }

type ProfileModel struct {
	ParticipantID string `gorm:"primaryKey;column:participant_id" json:"participant_id"`
	Username      string `gorm:"column:username" json:"username"`
	Headline      string `gorm:"column:headline" json:"headline"`
}

func (ProfileModel) TableName() string { return "profiles" }

// Conversion functions
func MessageModelToDomain(m *MessageModel) *domain.Message {
	if m == nil {
		return nil
	}
	return &domain.Message{
		ID:             domain.MessageID(m.ID),
		ConversationID: domain.ConversationID(m.ConversationID),
		Seq:            m.Seq,
		SenderID:       domain.ParticipantID(m.SenderID),
		Text:           m.Text,
		CreatedAt:      fromMillis(m.CreatedAtMs),
	}
}

func MessageDomainToModel(msg *domain.Message) *MessageModel {
	if msg == nil {
		return nil
	}
	return &MessageModel{
		Seq:            msg.Seq,
		ID:             string(msg.ID),
		ConversationID: string(msg.ConversationID),
		SenderID:       string(msg.SenderID),
		Text:           msg.Text,
		CreatedAtMs:    toMillis(msg.CreatedAt),
	}
}

func MirrorModelToDomain(m *MirrorModel) *domain.Mirror {
	if m == nil {
		return nil
	}
	return &domain.Mirror{
		OwnerID:            domain.ParticipantID(m.OwnerID),
		ConversationID:     domain.ConversationID(m.ConversationID),
		PeerID:             domain.ParticipantID(m.PeerID),
		PeerDisplayName:    m.PeerDisplayName,
		LastMessagePreview: m.LastMessagePreview,
		UpdatedAt:          fromMillis(m.UpdatedAtMs),
	}
}

func MirrorDomainToModel(mirror *domain.Mirror) *MirrorModel {
	if mirror == nil {
		return nil
	}
	return &MirrorModel{
		OwnerID:            string(mirror.OwnerID),
		ConversationID:     string(mirror.ConversationID),
		PeerID:             string(mirror.PeerID),
		PeerDisplayName:    mirror.PeerDisplayName,
		LastMessagePreview: mirror.LastMessagePreview,
		UpdatedAtMs:        toMillis(mirror.UpdatedAt),
	}
}

func ProfileModelToDomain(m *ProfileModel) *domain.Profile {
	if m == nil {
		return nil
	}
	return &domain.Profile{
		ParticipantID: domain.ParticipantID(m.ParticipantID),
		Username:      m.Username,
		Headline:      m.Headline,
	}
}

func ProfileDomainToModel(p *domain.Profile) *ProfileModel {
	if p == nil {
		return nil
	}
	return &ProfileModel{
		ParticipantID: string(p.ParticipantID),
		Username:      p.Username,
		Headline:      p.Headline,
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
