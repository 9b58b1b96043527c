package repository

import (
	"context"

	"github.com/needsclan/Gk1/internal/domain"
)

// MessageRepository is the append-only message log of the substrate.
// Append assigns ID, Seq and CreatedAt on the passed message.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	ListSince(ctx context.Context, conversationID domain.ConversationID, afterSeq int64, limit int) ([]*domain.Message, error)
	DeleteByConversation(ctx context.Context, conversationID domain.ConversationID) error
}

// MirrorRepository stores one row per (owner, conversation). Upsert is a
// full replace and assigns UpdatedAt on the passed mirror. Get returns
// (nil, nil) when the row is absent.
type MirrorRepository interface {
	Get(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) (*domain.Mirror, error)
	Upsert(ctx context.Context, mirror *domain.Mirror) error
	Delete(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) error
	ListByOwner(ctx context.Context, owner domain.ParticipantID) ([]*domain.Mirror, error)
}

type ProfileRepository interface {
	Upsert(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id domain.ParticipantID) (*domain.Profile, error)
}
