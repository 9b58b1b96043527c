package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/needsclan/Gk1/internal/domain"
)

type gormMessageRepository struct {
	db    *gorm.DB
	feed  domain.ChangeFeed
	clock Clock

	// serializes stamping and insert so seq order matches createdAt order
	appendMu sync.Mutex
}

func NewMessageRepository(db *gorm.DB, feed domain.ChangeFeed, clock Clock) MessageRepository {
	return &gormMessageRepository{db: db, feed: feed, clock: clock}
}

func (r *gormMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	id, err := uuid.NewV7()
	if err != nil {
		return storeErr(err, "messageRepo.Append.NewID")
	}

	r.appendMu.Lock()
	model := MessageDomainToModel(msg)
	model.Seq = 0
	model.ID = id.String()
	model.CreatedAtMs = toMillis(r.clock.Now())
	err = r.db.WithContext(ctx).Create(model).Error
	r.appendMu.Unlock()
	if err != nil {
		return storeErr(err, "messageRepo.Append.Create")
	}

	*msg = *MessageModelToDomain(model)
	r.feed.Publish(domain.Change{Path: domain.MessagePath(msg.ConversationID, msg.ID), Kind: domain.ChangeKindSet})
	return nil
}

func (r *gormMessageRepository) ListSince(ctx context.Context, conversationID domain.ConversationID, afterSeq int64, limit int) ([]*domain.Message, error) {
	var models []MessageModel
	query := r.db.WithContext(ctx).
		Where("conversation_id = ? AND seq > ?", string(conversationID), afterSeq).
		Order("seq ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, storeErr(err, "messageRepo.ListSince.Find")
	}

	messages := make([]*domain.Message, len(models))
	for i := range models {
		messages[i] = MessageModelToDomain(&models[i])
	}
	return messages, nil
}

func (r *gormMessageRepository) DeleteByConversation(ctx context.Context, conversationID domain.ConversationID) error {
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", string(conversationID)).
		Delete(&MessageModel{}).Error
	if err != nil {
		return storeErr(err, "messageRepo.DeleteByConversation.Delete")
	}
	r.feed.Publish(domain.Change{Path: domain.MessagesPath(conversationID), Kind: domain.ChangeKindRemoved})
	return nil
}
