package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/needsclan/Gk1/internal/domain"
)

type gormMirrorRepository struct {
	db    *gorm.DB
	feed  domain.ChangeFeed
	clock Clock
}

func NewMirrorRepository(db *gorm.DB, feed domain.ChangeFeed, clock Clock) MirrorRepository {
	return &gormMirrorRepository{db: db, feed: feed, clock: clock}
}

func (r *gormMirrorRepository) Get(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) (*domain.Mirror, error) {
	var model MirrorModel
	err := r.db.WithContext(ctx).
		First(&model, "owner_id = ? AND conversation_id = ?", string(owner), string(conversationID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr(err, "mirrorRepo.Get.First")
	}
	return MirrorModelToDomain(&model), nil
}

func (r *gormMirrorRepository) Upsert(ctx context.Context, mirror *domain.Mirror) error {
	mirror.UpdatedAt = r.clock.Now()
	model := MirrorDomainToModel(mirror)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "conversation_id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		return storeErr(err, "mirrorRepo.Upsert.Create")
	}
	r.feed.Publish(domain.Change{Path: domain.MirrorPath(mirror.OwnerID, mirror.ConversationID), Kind: domain.ChangeKindSet})
	return nil
}

func (r *gormMirrorRepository) Delete(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) error {
	res := r.db.WithContext(ctx).
		Where("owner_id = ? AND conversation_id = ?", string(owner), string(conversationID)).
		Delete(&MirrorModel{})
	if res.Error != nil {
		return storeErr(res.Error, "mirrorRepo.Delete.Delete")
	}
	if res.RowsAffected > 0 {
		r.feed.Publish(domain.Change{Path: domain.MirrorPath(owner, conversationID), Kind: domain.ChangeKindRemoved})
	}
	return nil
}

func (r *gormMirrorRepository) ListByOwner(ctx context.Context, owner domain.ParticipantID) ([]*domain.Mirror, error) {
	var models []MirrorModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", string(owner)).
		Order("updated_at DESC").
		Order("conversation_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, storeErr(err, "mirrorRepo.ListByOwner.Find")
	}

	mirrors := make([]*domain.Mirror, len(models))
	for i := range models {
		mirrors[i] = MirrorModelToDomain(&models[i])
	}
	return mirrors, nil
}
