package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/needsclan/Gk1/internal/domain"
)

type gormProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

func (r *gormProfileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	model := ProfileDomainToModel(profile)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "participant_id"}},
		UpdateAll: true,
	}).Create(model).Error
	return storeErr(err, "profileRepo.Upsert.Create")
}

func (r *gormProfileRepository) GetByID(ctx context.Context, id domain.ParticipantID) (*domain.Profile, error) {
	var model ProfileModel
	if err := r.db.WithContext(ctx).First(&model, "participant_id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr(err, "profileRepo.GetByID.First")
	}
	return ProfileModelToDomain(&model), nil
}
