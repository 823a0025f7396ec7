package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
)

type BotConfigRepository interface {
	// Get returns the singleton config row, creating it with defaults on
	// first access.
	Get(ctx context.Context) (*entity.BotConfig, error)
	Update(ctx context.Context, cfg *entity.BotConfig) error
}

type botConfigRepository struct {
	db *gorm.DB
}

func NewBotConfigRepository(db *gorm.DB) BotConfigRepository {
	return &botConfigRepository{db: db}
}

func (r *botConfigRepository) Get(ctx context.Context) (*entity.BotConfig, error) {
	var cfg entity.BotConfig
	err := r.db.WithContext(ctx).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = entity.BotConfig{
			Provider:     entity.ProviderOpenAI,
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are a helpful customer support assistant.",
			Temperature:  0.7,
		}
		if err := r.db.WithContext(ctx).Create(&cfg).Error; err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (r *botConfigRepository) Update(ctx context.Context, cfg *entity.BotConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}
