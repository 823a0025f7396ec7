package service

import (
	"context"

	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/bot/dto"
	"lintas.id/aidesk/internal/modules/bot/repository"
)

type Service interface {
	GetConfig(ctx context.Context) (*entity.BotConfig, error)
	UpdateConfig(ctx context.Context, req dto.UpdateBotConfigRequest) (*entity.BotConfig, error)
}

type botService struct {
	repo repository.BotConfigRepository
}

func NewBotService(repo repository.BotConfigRepository) Service {
	return &botService{repo: repo}
}

func (s *botService) GetConfig(ctx context.Context) (*entity.BotConfig, error) {
	return s.repo.Get(ctx)
}

func (s *botService) UpdateConfig(ctx context.Context, req dto.UpdateBotConfigRequest) (*entity.BotConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	cfg.Provider = req.Provider
	cfg.Model = req.Model
	cfg.SystemPrompt = req.SystemPrompt
	cfg.Temperature = req.Temperature

	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
