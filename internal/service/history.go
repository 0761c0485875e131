package service

import (
	"context"

	"github.com/spounge-ai/rosetta/internal/domain"
)

// HistoryService exposes the stored translations.
type HistoryService struct {
	repo domain.TranslationRepository
}

func NewHistoryService(repo domain.TranslationRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

func (s *HistoryService) Save(ctx context.Context, t domain.Translation) error {
	return s.repo.Save(ctx, t)
}

func (s *HistoryService) Get(ctx context.Context, id string) (domain.Translation, bool, error) {
	return s.repo.Get(ctx, id)
}

func (s *HistoryService) GetAll(ctx context.Context) ([]domain.Translation, error) {
	return s.repo.GetAll(ctx)
}

func (s *HistoryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *HistoryService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
