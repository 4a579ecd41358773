package service

import (
	"context"

	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/internal/repository"
)

type GiftService interface {
	List(ctx context.Context, q model.FilterQuery) (model.Page[*model.Gift], error)
	GetByID(ctx context.Context, id int) (*model.Gift, error)
}

type GiftServiceImpl struct {
	repo repository.GiftRepository
}

func NewGiftService(repo repository.GiftRepository) GiftService {
	return &GiftServiceImpl{repo: repo}
}

func (s *GiftServiceImpl) List(ctx context.Context, q model.FilterQuery) (model.Page[*model.Gift], error) {
	q = q.Normalize()
	gifts, total, err := s.repo.List(ctx, q)
	if err != nil {
		return model.Page[*model.Gift]{}, err
	}
	return model.NewPage(gifts, total, q), nil
}

func (s *GiftServiceImpl) GetByID(ctx context.Context, id int) (*model.Gift, error) {
	return s.repo.FindByID(ctx, id)
}
