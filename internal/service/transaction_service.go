package service

import (
	"context"
	"fmt"

	"go-gin-gift-admin/internal/cache"
	"go-gin-gift-admin/internal/export"
	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/internal/repository"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/clock"
	"go-gin-gift-admin/pkg/logger"

	"go.uber.org/zap"
)

type TransactionService interface {
	List(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) (model.Page[*model.WalletTransaction], error)
	// Export 以相同條件取出全部資料；沒有資料時回傳 ErrNothingToExport
	Export(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) (*export.Job, error)
}

type TransactionServiceImpl struct {
	repo      repository.TransactionRepository
	lock      cache.ExportLock
	formatter *export.Formatter
	clock     clock.Clock
	log       *zap.Logger
}

func NewTransactionService(
	repo repository.TransactionRepository,
	lock cache.ExportLock,
	formatter *export.Formatter,
	clk clock.Clock,
) TransactionService {
	return &TransactionServiceImpl{
		repo:      repo,
		lock:      lock,
		formatter: formatter,
		clock:     clk,
		log:       logger.WithComponent("transaction_service"),
	}
}

func (s *TransactionServiceImpl) List(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) (model.Page[*model.WalletTransaction], error) {
	q = q.Normalize()
	txns, total, err := s.repo.List(ctx, provider, q)
	if err != nil {
		return model.Page[*model.WalletTransaction]{}, err
	}
	return model.NewPage(txns, total, q), nil
}

func (s *TransactionServiceImpl) Export(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) (*export.Job, error) {
	// 同一組條件同時只允許一個匯出（跨 instance）
	key := fmt.Sprintf("%s:%s", provider, q.Unbounded().Key())
	token, ok, err := s.lock.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrExportInProgress
	}
	defer func() {
		// 請求取消時仍需釋放
		if err := s.lock.Release(context.Background(), key, token); err != nil {
			s.log.Error("failed to release export lock", zap.String("key", key), zap.Error(err))
		}
	}()

	fetch := func(ctx context.Context, q model.FilterQuery) (model.Page[*model.WalletTransaction], error) {
		return s.List(ctx, provider, q)
	}
	pipeline := export.NewPipeline(
		string(provider)+"_transactions",
		fetch,
		export.WalletTransactionMapper(s.formatter),
		export.WithClock(s.clock),
		export.WithLogger(s.log),
	)

	scope := pipeline.Filtered
	if !q.HasFilters() {
		scope = pipeline.All
	}

	result, err := scope(ctx, q)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, result.Rejection.Err
	}
	return result.Job, nil
}
