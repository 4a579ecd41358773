package service_test

import (
	"bytes"
	"context"
	"testing"

	cacheMocks "go-gin-gift-admin/internal/cache/mocks"
	"go-gin-gift-admin/internal/export"
	"go-gin-gift-admin/internal/model"
	repoMocks "go-gin-gift-admin/internal/repository/mocks"
	"go-gin-gift-admin/internal/service"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTransactionService() (*repoMocks.TransactionRepositoryMock, *cacheMocks.ExportLockMock, service.TransactionService) {
	repo := repoMocks.NewTransactionRepositoryMock()
	lock := cacheMocks.NewExportLockMock()
	svc := service.NewTransactionService(repo, lock, export.DefaultFormatter(), clock.Fake(now))
	return repo, lock, svc
}

func TestTransactionService_List(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := setupTransactionService()

	q := model.NewFilterQuery(10).WithType("credit")
	repo.On("List", ctx, model.ProviderSerdipay, q).Return([]*model.WalletTransaction{{ID: 1}}, 1, nil).Once()

	page, err := svc.List(ctx, model.ProviderSerdipay, q)

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.LastPage)
	repo.AssertExpectations(t)
}

func TestTransactionService_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, lock, svc := setupTransactionService()

		q := model.NewFilterQuery(10).WithStatus("completed").WithPage(3)
		lock.On("Acquire", ctx, mock.Anything).Return("token-1", true, nil).Once()
		lock.On("Release", mock.Anything, mock.Anything, "token-1").Return(nil).Once()
		repo.On("List", mock.Anything, model.ProviderWallet, q.Unbounded()).Return([]*model.WalletTransaction{
			{ID: 1, Reference: "TX-1", Type: model.TransactionTypeCredit, Status: model.TransactionStatusCompleted, Amount: 10, Currency: "USD"},
			{ID: 2, Reference: "TX-2", Type: model.TransactionTypeDebit, Status: model.TransactionStatusCompleted, Amount: 4, Currency: "USD"},
		}, 2, nil).Once()

		job, err := svc.Export(ctx, model.ProviderWallet, q)

		require.NoError(t, err)
		assert.Equal(t, "wallet_transactions_filtered_2024-03-15.csv", job.Filename)
		assert.Len(t, job.Records, 2)

		var buf bytes.Buffer
		require.NoError(t, job.WriteCSV(&buf))
		assert.Contains(t, buf.String(), "TX-2")

		repo.AssertExpectations(t)
		lock.AssertExpectations(t)
	})

	t.Run("Success - no filters exports everything", func(t *testing.T) {
		repo, lock, svc := setupTransactionService()

		lock.On("Acquire", ctx, mock.Anything).Return("token-1", true, nil).Once()
		lock.On("Release", mock.Anything, mock.Anything, "token-1").Return(nil).Once()
		repo.On("List", mock.Anything, model.ProviderWallet, mock.Anything).Return([]*model.WalletTransaction{{ID: 1, Reference: "TX-1"}}, 1, nil).Once()

		job, err := svc.Export(ctx, model.ProviderWallet, model.NewFilterQuery(10))

		require.NoError(t, err)
		assert.Equal(t, "wallet_transactions_complete_2024-03-15.csv", job.Filename)
	})

	t.Run("Failed - ErrNothingToExport", func(t *testing.T) {
		repo, lock, svc := setupTransactionService()

		lock.On("Acquire", ctx, mock.Anything).Return("token-1", true, nil).Once()
		lock.On("Release", mock.Anything, mock.Anything, "token-1").Return(nil).Once()
		repo.On("List", mock.Anything, model.ProviderWallet, mock.Anything).Return([]*model.WalletTransaction{}, 0, nil).Once()

		job, err := svc.Export(ctx, model.ProviderWallet, model.NewFilterQuery(10).WithStatus("consumed"))

		assert.Nil(t, job)
		assert.ErrorIs(t, err, apperrors.ErrNothingToExport)
		lock.AssertExpectations(t)
	})

	t.Run("Failed - ErrExportInProgress", func(t *testing.T) {
		repo, lock, svc := setupTransactionService()

		lock.On("Acquire", ctx, mock.Anything).Return("", false, nil).Once()

		_, err := svc.Export(ctx, model.ProviderWallet, model.NewFilterQuery(10))

		assert.ErrorIs(t, err, apperrors.ErrExportInProgress)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
		lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	})
}
