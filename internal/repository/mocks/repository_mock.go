package mocks

import (
	"context"
	"time"

	"go-gin-gift-admin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type TicketRepositoryMock struct {
	mock.Mock
}

func NewTicketRepositoryMock() *TicketRepositoryMock {
	return &TicketRepositoryMock{}
}

func (m *TicketRepositoryMock) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) FindByCode(ctx context.Context, code string) (*model.Ticket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) List(ctx context.Context, q model.FilterQuery, now time.Time) ([]*model.Ticket, int, error) {
	args := m.Called(ctx, q, now)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*model.Ticket), args.Int(1), args.Error(2)
}

func (m *TicketRepositoryMock) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) MarkConsumed(ctx context.Context, tx pgx.Tx, id int, distributorID int, at time.Time) error {
	args := m.Called(ctx, tx, id, distributorID, at)
	return args.Error(0)
}

func (m *TicketRepositoryMock) MarkScheduled(ctx context.Context, tx pgx.Tx, id int, distributorID int, when time.Time) error {
	args := m.Called(ctx, tx, id, distributorID, when)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func NewUserRepositoryMock() *UserRepositoryMock {
	return &UserRepositoryMock{}
}

func (m *UserRepositoryMock) Create(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepositoryMock) FindByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepositoryMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type TransactionRepositoryMock struct {
	mock.Mock
}

func NewTransactionRepositoryMock() *TransactionRepositoryMock {
	return &TransactionRepositoryMock{}
}

func (m *TransactionRepositoryMock) Create(ctx context.Context, txn *model.WalletTransaction) (*model.WalletTransaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *TransactionRepositoryMock) List(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) ([]*model.WalletTransaction, int, error) {
	args := m.Called(ctx, provider, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*model.WalletTransaction), args.Int(1), args.Error(2)
}

type GiftRepositoryMock struct {
	mock.Mock
}

func NewGiftRepositoryMock() *GiftRepositoryMock {
	return &GiftRepositoryMock{}
}

func (m *GiftRepositoryMock) Create(ctx context.Context, gift *model.Gift) (*model.Gift, error) {
	args := m.Called(ctx, gift)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Gift), args.Error(1)
}

func (m *GiftRepositoryMock) FindByID(ctx context.Context, id int) (*model.Gift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Gift), args.Error(1)
}

func (m *GiftRepositoryMock) List(ctx context.Context, q model.FilterQuery) ([]*model.Gift, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*model.Gift), args.Int(1), args.Error(2)
}
