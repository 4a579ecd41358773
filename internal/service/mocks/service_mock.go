package mocks

import (
	"context"
	"time"

	"go-gin-gift-admin/internal/export"
	"go-gin-gift-admin/internal/model"

	"github.com/stretchr/testify/mock"
)

type TicketServiceMock struct {
	mock.Mock
}

func NewTicketServiceMock() *TicketServiceMock {
	return &TicketServiceMock{}
}

func (m *TicketServiceMock) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) History(ctx context.Context, q model.FilterQuery) (model.Page[*model.Ticket], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.Page[*model.Ticket]), args.Error(1)
}

func (m *TicketServiceMock) Consume(ctx context.Context, ticketID int, actorID int) (*model.Ticket, error) {
	args := m.Called(ctx, ticketID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) Schedule(ctx context.Context, ticketID int, actorID int, when time.Time) (*model.Ticket, error) {
	args := m.Called(ctx, ticketID, actorID, when)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

type TransactionServiceMock struct {
	mock.Mock
}

func NewTransactionServiceMock() *TransactionServiceMock {
	return &TransactionServiceMock{}
}

func (m *TransactionServiceMock) List(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) (model.Page[*model.WalletTransaction], error) {
	args := m.Called(ctx, provider, q)
	return args.Get(0).(model.Page[*model.WalletTransaction]), args.Error(1)
}

func (m *TransactionServiceMock) Export(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) (*export.Job, error) {
	args := m.Called(ctx, provider, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Job), args.Error(1)
}

type GiftServiceMock struct {
	mock.Mock
}

func NewGiftServiceMock() *GiftServiceMock {
	return &GiftServiceMock{}
}

func (m *GiftServiceMock) List(ctx context.Context, q model.FilterQuery) (model.Page[*model.Gift], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.Page[*model.Gift]), args.Error(1)
}

func (m *GiftServiceMock) GetByID(ctx context.Context, id int) (*model.Gift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Gift), args.Error(1)
}
