package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ExportLockMock struct {
	mock.Mock
}

func NewExportLockMock() *ExportLockMock {
	return &ExportLockMock{}
}

func (m *ExportLockMock) Acquire(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *ExportLockMock) Release(ctx context.Context, key string, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}
