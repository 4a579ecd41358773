package lifecycle

import (
	"context"
	"sync"

	"go-gin-gift-admin/internal/model"
)

// MemoryStore 行程內的快照保存，CLI 未設定 Redis 時使用
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[int]model.Ticket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[int]model.Ticket)}
}

func (s *MemoryStore) Get(_ context.Context, ticketID int) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	return &ticket, nil
}

func (s *MemoryStore) Put(_ context.Context, ticket *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.ID] = *ticket
	return nil
}
