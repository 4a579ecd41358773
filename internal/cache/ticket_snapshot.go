package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-gin-gift-admin/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisTicketSnapshotStore 保存最後一次從伺服器取得的票券快照，
// 讓 CLI 重試兌換時不必再次送出變更請求。
type RedisTicketSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTicketSnapshotStore(client *redis.Client, ttl time.Duration) *RedisTicketSnapshotStore {
	return &RedisTicketSnapshotStore{
		client: client,
		ttl:    ttl,
	}
}

// 快照 key
func (s *RedisTicketSnapshotStore) getSnapshotKey(ticketID int) string {
	return fmt.Sprintf("ticket:%d:snapshot", ticketID)
}

// Get 找不到快照時回傳 nil, nil
func (s *RedisTicketSnapshotStore) Get(ctx context.Context, ticketID int) (*model.Ticket, error) {
	raw, err := s.client.Get(ctx, s.getSnapshotKey(ticketID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ticket model.Ticket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &ticket, nil
}

func (s *RedisTicketSnapshotStore) Put(ctx context.Context, ticket *model.Ticket) error {
	raw, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.client.Set(ctx, s.getSnapshotKey(ticket.ID), raw, s.ttl).Err()
}
