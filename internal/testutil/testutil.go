// Package testutil 連線到 LoadTestConfig 指定的 Postgres 與 Redis，供整合測試使用。
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"go-gin-gift-admin/config"
	"go-gin-gift-admin/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Setup 初始化測試 DB（含 schema）與 Redis
func Setup() (*pgxpool.Pool, *redis.Client, func(), error) {
	cfg := config.LoadTestConfig()
	ctx := context.Background()

	testDB, err := database.InitDatabase(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize test database: %w", err)
	}
	if err := database.InitSchema(ctx, testDB); err != nil {
		testDB.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	testRdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		testDB.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	cleanup := func() {
		testDB.Close()
		testRdb.Close()
	}
	return testDB, testRdb, cleanup, nil
}

// SetupRedisOnly 僅初始化 Redis，用於只依賴 Redis 的測試（快照、匯出鎖）
func SetupRedisOnly() (*redis.Client, func(), error) {
	cfg := config.LoadTestConfig()
	rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	return rdb, func() { rdb.Close() }, nil
}

// Run 執行測試並在結束後清理；setupErr 不為 nil 時只記錄，
// 依賴連線的測試應透過 Skip 略過，其他單元測試照常執行
func Run(m *testing.M, setupErr error, cleanup func()) {
	if setupErr != nil {
		fmt.Fprintf(os.Stderr, "integration backends unavailable: %v\n", setupErr)
	}
	code := m.Run()
	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}
