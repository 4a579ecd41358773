package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	API      APIConfig
	Export   ExportConfig
	Fetch    FetchConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MaxConns 連線池上限；排程與兌換都會持有一條連線直到 commit
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// APIConfig 管理端 client 連線設定
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	ActorID int
	// SnapshotTTL 票券快照在 Redis 中的保存時間
	SnapshotTTL time.Duration
}

// ExportConfig 匯出檔案的格式設定
type ExportConfig struct {
	Dir        string
	Locale     string
	Timezone   string
	DateLayout string
	LockTTL    time.Duration
}

type FetchConfig struct {
	SearchDebounce time.Duration
	PerPage        int
}

var AppConfig *Config

func LoadConfig() *Config {
	AppConfig = &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		API:      GetAPIConfig(),
		Export:   GetExportConfig(),
		Fetch:    GetFetchConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5433"), // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
		MaxConns: 10,
		MinConns: 1,
	}

	testRedisConfig := RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnv("TEST_REDIS_PORT", "6380"), // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Server:   ServerConfig{Port: "8081"},
		Database: *testConfig,
		Redis:    testRedisConfig,
		API: APIConfig{
			BaseURL:     "http://localhost:8081/api/v1",
			Timeout:     5 * time.Second,
			ActorID:     1,
			SnapshotTTL: time.Minute,
		},
		Export: ExportConfig{
			Dir:        os.TempDir(),
			Locale:     "en",
			Timezone:   "UTC",
			DateLayout: "02/01/2006 15:04",
			LockTTL:    time.Minute,
		},
		Fetch: FetchConfig{
			SearchDebounce: 500 * time.Millisecond,
			PerPage:        10,
		},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnv("PORT", "8080"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getInt("DB_MAX_CONNS", 25)),
		MinConns: int32(getInt("DB_MIN_CONNS", 5)),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetAPIConfig() APIConfig {
	actorID, err := strconv.Atoi(getEnv("ADMIN_ID", "0"))
	if err != nil {
		panic(err)
	}

	return APIConfig{
		BaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		Timeout:     getDuration("API_TIMEOUT", 15*time.Second),
		ActorID:     actorID,
		SnapshotTTL: getDuration("SNAPSHOT_TTL", 10*time.Minute),
	}
}

func GetExportConfig() ExportConfig {
	return ExportConfig{
		Dir:        getEnv("EXPORT_DIR", "."),
		Locale:     getEnv("DISPLAY_LOCALE", "en"),
		Timezone:   getEnv("DISPLAY_TIMEZONE", "UTC"),
		DateLayout: getEnv("DISPLAY_DATE_LAYOUT", "02/01/2006 15:04"),
		LockTTL:    getDuration("EXPORT_LOCK_TTL", 5*time.Minute),
	}
}

func GetFetchConfig() FetchConfig {
	perPage, err := strconv.Atoi(getEnv("PER_PAGE", "10"))
	if err != nil {
		panic(err)
	}

	return FetchConfig{
		SearchDebounce: getDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),
		PerPage:        perPage,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}
