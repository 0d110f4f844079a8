package configuration

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type StatspanelConfig struct {
	HttpPort    uint16
	MetricsPort uint16

	Redis     RedisConfig
	Ingestion IngestionConfig
	Tester    TesterConfig
}

// IngestionConfig tunes the queue-to-worker pipeline and the cache windows.
type IngestionConfig struct {
	// how often the worker polls the queue
	TickInterval time.Duration
	// busy ticks tolerated before a cycle is presumed dead
	WatchdogLimit int

	SubmissionCacheSize     int
	SubmissionHydrateWindow int
}

type TesterConfig struct {
	Url            string
	ReturnUrl      string
	RequestTimeout time.Duration
	Retries        uint
}

type RedisConfig struct {
	Addrs      []string
	Password   string
	DB         int
	MasterName string
	PoolSize   int
}

func (c RedisConfig) AsUniversalOptions() *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:      c.Addrs,
		Password:   c.Password,
		DB:         c.DB,
		MasterName: c.MasterName,
		PoolSize:   c.PoolSize,
	}
}
