package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type WorkerConfig struct {
	Environment string
	Postgres    PostgresConfig
	Redis       WorkerRedisConfig
	Storage     StorageConfig
	Queues      WorkerQueueConfig
	Logging     LoggingConfig
	Metrics     WorkerMetricsConfig
}

type WorkerMetricsConfig struct {
	Addr string
}

type WorkerRedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type WorkerQueueConfig struct {
	ClaimInterval time.Duration
	CleanupMaxAge time.Duration
	CleanupBatch  int
}

type LoggingConfig struct {
	Level string
}

func LoadWorker() (*WorkerConfig, error) {
	v := viper.New()
	v.SetConfigName("worker")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.SetEnvPrefix("MODELVIEWER_WORKER")
	v.AutomaticEnv()

	setWorkerDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return &cfg, nil
}

func setWorkerDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("postgres.maxopen", 5)
	v.SetDefault("postgres.maxidle", 1)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "models:ingest")
	v.SetDefault("redis.group", "model-workers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("storage.bucketmodels", "modelviewer-models")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("queues.claiminterval", "10s")
	v.SetDefault("queues.cleanupmaxage", "24h")
	v.SetDefault("queues.cleanupbatch", 200)

	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.addr", ":9091")
}
