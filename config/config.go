package config

import (
	"flag"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultServerAddress   = ":8080"
	defaultDatabaseDSN     = ""
	defaultGatewayAddr     = "http://localhost:8181"
	defaultRedisAddr       = "localhost:6379"
	defaultLogLevel        = "debug"
	defaultPrepayAmount    = 10.0
	defaultPrepayTTL       = 30 * time.Minute
	defaultSweepInterval   = 60 * time.Second
	defaultSweepBatchLimit = 100
)

type Config struct {
	ServerAddr      string
	DatabaseDSN     string
	GatewayAddr     string
	GatewaySecret   string
	GatewayTestMode bool
	RedisAddr       string
	LogLevel        string
	PrepayAmount    float64
	PrepayTTL       time.Duration
	SweepInterval   time.Duration
	SweepBatchLimit int
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "fixmart server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "fixmart database DSN")
		flag.StringVar(&cfg.GatewayAddr, "g", defaultGatewayAddr, "payment gateway address")
		flag.StringVar(&cfg.GatewaySecret, "s", "", "payment gateway signing secret")
		flag.BoolVar(&cfg.GatewayTestMode, "t", false, "enable test payment confirmation")
		flag.StringVar(&cfg.RedisAddr, "r", defaultRedisAddr, "redis address for reconciler lock")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
		flag.Float64Var(&cfg.PrepayAmount, "p", defaultPrepayAmount, "prepayment deposit amount")
		flag.DurationVar(&cfg.PrepayTTL, "w", defaultPrepayTTL, "prepayment grace window")
		flag.DurationVar(&cfg.SweepInterval, "i", defaultSweepInterval, "reconciler sweep interval")
		flag.IntVar(&cfg.SweepBatchLimit, "b", defaultSweepBatchLimit, "reconciler sweep batch limit")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if dataBaseURIEnv := os.Getenv("DATABASE_URI"); dataBaseURIEnv != "" {
			cfg.DatabaseDSN = dataBaseURIEnv
		}
		if gatewayAddrEnv := os.Getenv("GATEWAY_ADDRESS"); gatewayAddrEnv != "" {
			cfg.GatewayAddr = gatewayAddrEnv
		}
		if gatewaySecretEnv := os.Getenv("GATEWAY_SECRET"); gatewaySecretEnv != "" {
			cfg.GatewaySecret = gatewaySecretEnv
		}
		if gatewayTestEnv := os.Getenv("GATEWAY_TEST_MODE"); gatewayTestEnv != "" {
			if v, err := strconv.ParseBool(gatewayTestEnv); err == nil {
				cfg.GatewayTestMode = v
			}
		}
		if redisAddrEnv := os.Getenv("REDIS_ADDRESS"); redisAddrEnv != "" {
			cfg.RedisAddr = redisAddrEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}

		singleton = &cfg
	})

	return singleton, nil
}
