package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GW2      GW2Config      `mapstructure:"gw2"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Advisor  AdvisorConfig  `mapstructure:"advisor"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

// GW2Config controls the client talking to the official GW2 HTTP API.
type GW2Config struct {
	BaseURL       string        `mapstructure:"base_url"`
	SchemaVersion string        `mapstructure:"schema_version"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryWait     time.Duration `mapstructure:"retry_wait"`
	RateLimitRPS  float64       `mapstructure:"rate_limit_rps"`
	RateBurst     int           `mapstructure:"rate_burst"`
	BatchSize     int           `mapstructure:"batch_size"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | sqlite_memory | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

// AdvisorConfig tunes the advice pipeline itself.
type AdvisorConfig struct {
	IncludeConsumables bool          `mapstructure:"include_consumables"`
	ReloadInterval     time.Duration `mapstructure:"reload_interval"` // 0 disables scheduled reloads
}

type SecurityConfig struct {
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("gw2.base_url", "https://api.guildwars2.com")
	v.SetDefault("gw2.schema_version", "2022-03-09T02:00:00.000Z")
	v.SetDefault("gw2.timeout", "30s")
	v.SetDefault("gw2.retry_attempts", 3)
	v.SetDefault("gw2.retry_wait", "200ms")
	v.SetDefault("gw2.rate_limit_rps", 5)
	v.SetDefault("gw2.rate_burst", 10)
	v.SetDefault("gw2.batch_size", 200)
	v.SetDefault("gw2.cache_ttl", "15m")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/advisor.db")
	v.SetDefault("database.mysql_max_open", 10)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("advisor.include_consumables", false)
	v.SetDefault("advisor.reload_interval", "0")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with every default applied and no file read.
// The one-shot CLI uses this when no config file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		GW2: GW2Config{
			BaseURL:       "https://api.guildwars2.com",
			SchemaVersion: "2022-03-09T02:00:00.000Z",
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryWait:     200 * time.Millisecond,
			RateLimitRPS:  5,
			RateBurst:     10,
			BatchSize:     200,
			CacheTTL:      15 * time.Minute,
		},
		Database: DatabaseConfig{Mode: "sqlite", SQLitePath: "./data/advisor.db"},
		Cache:    CacheConfig{LocalGCInterval: 30 * time.Second, LocalPubSubBuf: 256},
		Security: SecurityConfig{RateLimitRPS: 100, RateLimitBurst: 200},
	}
}
