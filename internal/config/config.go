package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CARDTABLE"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Table    TableConfig    `mapstructure:"table"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TableConfig struct {
	DealInterval   time.Duration `mapstructure:"deal_interval"`
	ReconnectGrace time.Duration `mapstructure:"reconnect_grace"`
	InboxSize      int           `mapstructure:"inbox_size"`
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
	SweepSpec      string        `mapstructure:"sweep_spec"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DatabaseConfig selects the user registry. An empty DSN keeps users in memory.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig enables the lobby mirror when Addr is set.
type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	LobbyKey     string `mapstructure:"lobby_key"`
	LobbyChannel string `mapstructure:"lobby_channel"`
}

// AuthConfig: with no secret the websocket trusts userId/name query params.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type BotConfig struct {
	ThinkDelay time.Duration `mapstructure:"think_delay"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("table.deal_interval", 600*time.Millisecond)
	v.SetDefault("table.reconnect_grace", 5*time.Second)
	v.SetDefault("table.inbox_size", 64)
	v.SetDefault("table.idle_ttl", 30*time.Minute)
	v.SetDefault("table.sweep_spec", "@every 1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("database.dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lobby_key", "lobby:rooms")
	v.SetDefault("redis.lobby_channel", "lobby:updates")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("bot.think_delay", 800*time.Millisecond)
}

// Load reads an optional .env, then the optional YAML file at path, then CARDTABLE_*
// environment overrides (CARDTABLE_TABLE_DEAL_INTERVAL for table.deal_interval).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Table.DealInterval <= 0 {
		errs = append(errs, errors.New("table.deal_interval must be positive"))
	}
	if c.Table.ReconnectGrace <= 0 {
		errs = append(errs, errors.New("table.reconnect_grace must be positive"))
	}
	if c.Table.InboxSize <= 0 {
		errs = append(errs, errors.New("table.inbox_size must be positive"))
	}
	if c.Table.IdleTTL <= 0 {
		errs = append(errs, errors.New("table.idle_ttl must be positive"))
	}
	if c.Auth.JWTSecret != "" && c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Bot.ThinkDelay < 0 {
		errs = append(errs, errors.New("bot.think_delay must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
