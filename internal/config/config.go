package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
	ModeKafka   = "kafka"
)

const (
	DriverFile   = "file"
	DriverSQL    = "sql"
	DriverMongo  = "mongo"
	DriverBadger = "badger"
)

type Config struct {
	Bot      BotConfig      `envPrefix:"BOT_"`
	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Webhook  WebhookConfig  `envPrefix:"WEBHOOK_"`
	Store    StoreConfig    `envPrefix:"STORE_"`
	Cursor   CursorConfig   `envPrefix:"CURSOR_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

type BotConfig struct {
	Token           string        `env:"TOKEN,required,notEmpty" validate:"required"`
	Name            string        `env:"NAME" envDefault:"ehbot" validate:"required"`
	Mode            string        `env:"MODE" envDefault:"polling" validate:"oneof=polling webhook kafka"`
	MaxTags         int           `env:"MAX_TAGS" envDefault:"5" validate:"min=1"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"5m" validate:"min=0"`
	PollPeriod      time.Duration `env:"POLL_PERIOD" envDefault:"1s" validate:"gt=0"`
	Timezone        string        `env:"TIMEZONE" envDefault:"America/Mexico_City"`
	AdminID         string        `env:"ADMIN_ID" envDefault:"58699815"`
}

// Tag is the mention token users write to address the bot.
func (c BotConfig) Tag() string {
	return "@" + c.Name
}

type TelegramConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.telegram.org" validate:"url"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
	SendRPS float64       `env:"SEND_RPS" envDefault:"20" validate:"gt=0"`
}

type ServerConfig struct {
	Host  string `env:"HOST" envDefault:"0.0.0.0"`
	Port  string `env:"PORT" envDefault:"8080"`
	Pprof bool   `env:"PPROF"`
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type WebhookConfig struct {
	URL string `env:"URL"`
}

type StoreConfig struct {
	Driver   string `env:"DRIVER" envDefault:"file" validate:"oneof=file sql mongo badger"`
	Dir      string `env:"DIR" envDefault:"."`
	DSN      string `env:"DSN"`
	Database string `env:"DATABASE" envDefault:"ehbot"`
}

// SQLDSN falls back to a sqlite file under Dir.
func (c StoreConfig) SQLDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return filepath.Join(c.Dir, "ehbot.db")
}

func (c StoreConfig) MongoURI() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "mongodb://localhost:27017"
}

func (c StoreConfig) BadgerDir() string {
	return filepath.Join(c.Dir, "badger")
}

type CursorConfig struct {
	File string `env:"FILE" envDefault:"last_update"`
}

type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"telegram-updates"`
	GroupID string   `env:"GROUP_ID" envDefault:"ehbot"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"debug"`
	Format string `env:"FORMAT" envDefault:"json" validate:"oneof=json console"`
}

// Location resolves the display timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks field constraints and the settings each mode needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", models.ErrConfig, err)
	}
	if _, err := time.LoadLocation(c.Bot.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", models.ErrConfig, c.Bot.Timezone, err)
	}
	switch c.Bot.Mode {
	case ModeWebhook:
		if c.Webhook.URL == "" || c.Server.Port == "" {
			return fmt.Errorf("%w: webhook mode needs WEBHOOK_URL and SERVER_PORT", models.ErrConfig)
		}
	case ModeKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return fmt.Errorf("%w: kafka mode needs KAFKA_BROKERS and KAFKA_TOPIC", models.ErrConfig)
		}
	}
	return nil
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrConfig, err)
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
