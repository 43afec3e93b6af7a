// Package config предоставляет структуры и функции для загрузки конфигурации сервиса.
//
// Конфигурация читается из YAML-файла, путь к которому задаёт CONFIG_PATH;
// переменные окружения (STORAGE_URL, REDIS_ADDR, AMQP_URL, SESSION_SECRET и др.)
// перекрывают значения из файла. Без CONFIG_PATH используются только окружение и значения по умолчанию.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env             string          `yaml:"env" env:"ENV" env-default:"local"`
	Storage         Storage         `yaml:"storage"`
	HTTPServer      HTTPServer      `yaml:"http_server"`
	GRPCServer      GRPCServer      `yaml:"grpc_server"`
	RedisConnection RedisConnection `yaml:"redis_connection"`
	AMQP            AMQP            `yaml:"amqp"`
	Session         Session         `yaml:"session"`
	Admin           Admin           `yaml:"admin"`
	RateLimit       RateLimit       `yaml:"rate_limit"`
	SMTP            SMTP            `yaml:"smtp"`
}

// Storage описывает выбор и подключение основного хранилища.
//
// URL задаёт единственную строку подключения: mongodb://, mongodb+srv://, postgres://,
// postgresql:// или memory://. Пустое значение означает работу в памяти.
type Storage struct {
	URL               string        `yaml:"url" env:"STORAGE_URL"`
	Database          string        `yaml:"database" env:"STORAGE_DATABASE" env-default:"techblog"`
	ConnectAttempts   int           `yaml:"connect_attempts" env-default:"3"`
	RetryDelay        time.Duration `yaml:"retry_delay" env-default:"2s"`
	ProbeTimeout      time.Duration `yaml:"probe_timeout" env-default:"7s"`
	OperationTimeout  time.Duration `yaml:"operation_timeout" env-default:"15s"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env-default:"10s"`
	MaxOpenConns      int           `yaml:"max_open_conns" env-default:"10"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":5000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// GRPCServer настраивает gRPC health-сервер. Пустой адрес отключает его.
type GRPCServer struct {
	AddressGRPC string `yaml:"addressgrpc" env:"GRPC_ADDRESS"`
}

// RedisConnection структура для настройки подключения к redis. Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	TTL          time.Duration `yaml:"ttl" env-default:"5m"`
}

// AMQP настраивает публикацию событий. Пустой URL отключает публикацию.
type AMQP struct {
	URL        string        `yaml:"url" env:"AMQP_URL"`
	Exchange   string        `yaml:"exchange" env-default:"blog"`
	Retries    int           `yaml:"retries" env-default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Session настраивает cookie сессии администратора.
type Session struct {
	Secret     string        `yaml:"secret" env:"SESSION_SECRET" env-default:"techblog-secret"`
	TTL        time.Duration `yaml:"ttl" env-default:"336h"`
	CookieName string        `yaml:"cookie_name" env-default:"techblog.sid"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE"`
	PruneEvery time.Duration `yaml:"prune_every" env-default:"1h"`
}

// Admin — учётная запись, создаваемая при первом запуске хранилища.
type Admin struct {
	Username string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-default:"admin123"`
}

// RateLimit ограничивает частоту подписок и попыток входа.
type RateLimit struct {
	SubscribeRPS   float64 `yaml:"subscribe_rps" env-default:"1"`
	SubscribeBurst int     `yaml:"subscribe_burst" env-default:"5"`
	LoginRPS       float64 `yaml:"login_rps" env-default:"0.5"`
	LoginBurst     int     `yaml:"login_burst" env-default:"5"`
}

// SMTP настраивает отправку приветственных писем подписчикам (cmd/notifier).
type SMTP struct {
	Host        string `yaml:"host" env:"SMTP_HOST"`
	Port        string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User        string `yaml:"user" env:"SMTP_USER"`
	Password    string `yaml:"password" env:"SMTP_PASSWORD"`
	From        string `yaml:"from" env:"SMTP_FROM"`
	StartTLS    bool   `yaml:"starttls" env-default:"true"`
	Concurrency int    `yaml:"concurrency" env-default:"10"`
	SiteURL     string `yaml:"site_url" env:"SITE_URL" env-default:"http://localhost:5000"`
}

// Load читает конфиг из path (если задан) и из окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  URL set: %t\n"+
			"  Database: %s\n"+
			"  ProbeTimeout: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"GRPCServer:\n"+
			"  Address: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"AMQP:\n"+
			"  URL set: %t\n"+
			"  Exchange: %s\n"+
			"Session:\n"+
			"  TTL: %s\n",
		c.Env,
		c.Storage.URL != "",
		c.Storage.Database,
		c.Storage.ProbeTimeout,
		c.HTTPServer.AddressHTTP,
		c.GRPCServer.AddressGRPC,
		c.RedisConnection.AddressRedis,
		c.AMQP.URL != "",
		c.AMQP.Exchange,
		c.Session.TTL,
	)
}
