package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

const (
	EnvProd = "prod"
	EnvTest = "test"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env     string `yaml:"env" env:"ENV" env-upd:"" env-default:"prod"`
	Storage string `yaml:"storage" env:"STORAGE" env-upd:"" env-default:"postgres"`

	Log Log `yaml:"log"`

	Postgres Postgres `yaml:"postgres"`

	HTTP HTTP `yaml:"http"`

	Quotes Quotes `yaml:"quotes"`
}

type Log struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-upd:"" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-upd:"" env-default:"console"`
}

type Postgres struct {
	// URL takes precedence over the separate connection fields when set.
	URL      string `yaml:"url" env:"DATABASE_URL" env-upd:""`
	Database string `yaml:"database" env:"POSTGRES_DATABASE" env-upd:""`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-upd:"" env-default:"localhost"`
	Username string `yaml:"username" env:"POSTGRES_USER" env-upd:""`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-upd:""`
	Port     int64  `yaml:"port" env:"POSTGRES_PORT" env-upd:"" env-default:"5432"`
	MaxConns int32  `yaml:"max_conns" env:"POSTGRES_MAX_CONNS" env-upd:"" env-default:"10"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-upd:"" env-default:":8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-upd:"" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-upd:"" env-default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-upd:"" env-default:"25s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-upd:"" env-default:"10s"`
}

type Quotes struct {
	BaseURL         string        `yaml:"base_url" env:"QUOTES_BASE_URL" env-upd:"" env-default:"https://query1.finance.yahoo.com"`
	Timeout         time.Duration `yaml:"timeout" env:"QUOTES_TIMEOUT" env-upd:"" env-default:"10s"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min" env:"QUOTES_RATE_LIMIT_PER_MIN" env-upd:"" env-default:"120"`
	UserAgent       string        `yaml:"user_agent" env:"QUOTES_USER_AGENT" env-upd:"" env-default:"Mozilla/5.0 (compatible; paper-trading/1.0)"`
	MaxConcurrency  int           `yaml:"max_concurrency" env:"QUOTES_MAX_CONCURRENCY" env-upd:"" env-default:"4"`
}

func (c *Config) GetPostgresURL() string {
	if c.Postgres.URL != "" {
		return c.Postgres.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Postgres.Username, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.Database)
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.Postgres.URL == "" && c.Postgres.Database == "" {
			return errors.New("postgres storage requires postgres.url or postgres.database")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	if c.Quotes.Timeout <= 0 {
		return errors.New("quotes.timeout must be positive")
	}

	return nil
}

// Load reads configPath (YAML) when given, then applies environment overrides.
// Variables from a .env file in the working directory are loaded first if the file exists.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func GetConfig(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal("config load failed", zap.String("path", configPath), zap.Error(err))
	}

	return cfg
}
