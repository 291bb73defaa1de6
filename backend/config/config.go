package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	AI        AIConfig        `yaml:"ai"`
	Export    ExportConfig    `yaml:"export"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Minio     MinioConfig     `yaml:"minio"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port int        `yaml:"port"`
	Env  string     `yaml:"env"` // development, production, test
	CORS CORSConfig `yaml:"cors"`
}

type CORSConfig struct {
	Production  []string `yaml:"production"`
	Development []string `yaml:"development"`
}

type AIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Seed           int64  `yaml:"seed"` // 0 = seeded from the clock
}

type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Locale    string `yaml:"locale"`
	Currency  string `yaml:"currency"`
	Backend   string `yaml:"backend"`  // local, minio
	PDFFont   string `yaml:"pdf_font"` // optional UTF-8 TTF for PDF output
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // "", sqlite, postgres, memory
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Name       string `yaml:"name"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowMinutes int `yaml:"window_minutes"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	BackendLocal = "local"
	BackendMinio = "minio"
)

// placeholderKeys are API key values shipped in sample env files.
var placeholderKeys = map[string]bool{
	"":                           true,
	"demo-key":                   true,
	"your_deepseek_api_key_here": true,
}

// Load reads the optional YAML file at path, applies environment overrides
// and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Server.Env = getEnv("TASKGO_ENV", c.Server.Env)

	c.AI.APIKey = getEnv("DEEPSEEK_API_KEY", c.AI.APIKey)
	c.AI.BaseURL = getEnv("DEEPSEEK_BASE_URL", c.AI.BaseURL)
	c.AI.Model = getEnv("DEEPSEEK_MODEL", c.AI.Model)
	c.AI.TimeoutSeconds = getEnvAsInt("AI_TIMEOUT_SECONDS", c.AI.TimeoutSeconds)
	if v := os.Getenv("AI_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.AI.Seed = n
		}
	}

	c.Export.OutputDir = getEnv("EXPORT_DIR", c.Export.OutputDir)
	c.Export.Backend = getEnv("EXPORT_BACKEND", c.Export.Backend)
	c.Export.PDFFont = getEnv("EXPORT_PDF_FONT", c.Export.PDFFont)

	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DATABASE_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DATABASE_PORT", c.Database.Port)
	c.Database.Name = getEnv("DATABASE_NAME", c.Database.Name)
	c.Database.User = getEnv("DATABASE_USER", c.Database.User)
	c.Database.Password = getEnv("DATABASE_PASSWORD", c.Database.Password)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Minio.Bucket = getEnv("MINIO_BUCKET", c.Minio.Bucket)
	c.Minio.Region = getEnv("MINIO_REGION", c.Minio.Region)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.RateLimit.Requests = getEnvAsInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	c.RateLimit.WindowMinutes = getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", c.RateLimit.WindowMinutes)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3002
	}
	if c.Server.Env == "" {
		c.Server.Env = EnvDevelopment
	}
	if len(c.Server.CORS.Production) == 0 {
		c.Server.CORS.Production = []string{"https://taskgo.com"}
	}
	if len(c.Server.CORS.Development) == 0 {
		c.Server.CORS.Development = []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://localhost:8081",
		}
	}

	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.deepseek.com/v1"
	}
	c.AI.BaseURL = strings.TrimRight(c.AI.BaseURL, "/")
	if c.AI.Model == "" {
		c.AI.Model = "deepseek-chat"
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 30
	}

	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "./exports"
	}
	if c.Export.Locale == "" {
		c.Export.Locale = "ru"
	}
	if c.Export.Currency == "" {
		c.Export.Currency = "RUB"
	}
	if c.Export.Backend == "" {
		c.Export.Backend = BackendLocal
	}

	if c.Database.Driver == "" {
		if c.Database.Host != "" && c.Database.Name != "" {
			c.Database.Driver = DriverPostgres
		} else {
			c.Database.Driver = DriverSQLite
		}
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "./data/taskgo.db"
	}

	if c.Redis.TTLSeconds <= 0 {
		c.Redis.TTLSeconds = 600
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "taskgo.events"
	}

	if c.Minio.Region == "" {
		c.Minio.Region = "us-east-1"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.WindowMinutes <= 0 {
		c.RateLimit.WindowMinutes = 15
	}
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database.host and database.name are required for postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Export.Backend {
	case BackendLocal:
	case BackendMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return errors.New("minio.endpoint and minio.bucket are required for the minio export backend")
		}
	default:
		return fmt.Errorf("unknown export backend %q", c.Export.Backend)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// AllowedOrigins returns the CORS allow-list for the current deployment mode.
func (c *Config) AllowedOrigins() []string {
	if c.IsProduction() {
		return c.Server.CORS.Production
	}
	return c.Server.CORS.Development
}

// FallbackMode reports whether no usable provider credential is configured.
func (c AIConfig) FallbackMode() bool {
	return placeholderKeys[strings.TrimSpace(c.APIKey)]
}

func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DSN builds a postgres connection URL.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
