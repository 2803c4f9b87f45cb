package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию сервера историй
type Config struct {
	Port               string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding        string `envconfig:"LOG_ENCODING" default:"json"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Хранилище: file | postgres
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"file"`
	DataFilePath  string `envconfig:"DATA_FILE_PATH" default:"data/users.json"`

	// Настройки PostgreSQL
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"story_db"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int    `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string `ignored:"true"`

	// Пустые значения включают in-memory предпочтения и no-op публикацию событий
	RedisURL         string `envconfig:"REDIS_URL"`
	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	StoryEventsQueue string `envconfig:"STORY_EVENTS_QUEUE" default:"story_events"`

	AIConfig

	CharacterLimit int `envconfig:"CHARACTER_LIMIT" default:"2"`
	// Лимит запросов генерации в минуту на IP, 0 отключает ограничение
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`
}

// AIConfig - параметры обоих провайдеров. Ключи API сюда не попадают:
// они читаются в момент вызова через ReadSecret.
type AIConfig struct {
	DefaultProvider   string        `envconfig:"AI_DEFAULT_PROVIDER" default:"deepseek"`
	DeepSeekBaseURL   string        `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`
	DeepSeekModel     string        `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	GeminiModel       string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	Temperature       float32       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	MaxTokens         int           `envconfig:"AI_MAX_TOKENS" default:"4000"`
	Timeout           time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	MaxAttempts       int           `envconfig:"AI_MAX_ATTEMPTS" default:"2"`
	BaseRetryDelay    time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	ProvenanceMarkers bool          `envconfig:"AI_PROVENANCE_MARKERS" default:"true"`
}

// Имена секретов (файлы в /run/secrets и переменные окружения в верхнем регистре).
const (
	DeepSeekAPIKeySecret = "deepseek_api_key"
	GoogleAPIKeySecret   = "google_api_key"
	DBPasswordSecret     = "db_password"
)

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// MaskedDSN возвращает DSN с замаскированным паролем для логирования
func (c *Config) MaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}

// AllowedOrigins разбирает CORS_ALLOWED_ORIGINS (через запятую).
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Пароль БД нужен только драйверу postgres
	if cfg.StorageDriver == "postgres" {
		password, err := ReadSecret(DBPasswordSecret)
		if err != nil {
			return nil, err
		}
		cfg.DBPassword = password
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case "file", "postgres":
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q (ожидается file или postgres)", c.StorageDriver)
	}
	if c.CharacterLimit < 1 {
		return fmt.Errorf("CHARACTER_LIMIT должен быть >= 1, получено %d", c.CharacterLimit)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE не может быть отрицательным, получено %d", c.RateLimitPerMinute)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS должен быть >= 1, получено %d", c.MaxAttempts)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT должен быть положительным")
	}
	return nil
}
