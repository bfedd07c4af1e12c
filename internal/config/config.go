package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the full service configuration. Everything is loaded from
// the environment; a local .env file is applied first when present.
type Config struct {
	// HTTP server
	Port           string        `envconfig:"SERVER_PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s"`
	CORSOrigins    []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`

	// Logging
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"storydive"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"storydive"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNECTIONS" default:"10"`

	// Redis session store
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// JWT verification
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// AI generator
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:""`
	AIAPIKey      string        `envconfig:"AI_API_KEY" required:"true"`
	AIModel       string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AIMaxTokens   int           `envconfig:"AI_MAX_TOKENS" default:"2048"`
	AITemperature float32       `envconfig:"AI_TEMPERATURE" default:"0.9"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	// .env is optional, ignore a missing file
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
