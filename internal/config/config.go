package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"content-pipeline/shared/utils"
)

// Config holds settings shared by the API server and the worker.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	ServerPort         string   `envconfig:"SERVER_PORT" default:"8080"`
	MetricsPort        string   `envconfig:"METRICS_PORT" default:"9090"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"content_pipeline"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	DBPassword    string        `ignored:"true"`

	// Redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `ignored:"true"`

	// Empty RabbitMQURL disables event publishing.
	RabbitMQURL    string `envconfig:"RABBITMQ_URL" default:""`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:""`

	// Text provider
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel          string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	AIAPIKey         string        `ignored:"true"`

	// Optional YAML table mapping categories and model families to providers.
	ProviderTablePath string `envconfig:"PROVIDER_TABLE_PATH" default:""`

	// Image provider
	IdeogramBaseURL string        `envconfig:"IDEOGRAM_BASE_URL" default:"https://api.ideogram.ai"`
	IdeogramTimeout time.Duration `envconfig:"IDEOGRAM_TIMEOUT" default:"170s"`
	IdeogramAPIKey  string        `ignored:"true"`

	Worker WorkerConfig

	LogTailDefaultLimit       int `envconfig:"LOG_TAIL_DEFAULT_LIMIT" default:"200"`
	EnqueueRateLimitPerMinute int `envconfig:"ENQUEUE_RATE_LIMIT_PER_MINUTE" default:"30"`
}

// WorkerConfig tunes the job worker pool.
type WorkerConfig struct {
	ID                 string        `envconfig:"WORKER_ID" default:""`
	Concurrency        int           `envconfig:"WORKER_CONCURRENCY" default:"4"`
	PollInterval       time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"2s"`
	HeartbeatInterval  time.Duration `envconfig:"WORKER_HEARTBEAT_INTERVAL" default:"30s"`
	StallTimeout       time.Duration `envconfig:"WORKER_STALL_TIMEOUT" default:"5m"`
	JobHardTimeout     time.Duration `envconfig:"JOB_HARD_TIMEOUT" default:"30m"`
	TextStepTimeout    time.Duration `envconfig:"TEXT_STEP_TIMEOUT" default:"2m"`
	ImageStepTimeout   time.Duration `envconfig:"IMAGE_STEP_TIMEOUT" default:"3m"`
	MaxRetries         int           `envconfig:"JOB_MAX_RETRIES" default:"3"`
	BackoffBase        time.Duration `envconfig:"JOB_BACKOFF_BASE" default:"5s"`
	BackoffMax         time.Duration `envconfig:"JOB_BACKOFF_MAX" default:"5m"`
	EnqueueDedupWindow time.Duration `envconfig:"ENQUEUE_DEDUP_WINDOW" default:"5s"`
	ShutdownTimeout    time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
	MetricsPushEvery   time.Duration `envconfig:"METRICS_PUSH_INTERVAL" default:"15s"`
}

// LoadConfig reads an optional .env file, then the environment and Docker secrets.
func LoadConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.DBPassword = utils.SecretOrEnv("db_password", "DB_PASSWORD")
	cfg.RedisPassword = utils.SecretOrEnv("redis_password", "REDIS_PASSWORD")
	cfg.AIAPIKey = utils.SecretOrEnv("ai_api_key", "AI_API_KEY")
	cfg.IdeogramAPIKey = utils.SecretOrEnv("ideogram_api_key", "IDEOGRAM_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Worker.ID == "" {
		host, _ := os.Hostname()
		cfg.Worker.ID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("server_port", cfg.ServerPort),
		zap.String("db_dsn", cfg.MaskedDSN()),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.Bool("rabbitmq_enabled", cfg.RabbitMQURL != ""),
		zap.String("ai_client_type", cfg.AIClientType),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("ai_api_key_loaded", cfg.AIAPIKey != ""),
		zap.Bool("ideogram_api_key_loaded", cfg.IdeogramAPIKey != ""),
		zap.Int("worker_concurrency", cfg.Worker.Concurrency),
		zap.Duration("worker_stall_timeout", cfg.Worker.StallTimeout),
	)
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.AIClientType {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported AI_CLIENT_TYPE %q", c.AIClientType)
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.Worker.HeartbeatInterval >= c.Worker.StallTimeout {
		return fmt.Errorf("WORKER_HEARTBEAT_INTERVAL (%s) must be shorter than WORKER_STALL_TIMEOUT (%s)",
			c.Worker.HeartbeatInterval, c.Worker.StallTimeout)
	}
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("JOB_MAX_RETRIES must not be negative")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// MaskedDSN returns the DSN with the password hidden.
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
