package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// Token lifecycle.
	TokenTTL         time.Duration `env:"TOKEN_TTL,         default=30m"`
	RenewalThreshold time.Duration `env:"RENEWAL_THRESHOLD, default=180s"`

	// Login hardening.
	LoginDelayMin    time.Duration `env:"LOGIN_DELAY_MIN,    default=100ms"`
	LoginDelayMax    time.Duration `env:"LOGIN_DELAY_MAX,    default=500ms"`
	LoginMaxFailures int           `env:"LOGIN_MAX_FAILURES, default=10"`
	LoginFailWindow  time.Duration `env:"LOGIN_FAIL_WINDOW,  default=15m"`

	// Coach notification gate.
	NotifyCooldown time.Duration `env:"NOTIFY_COOLDOWN, default=30m"`
	NotifyWorkers  int           `env:"NOTIFY_WORKERS,  default=4"`

	DefaultAdmin DefaultAdminConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
}

// DefaultAdminConfig seeds the bootstrap admin identity. Bootstrap is
// skipped when any field is empty.
type DefaultAdminConfig struct {
	Username string `env:"DEFAULT_ADMIN_USERNAME"`
	Email    string `env:"DEFAULT_ADMIN_EMAIL"`
	Password string `env:"DEFAULT_ADMIN_PASSWORD"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=assessment_system"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Enabled  bool   `env:"SMTP_ENABLED, default=false"`
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
