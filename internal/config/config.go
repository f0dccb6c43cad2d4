package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11" // struct-tag driven environment parsing
	"github.com/joho/godotenv"    // optional .env file for local development
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all runtime configuration values. Each leaf field corresponds
// to an environment variable; nested groups share a common prefix.
type Config struct {
	App           AppConfig           `envPrefix:"APP_"`
	DB            DBConfig            `envPrefix:"DB_"`
	JWT           JWTConfig           `envPrefix:"JWT_"`
	BcryptCost    int                 `env:"BCRYPT_COST" envDefault:"10"`
	PasswordReset PasswordResetConfig `envPrefix:"PASSWORD_RESET_"`
	Email         EmailConfig         `envPrefix:"EMAIL_"`
	RabbitMQ      RabbitMQConfig      `envPrefix:"RABBITMQ_"`
	Redis         RedisConfig         `envPrefix:"REDIS_"`
	CORS          CORSConfig          `envPrefix:"CORS_"`
	Log           LogConfig           `envPrefix:"LOG_"`
	Metrics       bool                `env:"METRICS_ENABLED" envDefault:"true"`
}

// AppConfig describes the HTTP process itself.
type AppConfig struct {
	Env           string `env:"ENV" envDefault:"dev"`    // application environment (dev/test/prod)
	Port          string `env:"PORT" envDefault:"8080"`  // port to bind the HTTP server
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en-US"`
}

// DBConfig selects and addresses the credential store.
type DBConfig struct {
	Driver      string `env:"DRIVER" envDefault:"mysql"`
	User        string `env:"USER"`
	Pass        string `env:"PASS"` // empty allowed
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        string `env:"PORT"`
	Name        string `env:"NAME"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

// JWTConfig carries the two independent signing policies.
type JWTConfig struct {
	Secret            string        `env:"SECRET"`
	Expiration        time.Duration `env:"EXPIRATION_TIME" envDefault:"15m"`
	RefreshSecret     string        `env:"REFRESH_SECRET"`
	RefreshExpiration time.Duration `env:"REFRESH_EXPIRATION_TIME" envDefault:"168h"`
}

// PasswordResetConfig controls the reset handshake.
type PasswordResetConfig struct {
	URL             string        `env:"URL" envDefault:"http://localhost:3000/reset-password"`
	ExpirationHours int           `env:"EXPIRATION_HOUR" envDefault:"1"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
}

// TTL returns the reset-token lifetime.
func (c PasswordResetConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// EmailConfig is the SMTP relay used to deliver reset emails.
type EmailConfig struct {
	Host   string `env:"HOST" envDefault:"localhost"`
	Port   int    `env:"PORT" envDefault:"587"`
	Secure bool   `env:"SECURE" envDefault:"false"`
	User   string `env:"AUTH_USER"`
	Pass   string `env:"AUTH_PASS"`
	From   string `env:"FROM" envDefault:"no-reply@localhost"`
}

// RabbitMQConfig enables queued email delivery. An empty URL means emails are
// sent synchronously over SMTP.
type RabbitMQConfig struct {
	URL             string `env:"URL"`
	MailQueue       string `env:"MAIL_QUEUE" envDefault:"auth.password_reset"`
	ConsumerEnabled bool   `env:"CONSUMER_ENABLED" envDefault:"true"`
}

// CORSConfig mirrors the browser-facing CORS policy.
type CORSConfig struct {
	Origins        []string `env:"ORIGIN" envSeparator:"," envDefault:"*"`
	Methods        []string `env:"METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization,Accept-Language"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `env:"FORMAT" envDefault:"json"`
	Level  string `env:"LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, parses the environment into a Config and
// validates it.
func Load() (Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces required values and cross-field rules.
func (c Config) Validate() error {
	var errs []error

	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres:
		if c.DB.User == "" || c.DB.Name == "" {
			errs = append(errs, errors.New("DB_USER and DB_NAME are required for sql drivers"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("missing required env var: JWT_SECRET"))
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("missing required env var: JWT_REFRESH_SECRET"))
	}
	if c.JWT.Secret != "" && c.JWT.Secret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.JWT.Expiration <= 0 || c.JWT.RefreshExpiration <= 0 {
		errs = append(errs, errors.New("token expiration times must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("invalid BCRYPT_COST %d", c.BcryptCost))
	}
	if c.PasswordReset.ExpirationHours <= 0 {
		errs = append(errs, errors.New("PASSWORD_RESET_EXPIRATION_HOUR must be positive"))
	}
	if strings.TrimSpace(c.PasswordReset.URL) == "" {
		errs = append(errs, errors.New("missing required env var: PASSWORD_RESET_URL"))
	}

	return errors.Join(errs...)
}

// DBPort returns the configured port or the driver's default.
func (c DBConfig) DBPort() string {
	if c.Port != "" {
		return c.Port
	}
	if c.Driver == DriverPostgres {
		return "5432"
	}
	return "3306"
}
