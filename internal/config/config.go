package config

import (
	"context" // Context for envconfig processing
	"fmt"     // DSN formatting
	"strings" // Origin list parsing
	"time"    // Durations

	"github.com/joho/godotenv"          // For loading .env files
	"github.com/sethvargo/go-envconfig" // Environment to struct mapping
)

// Config holds the application configuration
type Config struct {
	AppPort            string        `env:"APP_PORT, default=8080"`                      // Application port
	IsProd             bool          `env:"IS_PROD, default=false"`                      // Is production environment
	LogLevel           string        `env:"LOG_LEVEL, default=info"`                     // Logrus level name
	JWTSecret          string        `env:"JWT_SECRET, required"`                        // JWT secret key
	FrontendURL        string        `env:"FRONTEND_URL, default=http://localhost:3000"` // Comma separated allowed origins, first one builds links
	ResetSweepInterval time.Duration `env:"RESET_SWEEP_INTERVAL, default=1h"`            // Expired reset token sweep period

	DB     DBConfig
	Redis  RedisConfig
	Mail   MailConfig
	SMTP   SMTPConfig
	Upload UploadConfig
	S3     S3Config
	NATS   NATSConfig
}

// DBConfig holds MySQL connection settings
type DBConfig struct {
	User     string `env:"DB_USER, default=root"`      // Database user
	Password string `env:"DB_PASSWORD"`                // Database password
	Host     string `env:"DB_HOST, default=localhost"` // Database host
	Port     string `env:"DB_PORT, default=3306"`      // Database port
	Name     string `env:"DB_NAME, default=booknet"`   // Database name
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"` // Redis server address
	Pass string `env:"REDIS_PASS"`                         // Redis password
	DB   int    `env:"REDIS_DB, default=0"`                // Redis database number
}

// MailConfig selects and tunes the outgoing mail transport
type MailConfig struct {
	Driver   string `env:"MAIL_DRIVER, default=log"`                // log, smtp or mailersend
	From     string `env:"MAIL_FROM, default=no-reply@booknet.com"` // Sender address
	FromName string `env:"MAIL_FROM_NAME, default=BookNet"`         // Sender display name
	Workers  int    `env:"MAIL_WORKERS, default=2"`                 // Dispatcher workers
	Retries  int    `env:"MAIL_RETRIES, default=3"`                 // Delivery attempts per message
	APIKey   string `env:"MAILERSEND_API_KEY"`                      // MailerSend API key
}

// SMTPConfig holds SMTP relay settings
type SMTPConfig struct {
	Host       string `env:"SMTP_HOST"`                         // SMTP host
	Port       int    `env:"SMTP_PORT, default=587"`            // SMTP port
	Username   string `env:"SMTP_USERNAME"`                     // SMTP user
	Password   string `env:"SMTP_PASSWORD"`                     // SMTP password
	Encryption string `env:"SMTP_ENCRYPTION, default=starttls"` // none, ssl or starttls
}

// UploadConfig selects the upload storage driver
type UploadConfig struct {
	Driver string `env:"UPLOAD_DRIVER, default=disk"` // disk or s3
	Dir    string `env:"UPLOAD_DIR, default=uploads"` // Root directory of the disk driver
}

// S3Config holds MinIO/S3 settings for the s3 upload driver
type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`                // host:port
	AccessKey string `env:"S3_ACCESS_KEY"`              // Access key
	SecretKey string `env:"S3_SECRET_KEY"`              // Secret key
	Bucket    string `env:"S3_BUCKET, default=booknet"` // Bucket name
	UseSSL    bool   `env:"S3_USE_SSL, default=false"`  // HTTPS to the endpoint
}

// NATSConfig holds the event bus address; empty disables publishing
type NATSConfig struct {
	URL string `env:"NATS_URL"` // NATS server URL
}

// LoadConfig loads configuration from .env and environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	return load(context.Background(), envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(cfg.AllowedOrigins()) == 0 {
		return nil, fmt.Errorf("load config: FRONTEND_URL must list at least one origin")
	}
	return &cfg, nil
}

// DSN returns the MySQL data source name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// AllowedOrigins splits FRONTEND_URL into trimmed origins
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// PublicURL is the frontend origin used in emailed links
func (c *Config) PublicURL() string {
	return c.AllowedOrigins()[0]
}
