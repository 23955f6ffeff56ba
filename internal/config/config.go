package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port    string `yaml:"port" env:"SERVER_PORT"`
		Mode    string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL string `yaml:"base_url" env:"SERVER_BASE_URL"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Storage struct {
		Driver         string `yaml:"driver" env:"STORAGE_DRIVER"`
		Path           string `yaml:"path" env:"STORAGE_PATH"`
		PublicURL      string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`
		CloudinaryURL  string `yaml:"cloudinary_url" env:"CLOUDINARY_URL"`
		Folder         string `yaml:"folder" env:"STORAGE_FOLDER"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"STORAGE_MAX_UPLOAD_BYTES"`
	} `yaml:"storage"`

	Notification struct {
		Driver            string `yaml:"driver" env:"NOTIFICATION_DRIVER"`
		ApplicationsInbox string `yaml:"applications_inbox" env:"NOTIFICATION_APPLICATIONS_INBOX"`
		Timeout           string `yaml:"timeout" env:"NOTIFICATION_TIMEOUT"`

		SMTP struct {
			Host      string `yaml:"host" env:"SMTP_HOST"`
			Port      int    `yaml:"port" env:"SMTP_PORT"`
			Username  string `yaml:"username" env:"SMTP_USERNAME"`
			Password  string `yaml:"password" env:"SMTP_PASSWORD"`
			FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
			FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
			UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		} `yaml:"smtp"`

		Kafka struct {
			Brokers  []string `yaml:"brokers" env:"KAFKA_BROKERS"`
			Topic    string   `yaml:"topic" env:"KAFKA_TOPIC"`
			Username string   `yaml:"username" env:"KAFKA_USERNAME"`
			Password string   `yaml:"password" env:"KAFKA_PASSWORD"`
			UseTLS   bool     `yaml:"use_tls" env:"KAFKA_USE_TLS"`
		} `yaml:"kafka"`
	} `yaml:"notification"`

	Admin struct {
		Email    string `yaml:"email" env:"ADMIN_EMAIL"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	} `yaml:"admin"`

	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL"`
}

// LoadConfig loads configuration from a file and environment variables.
// A .env file in the working directory, when present, is loaded first.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			file, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "studyloan"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "studyloan"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Storage.Driver = "local"
	config.Storage.Path = "./uploads"
	config.Storage.PublicURL = "http://localhost:8080/uploads"
	config.Storage.Folder = "studyloan"
	config.Storage.MaxUploadBytes = 10 << 20

	config.Notification.Driver = "log"
	config.Notification.Timeout = "10s"
	config.Notification.SMTP.Port = 587
	config.Notification.SMTP.FromName = "Study Loan"
	config.Notification.SMTP.UseTLS = true
	config.Notification.Kafka.Topic = "applications.notifications"

	config.FrontendURL = "http://localhost:3000"
}

// loadFromEnv overrides configuration with environment variables.
// Only variables that are set are applied.
func loadFromEnv(config *Config) error {
	err := envdecode.Decode(config)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid connection max lifetime format: %w", err)
	}

	if _, err := time.ParseDuration(config.Notification.Timeout); err != nil {
		return fmt.Errorf("invalid notification timeout format: %w", err)
	}

	switch config.Storage.Driver {
	case "local":
	case "cloudinary":
		if config.Storage.CloudinaryURL == "" {
			return fmt.Errorf("cloudinary_url is required for the cloudinary storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if config.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("storage max_upload_bytes must be positive")
	}

	switch config.Notification.Driver {
	case "log", "smtp":
	case "kafka":
		if len(config.Notification.Kafka.Brokers) == 0 || config.Notification.Kafka.Topic == "" {
			return fmt.Errorf("kafka brokers and topic are required for the kafka notification driver")
		}
	default:
		return fmt.Errorf("unknown notification driver %q", config.Notification.Driver)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// AccessTokenTTL returns the parsed access token lifetime
func (c *Config) AccessTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTokenExpiration)
	return d
}

// NotificationTimeout returns the parsed notification deadline
func (c *Config) NotificationTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Notification.Timeout)
	return d
}

// ConnMaxLifetime returns the parsed pool connection lifetime
func (c *Config) ConnMaxLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Database.ConnMaxLifetime)
	return d
}

// IsProduction reports whether the server runs in release mode
func (c *Config) IsProduction() bool {
	mode := strings.ToLower(c.Server.Mode)
	return mode == "production" || mode == "release"
}
