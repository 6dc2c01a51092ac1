package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Queue    QueueConfig    `mapstructure:"queue"`
	Template TemplateConfig `mapstructure:"template"`
	Database DatabaseConfig `mapstructure:"database"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	API      APIConfig      `mapstructure:"api"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Provider ProviderConfig `mapstructure:"provider"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// QueueConfig holds RabbitMQ connection and queue naming configuration.
type QueueConfig struct {
	URL         string `mapstructure:"url"`
	WorkQueue   string `mapstructure:"work_queue"`
	FailedQueue string `mapstructure:"failed_queue"`
}

// TemplateConfig holds template service client configuration.
type TemplateConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration for the status store.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	StatusTable    string        `mapstructure:"status_table"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// SMTPConfig holds outbound SMTP transport configuration. Username and
// password may be supplied indirectly through UsernameFile/PasswordFile,
// pointing at mounted secret files (e.g. /run/secrets/smtp_username).
type SMTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	UsernameFile string `mapstructure:"username_file"`
	PasswordFile string `mapstructure:"password_file"`
}

// APIConfig holds the HTTP API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig holds the optional idempotency cache configuration.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ProviderConfig holds the provider name tag written into status rows.
type ProviderConfig struct {
	Name string `mapstructure:"name"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // stdout (default), file
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// A .env file in the working directory is loaded first, if present.
// Environment variables with prefix EMAIL_DISPATCH_ override file values.
// For example, EMAIL_DISPATCH_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("EMAIL_DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is acceptable; defaults plus env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Empty defaults register the keys with viper so AutomaticEnv can
	// override them even when no config file is present.
	v.SetDefault("queue.url", "")
	v.SetDefault("template.base_url", "")
	v.SetDefault("database.url", "")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 0)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.username_file", "")
	v.SetDefault("smtp.password_file", "")
	v.SetDefault("redis.addr", "")

	v.SetDefault("queue.work_queue", "email_queue")
	v.SetDefault("queue.failed_queue", "failed.queue")
	v.SetDefault("template.timeout", 5*time.Second)
	v.SetDefault("database.status_table", "notification_statuses")
	v.SetDefault("database.pool_min", 2)
	v.SetDefault("database.pool_max", 10)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 2525)
	v.SetDefault("api.read_timeout", 10*time.Second)
	v.SetDefault("api.write_timeout", 10*time.Second)
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("provider.name", "email")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
}

// resolveSecrets replaces the SMTP username/password with the contents of
// the corresponding secret files when the file paths are configured.
// A file path that cannot be read falls back to /run/secrets/<basename>.
func (c *Config) resolveSecrets() error {
	if c.SMTP.UsernameFile != "" {
		value, err := readSecretFile(c.SMTP.UsernameFile)
		if err != nil {
			return fmt.Errorf("read smtp username secret: %w", err)
		}
		c.SMTP.Username = value
	}
	if c.SMTP.PasswordFile != "" {
		value, err := readSecretFile(c.SMTP.PasswordFile)
		if err != nil {
			return fmt.Errorf("read smtp password secret: %w", err)
		}
		c.SMTP.Password = value
	}
	return nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		fallback := filepath.Join("/run/secrets", filepath.Base(path))
		data, err = os.ReadFile(fallback)
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(string(data)), nil
}
