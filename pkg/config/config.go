package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Portal   PortalConfig   `mapstructure:"portal"`
	Captcha  CaptchaConfig  `mapstructure:"captcha"`
	Source   SourceConfig   `mapstructure:"source"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// PortalConfig drives the remote interaction: target URL, browser mode and the
// fixed step timeouts of the lookup state machine.
type PortalConfig struct {
	URL               string        `mapstructure:"url"`
	Headless          bool          `mapstructure:"headless"`
	UserAgent         string        `mapstructure:"user_agent"`
	BlockedResources  []string      `mapstructure:"blocked_resources"`
	Concurrency       int           `mapstructure:"concurrency"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	FieldTimeout      time.Duration `mapstructure:"field_timeout"`
	RejectionWait     time.Duration `mapstructure:"rejection_wait"`
	RenderWait        time.Duration `mapstructure:"render_wait"`
	ExtractTimeout    time.Duration `mapstructure:"extract_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
}

type CaptchaConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SourceConfig selects where the input batch comes from.
type SourceConfig struct {
	Kind   string       `mapstructure:"kind"` // "sheets" or "csv"
	Sheets SheetsConfig `mapstructure:"sheets"`
	CSV    CSVConfig    `mapstructure:"csv"`
}

type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	ReadRange       string `mapstructure:"read_range"`
}

type CSVConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig selects where report artifacts are kept.
type StorageConfig struct {
	Kind     string      `mapstructure:"kind"` // "local" or "minio"
	LocalDir string      `mapstructure:"local_dir"`
	MinIO    MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// PostgresConfig is optional: with an empty host the run history is not
// persisted.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// RedisConfig is optional: disabled means no result cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// KafkaConfig is optional: enabled mirrors every progress event to a topic.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func setDefaults() {
	viper.SetDefault("app.name", "robot-runt-web")
	viper.SetDefault("app.env", "production")
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("portal.url", "https://portalpublico.runt.gov.co/#/consulta-vehiculo/consulta/consulta-ciudadana")
	viper.SetDefault("portal.headless", true)
	viper.SetDefault("portal.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36")
	viper.SetDefault("portal.blocked_resources", []string{"stylesheet", "font", "media", "image"})
	viper.SetDefault("portal.concurrency", 4)
	viper.SetDefault("portal.max_retries", 3)
	viper.SetDefault("portal.retry_backoff", 1500*time.Millisecond)
	viper.SetDefault("portal.navigation_timeout", 15*time.Second)
	viper.SetDefault("portal.field_timeout", 8*time.Second)
	viper.SetDefault("portal.rejection_wait", 3500*time.Millisecond)
	viper.SetDefault("portal.render_wait", 12*time.Second)
	viper.SetDefault("portal.extract_timeout", 4*time.Second)
	viper.SetDefault("portal.settle_delay", 200*time.Millisecond)

	viper.SetDefault("captcha.timeout", 120*time.Second)

	viper.SetDefault("source.kind", "sheets")
	viper.SetDefault("source.sheets.read_range", "A2:B")

	viper.SetDefault("storage.kind", "local")
	viper.SetDefault("storage.local_dir", "tmp")
	viper.SetDefault("storage.minio.bucket", "runt-reports")

	viper.SetDefault("postgres.port", 5432)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.ttl", 24*time.Hour)

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "runt-progress")
}

// Load reads the YAML config at configPath. Environment variables with the
// RUNT_ prefix override file values (RUNT_CAPTCHA_API_KEY, RUNT_POSTGRES_HOST, ...).
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("runt")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields every run needs regardless of optional backends.
func (c *Config) Validate() error {
	if c.Captcha.APIKey == "" {
		return fmt.Errorf("captcha.api_key is required")
	}
	if c.Portal.URL == "" {
		return fmt.Errorf("portal.url is required")
	}
	if c.Portal.Concurrency <= 0 {
		return fmt.Errorf("portal.concurrency must be positive")
	}
	if c.Portal.MaxRetries <= 0 {
		return fmt.Errorf("portal.max_retries must be positive")
	}
	switch c.Source.Kind {
	case "sheets":
		if c.Source.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("source.sheets.spreadsheet_id is required")
		}
	case "csv":
		if c.Source.CSV.Path == "" {
			return fmt.Errorf("source.csv.path is required")
		}
	default:
		return fmt.Errorf("unknown source.kind: %s", c.Source.Kind)
	}
	if c.Storage.Kind != "local" && c.Storage.Kind != "minio" {
		return fmt.Errorf("unknown storage.kind: %s", c.Storage.Kind)
	}
	return nil
}
