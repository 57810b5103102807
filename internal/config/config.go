package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Sales     SalesConfig     `mapstructure:"sales"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Media     MediaConfig     `mapstructure:"media"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DBConfig struct {
	Path         string        `mapstructure:"path"`
	MaxOpenConns int           `mapstructure:"maxOpenConns"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
}

// RemoteConfig selects and configures the store local records are mirrored to.
type RemoteConfig struct {
	Provider  string        `mapstructure:"provider"` // rest, mysql, mongo, memory
	URL       string        `mapstructure:"url"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	APIKey    string        `mapstructure:"api_key"`
	DSN       string        `mapstructure:"dsn"`
	Database  string        `mapstructure:"database"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type SyncConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
}

type SalesConfig struct {
	StrictStock       bool `mapstructure:"strict_stock"`
	LowStockThreshold int  `mapstructure:"low_stock_threshold"`
}

type AnalyticsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type MediaConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	PublicURL string `mapstructure:"public_url"`
	MaxWidth  uint   `mapstructure:"max_width"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}

// Location resolves the analytics timezone, falling back to the local zone.
func (c AnalyticsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("db.path", "pos.db")
	v.SetDefault("db.maxOpenConns", 1)
	v.SetDefault("db.busy_timeout", 5*time.Second)

	v.SetDefault("remote.provider", "memory")
	v.SetDefault("remote.api_key_env", "POS_REMOTE_API_KEY")
	v.SetDefault("remote.database", "pocketpos")
	v.SetDefault("remote.timeout", 15*time.Second)

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.probe_interval", 30*time.Second)
	v.SetDefault("sync.probe_timeout", 5*time.Second)

	v.SetDefault("sales.strict_stock", false)
	v.SetDefault("sales.low_stock_threshold", 20)

	v.SetDefault("analytics.timezone", "Local")

	v.SetDefault("media.enabled", false)
	v.SetDefault("media.bucket", "products")
	v.SetDefault("media.max_width", 800)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")
}

// LoadConfig loads configuration from config.yaml, .env and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.pocketpos/")
	v.AddConfigPath("/etc/pocketpos/")

	return load(v, true)
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	return load(v, false)
}

func load(v *viper.Viper, optional bool) (*Config, error) {
	setDefaults(v)

	// Enable environment variable override with POS_ prefix, e.g. POS_DB_PATH
	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !optional || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
