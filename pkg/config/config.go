package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host       string `json:"host" env:"HOST"`              // The domain name of the server.
	ServerAddr string `json:"serverAddr" env:"SERVER_ADDR"` // The address the server endpoint binds to.

	// Log Settings
	LogLevel  string `json:"logLevel" env:"LOG_LEVEL"`   // Overrides the gin-mode default level.
	LogFormat string `json:"logFormat" env:"LOG_FORMAT"` // "text" or "json".

	Auth AuthConfig `json:"auth" envPrefix:"AUTH_"`

	Postgres PostgresConfig `json:"postgres" envPrefix:"POSTGRES_"`

	SMTP struct {
		Host     string `json:"host" env:"HOST"`
		Port     string `json:"port" env:"PORT"`
		User     string `json:"user" env:"USER"`
		Password string `json:"password" env:"PASSWORD"`
		Notify   string `json:"notify" env:"NOTIFY"` // Mailbox that receives approval notifications.
	} `json:"smtp" envPrefix:"SMTP_"`

	Webhook struct {
		URL     string `json:"url" env:"URL"` // Robot webhook, e.g. WPS or WeCom.
		Timeout int    `json:"timeout" env:"TIMEOUT"`
	} `json:"webhook" envPrefix:"WEBHOOK_"`

	Metrics struct {
		RefreshSpec string `json:"refreshSpec" env:"REFRESH_SPEC"` // Cron spec for the status gauge refresh.
	} `json:"metrics" envPrefix:"METRICS_"`
}

type AuthConfig struct {
	AccessTokenSecret     string `json:"accessTokenSecret" env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiryHour int    `json:"accessTokenExpiryHour" env:"ACCESS_TOKEN_EXPIRY_HOUR"`
}

type PostgresConfig struct {
	Host     string `json:"host" env:"HOST"`
	Port     string `json:"port" env:"PORT"`
	DBName   string `json:"dbname" env:"DBNAME"`
	User     string `json:"user" env:"USER"`
	Password string `json:"password" env:"PASSWORD"`
	SSLMode  string `json:"sslmode" env:"SSLMODE"`
	TimeZone string `json:"TimeZone" env:"TIMEZONE"`
	// Replicas are DSNs of read-only replicas used for list and get queries.
	Replicas []string `json:"replicas" env:"REPLICAS" envSeparator:","`
}

// DSN returns the primary's connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode, p.TimeZone)
}

// EnvPrefix is prepended to every environment override, e.g. APPROVAL_POSTGRES_HOST.
const EnvPrefix = "APPROVAL_"

const (
	defaultDebugConfigPath = "./etc/debug-config.yaml"
	defaultConfigPath      = "/etc/config/config.yaml"
)

var (
	once       sync.Once
	config     *Config
	configPath string
)

// SetConfigPath makes GetConfig read path instead of the mode default.
// It has no effect once GetConfig has been called.
func SetConfigPath(path string) {
	configPath = path
}

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

func defaults() *Config {
	c := &Config{
		ServerAddr: ":8098",
		LogFormat:  "text",
	}
	c.Auth.AccessTokenExpiryHour = 24
	c.Postgres.Port = "5432"
	c.Postgres.SSLMode = "disable"
	c.Postgres.TimeZone = "Asia/Shanghai"
	c.Webhook.Timeout = 5
	c.Metrics.RefreshSpec = "@every 1m"
	return c
}

// initConfig reads the file given by SetConfigPath, or
// ./etc/debug-config.yaml in debug mode and the ConfigMap mount otherwise.
func initConfig() *Config {
	path := configPath
	if path == "" {
		if IsDebugMode() {
			path = defaultDebugConfigPath
			if p := os.Getenv("APPROVAL_DEBUG_CONFIG_PATH"); p != "" {
				path = p
			}
		} else {
			path = defaultConfigPath
		}
	}
	klog.Info("config path: ", path)

	c, err := Load(path)
	if err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	return c
}

// Load reads the YAML file at path over the built-in defaults and then
// applies APPROVAL_* environment overrides.
func Load(path string) (*Config, error) {
	c := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config env overrides: %w", err)
	}
	if c.Auth.AccessTokenSecret == "" {
		return nil, fmt.Errorf("config %s: auth.accessTokenSecret is required", path)
	}
	return c, nil
}

// AccessTokenTTL is how long issued tokens stay valid.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenExpiryHour) * time.Hour
}
