package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Email    EmailConfig    `mapstructure:"email"`
	Site     SiteConfig     `mapstructure:"site"`
	Admin    AdminConfig    `mapstructure:"admin"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Path         string `mapstructure:"path"` // sqlite file
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type QueueConfig struct {
	IntakeQueue string `mapstructure:"intake_queue"`
	MaxWorkers  int    `mapstructure:"max_workers"`
	// Inline runs the async phase inside the server process instead of
	// pushing to Redis. Useful without a worker deployment.
	Inline bool `mapstructure:"inline"`
}

type AnalysisConfig struct {
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	AnalysisTemperature float64 `mapstructure:"analysis_temperature"`
	AnalysisMaxTokens   int64   `mapstructure:"analysis_max_tokens"`
	EmailTemperature    float64 `mapstructure:"email_temperature"`
	EmailMaxTokens      int64   `mapstructure:"email_max_tokens"`
}

type EmailConfig struct {
	Provider     string `mapstructure:"provider"` // smtp, ses
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	SESRegion    string `mapstructure:"ses_region"`
	From         string `mapstructure:"from"`
	AdminAddress string `mapstructure:"admin_address"`
	SourceTag    string `mapstructure:"source_tag"`
}

type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"` // bcrypt
	JWTSecret    string `mapstructure:"jwt_secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type SweepConfig struct {
	IntervalMinutes   int `mapstructure:"interval_minutes"`
	StalledAfterHours int `mapstructure:"stalled_after_hours"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	// config.local.yaml holds real secrets and is not committed
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// env overrides, e.g. ANALYSIS_API_KEY for analysis.api_key
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// secrets get empty defaults so AutomaticEnv can bind them on Unmarshal
	for _, key := range []string{
		"database.password", "redis.password", "analysis.api_key",
		"email.username", "email.password", "email.smtp_host", "email.ses_region",
		"admin.password_hash", "admin.jwt_secret",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("queue.intake_queue", "intake_jobs")
	v.SetDefault("queue.max_workers", 4)
	v.SetDefault("queue.inline", false)

	v.SetDefault("analysis.model", "claude-3-sonnet-20240229")
	v.SetDefault("analysis.analysis_temperature", 0.3)
	v.SetDefault("analysis.analysis_max_tokens", 1500)
	v.SetDefault("analysis.email_temperature", 0.4)
	v.SetDefault("analysis.email_max_tokens", 1000)

	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from", "hello@selah.im")
	v.SetDefault("email.admin_address", "ahiya@selah.im")
	v.SetDefault("email.source_tag", "selah-im-v2")

	v.SetDefault("site.base_url", "https://selah.im")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.expire_hours", 12)

	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PATCH", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("sweep.interval_minutes", 60)
	v.SetDefault("sweep.stalled_after_hours", 24)
}
