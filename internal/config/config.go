package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Recaptcha RecaptchaConfig `mapstructure:"recaptcha"`
	Intake    IntakeConfig    `mapstructure:"intake"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
	Countries CountriesConfig `mapstructure:"countries"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// RecaptchaConfig points at the external bot-verification endpoint.
type RecaptchaConfig struct {
	VerifyURL string        `mapstructure:"verify_url"`
	Action    string        `mapstructure:"action"`
	TokenTTL  time.Duration `mapstructure:"token_ttl_minutes"`
}

// IntakeConfig covers the upstream CRM submission and the optional
// mirror to a test backend.
type IntakeConfig struct {
	SubmitURL        string `mapstructure:"submit_url"`
	MirrorURL        string `mapstructure:"mirror_url"`
	MirrorEnabled    bool   `mapstructure:"mirror_enabled"`
	FallbackWhatsapp string `mapstructure:"fallback_whatsapp"`
}

type TranscodeConfig struct {
	MaxWidth        int    `mapstructure:"max_width"`
	VideoBitrate    int    `mapstructure:"video_bitrate"`
	AudioBitrate    int    `mapstructure:"audio_bitrate"`
	FallbackMaxSize int64  `mapstructure:"fallback_max_size"`
	WorkDir         string `mapstructure:"work_dir"`
}

type CountriesConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	CacheTTL time.Duration `mapstructure:"cache_ttl_hours"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("CUERPOFIT")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	viper.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	viper.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	viper.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	viper.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// External endpoints
	viper.BindEnv("recaptcha.verify_url", "RECAPTCHA_VERIFY_URL")
	viper.BindEnv("intake.submit_url", "INTAKE_SUBMIT_URL")
	viper.BindEnv("intake.mirror_url", "INTAKE_MIRROR_URL")
	viper.BindEnv("intake.fallback_whatsapp", "INTAKE_FALLBACK_WHATSAPP")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Recaptcha.TokenTTL = cfg.Recaptcha.TokenTTL * time.Minute
	cfg.Countries.CacheTTL = cfg.Countries.CacheTTL * time.Hour

	applyDefaults(&cfg)

	if cfg.Server.Mode == "release" {
		if len(cfg.JWT.Secret) < 32 {
			return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
		}
		if cfg.Intake.SubmitURL == "" {
			return nil, fmt.Errorf("intake.submit_url must be configured in release mode")
		}
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}
	if _, err := os.Stat(cfg.Transcode.WorkDir); os.IsNotExist(err) {
		os.MkdirAll(cfg.Transcode.WorkDir, 0755)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Recaptcha.Action == "" {
		cfg.Recaptcha.Action = "intake_submit"
	}
	if cfg.Recaptcha.TokenTTL <= 0 {
		cfg.Recaptcha.TokenTTL = 2 * time.Minute
	}
	if cfg.Transcode.MaxWidth <= 0 {
		cfg.Transcode.MaxWidth = 720
	}
	if cfg.Transcode.VideoBitrate <= 0 {
		cfg.Transcode.VideoBitrate = 400_000
	}
	if cfg.Transcode.AudioBitrate <= 0 {
		cfg.Transcode.AudioBitrate = 10_000
	}
	if cfg.Transcode.FallbackMaxSize <= 0 {
		cfg.Transcode.FallbackMaxSize = 128 << 20
	}
	if cfg.Transcode.WorkDir == "" {
		cfg.Transcode.WorkDir = "transcode_tmp"
	}
	if cfg.Countries.Endpoint == "" {
		cfg.Countries.Endpoint = "https://restcountries.com/v3.1/all?fields=name,cca2,cca3,idd"
	}
	if cfg.Countries.CacheTTL <= 0 {
		cfg.Countries.CacheTTL = 24 * time.Hour
	}
	if cfg.Intake.FallbackWhatsapp == "" {
		cfg.Intake.FallbackWhatsapp = "5491155873035"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "logs/cuerpofit-intake.log"
	}
}
