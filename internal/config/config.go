package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type AppConfig struct {
	Env             string `yaml:"env"`
	Port            int    `yaml:"port"`
	PublicBaseURL   string `yaml:"public_base_url"`
	FrontendBaseURL string `yaml:"frontend_base_url"`
}

func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

type JWTConfig struct {
	Secret           string `yaml:"secret"`
	AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// AnalyticsConfig selects where scan events are appended: "mongo" or "postgres".
type AnalyticsConfig struct {
	Driver      string `yaml:"driver"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type MobizonConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
}

// SMSConfig.Provider is "mobizon", "twilio" or empty (SMS disabled).
type SMSConfig struct {
	Provider string        `yaml:"provider"`
	Mobizon  MobizonConfig `yaml:"mobizon"`
	Twilio   TwilioConfig  `yaml:"twilio"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type S3Config struct {
	Region   string `yaml:"region"`
	Bucket   string `yaml:"bucket"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

// FilesConfig.Driver is "local" or "s3".
type FilesConfig struct {
	Driver  string   `yaml:"driver"`
	RootDir string   `yaml:"root_dir"`
	S3      S3Config `yaml:"s3"`
}

type QRConfig struct {
	FileTokenSecret     string `yaml:"file_token_secret"`
	FileTokenTTLSeconds int    `yaml:"file_token_ttl_seconds"`
	PDFFontPath         string `yaml:"pdf_font_path"`
	BrandName           string `yaml:"brand_name"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type Config struct {
	App       AppConfig       `yaml:"app"`
	JWT       JWTConfig       `yaml:"jwt"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Redis     RedisConfig     `yaml:"redis"`
	Email     EmailConfig     `yaml:"email"`
	SMS       SMSConfig       `yaml:"sms"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Files     FilesConfig     `yaml:"files"`
	QR        QRConfig        `yaml:"qr"`
	Log       LogConfig       `yaml:"log"`
}

// LoadConfig reads the yaml file, applies MENUQR_* environment overrides
// (a .env file next to the binary is honoured) and fills defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	str := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	num := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("MENUQR_ENV", &c.App.Env)
	num("MENUQR_PORT", &c.App.Port)
	str("MENUQR_PUBLIC_BASE_URL", &c.App.PublicBaseURL)
	str("MENUQR_FRONTEND_BASE_URL", &c.App.FrontendBaseURL)
	str("MENUQR_JWT_SECRET", &c.JWT.Secret)
	str("MENUQR_MONGO_URI", &c.Mongo.URI)
	str("MENUQR_MONGO_DB", &c.Mongo.Database)
	str("MENUQR_ANALYTICS_DRIVER", &c.Analytics.Driver)
	str("MENUQR_POSTGRES_DSN", &c.Analytics.PostgresDSN)
	str("MENUQR_REDIS_ADDR", &c.Redis.Addr)
	str("MENUQR_REDIS_PASSWORD", &c.Redis.Password)
	str("MENUQR_SMTP_HOST", &c.Email.SMTPHost)
	num("MENUQR_SMTP_PORT", &c.Email.SMTPPort)
	str("MENUQR_SMTP_USER", &c.Email.SMTPUser)
	str("MENUQR_SMTP_PASSWORD", &c.Email.SMTPPassword)
	str("MENUQR_SMTP_FROM", &c.Email.FromEmail)
	str("MENUQR_SMS_PROVIDER", &c.SMS.Provider)
	str("MENUQR_MOBIZON_API_KEY", &c.SMS.Mobizon.APIKey)
	str("MENUQR_TWILIO_ACCOUNT_SID", &c.SMS.Twilio.AccountSID)
	str("MENUQR_TWILIO_AUTH_TOKEN", &c.SMS.Twilio.AuthToken)
	str("MENUQR_TWILIO_FROM", &c.SMS.Twilio.From)
	str("MENUQR_TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("MENUQR_FILES_DRIVER", &c.Files.Driver)
	str("MENUQR_FILES_ROOT", &c.Files.RootDir)
	str("MENUQR_S3_BUCKET", &c.Files.S3.Bucket)
	str("MENUQR_S3_REGION", &c.Files.S3.Region)
	str("MENUQR_QR_FILE_TOKEN_SECRET", &c.QR.FileTokenSecret)
	str("MENUQR_LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("MENUQR_TELEGRAM_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = n
		}
	}
	if v := os.Getenv("MENUQR_MOBIZON_DRY_RUN"); v != "" {
		c.SMS.Mobizon.DryRun = v == "true" || v == "1"
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.PublicBaseURL == "" {
		c.App.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.App.Port)
	}
	if c.App.FrontendBaseURL == "" {
		c.App.FrontendBaseURL = c.App.PublicBaseURL
	}
	c.App.PublicBaseURL = strings.TrimRight(c.App.PublicBaseURL, "/")
	c.App.FrontendBaseURL = strings.TrimRight(c.App.FrontendBaseURL, "/")
	if c.JWT.AccessTTLMinutes == 0 {
		c.JWT.AccessTTLMinutes = 60
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "menuqr"
	}
	if c.Analytics.Driver == "" {
		c.Analytics.Driver = "mongo"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Files.Driver == "" {
		c.Files.Driver = "local"
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.QR.FileTokenSecret == "" {
		c.QR.FileTokenSecret = c.JWT.Secret
	}
	if c.QR.FileTokenTTLSeconds == 0 {
		c.QR.FileTokenTTLSeconds = 600
	}
	if c.QR.BrandName == "" {
		c.QR.BrandName = "Digital Menu"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri is required"))
	}
	switch c.Analytics.Driver {
	case "mongo":
	case "postgres":
		if c.Analytics.PostgresDSN == "" {
			errs = append(errs, errors.New("analytics.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("analytics.driver %q is not supported", c.Analytics.Driver))
	}
	switch c.SMS.Provider {
	case "", "mobizon", "twilio":
	default:
		errs = append(errs, fmt.Errorf("sms.provider %q is not supported", c.SMS.Provider))
	}
	switch c.Files.Driver {
	case "local":
	case "s3":
		if c.Files.S3.Bucket == "" {
			errs = append(errs, errors.New("files.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("files.driver %q is not supported", c.Files.Driver))
	}
	return errors.Join(errs...)
}
