// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Host         HostConfig         `mapstructure:"host"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Upload       UploadConfig       `mapstructure:"upload"`
	Mail         MailConfig         `mapstructure:"mail"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Security     SecurityConfig     `mapstructure:"security"`
}

type AppConfig struct {
	LogLevel    string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	Environment string `mapstructure:"environment" validate:"required,oneof=development production"`
}

type HostConfig struct {
	Port        int       `mapstructure:"port" validate:"required,min=1,max=65535"`
	Domain      string    `mapstructure:"domain" validate:"required"`
	CorsOrigins []string  `mapstructure:"cors_origins"`
	SSL         SSLConfig `mapstructure:"ssl"`
}

type SSLConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	CertificatePath    string `mapstructure:"certificate_path" validate:"required_if=Enabled true"`
	CertificateKeyPath string `mapstructure:"certificate_key_path" validate:"required_if=Enabled true"`
}

type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	DSN  string `mapstructure:"dsn" validate:"required"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type StorageConfig struct {
	Provider        string        `mapstructure:"provider" validate:"required,oneof=s3 r2"`
	Bucket          string        `mapstructure:"bucket" validate:"required"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccountID       string        `mapstructure:"account_id" validate:"required_if=Provider r2"`
	AccessKeyID     string        `mapstructure:"access_key_id" validate:"required"`
	SecretAccessKey string        `mapstructure:"secret_access_key" validate:"required"`
	PresignTTL      time.Duration `mapstructure:"presign_ttl" validate:"gt=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`

	// Objects above this size are sent with the multipart uploader
	MultipartThreshold int64 `mapstructure:"multipart_threshold" validate:"gt=0"`
}

type UploadConfig struct {
	// Megabytes in the config file, bytes after Setup returns
	MaxSize int64 `mapstructure:"max_size" validate:"gt=0"`
}

type MailConfig struct {
	Host     string        `mapstructure:"host" validate:"required"`
	Port     int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	Sender   string        `mapstructure:"sender" validate:"required,email"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type RegistrationConfig struct {
	CodeTTL        time.Duration `mapstructure:"code_ttl" validate:"gt=0"`
	ResendInterval time.Duration `mapstructure:"resend_interval" validate:"gte=0"`
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"gt=0"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	// How long an expired pending registration is kept before the sweep removes it
	Retention time.Duration `mapstructure:"retention" validate:"gte=0"`
}

type SecurityConfig struct {
	RateLimit int             `mapstructure:"rate_limit" validate:"gte=0"`
	Turnstile TurnstileConfig `mapstructure:"turnstile"`
}

type TurnstileConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	SecretToken string `mapstructure:"secret_token" validate:"required_if=Enabled true"`
}

var ErrNoJWTSecret = errors.New("no jwt secret provided")

// Keys without a default value still have to be known to viper
// for AutomaticEnv to pick them up during Unmarshal
var envOnlyKeys = []string{
	"jwt.secret",
	"storage.bucket",
	"storage.endpoint",
	"storage.account_id",
	"storage.access_key_id",
	"storage.secret_access_key",
	"mail.host",
	"mail.sender",
	"mail.password",
	"security.turnstile.secret_token",
	"host.ssl.certificate_path",
	"host.ssl.certificate_key_path",
}

// GenSecret returns a random hex string suitable as a JWT secret
func GenSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func setDefaults(vp *v.Viper) {
	vp.SetDefault("app.log_level", "info")
	vp.SetDefault("app.environment", "production")

	vp.SetDefault("host.port", 8080)
	vp.SetDefault("host.domain", "localhost")
	vp.SetDefault("host.cors_origins", []string{"http://localhost:3000"})
	vp.SetDefault("host.ssl.enabled", false)

	vp.SetDefault("database.type", "sqlite")
	vp.SetDefault("database.dsn", "database.db")

	vp.SetDefault("jwt.ttl", time.Hour*24)

	vp.SetDefault("storage.provider", "s3")
	vp.SetDefault("storage.region", "us-east-2")
	vp.SetDefault("storage.presign_ttl", time.Hour)
	vp.SetDefault("storage.timeout", time.Minute)
	vp.SetDefault("storage.multipart_threshold", 12<<20)
	vp.SetDefault("storage.cleanup_interval", time.Minute*10)

	vp.SetDefault("upload.max_size", 50)

	vp.SetDefault("mail.port", 587)
	vp.SetDefault("mail.timeout", time.Second*15)

	vp.SetDefault("registration.code_ttl", time.Minute*10)
	vp.SetDefault("registration.resend_interval", time.Minute)
	vp.SetDefault("registration.max_attempts", 5)
	vp.SetDefault("registration.sweep_interval", time.Hour)
	vp.SetDefault("registration.retention", time.Hour*24)

	vp.SetDefault("security.rate_limit", 10)
	vp.SetDefault("security.turnstile.enabled", false)
}

// Flags registers the command line flags understood by Setup
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("file-share-api", pflag.ContinueOnError)
	fs.String("config", "", "Path to the config file")
	fs.String("log-level", "", "Overrides app.log_level")
	fs.Int("port", 0, "Overrides host.port")

	return fs
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that. The returned Config is the only place settings are read from
// after startup.
func Setup(fs *pflag.FlagSet) (*Config, error) {
	vp := v.New()
	setDefaults(vp)

	vp.SetConfigType("toml")
	if p, _ := fs.GetString("config"); p != "" {
		vp.SetConfigFile(p)
	} else {
		vp.SetConfigName("config")
		vp.AddConfigPath(".")
	}

	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	for _, k := range envOnlyKeys {
		vp.BindEnv(k)
	}

	if err := vp.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if f := fs.Lookup("log-level"); f != nil && f.Changed {
		vp.Set("app.log_level", f.Value.String())
	}

	if f := fs.Lookup("port"); f != nil && f.Changed {
		vp.Set("host.port", f.Value.String())
	}

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config, %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		return nil, ErrNoJWTSecret
	}

	cfg.Upload.MaxSize <<= 20
	return &cfg, nil
}

// Validate checks the struct tags of c
func Validate(c *Config) error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config, %w", err)
	}

	return nil
}
