// Package config loads mediadl settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/ytget/mediadl/internal/logger"
)

// DotEnvFile is loaded from the working directory when present.
const DotEnvFile = ".env"

// Config is the user-tunable configuration. Command line flags take
// precedence over every value here.
type Config struct {
	APIBase         string        `yaml:"api_base" json:"api_base" env:"MEDIADL_API_BASE" env-default:"https://api.siputzx.my.id/api" env-description:"base URL of the tiktok, facebook and ytmp4 metadata endpoints" validate:"required,http_url"`
	YTMP3Endpoint   string        `yaml:"ytmp3_endpoint" json:"ytmp3_endpoint" env:"MEDIADL_YTMP3_ENDPOINT" env-default:"https://archive.lick.eu.org/api/download/ytmp3" env-description:"metadata endpoint for audio extraction" validate:"required,http_url"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent" env:"MEDIADL_USER_AGENT" env-description:"User-Agent sent with every request"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" json:"fetch_timeout" env:"MEDIADL_FETCH_TIMEOUT" env-default:"30s" env-description:"metadata request timeout" validate:"gt=0"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout" env:"MEDIADL_DOWNLOAD_TIMEOUT" env-default:"60s" env-description:"time to wait for a media server to respond" validate:"gt=0"`
	OutputDir       string        `yaml:"output_dir" json:"output_dir" env:"MEDIADL_OUTPUT_DIR" env-description:"default download directory"`
	Proxy           string        `yaml:"proxy" json:"proxy" env:"MEDIADL_PROXY" env-description:"HTTP(S) proxy URL" validate:"omitempty,url"`

	Log logger.LogConfig `yaml:"log" json:"log" validate:"-"`
}

// Load reads the configuration. A .env file in the working directory is
// applied first (existing environment variables win). When path is non-empty
// the file is read and environment variables override it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks endpoint URLs, timeouts and the logging block.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describeFieldError(verrs[0])
		}
		return err
	}
	if err := c.Log.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}

// Describe returns a human readable listing of the supported environment
// variables.
func Describe() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}

// newValidator reports fields by their yaml names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func describeFieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "gt":
		return fmt.Errorf("%s must be positive, got %v", fe.Field(), fe.Value())
	case "http_url":
		return fmt.Errorf("invalid %s: %q is not an absolute http(s) URL", fe.Field(), fe.Value())
	case "url":
		return fmt.Errorf("invalid %s: %q is not a valid URL", fe.Field(), fe.Value())
	default:
		return fmt.Errorf("invalid %s: failed %q check", fe.Field(), fe.Tag())
	}
}
