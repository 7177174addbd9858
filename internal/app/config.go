package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	CatalogDir  string `validate:"omitempty,dir"`  // extra template packs
	ProjectFile string `validate:"omitempty,file"` // project "<Name>" { ... }

	ListenAddr      string `validate:"omitempty,hostname_port"`
	HealthcheckPort int    `validate:"gte=0,lte=65535"`
	CacheSize       int    `validate:"gte=0"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// NewConfig fills in defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := configValidator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describe(fe))
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}
	return &cfg, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("invalid %s %q: must be one of %s", fe.Field(), fe.Value(), fe.Param())
	case "dir":
		return fmt.Sprintf("%s %q is not a directory", fe.Field(), fe.Value())
	case "file":
		return fmt.Sprintf("%s %q is not a file", fe.Field(), fe.Value())
	case "hostname_port":
		return fmt.Sprintf("invalid %s %q: expected host:port", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("invalid %s %v: failed %q check", fe.Field(), fe.Value(), fe.Tag())
	}
}
