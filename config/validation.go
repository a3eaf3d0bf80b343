package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// report fields by their koanf key
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg and returns the first problem as a *ConfigError.
func Validate(cfg *Config) error {
	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return toConfigError(fieldErrs[0])
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if _, rest, found := strings.Cut(field, "."); found {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported value %q", fe.Value()), strings.Fields(fe.Param()))
	case "gt":
		return NewInvalidFieldError(field, "must be greater than "+fe.Param(), nil)
	case "gte":
		return NewInvalidFieldError(field, "must be at least "+fe.Param(), nil)
	case "lte":
		return NewInvalidFieldError(field, "must be at most "+fe.Param(), nil)
	case "http_url":
		return NewInvalidFieldError(field, "must be an absolute http(s) url", nil)
	default:
		return NewInvalidFieldError(field, "failed "+fe.Tag()+" check", nil)
	}
}
