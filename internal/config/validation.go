package config

import (
	"fmt"
	"strings"

	"github.com/giantswarm/registrar/internal/blocking"
	"github.com/giantswarm/registrar/internal/container"
	"github.com/giantswarm/registrar/internal/strategy"
	"github.com/giantswarm/registrar/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Validate checks every field of cfg and returns all problems at once.
func Validate(cfg Config) error {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs.Add("logLevel", err.Error(), cfg.LogLevel)
	}

	r := cfg.Registry
	if r.Timeout <= 0 {
		errs.Add("registry.timeout", "must be positive", r.Timeout)
	}
	if r.Parallelism < 0 {
		errs.Add("registry.parallelism", "must not be negative", r.Parallelism)
	}
	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"registry.executionStrategy", r.ExecutionStrategy, []string{string(strategy.SameThread), string(strategy.Serialized), string(strategy.Parallel)}},
		{"registry.blockingStrategy", r.BlockingStrategy, []string{string(blocking.KindFuture), string(blocking.KindCondition)}},
		{"registry.container", r.Container, []string{string(container.KindLoadingCache), string(container.KindMultimap)}},
	}
	for _, c := range checks {
		if err := ValidateOneOf(c.field, c.value, c.allowed); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
