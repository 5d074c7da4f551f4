package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateStore()...)
	errors = append(errors, c.validateTracker()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	if c.Database.Host == "" {
		errors = append(errors, ValidationError{Field: "database.host", Message: "host is required"})
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Database.Port),
		})
	}
	if c.Database.User == "" {
		errors = append(errors, ValidationError{Field: "database.user", Message: "user is required"})
	}
	if c.Database.Database == "" {
		errors = append(errors, ValidationError{Field: "database.database", Message: "database name is required"})
	}
	switch c.Database.TLS {
	case "", "disable", "preferred", "required":
	default:
		errors = append(errors, ValidationError{
			Field:   "database.tls",
			Message: fmt.Sprintf("tls must be one of disable, preferred, required; got %q", c.Database.TLS),
		})
	}

	return errors
}

func (c *Config) validateStore() ValidationErrors {
	var errors ValidationErrors

	if c.Store.Path == "" {
		errors = append(errors, ValidationError{Field: "store.path", Message: "store path is required"})
	}
	if c.Store.ConfigID == "" {
		errors = append(errors, ValidationError{Field: "store.config_id", Message: "config_id is required"})
	}

	return errors
}

func (c *Config) validateTracker() ValidationErrors {
	var errors ValidationErrors

	seen := make(map[string]bool)
	for i, typ := range c.Tracker.Types {
		if typ == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tracker.types[%d]", i),
				Message: "polymorphic type name must not be empty",
			})
			continue
		}
		if seen[typ] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tracker.types[%d]", i),
				Message: fmt.Sprintf("duplicate polymorphic type %q", typ),
			})
		}
		seen[typ] = true
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("level must be one of debug, info, warn, error; got %q", c.Logging.Level),
		})
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("format must be json or text, got %q", c.Logging.Format),
		})
	}

	return errors
}
