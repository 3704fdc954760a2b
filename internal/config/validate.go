package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks every field and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s (got %v)", fe.Field(), fe.Param(), fe.Value()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s (got %v)", fe.Field(), fe.Param(), fe.Value()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s (got %v)", fe.Field(), fe.Param(), fe.Value()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s] (got %v)", fe.Field(), fe.Param(), fe.Value()))
		case "required_if":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid (got %v)", fe.Field(), fe.Value()))
		}
	}
	sort.Strings(messages)

	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}
