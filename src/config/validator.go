package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	// Register custom validation functions
	v.RegisterValidation("store_backend", validateStoreBackend)
	v.RegisterValidation("log_level", validateLogLevel)
	v.RegisterValidation("conversation_name", validateConversationName)

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration
func (v *Validator) Validate(config *Config) error {
	err := v.validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return ValidationError{
			Field:   e.Field(),
			Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
			Value:   e.Value(),
		}
	}
	return err
}

// validateStoreBackend validates conversation store values
func validateStoreBackend(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{StoreJSON, StoreSQLite}, value)
}

// validateLogLevel validates log level values
func validateLogLevel(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	if value == "" {
		return true
	}
	return slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, value)
}

// validateConversationName rejects names that would escape the history
// directory.
func validateConversationName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" || value == "." || value == ".." {
		return false
	}
	return !strings.ContainsAny(value, `/\`)
}
