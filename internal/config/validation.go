package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/ev-parlay/internal/allocator"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("stakemethod", validateStakeMethod)
	_ = v.RegisterValidation("parlaysizes", validateParlaySizes)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateStakeMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case allocator.MethodKellyNorm, allocator.MethodEqual, allocator.MethodEVSqrt:
		return true
	default:
		return false
	}
}

// validateParlaySizes requires every size to be at least 1 and unique
func validateParlaySizes(fl validator.FieldLevel) bool {
	sizes, ok := fl.Field().Interface().([]int)
	if !ok || len(sizes) == 0 {
		return false
	}
	seen := make(map[int]bool, len(sizes))
	for _, size := range sizes {
		if size < 1 || seen[size] {
			return false
		}
		seen[size] = true
	}
	return true
}

func validateCrossField(cfg *Config) error {
	for _, size := range cfg.Parlay.DerivationSizes {
		if size < 1 {
			return fmt.Errorf("derivation_sizes must be positive, got %d", size)
		}
	}

	if cfg.Parlay.DesiredNumTickets > 0 && cfg.Parlay.DerivationLimitPerSize == 0 && len(cfg.Parlay.DerivationSizes) > 0 {
		return fmt.Errorf("derivation_limit_per_size must be positive when derivation_sizes are set")
	}

	if cfg.HasBudget() && cfg.Stake.MinStake > cfg.Stake.RunBudget {
		return fmt.Errorf("min_stake cannot exceed run_budget")
	}

	if cfg.IsProduction() && cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		return fmt.Errorf("metrics path is required when metrics are enabled in production")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "stakemethod":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: kelly_norm, equal, ev_sqrt\n", field)
		case "parlaysizes":
			errMsg += fmt.Sprintf("- Field '%s' must list unique sizes of at least 1, got '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
