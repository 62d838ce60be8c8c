package config

import (
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateWhale(&c.Whale)...)
	errors = append(errors, validateCopy(&c.Copy)...)
	errors = append(errors, validateStatsServer(&c.StatsServer)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateWhale(w *WhaleConfig) []ValidationError {
	var errors []ValidationError

	if w.PollInterval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "whale.poll_interval",
			Message: "must be at least 1 second",
		})
	}
	if w.MinTradeValue < 0 {
		errors = append(errors, ValidationError{
			Field:   "whale.min_trade_value",
			Message: "must be non-negative",
		})
	}
	if w.PageLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "whale.page_limit",
			Message: "must be at least 1",
		})
	}
	if w.MaxHistory < 1 {
		errors = append(errors, ValidationError{
			Field:   "whale.max_history",
			Message: "must be at least 1",
		})
	}
	if w.MaxSeenTx < w.MaxHistory {
		errors = append(errors, ValidationError{
			Field:   "whale.max_seen_tx",
			Message: "must be at least whale.max_history",
		})
	}

	return errors
}

func validateCopy(c *CopyConfig) []ValidationError {
	var errors []ValidationError

	if c.PollInterval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "copy.poll_interval",
			Message: "must be at least 1 second",
		})
	}
	if c.PageLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "copy.page_limit",
			Message: "must be at least 1",
		})
	}
	if c.MaxPositionSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "copy.max_position_size",
			Message: "must be non-negative",
		})
	}
	if c.CopyPercentage < 0 || c.CopyPercentage > 100 {
		errors = append(errors, ValidationError{
			Field:   "copy.copy_percentage",
			Message: "must be between 0 and 100",
		})
	}
	if c.MaxTotalExposure < 0 {
		errors = append(errors, ValidationError{
			Field:   "copy.max_total_exposure",
			Message: "must be non-negative",
		})
	}
	if c.MinTraderConfidence < 0 {
		errors = append(errors, ValidationError{
			Field:   "copy.min_trader_confidence",
			Message: "must be non-negative",
		})
	}

	return errors
}

func validateStatsServer(s *StatsServerConfig) []ValidationError {
	var errors []ValidationError

	if s.Enabled && (s.Port < 1 || s.Port > 65535) {
		errors = append(errors, ValidationError{
			Field:   "stats_server.port",
			Message: "must be a valid port number",
		})
	}

	return errors
}
