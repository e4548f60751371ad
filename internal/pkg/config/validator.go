package config

import (
	"fmt"
	"time"
)

// ValidateDuration validates that a duration is within a specified range,
// both bounds inclusive. Error messages include the actual value and the
// valid range so operators can fix the configuration directly.
//
// Example:
//
//	// Process timeout must be between 1s and 10m
//	err := ValidateDuration(30*time.Second, time.Second, 10*time.Minute)
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidateIntRange validates that an integer value is within a specified
// range, both bounds inclusive.
//
// Example:
//
//	// Batch size must be between 1 and 1000
//	err := ValidateIntRange(100, 1, 1000)
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
// Common for timeouts, scan intervals and retry delays where zero means
// misconfiguration rather than "disabled".
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}
