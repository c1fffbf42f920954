package intelligence

import (
	"fmt"
	"time"
)

// Memory lifecycle classes.
const (
	MemoryTypePermanent = "permanent"
	MemoryTypeTemporary = "temporary"
	MemoryTypeExecution = "execution"
)

// Accepted ranges for cleanup thresholds.
const (
	MinTemporaryDays  = 1
	MaxTemporaryDays  = 365
	MinExecutionHours = 1
	MaxExecutionHours = 720
)

// RetentionPolicy holds the age after which transient memories expire.
//
// Permanent memories never expire. Temporary memories expire after a number
// of days and execution memories after a number of hours.
type RetentionPolicy struct {
	TemporaryMaxAge time.Duration
	ExecutionMaxAge time.Duration
}

// DefaultRetentionPolicy returns the default thresholds: 7 days for temporary
// memories and 24 hours for execution memories.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		TemporaryMaxAge: 7 * 24 * time.Hour,
		ExecutionMaxAge: 24 * time.Hour,
	}
}

// NewRetentionPolicy builds a policy from day/hour thresholds, validating both.
func NewRetentionPolicy(temporaryDays, executionHours int) (RetentionPolicy, error) {
	if err := ValidateTemporaryDays(temporaryDays); err != nil {
		return RetentionPolicy{}, err
	}
	if err := ValidateExecutionHours(executionHours); err != nil {
		return RetentionPolicy{}, err
	}
	return RetentionPolicy{
		TemporaryMaxAge: time.Duration(temporaryDays) * 24 * time.Hour,
		ExecutionMaxAge: time.Duration(executionHours) * time.Hour,
	}, nil
}

// MaxAge returns the retention window for memoryType and whether the type
// expires at all.
func (p RetentionPolicy) MaxAge(memoryType string) (time.Duration, bool) {
	switch memoryType {
	case MemoryTypeTemporary:
		return p.TemporaryMaxAge, true
	case MemoryTypeExecution:
		return p.ExecutionMaxAge, true
	default:
		return 0, false
	}
}

// Cutoff returns the instant before which memories of memoryType are expired.
func (p RetentionPolicy) Cutoff(memoryType string, now time.Time) (time.Time, bool) {
	age, ok := p.MaxAge(memoryType)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-age), true
}

// IsExpired reports whether a memory created at createdAt is past its window.
func (p RetentionPolicy) IsExpired(memoryType string, createdAt, now time.Time) bool {
	cutoff, ok := p.Cutoff(memoryType, now)
	return ok && createdAt.Before(cutoff)
}

// ValidMemoryType reports whether t is one of the three lifecycle classes.
func ValidMemoryType(t string) bool {
	switch t {
	case MemoryTypePermanent, MemoryTypeTemporary, MemoryTypeExecution:
		return true
	}
	return false
}

// ValidateTemporaryDays checks the temporary cleanup threshold bounds.
func ValidateTemporaryDays(days int) error {
	if days < MinTemporaryDays || days > MaxTemporaryDays {
		return fmt.Errorf("older_than_days must be between %d and %d, got %d", MinTemporaryDays, MaxTemporaryDays, days)
	}
	return nil
}

// ValidateExecutionHours checks the execution cleanup threshold bounds.
func ValidateExecutionHours(hours int) error {
	if hours < MinExecutionHours || hours > MaxExecutionHours {
		return fmt.Errorf("older_than_hours must be between %d and %d, got %d", MinExecutionHours, MaxExecutionHours, hours)
	}
	return nil
}
