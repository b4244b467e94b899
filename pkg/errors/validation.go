package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ValidateExperimentName validates a name used to store an experiment.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateExperimentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "experiment name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "experiment name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "experiment name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "experiment name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateID checks that id is a UUID as generated by the experiment stores.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "experiment ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid experiment ID %q", id)
	}
	return nil
}

// ValidateTimePointRange checks an optional min/max time point filter.
// A negative value means "no limit".
func ValidateTimePointRange(minTimePoint, maxTimePoint int) error {
	if minTimePoint >= 0 && maxTimePoint >= 0 && minTimePoint > maxTimePoint {
		return New(ErrCodeInvalidInput, "min time point %d is after max time point %d", minTimePoint, maxTimePoint)
	}
	return nil
}

// ValidateWindow checks a count of time points used as an analysis window,
// such as the division lookahead.
func ValidateWindow(name string, timePoints int) error {
	if timePoints < 1 {
		return New(ErrCodeInvalidInput, "%s must be at least 1 time point, got %d", name, timePoints)
	}
	return nil
}
