package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if len(name) > 255 {
		return ValidationError{Field: field, Message: field + " must be at most 255 characters"}
	}
	return nil
}

// ValidateTimes checks a reminder's HH:MM list: non-empty, well formed, no duplicates
func ValidateTimes(times []string) error {
	if len(times) == 0 {
		return ValidationError{Field: "times", Message: "at least one time is required"}
	}
	seen := make(map[string]bool, len(times))
	for _, t := range times {
		if !timeOfDayRegex.MatchString(t) {
			return ValidationError{Field: "times", Message: fmt.Sprintf("invalid time %q, expected HH:MM", t)}
		}
		if seen[t] {
			return ValidationError{Field: "times", Message: fmt.Sprintf("duplicate time %q", t)}
		}
		seen[t] = true
	}
	return nil
}

// ValidateDateRange checks YYYY-MM-DD dates and that end, when set, is not before start
func ValidateDateRange(start, end string) error {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return ValidationError{Field: "startDate", Message: "startDate must be YYYY-MM-DD"}
	}
	if end == "" {
		return nil
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return ValidationError{Field: "endDate", Message: "endDate must be YYYY-MM-DD"}
	}
	if endDate.Before(startDate) {
		return ValidationError{Field: "endDate", Message: "endDate must not be before startDate"}
	}
	return nil
}

// ValidatePositive checks that an integer field is greater than zero
func ValidatePositive(field string, v int) error {
	if v <= 0 {
		return ValidationError{Field: field, Message: field + " must be greater than zero"}
	}
	return nil
}

// ValidateNonNegative checks that an integer field is zero or more
func ValidateNonNegative(field string, v int) error {
	if v < 0 {
		return ValidationError{Field: field, Message: field + " must not be negative"}
	}
	return nil
}
