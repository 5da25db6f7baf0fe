package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/enrollment/internal/pkg/schedule"
)

// Validation rule patterns
var (
	// Offering code pattern - uppercase letters, digits, dash and underscore
	OfferingCodePattern = `^[A-Z0-9][A-Z0-9_-]*$`
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	OfferingCode *regexp.Regexp
}{
	OfferingCode: regexp.MustCompile(OfferingCodePattern),
}

// isClock validates a schedule.Clock field (minutes since midnight, 00:00 to 24:00).
func isClock(fl validator.FieldLevel) bool {
	if c, ok := fl.Field().Interface().(schedule.Clock); ok {
		return c.Valid()
	}
	return false
}

func isOfferingCode(fl validator.FieldLevel) bool {
	return CompiledPatterns.OfferingCode.MatchString(fl.Field().String())
}

// formatFieldError creates a human-readable validation error message
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "gtfield":
		return e.Field() + " must be after " + lowerFirst(e.Param())
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "clock":
		return e.Field() + " must be a time of day between 00:00 and 24:00"
	case "offeringcode":
		return e.Field() + " must contain only uppercase letters, digits, '-' and '_'"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
