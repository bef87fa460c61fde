package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/week"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums and ledger dates
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("frequency", validateFrequency); err != nil {
		panic(fmt.Sprintf("failed to register frequency validator: %v", err))
	}
	if err := Validate.RegisterValidation("day_status", validateDayStatus); err != nil {
		panic(fmt.Sprintf("failed to register day_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("ledger_date", validateLedgerDate); err != nil {
		panic(fmt.Sprintf("failed to register ledger_date validator: %v", err))
	}
}

// validateFrequency validates that a string is a valid Frequency enum value
func validateFrequency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.Frequency(value) {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyCustom:
		return true
	default:
		return false
	}
}

// validateDayStatus validates that a string is a valid DayStatus enum value
func validateDayStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.DayStatus(value) {
	case models.DayStatusNeutral, models.DayStatusCompleted, models.DayStatusFailed:
		return true
	default:
		return false
	}
}

// validateLedgerDate validates that a string is a YYYY-MM-DD calendar date
func validateLedgerDate(fl validator.FieldLevel) bool {
	_, err := week.ParseDate(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateFrequency validates a Frequency string value
func ValidateFrequency(value string) error {
	switch models.Frequency(value) {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyCustom:
		return nil
	default:
		return fmt.Errorf("invalid frequency: %s (must be 'daily', 'weekly', or 'custom')", value)
	}
}

// ValidateDayStatus validates a DayStatus string value
func ValidateDayStatus(value string) error {
	switch models.DayStatus(value) {
	case models.DayStatusNeutral, models.DayStatusCompleted, models.DayStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'neutral', 'completed', or 'failed')", value)
	}
}

// ValidateLedgerDate validates a YYYY-MM-DD date string
func ValidateLedgerDate(value string) error {
	if _, err := week.ParseDate(value); err != nil {
		return fmt.Errorf("invalid date: %s (must be YYYY-MM-DD)", value)
	}
	return nil
}

// ValidateHexColor validates a #RRGGBB display color
func ValidateHexColor(value string) error {
	if len(value) != 7 || value[0] != '#' {
		return fmt.Errorf("invalid color: %s (must be #RRGGBB)", value)
	}
	for _, r := range value[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("invalid color: %s (must be #RRGGBB)", value)
		}
	}
	return nil
}

// ParseDateRange parses inclusive start/end query parameters, defaulting
// to the current week when both are empty.
func ParseDateRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	if startStr == "" && endStr == "" {
		return week.Start(now), week.End(now), nil
	}
	start, err := week.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %s (must be YYYY-MM-DD)", startStr)
	}
	end, err := week.ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %s (must be YYYY-MM-DD)", endStr)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", endStr, startStr)
	}
	return start, end, nil
}
