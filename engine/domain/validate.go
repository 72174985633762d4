package domain

import (
	"strconv"
	"strings"
	"time"
)

// ValidateYear checks year against [MinModelYear, current+1]; next-year
// models are published before the calendar turns.
func ValidateYear(year int, now time.Time) error {
	if year < MinModelYear || year > now.Year()+1 {
		return NewValidationError("year", strconv.Itoa(year), ErrYearOutOfRange)
	}
	return nil
}

// ParseYear parses and validates a year string.
func ParseYear(s string, now time.Time) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewValidationError("year", s, ErrYearOutOfRange)
	}
	if err := ValidateYear(year, now); err != nil {
		return 0, err
	}
	return year, nil
}

// ValidateMake checks mk against the consumer allow-list.
func ValidateMake(mk string) error {
	if strings.TrimSpace(mk) == "" || !IsAllowedMake(mk) {
		return NewValidationError("make", mk, ErrUnsupportedMake)
	}
	return nil
}
