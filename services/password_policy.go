package services

import (
	"fmt"
	"strings"
	"unicode"
)

// MinPasswordLength applies to every account, including the admin bootstrap user
const MinPasswordLength = 12

// ValidatePassword checks length plus upper, lower, digit and symbol classes.
// All missing requirements are reported together on the "password" field.
func ValidatePassword(password string) error {
	var missing []string
	if len([]rune(password)) < MinPasswordLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", MinPasswordLength))
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a number")
	}
	if !symbol {
		missing = append(missing, "a special character")
	}

	if len(missing) == 0 {
		return nil
	}
	return NewValidationError("password", "needs "+strings.Join(missing, ", "))
}
