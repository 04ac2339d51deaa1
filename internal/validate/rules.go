// Package validate holds the presence and format checks applied to
// user-entered form fields before they are sent to the portal.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Validation rule patterns
var (
	// EmailPattern accepts the common local@domain.tld shape.
	EmailPattern = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`

	// OTPPattern is the six-digit one-time password sent by email.
	OTPPattern = `^\d{6}$`

	// PasswordMinLength is the shortest accepted password.
	PasswordMinLength = 6
)

// CompiledPatterns caches compiled regex patterns.
var CompiledPatterns = struct {
	Email *regexp.Regexp
	OTP   *regexp.Regexp
}{
	Email: regexp.MustCompile(EmailPattern),
	OTP:   regexp.MustCompile(OTPPattern),
}

// passwordRule pairs a predicate with the message shown when it fails.
type passwordRule struct {
	ok      func(string) bool
	message string
}

// passwordRules are checked in order; the first failure is reported.
var passwordRules = []passwordRule{
	{
		ok:      func(s string) bool { return len([]rune(s)) >= PasswordMinLength },
		message: fmt.Sprintf("Password must be at least %d characters long", PasswordMinLength),
	},
	{
		ok:      func(s string) bool { return strings.IndexFunc(s, unicode.IsUpper) >= 0 },
		message: "Password must contain at least one uppercase letter",
	},
	{
		ok:      func(s string) bool { return strings.IndexFunc(s, unicode.IsLower) >= 0 },
		message: "Password must contain at least one lowercase letter",
	},
	{
		ok:      func(s string) bool { return strings.IndexFunc(s, unicode.IsDigit) >= 0 },
		message: "Password must contain at least one number",
	},
	{
		ok:      func(s string) bool { return strings.IndexFunc(s, isSpecial) >= 0 },
		message: "Password must contain at least one special character",
	},
	{
		ok:      func(s string) bool { return strings.IndexFunc(s, unicode.IsSpace) < 0 },
		message: "Password must not contain spaces",
	},
}

// isSpecial matches anything that is not a letter, digit or whitespace.
func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

// Password returns nil when s satisfies every rule, or an error carrying
// the message of the first violated rule.
func Password(s string) error {
	for _, r := range passwordRules {
		if !r.ok(s) {
			return errors.New(r.message)
		}
	}
	return nil
}

// PasswordConfirmation checks the repeated password matches.
func PasswordConfirmation(password, confirm string) error {
	if confirm == "" {
		return errors.New("Please confirm your password")
	}
	if password != confirm {
		return errors.New("Passwords do not match")
	}
	return nil
}

// Email checks presence and format of an email address.
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("Email is required")
	}
	if !CompiledPatterns.Email.MatchString(s) {
		return errors.New("Enter a valid email address")
	}
	return nil
}

// OTP checks the six-digit verification code.
func OTP(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("OTP is required")
	}
	if !CompiledPatterns.OTP.MatchString(s) {
		return errors.New("OTP must be 6 digits")
	}
	return nil
}

// Required returns a validator rejecting blank input, in the form huh
// expects.
func Required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// MinLength returns a validator enforcing a trimmed minimum rune count.
func MinLength(field string, n int) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		if len([]rune(s)) < n {
			return fmt.Errorf("%s must be at least %d characters", field, n)
		}
		return nil
	}
}
