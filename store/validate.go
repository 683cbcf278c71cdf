package store

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Constants

const (
	minNameLength    = 2
	maxNameLength    = 50
	minPasswordLen   = 8
	maxSubjectLength = 255

	// passwordSpecials is the set of special characters
	// a password must draw at least one character from.
	passwordSpecials = "@$!%*?&"
)

// Variables

// emailPattern restricts addresses to the voidmail.com domain.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@voidmail\.com$`)

// Functions

// validName checks the length constraints shared
// by first and last names.
func validName(name string) bool {
	return (len(name) >= minNameLength) && (len(name) <= maxNameLength)
}

// validPassword checks that a password is at least eight
// characters long and contains an upper-case letter, a
// lower-case letter, a digit, and one of the accepted
// special characters. Characters outside those classes
// make the password invalid.
func validPassword(password string) bool {

	if len(password) < minPasswordLen {
		return false
	}

	var upper, lower, digit, special bool

	for _, r := range password {

		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}

	return upper && lower && digit && special
}

// validateUserDetails checks all field constraints of a
// registration request and returns the collected violation
// messages, empty when the details are acceptable.
func validateUserDetails(firstName string, lastName string, email string, password string) []string {

	var reasons []string

	if !validName(firstName) {
		reasons = append(reasons, fmt.Sprintf("First name must be between %d and %d characters", minNameLength, maxNameLength))
	}

	if !validName(lastName) {
		reasons = append(reasons, fmt.Sprintf("Last name must be between %d and %d characters", minNameLength, maxNameLength))
	}

	if !emailPattern.MatchString(email) {
		reasons = append(reasons, "Email must be a valid voidmail.com address")
	}

	if !validPassword(password) {
		reasons = append(reasons, "Password must be at least 8 characters long, include one uppercase letter, one lowercase letter, one number, and one special character")
	}

	return reasons
}

// validateEmailDetails checks the field constraints of an
// email about to be sent and returns the collected violation
// messages, empty when the details are acceptable.
func validateEmailDetails(sender string, recipient string, subject string, content string) []string {

	var reasons []string

	if strings.TrimSpace(sender) == "" {
		reasons = append(reasons, "Sender cannot be blank")
	}

	if strings.TrimSpace(recipient) == "" {
		reasons = append(reasons, "Recipient cannot be blank")
	}

	if strings.TrimSpace(subject) == "" {
		reasons = append(reasons, "Subject cannot be blank")
	} else if len(subject) > maxSubjectLength {
		reasons = append(reasons, fmt.Sprintf("Subject must be less than %d characters", maxSubjectLength))
	}

	if strings.TrimSpace(content) == "" {
		reasons = append(reasons, "Content cannot be blank")
	}

	return reasons
}
