package store

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Variables

// Expected domain outcomes. Callers translate these
// into wire response codes, they never crash a handler.
var (
	// ErrUserExists signals a registration
	// attempt for an already taken address.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials signals a login
	// attempt with a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotFound signals an operation on
	// an email ID not present in the table.
	ErrEmailNotFound = errors.New("email not found")
)

// Structs

// UnknownUserError reports an operation referencing
// an address not present in the user table.
type UnknownUserError struct {
	Email string
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("user not found: %s", e.Email)
}

// InvalidDetailsError collects all field constraint
// violations found while validating a record.
type InvalidDetailsError struct {
	Reasons []string
}

func (e *InvalidDetailsError) Error() string {
	return strings.Join(e.Reasons, "; ")
}
