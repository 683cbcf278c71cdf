package distributor

import (
	"errors"

	"github.com/go-voidmail/voidmail/store"
)

// Functions

// The helpers below classify store errors into the
// wire-visible outcome families of the protocol.

func isUserExists(err error) bool {
	return errors.Is(err, store.ErrUserExists)
}

func isInvalidCredentials(err error) bool {
	return errors.Is(err, store.ErrInvalidCredentials)
}

func isEmailNotFound(err error) bool {
	return errors.Is(err, store.ErrEmailNotFound)
}

func isUnknownUser(err error) bool {
	var unknown *store.UnknownUserError
	return errors.As(err, &unknown)
}

func isInvalidDetails(err error) bool {
	var invalid *store.InvalidDetailsError
	return errors.As(err, &invalid)
}
