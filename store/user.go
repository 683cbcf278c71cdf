package store

import (
	"fmt"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-voidmail/voidmail/crypto"
)

// Structs

// User represents one registered account. The raw password
// is discarded right after hashing during registration and
// therefore never part of this record.
type User struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashedPassword"`
	Salt           string    `json:"salt"`
	LoggedIn       bool      `json:"loggedIn"`
}

// UserStore is the concurrent table of users keyed by
// address. Many connection handlers operate on it at
// the same time.
type UserStore struct {
	lock   sync.RWMutex
	users  map[string]User
	logger log.Logger
}

// Functions

// NewUserStore returns an empty user table.
func NewUserStore(logger log.Logger) *UserStore {

	return &UserStore{
		users:  make(map[string]User),
		logger: logger,
	}
}

// Register validates supplied details, hashes the password
// under a fresh salt and inserts the new record with the
// session flag cleared. An already taken address fails with
// ErrUserExists before any further validation. The final
// insert re-checks absence under the write lock so two
// concurrent registrations of the same address cannot both
// succeed.
func (s *UserStore) Register(firstName string, lastName string, email string, password string) error {

	s.lock.RLock()
	_, taken := s.users[email]
	s.lock.RUnlock()

	if taken {
		return ErrUserExists
	}

	if reasons := validateUserDetails(firstName, lastName, email, password); len(reasons) > 0 {
		return &InvalidDetailsError{Reasons: reasons}
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return errors.Wrap(err, "failed to generate salt")
	}

	// Hash the password. The raw value is not
	// retained anywhere past this point.
	digest, err := crypto.HashPassword(password, salt)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user := User{
		ID:             uuid.New(),
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		HashedPassword: digest,
		Salt:           salt,
		LoggedIn:       false,
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	// Insert-if-absent: a concurrent registration may have
	// taken the address while the password was being hashed.
	if _, taken := s.users[email]; taken {
		return ErrUserExists
	}

	s.users[email] = user

	level.Debug(s.logger).Log("msg", "user registered", "user", email)

	return nil
}

// Login checks supplied credentials against the stored
// digest. It does not touch the session flag, that is
// the separate SetLoggedIn operation.
func (s *UserStore) Login(email string, password string) error {

	s.lock.RLock()
	user, found := s.users[email]
	s.lock.RUnlock()

	if !found {
		return &UnknownUserError{Email: email}
	}

	match, err := crypto.VerifyPassword(password, user.Salt, user.HashedPassword)
	if err != nil {
		return errors.Wrap(err, "failed to verify password")
	}

	if !match {
		return ErrInvalidCredentials
	}

	return nil
}

// SetLoggedIn updates the session flag of supplied address.
// An absent address is logged and otherwise ignored.
func (s *UserStore) SetLoggedIn(email string, status bool) {

	s.lock.Lock()
	defer s.lock.Unlock()

	user, found := s.users[email]
	if !found {
		level.Warn(s.logger).Log("msg", fmt.Sprintf("cannot set session flag, user %s not found", email))
		return
	}

	user.LoggedIn = status
	s.users[email] = user
}

// LoggedInUsers returns all records whose session
// flag is currently set.
func (s *UserStore) LoggedInUsers() []User {

	s.lock.RLock()
	defer s.lock.RUnlock()

	loggedIn := make([]User, 0, len(s.users))

	for _, user := range s.users {

		if user.LoggedIn {
			loggedIn = append(loggedIn, user)
		}
	}

	return loggedIn
}

// Exists reports whether supplied address is registered.
func (s *UserStore) Exists(email string) bool {

	s.lock.RLock()
	defer s.lock.RUnlock()

	_, found := s.users[email]

	return found
}

// Count returns the number of registered users.
func (s *UserStore) Count() int {

	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.users)
}

// Snapshot returns a full copy of the current table contents.
func (s *UserStore) Snapshot() map[string]User {

	s.lock.RLock()
	defer s.lock.RUnlock()

	snapshot := make(map[string]User, len(s.users))

	for email, user := range s.users {
		snapshot[email] = user
	}

	return snapshot
}

// Restore fully replaces the table contents with supplied
// snapshot. Prior in-memory state is discarded, not merged,
// which makes calling this while connections are being
// served a destructive operation.
func (s *UserStore) Restore(snapshot map[string]User) {

	s.lock.Lock()
	defer s.lock.Unlock()

	s.users = make(map[string]User, len(snapshot))

	for email, user := range snapshot {
		s.users[email] = user
	}

	level.Info(s.logger).Log("msg", "user table restored", "users", len(s.users))
}
