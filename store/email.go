package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"crypto/sha256"
	"encoding/hex"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Structs

// Email represents one stored message. All fields except
// Viewed are immutable once the record exists.
type Email struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Timestamp LocalTime `json:"timestamp"`
	Viewed    bool      `json:"viewed"`
}

// Scope selects which side of a mailbox an
// operation looks at.
type Scope int

const (
	// ScopeReceived addresses the emails a user received.
	ScopeReceived Scope = iota

	// ScopeSent addresses the emails a user sent.
	ScopeSent
)

// Interfaces

// UserDirectory is the read-only view of the user table
// the email store consults for existence checks.
type UserDirectory interface {
	Exists(email string) bool
	Count() int
}

// EmailStore is the concurrent table of emails keyed
// by their content-derived ID.
type EmailStore struct {
	lock   sync.RWMutex
	emails map[string]Email
	users  UserDirectory
	logger log.Logger
}

// Functions

// NewEmailStore returns an empty email table consulting
// supplied directory for sender and recipient checks.
func NewEmailStore(logger log.Logger, users UserDirectory) *EmailStore {

	return &EmailStore{
		emails: make(map[string]Email),
		users:  users,
		logger: logger,
	}
}

// Send validates and stores a new email and returns its ID,
// a 64-character lowercase hex SHA-256 digest derived from
// the message fields and the creation instant.
//
// Sender and recipient existence is only enforced while the
// user table is non-empty; with an empty table validation is
// skipped entirely. This bootstrap shortcut is preserved
// behavior, not a rule to build on.
func (s *EmailStore) Send(sender string, recipient string, subject string, content string) (string, error) {

	if reasons := validateEmailDetails(sender, recipient, subject, content); len(reasons) > 0 {
		return "", &InvalidDetailsError{Reasons: reasons}
	}

	if s.users.Count() > 0 {

		// Sender is checked first, the returned error
		// names whichever address is missing.
		if !s.users.Exists(sender) {
			return "", &UnknownUserError{Email: sender}
		}

		if !s.users.Exists(recipient) {
			return "", &UnknownUserError{Email: recipient}
		}
	}

	now := time.Now()

	email := Email{
		ID:        emailID(sender, recipient, subject, content, now),
		Sender:    sender,
		Recipient: recipient,
		Subject:   subject,
		Content:   content,
		Timestamp: NewLocalTime(now),
		Viewed:    false,
	}

	s.lock.Lock()
	s.emails[email.ID] = email
	s.lock.Unlock()

	level.Debug(s.logger).Log("msg", "email stored", "from", sender, "to", recipient, "id", email.ID)

	return email.ID, nil
}

// Received returns all emails addressed to supplied user,
// in an order stable across repeated calls.
func (s *EmailStore) Received(userEmail string) []Email {

	return s.scan(func(email Email) bool {
		return email.Recipient == userEmail
	})
}

// Sent returns all emails sent by supplied user, in an
// order stable across repeated calls.
func (s *EmailStore) Sent(userEmail string) []Email {

	return s.scan(func(email Email) bool {
		return email.Sender == userEmail
	})
}

// Search performs a case-insensitive substring match of
// supplied query against subject, counterpart address and
// the formatted timestamp of each email in the selected
// mailbox side. An empty result is a valid outcome.
func (s *EmailStore) Search(userEmail string, query string, scope Scope) []Email {

	needle := strings.ToLower(query)

	var mailbox []Email
	if scope == ScopeSent {
		mailbox = s.Sent(userEmail)
	} else {
		mailbox = s.Received(userEmail)
	}

	matches := make([]Email, 0, len(mailbox))

	for _, email := range mailbox {

		counterpart := email.Sender
		if scope == ScopeSent {
			counterpart = email.Recipient
		}

		if strings.Contains(strings.ToLower(email.Subject), needle) ||
			strings.Contains(strings.ToLower(counterpart), needle) ||
			strings.Contains(strings.ToLower(email.Timestamp.String()), needle) {
			matches = append(matches, email)
		}
	}

	return matches
}

// MarkViewed flips the viewed flag of supplied email ID to
// true. Marking an already viewed email succeeds silently,
// an unknown ID fails with ErrEmailNotFound.
func (s *EmailStore) MarkViewed(id string) error {

	s.lock.Lock()
	defer s.lock.Unlock()

	email, found := s.emails[id]
	if !found {
		return ErrEmailNotFound
	}

	email.Viewed = true
	s.emails[id] = email

	return nil
}

// Snapshot returns a full copy of the current table contents.
func (s *EmailStore) Snapshot() map[string]Email {

	s.lock.RLock()
	defer s.lock.RUnlock()

	snapshot := make(map[string]Email, len(s.emails))

	for id, email := range s.emails {
		snapshot[id] = email
	}

	return snapshot
}

// Restore fully replaces the table contents with supplied
// snapshot. Prior in-memory state is discarded, not merged.
func (s *EmailStore) Restore(snapshot map[string]Email) {

	s.lock.Lock()
	defer s.lock.Unlock()

	s.emails = make(map[string]Email, len(snapshot))

	for id, email := range snapshot {
		s.emails[id] = email
	}

	level.Info(s.logger).Log("msg", "email table restored", "emails", len(s.emails))
}

// scan collects all emails matching supplied predicate.
// The result is sorted by timestamp, then ID, so repeated
// calls without interleaved mutation agree on the order.
func (s *EmailStore) scan(match func(Email) bool) []Email {

	s.lock.RLock()

	result := make([]Email, 0, len(s.emails))

	for _, email := range s.emails {

		if match(email) {
			result = append(result, email)
		}
	}

	s.lock.RUnlock()

	sort.Slice(result, func(i, j int) bool {

		if !result[i].Timestamp.Equal(result[j].Timestamp.Time) {
			return result[i].Timestamp.Before(result[j].Timestamp.Time)
		}

		return result[i].ID < result[j].ID
	})

	return result
}

// emailID derives the deterministic record ID from the
// message fields and the creation instant in milliseconds.
// Collisions are treated as negligible.
func emailID(sender string, recipient string, subject string, content string, at time.Time) string {

	input := fmt.Sprintf("%s%s%s%s%d", sender, recipient, subject, content, at.UnixMilli())
	digest := sha256.Sum256([]byte(input))

	return hex.EncodeToString(digest[:])
}
