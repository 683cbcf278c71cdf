package storage

import (
	"os"
	"testing"
	"time"

	"path/filepath"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/go-voidmail/voidmail/store"
)

// Functions

func testGateway(t *testing.T) *Gateway {
	return NewGateway(t.TempDir(), "users.json", "emails.json")
}

// TestEnsureLocations checks that a first run creates
// both documents initialized to an empty table.
func TestEnsureLocations(t *testing.T) {

	g := NewGateway(filepath.Join(t.TempDir(), "data"), "users.json", "emails.json")

	err := g.EnsureLocations()
	assert.Nil(t, err)

	data, err := os.ReadFile(g.UsersLoc)
	assert.Nil(t, err)
	assert.Equal(t, "{}", string(data))

	data, err = os.ReadFile(g.EmailsLoc)
	assert.Nil(t, err)
	assert.Equal(t, "{}", string(data))

	// A second run must not disturb existing files.
	err = os.WriteFile(g.UsersLoc, []byte(`{"x":{}}`), 0644)
	assert.Nil(t, err)

	err = g.EnsureLocations()
	assert.Nil(t, err)

	data, err = os.ReadFile(g.UsersLoc)
	assert.Nil(t, err)
	assert.Equal(t, `{"x":{}}`, string(data))
}

// TestSaveLoadUsers checks the round-trip property of
// the users document.
func TestSaveLoadUsers(t *testing.T) {

	g := testGateway(t)

	users := map[string]store.User{
		"alice@voidmail.com": {
			ID:             uuid.New(),
			FirstName:      "Alice",
			LastName:       "Smith",
			Email:          "alice@voidmail.com",
			HashedPassword: "digest",
			Salt:           "salt",
			LoggedIn:       true,
		},
	}

	err := g.SaveUsers(users)
	assert.Nil(t, err)

	loaded, err := g.LoadUsers()
	assert.Nil(t, err)
	assert.Equal(t, users, loaded)
}

// TestSaveLoadEmails checks the round-trip property of
// the emails document including the timestamp form.
func TestSaveLoadEmails(t *testing.T) {

	g := testGateway(t)

	at := store.NewLocalTime(time.Date(2025, 6, 1, 12, 30, 15, 0, time.Local))

	emails := map[string]store.Email{
		"abc123": {
			ID:        "abc123",
			Sender:    "alice@voidmail.com",
			Recipient: "bob@voidmail.com",
			Subject:   "Hi",
			Content:   "Hello",
			Timestamp: at,
			Viewed:    false,
		},
	}

	err := g.SaveEmails(emails)
	assert.Nil(t, err)

	loaded, err := g.LoadEmails()
	assert.Nil(t, err)
	assert.Equal(t, emails, loaded)
	assert.Equal(t, "2025-06-01T12:30:15", loaded["abc123"].Timestamp.String())
}

// TestLoadLenient checks that missing, empty, and
// malformed documents all yield an empty table.
func TestLoadLenient(t *testing.T) {

	g := testGateway(t)

	// Missing files.
	users, err := g.LoadUsers()
	assert.Nil(t, err)
	assert.Len(t, users, 0)

	emails, err := g.LoadEmails()
	assert.Nil(t, err)
	assert.Len(t, emails, 0)

	// Empty files.
	assert.Nil(t, os.WriteFile(g.UsersLoc, []byte("  \n"), 0644))
	users, err = g.LoadUsers()
	assert.Nil(t, err)
	assert.Len(t, users, 0)

	// Malformed files.
	assert.Nil(t, os.WriteFile(g.EmailsLoc, []byte("not json at all"), 0644))
	emails, err = g.LoadEmails()
	assert.Nil(t, err)
	assert.Len(t, emails, 0)
}

// TestClear checks that clearing overwrites the documents
// with an empty table without touching anything else.
func TestClear(t *testing.T) {

	g := testGateway(t)

	err := g.SaveAll(
		map[string]store.User{"alice@voidmail.com": {Email: "alice@voidmail.com"}},
		map[string]store.Email{"abc": {ID: "abc"}},
	)
	assert.Nil(t, err)

	err = g.ClearAll()
	assert.Nil(t, err)

	data, err := os.ReadFile(g.UsersLoc)
	assert.Nil(t, err)
	assert.Equal(t, "{}", string(data))

	data, err = os.ReadFile(g.EmailsLoc)
	assert.Nil(t, err)
	assert.Equal(t, "{}", string(data))

	users, err := g.LoadUsers()
	assert.Nil(t, err)
	assert.Len(t, users, 0)
}

// TestSaveAllPartialFailure checks that a failure on the
// second document is surfaced instead of hidden.
func TestSaveAllPartialFailure(t *testing.T) {

	dir := t.TempDir()
	g := NewGateway(dir, "users.json", "emails.json")

	// Make the emails location unwritable by turning
	// it into a directory.
	assert.Nil(t, os.Mkdir(g.EmailsLoc, 0755))

	err := g.SaveAll(
		map[string]store.User{"alice@voidmail.com": {Email: "alice@voidmail.com"}},
		map[string]store.Email{"abc": {ID: "abc"}},
	)
	assert.NotNil(t, err)

	// The users document was still written.
	users, err := g.LoadUsers()
	assert.Nil(t, err)
	assert.Len(t, users, 1)
}
