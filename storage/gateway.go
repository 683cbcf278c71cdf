package storage

import (
	"os"
	"strings"

	"encoding/json"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/go-voidmail/voidmail/store"
)

// Constants

const (
	// emptyDocument is what cleared and
	// freshly created files contain.
	emptyDocument = "{}"

	fileMode = 0644
	dirMode  = 0755
)

// Structs

// Gateway bundles the on-disk locations of the
// users and emails JSON documents.
type Gateway struct {
	UsersLoc  string
	EmailsLoc string
}

// Functions

// NewGateway returns a gateway writing to supplied file
// names inside supplied data directory.
func NewGateway(dataDir string, usersFile string, emailsFile string) *Gateway {

	return &Gateway{
		UsersLoc:  filepath.Join(dataDir, usersFile),
		EmailsLoc: filepath.Join(dataDir, emailsFile),
	}
}

// EnsureLocations creates the data directory and initializes
// missing document files with an empty document, so a first
// run starts from a well-formed state.
func (g *Gateway) EnsureLocations() error {

	err := os.MkdirAll(filepath.Dir(g.UsersLoc), dirMode)
	if err != nil {
		return errors.Wrap(err, "failed to create data directory")
	}

	err = os.MkdirAll(filepath.Dir(g.EmailsLoc), dirMode)
	if err != nil {
		return errors.Wrap(err, "failed to create data directory")
	}

	for _, loc := range []string{g.UsersLoc, g.EmailsLoc} {

		_, err := os.Stat(loc)
		if os.IsNotExist(err) {

			err = os.WriteFile(loc, []byte(emptyDocument), fileMode)
			if err != nil {
				return errors.Wrapf(err, "failed to initialize %s", loc)
			}
		} else if err != nil {
			return errors.Wrapf(err, "failed to stat %s", loc)
		}
	}

	return nil
}

// SaveUsers serializes supplied user table snapshot
// to the users document.
func (g *Gateway) SaveUsers(users map[string]store.User) error {

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize user table")
	}

	err = os.WriteFile(g.UsersLoc, data, fileMode)
	if err != nil {
		return errors.Wrapf(err, "failed to save users to %s", g.UsersLoc)
	}

	return nil
}

// SaveEmails serializes supplied email table snapshot
// to the emails document.
func (g *Gateway) SaveEmails(emails map[string]store.Email) error {

	data, err := json.MarshalIndent(emails, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize email table")
	}

	err = os.WriteFile(g.EmailsLoc, data, fileMode)
	if err != nil {
		return errors.Wrapf(err, "failed to save emails to %s", g.EmailsLoc)
	}

	return nil
}

// SaveAll writes both snapshots in sequence. There is no
// cross-file transaction: a failure after the first write
// leaves the documents out of step and is surfaced to the
// caller rather than hidden.
func (g *Gateway) SaveAll(users map[string]store.User, emails map[string]store.Email) error {

	err := g.SaveUsers(users)
	if err != nil {
		return err
	}

	return g.SaveEmails(emails)
}

// LoadUsers deserializes the users document. A missing,
// empty, or malformed file yields an empty table, only a
// genuine I/O failure is returned as an error.
func (g *Gateway) LoadUsers() (map[string]store.User, error) {

	users := make(map[string]store.User)

	data, err := os.ReadFile(g.UsersLoc)
	if os.IsNotExist(err) {
		return users, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load users from %s", g.UsersLoc)
	}

	if strings.TrimSpace(string(data)) == "" {
		return users, nil
	}

	err = json.Unmarshal(data, &users)
	if err != nil {
		// Malformed content counts as an empty table.
		return make(map[string]store.User), nil
	}

	return users, nil
}

// LoadEmails deserializes the emails document under the
// same contract as LoadUsers.
func (g *Gateway) LoadEmails() (map[string]store.Email, error) {

	emails := make(map[string]store.Email)

	data, err := os.ReadFile(g.EmailsLoc)
	if os.IsNotExist(err) {
		return emails, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load emails from %s", g.EmailsLoc)
	}

	if strings.TrimSpace(string(data)) == "" {
		return emails, nil
	}

	err = json.Unmarshal(data, &emails)
	if err != nil {
		return make(map[string]store.Email), nil
	}

	return emails, nil
}

// ClearUsers overwrites the users document with an empty
// document. In-memory tables are not touched.
func (g *Gateway) ClearUsers() error {

	err := os.WriteFile(g.UsersLoc, []byte(emptyDocument), fileMode)
	if err != nil {
		return errors.Wrapf(err, "failed to clear users in %s", g.UsersLoc)
	}

	return nil
}

// ClearEmails overwrites the emails document with an
// empty document. In-memory tables are not touched.
func (g *Gateway) ClearEmails() error {

	err := os.WriteFile(g.EmailsLoc, []byte(emptyDocument), fileMode)
	if err != nil {
		return errors.Wrapf(err, "failed to clear emails in %s", g.EmailsLoc)
	}

	return nil
}

// ClearAll clears both documents.
func (g *Gateway) ClearAll() error {

	err := g.ClearUsers()
	if err != nil {
		return err
	}

	return g.ClearEmails()
}
