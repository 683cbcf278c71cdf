package distributor

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/go-voidmail/voidmail/protocol"
	"github.com/go-voidmail/voidmail/store"
)

// Constants

// internalErrMsg is the only detail unexpected failures
// leak to clients; full detail stays in the server log.
const internalErrMsg = "internal server error"

// Interfaces

// Users defines the user table operations the
// dispatcher executes commands against.
type Users interface {
	Register(firstName string, lastName string, email string, password string) error
	Login(email string, password string) error
	SetLoggedIn(email string, status bool)
	Exists(email string) bool
	Count() int
}

// Emails defines the email table operations the
// dispatcher executes commands against.
type Emails interface {
	Send(sender string, recipient string, subject string, content string) (string, error)
	Received(userEmail string) []store.Email
	Sent(userEmail string) []store.Email
	Search(userEmail string, query string, scope store.Scope) []store.Email
	MarkViewed(id string) error
}

// Service defines the command handlers a voidmail
// distributor provides. Each handler answers exactly
// one parsed request line and reports whether the
// connection to the client is still usable.
type Service interface {

	// Register handles the REGISTER command creating
	// a new user account.
	Register(c *Connection, req *protocol.Request) bool

	// Login handles the LOGIN command checking supplied
	// credentials and asserting the session flag.
	Login(c *Connection, req *protocol.Request) bool

	// SendEmail handles the SENDEMAIL command routing
	// an email between registered addresses.
	SendEmail(c *Connection, req *protocol.Request) bool

	// GetEmails handles the GETEMAILS command listing
	// a user's inbox or sent mailbox.
	GetEmails(c *Connection, req *protocol.Request) bool

	// MarkAsViewed handles the MARK_AS_VIEWED command
	// flipping an email's viewed flag.
	MarkAsViewed(c *Connection, req *protocol.Request) bool

	// Search handles the SEARCH_RECEIVED and SEARCH_SENT
	// commands matching a query against one mailbox side.
	Search(c *Connection, req *protocol.Request, scope store.Scope) bool
}

// Structs

type service struct {
	logger log.Logger
	users  Users
	emails Emails
}

// Distributor owns the accept loop and feeds each
// accepted connection into the supplied service,
// which may be wrapped in middleware.
type Distributor struct {
	logger  log.Logger
	service Service
}

// Functions

// NewService takes in the stores commands are executed
// against and returns the plain command handler service.
func NewService(logger log.Logger, users Users, emails Emails) Service {

	return &service{
		logger: logger,
		users:  users,
		emails: emails,
	}
}

// New returns a distributor dispatching accepted
// connections into supplied service.
func New(logger log.Logger, service Service) *Distributor {

	return &Distributor{
		logger:  logger,
		service: service,
	}
}

// Run loops over incoming requests and dispatches each
// accepted connection into its own goroutine. It returns
// nil when the listener was closed, which is the
// cooperative stop signal; already accepted connections
// drain on their own.
func (d *Distributor) Run(listener net.Listener) error {

	for {

		conn, err := listener.Accept()
		if err != nil {

			if errors.Is(err, net.ErrClosed) {
				level.Info(d.logger).Log("msg", "listener closed, no longer accepting connections")
				return nil
			}

			return fmt.Errorf("accepting incoming request failed with: %v", err)
		}

		go d.handleConnection(conn)
	}
}

// handleConnection runs the receive, dispatch, send loop
// for one client until the peer disconnects or the
// connection becomes unusable. A failure on one connection
// never affects any other.
func (d *Distributor) handleConnection(conn net.Conn) {

	c := NewConnection(conn)
	defer c.Conn.Close()

	for {

		rawReq, err := c.Receive()
		if err != nil {

			if err == io.EOF {
				level.Debug(d.logger).Log("msg", fmt.Sprintf("client at %s disconnected", c.ClientAddr))
			} else {
				level.Error(d.logger).Log(
					"msg", fmt.Sprintf("error while receiving text from client %s", c.ClientAddr),
					"err", err,
				)
			}

			return
		}

		if !d.dispatch(c, rawReq) {
			return
		}
	}
}

// dispatch parses one raw request line and routes it to
// the matching handler. A panic during execution is caught,
// logged, and answered with a generic failure so the
// connection loop survives.
func (d *Distributor) dispatch(c *Connection, rawReq string) (ok bool) {

	req := protocol.ParseRequest(rawReq)

	defer func() {

		if r := recover(); r != nil {

			level.Error(d.logger).Log(
				"msg", fmt.Sprintf("caught panic during execution of command %s", req.Command),
				"panic", fmt.Sprintf("%v", r),
			)

			ok = c.Send(protocol.Join(req.Command, protocol.RespFailure, internalErrMsg)) == nil
		}
	}()

	switch req.Command {

	case protocol.CmdRegister:
		return d.service.Register(c, req)

	case protocol.CmdLogin:
		return d.service.Login(c, req)

	case protocol.CmdSendEmail:
		return d.service.SendEmail(c, req)

	case protocol.CmdGetEmails:
		return d.service.GetEmails(c, req)

	case protocol.CmdMarkAsViewed:
		return d.service.MarkAsViewed(c, req)

	case protocol.CmdSearchReceived:
		return d.service.Search(c, req, store.ScopeReceived)

	case protocol.CmdSearchSent:
		return d.service.Search(c, req, store.ScopeSent)

	default:
		// Client sent a command outside the vocabulary.
		return d.answer(c, protocol.RespUnknownCommand)
	}
}

// answer writes a response line and folds a possible
// write error into the connection-usable boolean.
func (d *Distributor) answer(c *Connection, text string) bool {

	err := c.Send(text)
	if err != nil {
		level.Error(d.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// Register handles the REGISTER command. Expected fields:
// firstName, lastName, email, password.
func (s *service) Register(c *Connection, req *protocol.Request) bool {

	if len(req.Fields) != 4 {
		return s.answer(c, protocol.Join(protocol.CmdRegister, protocol.RespInvalidFormat))
	}

	err := s.users.Register(req.Fields[0], req.Fields[1], req.Fields[2], req.Fields[3])

	switch {

	case err == nil:
		return s.answer(c, protocol.Join(protocol.CmdRegister, protocol.RespSuccess))

	case isUserExists(err):
		return s.answer(c, protocol.Join(protocol.CmdRegister, protocol.RespUserAlreadyExists))

	case isInvalidDetails(err):
		return s.answer(c, protocol.Join(protocol.CmdRegister, protocol.RespInvalidDetails, err.Error()))

	default:
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("unexpected error during REGISTER for client %s", c.ClientAddr),
			"err", err,
		)
		return s.answer(c, protocol.Join(protocol.CmdRegister, protocol.RespFailure, internalErrMsg))
	}
}

// Login handles the LOGIN command. Expected fields: email,
// password. On success the session flag is asserted as a
// separate step, authentication itself does not touch it.
func (s *service) Login(c *Connection, req *protocol.Request) bool {

	if len(req.Fields) != 2 {
		return s.answer(c, protocol.Join(protocol.CmdLogin, protocol.RespInvalidFormat))
	}

	err := s.users.Login(req.Fields[0], req.Fields[1])

	switch {

	case err == nil:
		s.users.SetLoggedIn(req.Fields[0], true)
		return s.answer(c, protocol.Join(protocol.CmdLogin, protocol.RespSuccess))

	case isUnknownUser(err):
		return s.answer(c, protocol.Join(protocol.CmdLogin, protocol.RespNoUser))

	case isInvalidCredentials(err):
		return s.answer(c, protocol.Join(protocol.CmdLogin, protocol.RespInvalidCredentials))

	default:
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("unexpected error during LOGIN for client %s", c.ClientAddr),
			"err", err,
		)
		return s.answer(c, protocol.Join(protocol.CmdLogin, protocol.RespFailure, internalErrMsg))
	}
}

// SendEmail handles the SENDEMAIL command. Expected fields:
// sender, recipient, subject, content.
func (s *service) SendEmail(c *Connection, req *protocol.Request) bool {

	if len(req.Fields) != 4 {
		return s.answer(c, protocol.Join(protocol.CmdSendEmail, protocol.RespInvalidFormat))
	}

	id, err := s.emails.Send(req.Fields[0], req.Fields[1], req.Fields[2], req.Fields[3])

	switch {

	case err == nil:
		return s.answer(c, protocol.Join(protocol.CmdSendEmail, protocol.RespSuccess, id))

	case isUnknownUser(err):
		return s.answer(c, protocol.Join(protocol.CmdSendEmail, protocol.RespRecipientNotFound))

	case isInvalidDetails(err):
		return s.answer(c, protocol.Join(protocol.CmdSendEmail, protocol.RespInvalidDetails, err.Error()))

	default:
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("unexpected error during SENDEMAIL for client %s", c.ClientAddr),
			"err", err,
		)
		return s.answer(c, protocol.Join(protocol.CmdSendEmail, protocol.RespFailure, internalErrMsg))
	}
}

// GetEmails handles the GETEMAILS command. Expected fields:
// email and an optional INBOX or SENT scope selector, with
// INBOX being the default.
func (s *service) GetEmails(c *Connection, req *protocol.Request) bool {

	if (len(req.Fields) < 1) || (len(req.Fields) > 2) {
		return s.answer(c, protocol.Join(protocol.CmdGetEmails, protocol.RespInvalidFormat))
	}

	userEmail := req.Fields[0]

	scope := store.ScopeReceived
	if len(req.Fields) == 2 {

		switch req.Fields[1] {
		case protocol.ScopeInbox:
			scope = store.ScopeReceived
		case protocol.ScopeSent:
			scope = store.ScopeSent
		default:
			return s.answer(c, protocol.Join(protocol.CmdGetEmails, protocol.RespInvalidFormat))
		}
	}

	// Mirror the send validation mode: while the user table
	// is non-empty, an unknown mailbox owner is an error.
	if (s.users.Count() > 0) && !s.users.Exists(userEmail) {
		return s.answer(c, protocol.Join(protocol.CmdGetEmails, protocol.RespNoUser))
	}

	var mailbox []store.Email
	if scope == store.ScopeSent {
		mailbox = s.emails.Sent(userEmail)
	} else {
		mailbox = s.emails.Received(userEmail)
	}

	if len(mailbox) == 0 {
		return s.answer(c, protocol.Join(protocol.CmdGetEmails, protocol.RespSuccess, protocol.RespNoEmails))
	}

	fields := []string{protocol.CmdGetEmails, protocol.RespSuccess}

	for _, email := range mailbox {

		counterpart := email.Sender
		if scope == store.ScopeSent {
			counterpart = email.Recipient
		}

		fields = append(fields,
			email.ID,
			counterpart,
			email.Subject,
			email.Content,
			email.Timestamp.String(),
			strconv.FormatBool(email.Viewed),
		)
	}

	return s.answer(c, protocol.Join(fields...))
}

// MarkAsViewed handles the MARK_AS_VIEWED command. Expected
// field: the email ID. Marking twice is not an error.
func (s *service) MarkAsViewed(c *Connection, req *protocol.Request) bool {

	if len(req.Fields) != 1 {
		return s.answer(c, protocol.Join(protocol.CmdMarkAsViewed, protocol.RespInvalidFormat))
	}

	err := s.emails.MarkViewed(req.Fields[0])

	switch {

	case err == nil:
		return s.answer(c, protocol.Join(protocol.CmdMarkAsViewed, protocol.RespSuccess))

	case isEmailNotFound(err):
		return s.answer(c, protocol.Join(protocol.CmdMarkAsViewed, protocol.RespFailure, err.Error()))

	default:
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("unexpected error during MARK_AS_VIEWED for client %s", c.ClientAddr),
			"err", err,
		)
		return s.answer(c, protocol.Join(protocol.CmdMarkAsViewed, protocol.RespFailure, internalErrMsg))
	}
}

// Search handles the SEARCH_RECEIVED and SEARCH_SENT
// commands. Expected fields: email, query. A result group
// consists of ID, counterpart address, subject, timestamp
// and viewed flag; no match is answered with NO_EMAILS,
// which is a valid outcome rather than an error.
func (s *service) Search(c *Connection, req *protocol.Request, scope store.Scope) bool {

	if len(req.Fields) != 2 {
		return s.answer(c, protocol.Join(req.Command, protocol.RespInvalidFormat))
	}

	matches := s.emails.Search(req.Fields[0], req.Fields[1], scope)

	if len(matches) == 0 {
		return s.answer(c, protocol.Join(req.Command, protocol.RespSuccess, protocol.RespNoEmails))
	}

	fields := []string{req.Command, protocol.RespSuccess}

	for _, email := range matches {

		counterpart := email.Sender
		if scope == store.ScopeSent {
			counterpart = email.Recipient
		}

		fields = append(fields,
			email.ID,
			counterpart,
			email.Subject,
			email.Timestamp.String(),
			strconv.FormatBool(email.Viewed),
		)
	}

	return s.answer(c, protocol.Join(fields...))
}

// answer writes a response line and folds a possible
// write error into the connection-usable boolean.
func (s *service) answer(c *Connection, text string) bool {

	err := c.Send(text)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}
