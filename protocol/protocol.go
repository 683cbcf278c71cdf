package protocol

import (
	"strings"
)

// Constants

// Sep is the fixed token joining fields within
// one request or response line on the wire.
const Sep = "##"

// Command names understood by the server. Matching
// is case-insensitive, responses always echo the
// canonical upper-case form.
const (
	CmdRegister       = "REGISTER"
	CmdLogin          = "LOGIN"
	CmdSendEmail      = "SENDEMAIL"
	CmdGetEmails      = "GETEMAILS"
	CmdMarkAsViewed   = "MARK_AS_VIEWED"
	CmdSearchReceived = "SEARCH_RECEIVED"
	CmdSearchSent     = "SEARCH_SENT"
)

// Response codes sent back to clients.
const (
	RespSuccess            = "SUCCESS"
	RespFailure            = "FAILURE"
	RespInvalidFormat      = "INVALID_FORMAT"
	RespInvalidDetails     = "INVALID_DETAILS"
	RespUserAlreadyExists  = "USER_ALREADY_EXISTS"
	RespNoUser             = "NO_USER"
	RespInvalidCredentials = "INVALID_CREDENTIALS"
	RespRecipientNotFound  = "RECIPIENT_NOT_FOUND"
	RespNoEmails           = "NO_EMAILS"
	RespUnknownCommand     = "UNKNOWN_COMMAND"
)

// Mailbox scope selectors accepted by GETEMAILS.
const (
	ScopeInbox = "INBOX"
	ScopeSent  = "SENT"
)

// Structs

// Request represents one parsed client request line.
// Command holds the canonical upper-case command name,
// Fields the remaining tokens in wire order.
type Request struct {
	Command string
	Fields  []string
}

// Functions

// Join concatenates the supplied fields with the
// wire separator into one response line.
func Join(fields ...string) string {
	return strings.Join(fields, Sep)
}

// ParseRequest splits a raw request line on the wire
// separator into the command name and its fields. An
// empty or all-whitespace line yields a Request with
// an empty command name, which no command matches.
func ParseRequest(raw string) *Request {

	parts := strings.Split(strings.TrimSpace(raw), Sep)

	return &Request{
		Command: strings.ToUpper(parts[0]),
		Fields:  parts[1:],
	}
}
