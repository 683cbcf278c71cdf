package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Functions

// TestParseRequest checks tokenization, case folding
// of the command name, and degenerate input lines.
func TestParseRequest(t *testing.T) {

	req := ParseRequest("REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, CmdRegister, req.Command)
	assert.Equal(t, []string{"Alice", "Smith", "alice@voidmail.com", "Secret1!"}, req.Fields)

	// Command matching is case-insensitive.
	req = ParseRequest("login##alice@voidmail.com##Secret1!")
	assert.Equal(t, CmdLogin, req.Command)
	assert.Len(t, req.Fields, 2)

	// Trailing line break symbols are client noise.
	req = ParseRequest("GETEMAILS##bob@voidmail.com\r")
	assert.Equal(t, CmdGetEmails, req.Command)
	assert.Equal(t, []string{"bob@voidmail.com"}, req.Fields)

	// An empty line matches no command.
	req = ParseRequest("")
	assert.Equal(t, "", req.Command)
	assert.Len(t, req.Fields, 0)
}

// TestJoin checks response line assembly.
func TestJoin(t *testing.T) {

	assert.Equal(t, "REGISTER##SUCCESS", Join(CmdRegister, RespSuccess))
	assert.Equal(t, "UNKNOWN_COMMAND", Join(RespUnknownCommand))
}
