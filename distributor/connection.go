package distributor

import (
	"bufio"
	"fmt"
	"net"
	"strings"
)

// Structs

// Connection carries all information specific to one
// observed client connection on its way through the
// receive, dispatch, send loop.
type Connection struct {
	Conn       net.Conn
	Reader     *bufio.Reader
	ClientAddr string
}

// Functions

// NewConnection wraps an accepted socket into
// the connection structure used by the handlers.
func NewConnection(conn net.Conn) *Connection {

	return &Connection{
		Conn:       conn,
		Reader:     bufio.NewReader(conn),
		ClientAddr: conn.RemoteAddr().String(),
	}
}

// Send writes a response line terminated by a newline
// symbol to the connection to the client. In case an
// error occurs, this method returns it to the calling
// function.
func (c *Connection) Send(text string) error {

	_, err := fmt.Fprintf(c.Conn, "%s\n", text)
	if err != nil {
		return err
	}

	return nil
}

// Receive awaits text until the next newline symbol
// and deletes the line break symbols afterwards again.
// It returns the resulting string or an error.
func (c *Connection) Receive() (string, error) {

	text, err := c.Reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(text, "\r\n"), nil
}
