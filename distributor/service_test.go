package distributor_test

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"

	"github.com/go-voidmail/voidmail/distributor"
	"github.com/go-voidmail/voidmail/protocol"
	"github.com/go-voidmail/voidmail/store"
)

// Structs

// testClient drives a voidmail server over a live
// TCP connection during tests.
type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Functions

// startServer boots a complete distributor on an
// ephemeral port and returns its address together
// with the backing stores.
func startServer(t *testing.T) (string, *store.UserStore, *store.EmailStore) {

	logger := log.NewNopLogger()

	users := store.NewUserStore(logger)
	emails := store.NewEmailStore(logger, users)

	service := distributor.NewService(logger, users, emails)
	distr := distributor.New(logger, service)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("expected listening on ephemeral port to work but failed with: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() { _ = distr.Run(listener) }()

	return listener.Addr().String(), users, emails
}

// dial connects a test client to supplied address.
func dial(t *testing.T, addr string) *testClient {

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("expected dialling test server to work but failed with: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &testClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// roundTrip sends one request line and returns the
// received response line.
func (c *testClient) roundTrip(t *testing.T, request string) string {

	_, err := c.conn.Write([]byte(request + "\n"))
	if err != nil {
		t.Fatalf("expected request write to work but failed with: %v", err)
	}

	response, err := c.reader.ReadString('\n')
	if err != nil {
		t.Fatalf("expected response read to work but failed with: %v", err)
	}

	return strings.TrimRight(response, "\r\n")
}

// TestEndToEndScenario walks the full register, login,
// send, list pipeline over one live connection.
func TestEndToEndScenario(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "REGISTER##Bob##Jones##bob@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "LOGIN##alice@voidmail.com##Secret1!")
	assert.Equal(t, "LOGIN##SUCCESS", resp)

	resp = client.roundTrip(t, "SENDEMAIL##alice@voidmail.com##bob@voidmail.com##Hi##Hello")
	parts := strings.Split(resp, protocol.Sep)
	assert.Len(t, parts, 3)
	assert.Equal(t, "SENDEMAIL", parts[0])
	assert.Equal(t, "SUCCESS", parts[1])
	assert.Regexp(t, "^[a-f0-9]{64}$", parts[2])

	resp = client.roundTrip(t, "GETEMAILS##bob@voidmail.com##INBOX")
	parts = strings.Split(resp, protocol.Sep)
	assert.Len(t, parts, 8)
	assert.Equal(t, []string{"GETEMAILS", "SUCCESS"}, parts[:2])
	assert.Equal(t, "alice@voidmail.com", parts[3])
	assert.Equal(t, "Hi", parts[4])
	assert.Equal(t, "Hello", parts[5])
	assert.Equal(t, "false", parts[7])

	// Mark the delivered email as viewed, twice.
	emailID := parts[2]
	resp = client.roundTrip(t, "MARK_AS_VIEWED##"+emailID)
	assert.Equal(t, "MARK_AS_VIEWED##SUCCESS", resp)

	resp = client.roundTrip(t, "MARK_AS_VIEWED##"+emailID)
	assert.Equal(t, "MARK_AS_VIEWED##SUCCESS", resp)

	resp = client.roundTrip(t, "GETEMAILS##bob@voidmail.com##INBOX")
	assert.True(t, strings.HasSuffix(resp, "##true"))
}

// TestRegisterErrors checks the duplicate and invalid
// details outcomes on the wire.
func TestRegisterErrors(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##USER_ALREADY_EXISTS", resp)

	resp = client.roundTrip(t, "REGISTER##Alice##Smith##alice@elsewhere.org##Secret1!")
	assert.True(t, strings.HasPrefix(resp, "REGISTER##INVALID_DETAILS##"))

	resp = client.roundTrip(t, "REGISTER##too##few")
	assert.Equal(t, "REGISTER##INVALID_FORMAT", resp)
}

// TestLoginErrors checks the unknown user and wrong
// password outcomes on the wire.
func TestLoginErrors(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "LOGIN##ghost@voidmail.com##Secret1!")
	assert.Equal(t, "LOGIN##NO_USER", resp)

	resp = client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "LOGIN##alice@voidmail.com##WrongSecret1!")
	assert.Equal(t, "LOGIN##INVALID_CREDENTIALS", resp)

	resp = client.roundTrip(t, "LOGIN##alice@voidmail.com")
	assert.Equal(t, "LOGIN##INVALID_FORMAT", resp)
}

// TestSendEmailErrors checks the recipient and field
// validation outcomes on the wire.
func TestSendEmailErrors(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "SENDEMAIL##alice@voidmail.com##ghost@voidmail.com##Hi##Hello")
	assert.Equal(t, "SENDEMAIL##RECIPIENT_NOT_FOUND", resp)

	resp = client.roundTrip(t, "SENDEMAIL##alice@voidmail.com##alice@voidmail.com##Hi")
	assert.Equal(t, "SENDEMAIL##INVALID_FORMAT", resp)

	resp = client.roundTrip(t, "SENDEMAIL##alice@voidmail.com##alice@voidmail.com####Hello")
	assert.True(t, strings.HasPrefix(resp, "SENDEMAIL##INVALID_DETAILS##"))
}

// TestGetEmails checks the empty mailbox, unknown user,
// scope selection and format outcomes on the wire.
func TestGetEmails(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "GETEMAILS##alice@voidmail.com")
	assert.Equal(t, "GETEMAILS##SUCCESS##NO_EMAILS", resp)

	resp = client.roundTrip(t, "GETEMAILS##ghost@voidmail.com")
	assert.Equal(t, "GETEMAILS##NO_USER", resp)

	resp = client.roundTrip(t, "GETEMAILS##alice@voidmail.com##OUTBOX")
	assert.Equal(t, "GETEMAILS##INVALID_FORMAT", resp)

	resp = client.roundTrip(t, "SENDEMAIL##alice@voidmail.com##alice@voidmail.com##Note##To self")
	assert.True(t, strings.HasPrefix(resp, "SENDEMAIL##SUCCESS##"))

	resp = client.roundTrip(t, "GETEMAILS##alice@voidmail.com##SENT")
	parts := strings.Split(resp, protocol.Sep)
	assert.Len(t, parts, 8)

	// SENT lists the counterpart, here the recipient.
	assert.Equal(t, "alice@voidmail.com", parts[3])
	assert.Equal(t, "Note", parts[4])
}

// TestSearchCommands checks both search scopes and the
// five-field result group layout on the wire.
func TestSearchCommands(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "REGISTER##Bob##Jones##bob@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)

	resp = client.roundTrip(t, "SENDEMAIL##alice@voidmail.com##bob@voidmail.com##Weekly Report##Numbers attached")
	assert.True(t, strings.HasPrefix(resp, "SENDEMAIL##SUCCESS##"))

	resp = client.roundTrip(t, "SEARCH_RECEIVED##bob@voidmail.com##weekly")
	parts := strings.Split(resp, protocol.Sep)
	assert.Len(t, parts, 7)
	assert.Equal(t, []string{"SEARCH_RECEIVED", "SUCCESS"}, parts[:2])
	assert.Equal(t, "alice@voidmail.com", parts[3])
	assert.Equal(t, "Weekly Report", parts[4])
	assert.Equal(t, "false", parts[6])

	resp = client.roundTrip(t, "SEARCH_SENT##alice@voidmail.com##weekly")
	parts = strings.Split(resp, protocol.Sep)
	assert.Len(t, parts, 7)
	assert.Equal(t, "bob@voidmail.com", parts[3])

	resp = client.roundTrip(t, "SEARCH_SENT##alice@voidmail.com##no-such-text")
	assert.Equal(t, "SEARCH_SENT##SUCCESS##NO_EMAILS", resp)

	resp = client.roundTrip(t, "SEARCH_SENT##alice@voidmail.com")
	assert.Equal(t, "SEARCH_SENT##INVALID_FORMAT", resp)
}

// TestMarkAsViewedErrors checks the unknown ID and
// format outcomes on the wire.
func TestMarkAsViewedErrors(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "MARK_AS_VIEWED##no-such-id")
	assert.True(t, strings.HasPrefix(resp, "MARK_AS_VIEWED##FAILURE##"))

	resp = client.roundTrip(t, "MARK_AS_VIEWED##a##b")
	assert.Equal(t, "MARK_AS_VIEWED##INVALID_FORMAT", resp)
}

// TestUnknownCommand checks that text outside the command
// vocabulary is answered with exactly UNKNOWN_COMMAND and
// that the connection survives it.
func TestUnknownCommand(t *testing.T) {

	addr, _, _ := startServer(t)
	client := dial(t, addr)

	resp := client.roundTrip(t, "FOO##bar")
	assert.Equal(t, "UNKNOWN_COMMAND", resp)

	resp = client.roundTrip(t, "")
	assert.Equal(t, "UNKNOWN_COMMAND", resp)

	// The loop keeps serving after unknown input.
	resp = client.roundTrip(t, "REGISTER##Alice##Smith##alice@voidmail.com##Secret1!")
	assert.Equal(t, "REGISTER##SUCCESS", resp)
}

// TestConcurrentClients checks that independent
// connections are served in parallel without
// interfering with each other.
func TestConcurrentClients(t *testing.T) {

	addr, users, _ := startServer(t)

	done := make(chan bool, 8)

	for i := 0; i < 8; i++ {

		go func(n int) {

			conn, err := net.DialTimeout("tcp", addr, time.Second)
			if err != nil {
				done <- false
				return
			}
			defer conn.Close()

			address := "client" + string(rune('a'+n)) + "@voidmail.com"
			request := protocol.Join("REGISTER", "Alice", "Smith", address, "Secret1!")

			_, err = conn.Write([]byte(request + "\n"))
			if err != nil {
				done <- false
				return
			}

			resp, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				done <- false
				return
			}

			done <- (strings.TrimRight(resp, "\r\n") == "REGISTER##SUCCESS")
		}(i)
	}

	for i := 0; i < 8; i++ {
		assert.True(t, <-done)
	}

	assert.Equal(t, 8, users.Count())
}

// TestRunStopsOnClosedListener checks the cooperative
// stop contract of the accept loop.
func TestRunStopsOnClosedListener(t *testing.T) {

	logger := log.NewNopLogger()

	users := store.NewUserStore(logger)
	emails := store.NewEmailStore(logger, users)
	distr := distributor.New(logger, distributor.NewService(logger, users, emails))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err)

	errc := make(chan error, 1)
	go func() { errc <- distr.Run(listener) }()

	time.Sleep(100 * time.Millisecond)
	listener.Close()

	select {
	case err := <-errc:
		assert.Nil(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected Run to return after the listener was closed")
	}
}
