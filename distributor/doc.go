/*
Package distributor implements the public-facing part of a voidmail server: the
acceptor owning the listening socket and the per-connection dispatch loop that
reads one request line, executes it against the stores, and writes one response
line back until the peer disconnects.

Handler functions return a boolean indicating whether communication with the
connected client still works, not whether the command itself succeeded. A
domain error such as a duplicate registration is answered with its specific
wire code and the handler returns true; only a failure to write the response
back to the client returns false and terminates that connection's loop.
*/
package distributor
