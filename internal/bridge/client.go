package bridge

import (
	"bufio"
	"encoding/json"
	"net"
)

// notRunningError is the sentinel text spec.md §6 mandates for the
// absent-socket case — a string, not a typed error, since it is itself
// part of the wire Response.
const notRunningError = "not running"

// Call dials socketPath, sends a single request, and returns its
// response. If the socket does not exist or refuses the connection,
// Call returns a synthetic {success:false, error:"not running"}
// Response rather than a Go error, matching the bridge contract.
func Call(socketPath, command string, params json.RawMessage, requestID int64) (*Response, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return &Response{Success: false, Error: notRunningError, RequestID: requestID}, nil
	}
	defer conn.Close()

	req := Request{Command: command, Params: params, RequestID: requestID}
	if err := writeFrame(conn, req); err != nil {
		return nil, err
	}

	var resp Response
	if err := readFrame(bufio.NewReader(conn), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
