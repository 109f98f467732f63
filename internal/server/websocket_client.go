package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// WebSocketClient reads requests from and writes responses to one
// websocket connection. Only the connection's handler goroutine uses it.
type WebSocketClient struct {
	conn *websocket.Conn
}

// NewWebSocketClient wraps a websocket connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// errMalformed wraps a request that could not be decoded; the connection stays usable.
type errMalformed struct{ err error }

func (e errMalformed) Error() string { return fmt.Sprintf("malformed request: %v", e.err) }
func (e errMalformed) Unwrap() error { return e.err }

// ReadRequest blocks until the next request arrives. Blank messages are skipped.
// Decoding failures return errMalformed; any other error means the connection is gone.
func (c *WebSocketClient) ReadRequest() (Request, error) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return Request{}, err
		}

		message = bytes.TrimSpace(message)
		if len(message) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			return Request{}, errMalformed{err}
		}
		return req, nil
	}
}

// WriteResponse sends resp as a JSON text message.
func (c *WebSocketClient) WriteResponse(resp Response) error {
	return c.conn.WriteJSON(resp)
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
