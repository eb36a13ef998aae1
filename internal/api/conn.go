// Package api implements the WebSocket request/response channel to the
// rescue dispatch API. One persistent connection carries concurrent calls;
// replies arrive out of order and are matched back to their request by a
// correlation id minted per call.
package api

import (
	"context"

	"github.com/coder/websocket"
)

// Conn defines the interface for a WebSocket connection.
// This abstraction enables testing with mock connections.
type Conn interface {
	// Read reads a message from the connection.
	// Returns message type, payload, and any error.
	Read(ctx context.Context) (websocket.MessageType, []byte, error)

	// Write writes a message to the connection.
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error

	// Close closes the connection with a status code and reason.
	Close(code websocket.StatusCode, reason string) error
}

// DialFunc opens a WebSocket connection to the given URL.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// dialWebsocket is the default DialFunc.
func dialWebsocket(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
