package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultReplyTimeout bounds the wait for a correlated reply. The wire
// protocol's historical budget is 600 ticks of 10ms.
const DefaultReplyTimeout = 6 * time.Second

// State represents the connection state of a Client.
type State int

const (
	// StateDisconnected indicates no connection is open.
	StateDisconnected State = iota
	// StateConnected indicates an open connection with a running dispatch loop.
	StateConnected
)

// String returns a human-readable name for the connection state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Config holds the connection parameters for a Client.
type Config struct {
	// Hostname of the API server, without a scheme.
	Hostname string
	// Token is an optional bearer token appended as a query parameter.
	Token string
	// Plaintext selects ws:// instead of wss://.
	Plaintext bool
	// Version is the API version this client declares. The server's hello
	// must advertise the same version or Connect fails.
	Version string
	// ReplyTimeout bounds each call's wait for its reply.
	// Defaults to DefaultReplyTimeout.
	ReplyTimeout time.Duration
	// Logger receives dispatch-loop and lifecycle events.
	// Defaults to a no-op logger.
	Logger *zerolog.Logger
	// Dial opens the WebSocket connection. Defaults to a real dial;
	// tests inject mock connections here.
	Dial DialFunc
}

// Client owns one WebSocket connection and the dispatch loop that routes
// inbound frames to waiting callers. Safe for concurrent use; calls in
// flight never block each other's send or wait.
type Client struct {
	mu        sync.Mutex // guards connection state and parameters
	hostname  string
	token     string
	plaintext bool
	conn      Conn
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}

	writeMu sync.Mutex // serializes socket writes

	version      string
	replyTimeout time.Duration
	dial         DialFunc
	log          zerolog.Logger

	table *table
}

// New creates a Client from cfg. The client starts disconnected.
func New(cfg Config) *Client {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultReplyTimeout
	}
	if cfg.Dial == nil {
		cfg.Dial = dialWebsocket
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Client{
		hostname:     cfg.Hostname,
		token:        cfg.Token,
		plaintext:    cfg.Plaintext,
		version:      cfg.Version,
		replyTimeout: cfg.ReplyTimeout,
		dial:         cfg.Dial,
		log:          log,
		table:        newTable(),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return StateConnected
	}
	return StateDisconnected
}

// Version returns the API version this client declares.
func (c *Client) Version() string { return c.version }

// url builds the connection target from the hostname, the transport
// security flag, and the optional bearer token.
func (c *Client) url() string {
	scheme := "wss"
	if c.plaintext {
		scheme = "ws"
	}
	u := url.URL{Scheme: scheme, Host: c.hostname}
	if c.token != "" {
		q := url.Values{}
		q.Set("bearer", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Connect opens the connection, checks the server's advertised API version
// against this client's, and starts the dispatch loop.
//
// The first frame after connecting is the hello; an unparseable hello is a
// ProtocolError and a differing version is a VersionMismatchError. A hello
// with no version field at all is only logged: the server contract is
// loosely enforced there.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return ErrAlreadyConnected
	}

	conn, err := c.dial(ctx, c.url())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.hostname, err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "no connect message")
		return &ProtocolError{Reason: "failed to read connect message from the API", Err: err}
	}
	hello, err := parseFrame(data)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "bad connect message")
		return &ProtocolError{Reason: "connect message from the API could not be parsed", Err: err}
	}
	switch {
	case hello.Meta.Version == nil:
		c.log.Warn().Msg("did not receive version field from API")
	case *hello.Meta.Version != c.version:
		conn.Close(websocket.StatusNormalClosure, "version mismatch")
		return &VersionMismatchError{Handler: c.version, Server: *hello.Meta.Version}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.conn = conn
	c.connected = true
	c.cancel = cancel
	c.done = done
	go c.dispatchLoop(loopCtx, conn, done)

	c.log.Info().Str("host", c.hostname).Str("version", c.version).Msg("connected to API")
	return nil
}

// Close cancels the dispatch loop, closes the socket, and waits for the
// loop goroutine to exit so no further replies are delivered. Calls still
// waiting on a reply are left to time out naturally.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	done := c.done
	c.cancel()
	c.connected = false
	c.conn = nil
	c.mu.Unlock()

	err := conn.Close(websocket.StatusNormalClosure, "client closing")
	<-done
	return err
}

// Overrides carries optional replacement connection parameters for
// Reconnect. Nil fields leave the current value unchanged.
type Overrides struct {
	Hostname  *string
	Token     *string
	Plaintext *bool
}

// Reconnect disconnects if currently connected, applies any overrides, and
// connects again. This is the sole way to change connection parameters.
func (c *Client) Reconnect(ctx context.Context, o Overrides) error {
	if c.State() == StateConnected {
		if err := c.Close(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if o.Hostname != nil {
		c.hostname = *o.Hostname
	}
	if o.Token != nil {
		c.token = *o.Token
	}
	if o.Plaintext != nil {
		c.plaintext = *o.Plaintext
	}
	c.mu.Unlock()

	return c.Connect(ctx)
}

// dispatchLoop reads frames for the lifetime of one connection and routes
// each to the correlation table. Per-frame errors are logged and contained;
// one malformed frame must never stall correlation for other requests.
func (c *Client) dispatchLoop(ctx context.Context, conn Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // disconnect requested
			}
			c.log.Error().Err(err).Msg("connection to API lost")
			c.markDisconnected()
			return
		}
		c.route(data)
	}
}

// markDisconnected flips the state after a transport failure. Called from
// the dispatch loop only.
func (c *Client) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return
	}
	c.cancel()
	c.connected = false
	c.conn = nil
}

// route parses one inbound frame and files it under its request id.
func (c *Client) route(data []byte) {
	f, err := parseFrame(data)
	if err != nil {
		c.log.Error().Err(err).Str("frame", string(data)).Msg("message from the API could not be parsed")
		return
	}

	switch f.Status {
	case 401, 403, 500:
		// Error frames do not echo request ids, so these cannot be
		// attributed to a pending request; the caller times out instead.
		c.log.Error().Int("status", f.Status).Msg((&StatusError{Code: f.Status}).Error())
		return
	}

	if f.Meta.RequestID == "" {
		c.log.Error().Str("frame", string(data)).Msg("message from the API has no request id attached")
		return
	}
	id, err := uuid.Parse(f.Meta.RequestID)
	if err != nil {
		c.log.Error().Str("request_id", f.Meta.RequestID).Msg("request id in API message was not a valid UUID")
		return
	}

	if !c.table.file(id, data) {
		c.log.Error().Stringer("request_id", id).Msg("received unexpected API response")
	}
}

// Call sends a request for the given endpoint and action and returns the
// full decoded reply. Caller metadata is merged into the envelope's meta
// block alongside the request id.
func (c *Client) Call(ctx context.Context, endpoint, action string, params, meta map[string]any) (json.RawMessage, error) {
	merged := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		merged[k] = v
	}
	return c.request(ctx, Envelope{
		Action: [2]string{endpoint, action},
		Params: params,
		Meta:   merged,
	})
}

// request registers a fresh request id, stamps it into the envelope,
// sends the envelope, and waits for the correlated reply.
//
// Registration happens before the send: with a real reader goroutine the
// reply can arrive before a post-send registration would complete.
func (c *Client) request(ctx context.Context, env Envelope) (json.RawMessage, error) {
	id, wake := c.table.register()
	env.Meta["request_id"] = id.String()

	data, err := json.Marshal(env)
	if err != nil {
		c.table.deregister(id)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := c.send(ctx, data); err != nil {
		c.table.deregister(id)
		return nil, err
	}

	return c.retrieveResponse(ctx, id, wake, c.replyTimeout)
}

// send writes one frame. Writes are serialized; reads never hold the
// write mutex, so sending never blocks another call's wait.
func (c *Client) send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

// retrieveResponse waits until the dispatch loop files the reply for id,
// bounded by maxWait, then claims it. Claiming removes the entry; a second
// retrieval of the same id fails.
func (c *Client) retrieveResponse(ctx context.Context, id uuid.UUID, wake <-chan struct{}, maxWait time.Duration) (json.RawMessage, error) {
	if !c.table.known(id) {
		return nil, fmt.Errorf("response %s: %w", id, ErrUnknownRequest)
	}

	timer := time.NewTimer(maxWait)
	defer timer.Stop()

	select {
	case <-wake:
		payload, ok := c.table.claim(id)
		if !ok {
			return nil, fmt.Errorf("response %s: %w", id, ErrAlreadyConsumed)
		}
		return payload, nil
	case <-timer.C:
		c.table.deregister(id)
		return nil, fmt.Errorf("request %s: %w", id, ErrTimeout)
	case <-ctx.Done():
		c.table.deregister(id)
		return nil, ctx.Err()
	}
}
