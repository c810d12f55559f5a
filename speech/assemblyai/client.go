// Package assemblyai implements the realtime streaming transcription
// protocol: binary audio frames out over a WebSocket, JSON turn events in.
package assemblyai

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/outsquaremd/medidash/speech"
)

// DefaultBaseURL is the v3 streaming endpoint.
const DefaultBaseURL = "wss://streaming.assemblyai.com/v3/ws"

// Config holds connection parameters for one streaming session.
type Config struct {
	BaseURL     string // default: DefaultBaseURL
	Token       string // short-lived realtime token, never the account API key
	SampleRate  int    // default 16000
	FormatTurns bool   // request formatted (final) turns
}

// Client is a speech.StreamClient over the streaming WebSocket protocol.
type Client struct {
	url    string
	conn   *websocket.Conn
	events chan speech.Event
	errs   chan error
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

var _ speech.StreamClient = (*Client)(nil)

// NewClient creates a client for one session. The endpoint URL carries the
// sample rate, the format-turns flag, and the session token as query
// parameters, per the service's wire contract.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	rate := cfg.SampleRate
	if rate == 0 {
		rate = 16000
	}

	query := url.Values{}
	query.Set("sample_rate", strconv.Itoa(rate))
	query.Set("format_turns", strconv.FormatBool(cfg.FormatTurns))
	query.Set("token", cfg.Token)

	return &Client{
		url:    base + "?" + query.Encode(),
		events: make(chan speech.Event, 100),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// SendAudio transmits one binary audio frame.
func (c *Client) SendAudio(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return conn.Write(ctx, websocket.MessageBinary, frame)
}

// Terminate sends the graceful-shutdown control message.
func (c *Client) Terminate(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return conn.Write(ctx, websocket.MessageText, terminateMessage)
}

// Events returns the inbound event channel. Closed when the read loop ends.
func (c *Client) Events() <-chan speech.Event {
	return c.events
}

// Errors returns the connection error channel.
func (c *Client) Errors() <-chan error {
	return c.errs
}

// Close closes the connection. Safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	if c.conn != nil {
		return c.conn.Close(websocket.StatusNormalClosure, "closing")
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.events)

	ctx := context.Background()

	for {
		select {
		case <-c.done:
			return
		default:
			typ, data, err := c.conn.Read(ctx)
			if err != nil {
				c.mu.Lock()
				closed := c.closed
				c.mu.Unlock()
				if !closed {
					c.sendError(fmt.Errorf("read: %w", err))
				}
				return
			}
			if typ != websocket.MessageText {
				continue
			}

			ev, err := parseEvent(data)
			if err != nil {
				// Malformed protocol data never terminates the session.
				slog.Error("malformed recognition event", "error", err, "data", string(data))
				continue
			}

			select {
			case c.events <- ev:
			case <-time.After(100 * time.Millisecond):
				slog.Warn("event channel full, dropping event", "type", string(ev.Type))
			}
		}
	}
}

func (c *Client) sendError(err error) {
	select {
	case c.errs <- err:
	default:
	}
}
