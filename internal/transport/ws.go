package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"debrief/internal/ports"
)

// Config controls websocket dial behavior.
type Config struct {
	HandshakeTimeout time.Duration
	Headers          http.Header
}

// WSDialer implements ports.Dialer over gorilla/websocket.
type WSDialer struct {
	cfg Config
	log *zap.Logger
}

func NewWSDialer(cfg Config, log *zap.Logger) *WSDialer {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WSDialer{cfg: cfg, log: log}
}

func (d *WSDialer) Dial(ctx context.Context, rawURL string) (ports.Conn, error) {
	wsURL, err := NormalizeWSURL(rawURL)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: d.cfg.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, d.cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to analysis server: %w", err)
	}

	return newWSConn(conn, d.log), nil
}

type wsConn struct {
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex

	stateMu sync.Mutex
	open    bool

	startOnce sync.Once
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn, log *zap.Logger) *wsConn {
	if log == nil {
		log = zap.NewNop()
	}
	return &wsConn{conn: conn, log: log, open: true}
}

func (c *wsConn) WriteText(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

func (c *wsConn) WriteBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *wsConn) write(messageType int, data []byte) error {
	if !c.IsOpen() {
		return errors.New("connection is closed")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Start launches the read loop. Handler methods are invoked from a single
// goroutine, so events for this connection arrive serially in wire order.
func (c *wsConn) Start(handler ports.ConnHandler) {
	c.startOnce.Do(func() {
		go c.readLoop(handler)
	})
}

func (c *wsConn) IsOpen() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.open
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.markClosed()
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) markClosed() {
	c.stateMu.Lock()
	c.open = false
	c.stateMu.Unlock()
}

func (c *wsConn) readLoop(handler ports.ConnHandler) {
	// The loop owns the connection once started; when it exits the
	// underlying socket must be released, not just flagged closed.
	defer func() { _ = c.Close() }()

	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.markClosed()
			if closeErr := normalClose(err); closeErr != nil {
				handler.HandleClose(closeErr.Text)
				return
			}
			handler.HandleError(err)
			handler.HandleClose("")
			return
		}

		if messageType != websocket.TextMessage {
			c.log.Debug("ignoring non-text frame", zap.Int("type", messageType))
			continue
		}
		handler.HandleMessage(string(payload))
	}
}

func normalClose(err error) *websocket.CloseError {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return nil
	}
	switch closeErr.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
		return closeErr
	}
	return nil
}

// NormalizeWSURL converts http(s) endpoints to their ws(s) form and
// validates the result.
func NormalizeWSURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errors.New("server URL is not configured")
	}

	if strings.HasPrefix(trimmed, "https://") {
		trimmed = "wss://" + strings.TrimPrefix(trimmed, "https://")
	} else if strings.HasPrefix(trimmed, "http://") {
		trimmed = "ws://" + strings.TrimPrefix(trimmed, "http://")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("unsupported server URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("server URL is missing a host")
	}
	return parsed.String(), nil
}
