// Package transcriptstream keeps a websocket connection to the live
// transcript feed open and hands every decoded fragment to a handler.
package transcriptstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/transcript"
	"github.com/deltamod3/aida-voice-agent/internal/metrics"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrClosed = errors.New("transcript stream closed")

// Client is a transcript socket client that reconnects on its own. Only one
// connection is live at a time and at most one retry ticker is outstanding.
type Client struct {
	url     string
	handler func(transcript.Fragment)

	decode        transcript.Decoder
	dialer        *websocket.Dialer
	header        http.Header
	retryInterval time.Duration
	newTicker     func(time.Duration) Ticker

	lifetime context.Context
	cancel   context.CancelFunc

	// dialMu serializes dials, mu guards the fields below it
	dialMu    sync.Mutex
	mu        sync.Mutex
	conn      *websocket.Conn
	retryStop chan struct{}
	closed    bool

	wg sync.WaitGroup
}

func New(url string, handler func(transcript.Fragment), opts ...Option) *Client {
	if handler == nil {
		handler = func(transcript.Fragment) {}
	}

	lifetime, cancel := context.WithCancel(context.Background())
	c := &Client{
		url:     url,
		handler: handler,

		decode:        transcript.DecodeMessage,
		dialer:        websocket.DefaultDialer,
		header:        defaultHeader(),
		retryInterval: DefaultRetryInterval,
		newTicker:     newTimeTicker,

		lifetime: lifetime,
		cancel:   cancel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect opens the connection. If it fails, the reconnect loop is started
// anyway and the error is returned.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		c.scheduleRetry()
		return err
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close stops reconnecting, closes the live connection and waits for the
// client goroutines to exit.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopRetryLocked()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.cancel()

	if conn != nil {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)); err != nil {
			logger.Debug("failed to send close frame", "error", err)
		}
		conn.Close()
	}

	c.wg.Wait()
}

func (c *Client) dial(ctx context.Context) (err error) {
	c.dialMu.Lock()
	defer c.dialMu.Unlock()

	if c.isClosed() {
		return ErrClosed
	} else if c.IsConnected() {
		return nil
	}

	ctx, span := tracer.Start(ctx, "connect transcript stream")
	defer span.End()
	span.SetAttributes(attribute.String("transcript_stream.url", c.url))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return fmt.Errorf("failed to open transcript socket: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.stopRetryLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	metrics.StreamConnectionsTotal.Inc()
	logger.Info("transcript stream connected", "url", c.url)

	go c.readAndProcessMessages(conn)
	return nil
}

func (c *Client) readAndProcessMessages(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			closed := c.closed
			c.mu.Unlock()
			conn.Close()

			if closed {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Info("transcript stream closed by server")
			} else {
				logger.Warn("transcript stream read failed", "error", err)
			}
			c.scheduleRetry()
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		fragment, err := c.decode(msg)
		if err != nil {
			if !errors.Is(err, transcript.ErrIgnoredMessage) {
				metrics.StreamMalformedMessagesTotal.Inc()
				logger.Warn("dropping malformed transcript message", "error", err)
			}
			continue
		}

		metrics.StreamFragmentsTotal.WithLabelValues(strconv.FormatBool(fragment.IsFinal)).Inc()
		c.handler(fragment)
	}
}

// scheduleRetry starts the retry ticker unless one is already running.
func (c *Client) scheduleRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.retryStop != nil {
		return
	}

	stop := make(chan struct{})
	c.retryStop = stop
	ticker := c.newTicker(c.retryInterval)
	c.wg.Add(1)
	go c.retry(ticker, stop)

	logger.Info("transcript stream reconnect scheduled", "interval", c.retryInterval)
}

func (c *Client) retry(ticker Ticker, stop chan struct{}) {
	defer c.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.lifetime.Done():
			return
		case <-ticker.Chan():
			metrics.StreamReconnectAttemptsTotal.Inc()
			if err := c.dial(c.lifetime); err != nil {
				if errors.Is(err, ErrClosed) {
					return
				}
				logger.Warn("transcript stream reconnect failed", "error", err)
				continue
			}
			return
		}
	}
}

func (c *Client) stopRetryLocked() {
	if c.retryStop != nil {
		close(c.retryStop)
		c.retryStop = nil
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
