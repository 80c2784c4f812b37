package transcriptstream

import (
	"net/http"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/transcript"
	"github.com/gorilla/websocket"
)

const DefaultRetryInterval = 3000 * time.Millisecond

// Ticker is the part of time.Ticker used by the retry loop.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

func newTimeTicker(interval time.Duration) Ticker {
	return timeTicker{time.NewTicker(interval)}
}

type Option func(*Client)

// WithRetryInterval sets the fixed delay between reconnect attempts.
func WithRetryInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.retryInterval = interval
		}
	}
}

// WithDecoder selects the payload format of the socket.
func WithDecoder(decoder transcript.Decoder) Option {
	return func(c *Client) {
		if decoder != nil {
			c.decode = decoder
		}
	}
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithHeader adds a header sent with every dial, e.g. for authorization.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// WithTicker replaces the ticker used to pace reconnect attempts.
func WithTicker(newTicker func(interval time.Duration) Ticker) Option {
	return func(c *Client) {
		if newTicker != nil {
			c.newTicker = newTicker
		}
	}
}

func defaultHeader() http.Header {
	return http.Header{}
}
