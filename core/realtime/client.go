// Package realtime is a client of the realtime conversational session relay.
// It speaks the realtime event protocol over a websocket and keeps a local
// store of the conversation items.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/deltamod3/aida-voice-agent/internal/metrics"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrNotConnected     = errors.New("realtime session not connected")
	ErrAlreadyConnected = errors.New("realtime session already connected")
	ErrUnknownItem      = errors.New("unknown conversation item")
)

type Client struct {
	url        string
	apiKey     string
	dialer     *websocket.Dialer
	sampleRate int

	mu           sync.Mutex
	conn         *websocket.Conn
	session      SessionConfig
	conversation *conversation
	handler      func(Event)

	// writeMu serializes socket writes, gorilla allows one concurrent writer
	writeMu sync.Mutex
}

type Option func(*Client)

// WithAPIKey authenticates directly against the realtime API instead of a
// relay.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

func WithSampleRate(sampleRate int) Option {
	return func(c *Client) {
		if sampleRate > 0 {
			c.sampleRate = sampleRate
		}
	}
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:          url,
		dialer:       websocket.DefaultDialer,
		sampleRate:   audio.DefaultSampleRate,
		session:      DefaultSessionConfig(),
		conversation: newConversation(),
		handler:      func(Event) {},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetEventHandler registers the receiver of session events. It is called on
// the read goroutine.
func (c *Client) SetEventHandler(handler func(Event)) {
	if handler == nil {
		handler = func(Event) {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Connect dials the session and pushes the stored session configuration.
func (c *Client) Connect(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "connect realtime session")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
		header.Set("OpenAI-Beta", "realtime=v1")
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("failed to open realtime socket: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyConnected
	}
	c.conn = conn
	session := c.session
	c.mu.Unlock()

	go c.readAndProcessMessages(conn)
	logger.Info("realtime session connected", "url", c.url)

	if err := c.send("session.update", sessionUpdateEvent{newClientEvent("session.update"), session}); err != nil {
		return fmt.Errorf("failed to send session configuration: %w", err)
	}

	return nil
}

// Disconnect closes the socket. No disconnected event is reported for a
// close requested here.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	writeErr := conn.WriteMessage(websocket.CloseMessage, closeMsg)
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close realtime socket: %w", err)
	}
	if writeErr != nil {
		logger.Debug("failed to send close frame", "error", writeErr)
	}
	return nil
}

// Reset disconnects and forgets the conversation and the session
// configuration.
func (c *Client) Reset() error {
	err := c.Disconnect()

	c.mu.Lock()
	c.conversation = newConversation()
	c.session = DefaultSessionConfig()
	c.mu.Unlock()

	return err
}

// Session returns the stored session configuration.
func (c *Client) Session() SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// UpdateSession merges update into the stored configuration and sends it if
// the session is connected.
func (c *Client) UpdateSession(_ context.Context, update SessionConfig) error {
	c.mu.Lock()
	c.session = c.session.merge(update)
	session := c.session
	connected := c.conn != nil
	c.mu.Unlock()

	if !connected {
		return nil
	}

	return c.send("session.update", sessionUpdateEvent{newClientEvent("session.update"), session})
}

// SendUserMessageContent adds a user message and asks for a response.
func (c *Client) SendUserMessageContent(_ context.Context, content []ContentPart) error {
	if len(content) > 0 {
		item := userMessage{Type: ItemTypeMessage, Role: RoleUser, Content: content}
		if err := c.send("conversation.item.create", itemCreateEvent{newClientEvent("conversation.item.create"), item}); err != nil {
			return err
		}
	}

	return c.send("response.create", newClientEvent("response.create"))
}

// AppendInputAudio streams microphone samples to the input audio buffer.
func (c *Client) AppendInputAudio(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(audio.PCM16ToBytes(samples))
	return c.send("input_audio_buffer.append", audioAppendEvent{newClientEvent("input_audio_buffer.append"), encoded})
}

// CancelResponse stops the response in progress. When itemID names the
// assistant item being played, its audio is truncated at sampleCount so the
// remote conversation matches what was actually heard.
func (c *Client) CancelResponse(ctx context.Context, itemID string, sampleCount int) (err error) {
	_, span := tracer.Start(ctx, "cancel realtime response")
	defer span.End()
	span.SetAttributes(attribute.String("realtime.item_id", itemID), attribute.Int("realtime.sample_count", sampleCount))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if itemID == "" {
		return c.send("response.cancel", newClientEvent("response.cancel"))
	}

	c.mu.Lock()
	stored, ok := c.conversation.item(itemID)
	var item Item
	if ok {
		item = *stored
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	} else if item.Type != ItemTypeMessage || item.Role != RoleAssistant {
		return fmt.Errorf("can only cancel assistant messages, %s is a %s %s", itemID, item.Role, item.Type)
	}

	if err := c.send("response.cancel", newClientEvent("response.cancel")); err != nil {
		return err
	}

	if !item.HasAudio() {
		return fmt.Errorf("item %s has no audio to truncate", itemID)
	}

	audioEndMs := int(math.Floor(float64(sampleCount) / float64(c.sampleRate) * 1000))
	return c.send("conversation.item.truncate", itemTruncateEvent{
		clientEvent:  newClientEvent("conversation.item.truncate"),
		ItemID:       itemID,
		ContentIndex: item.audioContentIndex,
		AudioEndMs:   audioEndMs,
	})
}

func (c *Client) send(eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", eventType, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write %s: %w", eventType, err)
	}

	metrics.RealtimeEventsTotal.WithLabelValues("outbound", eventType).Inc()
	return nil
}

func (c *Client) readAndProcessMessages(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			current := c.conn == conn
			if current {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()

			if !current {
				return
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info("realtime session closed by server")
				c.dispatch(Event{Type: EventDisconnected})
			} else {
				logger.Error("realtime session read failed", "error", err)
				c.dispatch(Event{Type: EventError, Err: fmt.Errorf("failed to read realtime socket: %w", err)})
			}
			return
		}

		if msgType == websocket.BinaryMessage {
			continue
		}

		if event, ok := c.processMessage(conn, msg); ok {
			c.dispatch(event)
		}
	}
}

func (c *Client) processMessage(conn *websocket.Conn, msg []byte) (Event, bool) {
	var event serverEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		logger.Warn("failed to unmarshal realtime event", "error", err)
		return Event{}, false
	}
	metrics.RealtimeEventsTotal.WithLabelValues("inbound", event.Type).Inc()

	switch event.Type {
	case serverEventError:
		serverErr := event.Error
		if serverErr == nil {
			serverErr = &ServerError{Type: "error", Message: "unspecified error"}
		}
		logger.Error("realtime session error", "error", serverErr)
		return Event{Type: EventError, Err: serverErr}, true

	case serverEventSpeechStarted:
		return Event{Type: EventConversationInterrupted}, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		return Event{}, false
	}

	update, err := c.conversation.process(event)
	if err != nil {
		logger.Warn("failed to apply realtime event", "type", event.Type, "error", err)
		return Event{}, false
	} else if update == nil {
		return Event{}, false
	}

	return *update, true
}

func (c *Client) dispatch(event Event) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()

	handler(event)
}
