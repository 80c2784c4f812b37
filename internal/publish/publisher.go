// Package publish exports the finalized transcript and detected commands to
// Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
	"github.com/deltamod3/aida-voice-agent/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/deltamod3/aida-voice-agent/internal/publish"

var logger = otelslog.NewLogger(scopeName)

const (
	KindUtterance = "utterance"
	KindCommand   = "command"
)

type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// Message is the JSON payload written for every exported event.
type Message struct {
	Kind      string                `json:"kind"`
	BotID     string                `json:"bot_id,omitempty"`
	Utterance *transcript.Utterance `json:"utterance,omitempty"`
	Command   *commands.Command     `json:"command,omitempty"`
	Timestamp int64                 `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes transcript events keyed by the bot id of the meeting they
// were heard in. A disabled publisher only logs.
type Publisher struct {
	writer messageWriter
	topic  string

	mu    sync.RWMutex
	botID string
}

func New(cfg Config) *Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("kafka disabled, using log-only mode")
		return &Publisher{topic: cfg.Topic}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
		// callbacks run on the orchestrator loop, which must not wait on
		// the broker
		Async: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				metrics.PublishedMessagesTotal.WithLabelValues("batch", "error").Add(float64(len(messages)))
				logger.Error("failed to deliver to kafka", "topic", cfg.Topic, "messages", len(messages), "error", err)
			}
		},
	}

	logger.Info("kafka publisher initialized", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &Publisher{writer: writer, topic: cfg.Topic}
}

// ObserveFragment remembers the bot id of the meeting the transcript comes
// from.
func (p *Publisher) ObserveFragment(fragment transcript.Fragment) {
	if fragment.BotID == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.botID = fragment.BotID
}

func (p *Publisher) PublishUtterance(ctx context.Context, utterance transcript.Utterance) error {
	return p.publish(ctx, Message{Kind: KindUtterance, Utterance: &utterance})
}

func (p *Publisher) PublishCommand(ctx context.Context, command commands.Command, utterance transcript.Utterance) error {
	return p.publish(ctx, Message{Kind: KindCommand, Command: &command, Utterance: &utterance})
}

func (p *Publisher) publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	msg.BotID = p.botID
	p.mu.RUnlock()
	msg.Timestamp = time.Now().UnixMilli()

	payload, err := json.Marshal(msg)
	if err != nil {
		metrics.PublishedMessagesTotal.WithLabelValues(msg.Kind, "error").Inc()
		return fmt.Errorf("failed to marshal %s message: %w", msg.Kind, err)
	}

	logger.Debug("publishing transcript event", "topic", p.topic, "kind", msg.Kind, "bot_id", msg.BotID, "payload", string(payload))

	if p.writer == nil {
		metrics.PublishedMessagesTotal.WithLabelValues(msg.Kind, "logged").Inc()
		return nil
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.BotID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	})
	if err != nil {
		metrics.PublishedMessagesTotal.WithLabelValues(msg.Kind, "error").Inc()
		logger.Error("failed to write to kafka", "topic", p.topic, "kind", msg.Kind, "error", err)
		return fmt.Errorf("failed to write %s message: %w", msg.Kind, err)
	}

	metrics.PublishedMessagesTotal.WithLabelValues(msg.Kind, "ok").Inc()
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
