package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"notify-service/internal/auth"
	"notify-service/internal/config"
	"notify-service/internal/notify"
)

// Command is the message shape backend services publish to push a
// notification without going through HTTP. An empty username means broadcast.
type Command struct {
	Username     string `json:"username,omitempty"`
	Notification string `json:"notification"`
}

// Notifier is the dispatcher surface the consumer feeds. Satisfied by
// *notify.Dispatcher.
type Notifier interface {
	Broadcast(n notify.Notification) error
	SendToUser(username string, n notify.Notification) error
}

// Notifications sourced from the topic are attributed to the system
// principal; no caller identity crosses the broker.
var systemPrincipal = &auth.Principal{
	Username: "system",
	Name:     "system",
	Role:     "SYSTEM",
}

type Consumer struct {
	reader     *kafka.Reader
	dispatcher Notifier
}

func NewConsumer(cfg config.KafkaConfig, dispatcher Notifier) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		dispatcher: dispatcher,
	}
}

// Run consumes commands until the context is cancelled. Malformed messages
// are logged and skipped; the consumer never stops over a single bad payload.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("Kafka notification consumer started", "topic", c.reader.Config().Topic)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read notification command: %w", err)
		}
		c.handle(msg.Value)
	}
}

func (c *Consumer) handle(value []byte) {
	var cmd Command
	if err := json.Unmarshal(value, &cmd); err != nil {
		slog.Error("Failed to decode notification command", "error", err)
		return
	}
	if cmd.Notification == "" {
		slog.Warn("Skipping notification command with empty payload")
		return
	}

	n := notify.Notification{User: systemPrincipal, Notification: cmd.Notification}

	var err error
	if cmd.Username == "" {
		err = c.dispatcher.Broadcast(n)
	} else {
		err = c.dispatcher.SendToUser(cmd.Username, n)
	}
	if err != nil {
		slog.Error("Failed to dispatch sourced notification", "user", cmd.Username, "error", err)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
