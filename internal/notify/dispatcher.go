package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"notify-service/internal/auth"
)

// ErrEncoding is returned when a notification cannot be serialized; nothing
// is delivered in that case.
var ErrEncoding = errors.New("notify: encode notification")

// Notification is the outbound wire object, sent as a single text frame:
// {"user": {...}, "notification": "..."}.
type Notification struct {
	User         *auth.Principal `json:"user"`
	Notification string          `json:"notification"`
}

// Broadcaster is the fan-out surface the dispatcher hands encoded payloads
// to. Satisfied by *websocket.Registry.
type Broadcaster interface {
	BroadcastAll(payload []byte)
	SendToUser(username string, payload []byte)
}

// Dispatcher serializes a notification exactly once per call and submits the
// single encoded buffer for fan-out, regardless of recipient count.
type Dispatcher struct {
	registry Broadcaster
}

func NewDispatcher(registry Broadcaster) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) Broadcast(n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	d.registry.BroadcastAll(payload)
	return nil
}

func (d *Dispatcher) SendToUser(username string, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	d.registry.SendToUser(username, payload)
	return nil
}
