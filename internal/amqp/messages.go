package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type (
	ChangeKind string
	ChangeOp   string
)

const (
	KindTransaction ChangeKind = "transaction"
	KindCategory    ChangeKind = "category"
	KindGoal        ChangeKind = "goal"
	KindSettings    ChangeKind = "settings"

	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// ChangeMessage announces a write confirmed by the persistence backend.
// Payload carries the stored record for created/updated and is empty for deleted.
type ChangeMessage struct {
	Kind      ChangeKind      `json:"kind"`
	Op        ChangeOp        `json:"op"`
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewChangeMessage marshals payload (if any) into a timestamped message.
func NewChangeMessage(kind ChangeKind, op ChangeOp, id string, payload any) (*ChangeMessage, error) {
	msg := &ChangeMessage{
		Kind:      kind,
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		msg.Payload = raw
	}
	return msg, nil
}

func (m *ChangeMessage) Validate() error {
	if m.Kind == "" {
		return errors.New("missing kind")
	}
	switch m.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	if m.ID == "" {
		return errors.New("missing id")
	}
	return nil
}

// DecodePayload unmarshals the carried record into v.
func (m *ChangeMessage) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return errors.New("message has no payload")
	}
	return json.Unmarshal(m.Payload, v)
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON parses and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
