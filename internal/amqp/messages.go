package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Op names the store mutation a change message reports.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpResync asks consumers to rebuild from the full collection. Batch
	// writes publish it because the store does not report the new ids.
	OpResync Op = "resync"
)

// ChangeMessage is the event published after every successful write. It
// carries only the id; consumers read the current record from the store.
type ChangeMessage struct {
	ID        string    `json:"id,omitempty"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(id string, op Op) *ChangeMessage {
	return &ChangeMessage{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ChangeMessage) Validate() error {
	switch m.Op {
	case OpCreate, OpUpdate, OpDelete:
		if m.ID == "" {
			return fmt.Errorf("%s message without id", m.Op)
		}
	case OpResync:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	return nil
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Join(errInvalidMessage, err)
	}
	return &msg, nil
}

var errInvalidMessage = errors.New("invalid change message")
