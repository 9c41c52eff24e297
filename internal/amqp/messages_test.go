package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChangeMessage(t *testing.T) {
	msg := NewChangeMessage("tx-1", OpUpdate)

	assert.Equal(t, "tx-1", msg.ID)
	assert.Equal(t, OpUpdate, msg.Op)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
}

func TestChangeMessageJSON(t *testing.T) {
	msg := &ChangeMessage{
		ID:        "tx-1",
		Op:        OpDelete,
		Timestamp: time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"tx-1","op":"delete","timestamp":"2024-09-01T12:00:00Z"}`, string(body))

	parsed, err := ChangeMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, parsed.ID)
	assert.Equal(t, msg.Op, parsed.Op)
	assert.True(t, parsed.Timestamp.Equal(msg.Timestamp))
}

func TestChangeMessageFromJSONRejects(t *testing.T) {
	for name, body := range map[string]string{
		"malformed":  `{"id": 12`,
		"unknown op": `{"id":"a","op":"rename"}`,
		"missing id": `{"op":"create"}`,
		"missing op": `{"id":"a"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ChangeMessageFromJSON([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestResyncNeedsNoID(t *testing.T) {
	msg, err := ChangeMessageFromJSON([]byte(`{"op":"resync","timestamp":"2024-09-01T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, OpResync, msg.Op)
}
