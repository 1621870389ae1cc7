package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecrest/wave-engine/internal/pipeline"
)

func TestMapMessageToRawUpdate(t *testing.T) {
	now := time.Date(2025, 6, 21, 18, 0, 0, 0, time.UTC)
	msg := kafkago.Message{
		Topic:     "user-positions",
		Partition: 3,
		Offset:    42,
		Key:       []byte("user-1"),
		Value:     []byte(`{"lat":38.75,"lon":-9.2}`),
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "device", Value: []byte("ios")},
			{Key: "app_version", Value: []byte("2.1.0")},
		},
	}

	raw := mapMessageToRawUpdate(msg)

	assert.Equal(t, "user-positions", raw.Topic)
	assert.Equal(t, 3, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, []byte("user-1"), raw.Key)
	assert.Equal(t, []byte(`{"lat":38.75,"lon":-9.2}`), raw.Value)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, map[string]string{"device": "ios", "app_version": "2.1.0"}, raw.Headers)
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	note := pipeline.Notification{
		Key:   []byte("user-1"),
		Value: []byte(`{"state":"warming"}`),
		Headers: map[string]string{
			"state":        "warming",
			"evaluated_at": "2025-06-21T18:00:00Z",
			"ignored":      "dropped",
		},
	}

	msg := serializeToMessage(note)

	assert.Equal(t, []byte("user-1"), msg.Key)
	assert.Equal(t, []byte(`{"state":"warming"}`), msg.Value)

	// Known headers are carried in a fixed order; unknown ones are dropped.
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "state", msg.Headers[0].Key)
	assert.Equal(t, []byte("warming"), msg.Headers[0].Value)
	assert.Equal(t, "evaluated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-06-21T18:00:00Z"), msg.Headers[1].Value)
}

func TestSerializeToMessage_NoHeaders(t *testing.T) {
	msg := serializeToMessage(pipeline.Notification{Key: []byte("k"), Value: []byte("v")})
	assert.Empty(t, msg.Headers)
}
