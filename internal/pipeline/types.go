package pipeline

import (
	"context"
	"time"
)

// RawUpdate is an unprocessed position message from the position topic.
type RawUpdate struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Notification is the serialized form destined for the notification topic.
type Notification struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
