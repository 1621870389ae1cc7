package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/wavecrest/wave-engine/internal/config"
	"github.com/wavecrest/wave-engine/internal/pipeline"
)

// Writer produces notifications to the notification topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured notification topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotificationTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes multiple notifications in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, notes []pipeline.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(notes))
	for i := range notes {
		msgs[i] = serializeToMessage(notes[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

// Close shuts down the underlying producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a notification into a Kafka message, carrying
// its headers through.
func serializeToMessage(note pipeline.Notification) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(note.Headers))
	for _, key := range []string{"state", "evaluated_at"} {
		if v, ok := note.Headers[key]; ok {
			headers = append(headers, kafkago.Header{Key: key, Value: []byte(v)})
		}
	}
	return kafkago.Message{
		Key:     note.Key,
		Value:   note.Value,
		Headers: headers,
	}
}
