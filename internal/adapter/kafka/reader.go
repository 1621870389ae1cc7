package kafka

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/wavecrest/wave-engine/internal/config"
	"github.com/wavecrest/wave-engine/internal/pipeline"
)

// fetchMoreTimeout bounds how long ExtractBatch waits for additional
// messages after the first one, so a trickle of updates still ships in small
// batches instead of stalling.
const fetchMoreTimeout = 250 * time.Millisecond

// Reader consumes position updates from the position topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured position topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaPositionTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10 << 20,
		MaxWait:  500 * time.Millisecond,
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch fetches up to batchSize messages. The first fetch blocks on
// the caller's context; subsequent fetches use a short timeout so a partial
// batch is returned promptly.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]pipeline.RawUpdate, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]pipeline.RawUpdate, 0, batchSize)
	batch = append(batch, r.mapMessage(first))

	for len(batch) < batchSize {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchMoreTimeout)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			// Timeout means the batch is simply done filling.
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}

	return batch, nil
}

// Close shuts down the underlying consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessage converts a Kafka message into a pipeline.RawUpdate with a
// commit closure bound to this reader's consumer group.
func (r *Reader) mapMessage(msg kafkago.Message) pipeline.RawUpdate {
	raw := mapMessageToRawUpdate(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

func mapMessageToRawUpdate(msg kafkago.Message) pipeline.RawUpdate {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return pipeline.RawUpdate{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
