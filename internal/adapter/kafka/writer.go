package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/solar-map-service/internal/config"
	"github.com/couchcryptid/solar-map-service/internal/domain"
)

// Writer publishes layer snapshots to the sink topic so other map surfaces
// can render the same data.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes every snapshot in one WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, snaps []domain.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snaps))
	for i := range snaps {
		msg, err := serializeToMessage(snaps[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write snapshots: %w", err)
	}
	w.logger.Debug("published snapshots", "count", len(msgs), "last_id", snaps[len(snaps)-1].ID)
	return nil
}

// Close flushes and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage keys the message by snapshot ID so replays of the same
// feed land on the same partition.
func serializeToMessage(snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snap.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snap.ID)},
			{Key: "received_at", Value: []byte(snap.ReceivedAt.Format(time.RFC3339))},
			{Key: "feature_count", Value: []byte(strconv.Itoa(len(snap.Features)))},
		},
	}, nil
}
