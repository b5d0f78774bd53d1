// Package notify publishes settlement events to Kafka for downstream
// consumers (notifications, analytics). Delivery is best-effort.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/config"
	"github.com/segmentio/kafka-go"
)

type KafkaNotifier struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaNotifier(cfg config.KafkaConfig, logger *slog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &KafkaNotifier{
		writer: writer,
		logger: logger,
	}
}

// Publish writes the event keyed by booking ID so all events for one
// booking land on the same partition, in order.
func (n *KafkaNotifier) Publish(ctx context.Context, event application.SettlementEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.BookingID),
		Value: data,
		Time:  time.Now(),
	}

	if err := n.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write settlement event: %w", err)
	}

	n.logger.Debug("published settlement event",
		"type", event.Type,
		"booking_id", event.BookingID,
	)
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
