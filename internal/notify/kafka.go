package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"example/waxroom/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventOrderConfirmed is the type of event published after checkout.
const EventOrderConfirmed = "order.confirmed"

// OrderEvent is the JSON value written to the topic.
type OrderEvent struct {
	EventID string       `json:"event_id"`
	Type    string       `json:"type"`
	Order   Confirmation `json:"order"`
	SentAt  time.Time    `json:"sent_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes confirmations as events for downstream consumers.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
}

// NewKafkaNotifier builds a writer for the comma-separated broker list.
func NewKafkaNotifier(brokersCSV, topic string) *KafkaNotifier {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (k *KafkaNotifier) OrderConfirmed(ctx context.Context, c Confirmation) error {
	evt := OrderEvent{
		EventID: uuid.NewString(),
		Type:    EventOrderConfirmed,
		Order:   c,
		SentAt:  time.Now().UTC(),
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-confirmed-%d", c.OrderID)),
		Value: value,
		Time:  evt.SentAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event to %s: %w", k.topic, err)
	}
	logger.Log.Debugw("Order event published", "topic", k.topic, "order_id", c.OrderID, "event_id", evt.EventID)
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
