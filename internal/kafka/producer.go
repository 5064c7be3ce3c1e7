package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

const eventSource = "investment-dashboard"

// Producer publishes portfolio events to Kafka
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer for the events topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// PublishSnapshotCreated announces a newly written daily snapshot
func (p *Producer) PublishSnapshotCreated(ctx context.Context, s *models.DailySnapshot) error {
	return p.publish(ctx, fmt.Sprintf("user-%d", s.UserID), models.EventSnapshotCreated, s)
}

// PublishPositionAdded announces a position created through the API
func (p *Producer) PublishPositionAdded(ctx context.Context, pos *models.Position) error {
	return p.publish(ctx, fmt.Sprintf("user-%d", pos.UserID), models.EventPositionAdded, pos)
}

// PublishPositionRemoved announces a position deleted through the API
func (p *Producer) PublishPositionRemoved(ctx context.Context, userID int, symbol string) error {
	data := map[string]interface{}{"user_id": userID, "symbol": symbol}
	return p.publish(ctx, fmt.Sprintf("user-%d", userID), models.EventPositionRemoved, data)
}

func (p *Producer) publish(ctx context.Context, key, eventType string, data interface{}) error {
	event := models.Event{
		EventType: eventType,
		Source:    eventSource,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Close closes the Kafka writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
