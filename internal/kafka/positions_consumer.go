package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// PositionsRepository defines the interface for position database operations
type PositionsRepository interface {
	ReplaceUserPositions(userID int, positions []*models.Position) error
}

// PositionsConsumer ingests full-portfolio position snapshots from Kafka,
// for example from a broker import job, and replaces the affected user's
// positions atomically.
type PositionsConsumer struct {
	reader *kafka.Reader
	repo   PositionsRepository
}

// NewPositionsConsumer creates a new Kafka consumer for position sync events
func NewPositionsConsumer(brokers []string, topic, groupID string, repo PositionsRepository) *PositionsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-positions",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset, // Only read new messages (not historical)
		CommitInterval: time.Second,
	})

	return &PositionsConsumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages from Kafka
func (c *PositionsConsumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka positions consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Positions consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading positions message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing positions message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *PositionsConsumer) processMessage(msg kafka.Message) error {
	log.Printf("Received positions message from partition %d offset %d",
		msg.Partition, msg.Offset)

	var event models.PositionsSnapshotEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal positions event: %w", err)
	}

	if event.EventType != models.EventPositionsSnapshot {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}

	if event.Data.UserID <= 0 {
		return fmt.Errorf("positions snapshot missing user_id")
	}

	log.Printf("Processing positions snapshot for user %d: %d positions",
		event.Data.UserID, len(event.Data.Positions))

	positions := make([]*models.Position, 0, len(event.Data.Positions))
	for _, pd := range event.Data.Positions {
		position, err := c.convertPositionData(pd)
		if err != nil {
			log.Printf("Warning: failed to convert position %s: %v", pd.Symbol, err)
			continue
		}
		positions = append(positions, position)
	}

	if err := c.repo.ReplaceUserPositions(event.Data.UserID, positions); err != nil {
		return fmt.Errorf("failed to replace positions: %w", err)
	}

	log.Printf("Successfully updated %d positions for user %d from snapshot",
		len(positions), event.Data.UserID)

	return nil
}

// convertPositionData converts sync event data to a Position model
func (c *PositionsConsumer) convertPositionData(pd models.PositionSyncData) (*models.Position, error) {
	symbol := strings.ToUpper(strings.TrimSpace(pd.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	quantity, err := decimal.NewFromString(pd.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %s: %w", pd.Quantity, err)
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("negative quantity %s", pd.Quantity)
	}

	buyPrice, err := decimal.NewFromString(pd.AverageBuyPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid average_buy_price %s: %w", pd.AverageBuyPrice, err)
	}
	if !buyPrice.IsPositive() {
		return nil, fmt.Errorf("non-positive average_buy_price %s", pd.AverageBuyPrice)
	}

	exchange := strings.ToUpper(strings.TrimSpace(pd.Exchange))
	if exchange == "" {
		exchange = models.ExchangeNSE
	}

	return &models.Position{
		Symbol:   symbol,
		Quantity: quantity,
		BuyPrice: buyPrice,
		Exchange: exchange,
	}, nil
}

// Close closes the Kafka consumer
func (c *PositionsConsumer) Close() error {
	return c.reader.Close()
}
