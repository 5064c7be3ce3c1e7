// Package history maintains one portfolio-value snapshot per user per
// calendar day and shapes the stored sequence for charting.
package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/metrics"
	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

var hundred = decimal.NewFromInt(100)

// SnapshotStore is the persistence surface the snapshotter needs
type SnapshotStore interface {
	InsertSnapshot(s *models.DailySnapshot) (inserted bool, err error)
	GetSnapshotByDate(userID int, date time.Time) (*models.DailySnapshot, error)
}

// EventPublisher notifies downstream consumers of a newly written snapshot
type EventPublisher interface {
	PublishSnapshotCreated(ctx context.Context, s *models.DailySnapshot) error
}

// Snapshotter writes at most one daily snapshot per user. Correctness under
// concurrent requests rests on the store's (user_id, snapshot_date) unique
// constraint, not on locking here.
type Snapshotter struct {
	store  SnapshotStore
	events EventPublisher
	now    func() time.Time
}

// NewSnapshotter creates a Snapshotter. events may be nil.
func NewSnapshotter(store SnapshotStore, events EventPublisher) *Snapshotter {
	return &Snapshotter{store: store, events: events, now: time.Now}
}

// EnsureTodaySnapshot records today's total portfolio value for a user if no
// snapshot exists yet. It is idempotent: a second call the same day is a
// no-op, as is losing the insert race to a concurrent request.
//
// A zero total (empty or fully unpriced portfolio) writes nothing, keeping
// meaningless zero entries out of the history. The day-over-day change is
// computed against exactly yesterday's snapshot; after a gap in the history
// both change fields are 0 even when an older snapshot exists.
//
// Returns the snapshot when a row was actually written, nil otherwise.
func (s *Snapshotter) EnsureTodaySnapshot(ctx context.Context, userID int, totalCurrentValue decimal.Decimal) (*models.DailySnapshot, error) {
	if !totalCurrentValue.IsPositive() {
		return nil, nil
	}

	today := dateOnly(s.now())

	existing, err := s.store.GetSnapshotByDate(userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check today's snapshot: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	yesterday := today.AddDate(0, 0, -1)
	prior, err := s.store.GetSnapshotByDate(userID, yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to get yesterday's snapshot: %w", err)
	}

	dailyChange := decimal.Zero
	dailyChangePercent := decimal.Zero
	if prior != nil {
		dailyChange = totalCurrentValue.Sub(prior.TotalValue)
		if prior.TotalValue.IsPositive() {
			dailyChangePercent = dailyChange.Div(prior.TotalValue).Mul(hundred)
		}
	}

	snapshot := &models.DailySnapshot{
		UserID:             userID,
		Date:               today,
		TotalValue:         totalCurrentValue,
		DailyChange:        dailyChange,
		DailyChangePercent: dailyChangePercent,
	}

	inserted, err := s.store.InsertSnapshot(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if !inserted {
		// A concurrent request wrote today's row first
		return nil, nil
	}

	metrics.SnapshotsWritten.Inc()

	if s.events != nil {
		if err := s.events.PublishSnapshotCreated(ctx, snapshot); err != nil {
			log.Printf("Error publishing snapshot event for user %d: %v", userID, err)
		}
	}

	return snapshot, nil
}

// dateOnly truncates a time to its calendar day
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
