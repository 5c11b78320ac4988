package changefeed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dispatcher polls pending ChangeRecords and broadcasts them to the feed.
// Because records are written inside the mutating transaction and only read
// back here after commit, a subscriber can never observe a change from a
// transaction that rolled back.
type Dispatcher struct {
	DB           *gorm.DB
	Feed         *Feed
	Logger       *logrus.Logger
	DispatcherID string

	BatchSize    int
	PollInterval time.Duration
}

func NewDispatcher(db *gorm.DB, feed *Feed, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		DB:           db,
		Feed:         feed,
		Logger:       logger,
		DispatcherID: uuid.NewString(),
		BatchSize:    100,
		PollInterval: 200 * time.Millisecond,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// DispatchOnce claims one batch of pending records, marks them processed and
// broadcasts each distinct (store, table) pair once. SKIP LOCKED keeps
// multiple dispatchers from chewing on the same rows.
func (d *Dispatcher) DispatchOnce(ctx context.Context) {
	if d.DB == nil {
		return
	}

	var claimed []models.ChangeRecord
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("status = ?", models.ChangeStatusPending).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		now := time.Now().UTC()
		ids := make([]int, 0, len(claimed))
		for _, rec := range claimed {
			ids = append(ids, rec.ID)
		}
		return tx.Model(&models.ChangeRecord{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":       models.ChangeStatusProcessed,
				"processed_at": &now,
			}).Error
	})
	if err != nil {
		if d.Logger != nil {
			config.LogError(d.Logger, "changefeed", "DispatchOnce", "claim batch",
				map[string]interface{}{"dispatcher_id": d.DispatcherID}, err)
		}
		return
	}
	if len(claimed) == 0 {
		return
	}

	// coalesce: a batch touching the same table many times broadcasts once
	type key struct {
		storeId string
		table   string
	}
	seen := make(map[key]struct{})
	for _, rec := range claimed {
		k := key{storeId: rec.StoreId, table: rec.TableName}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		d.Feed.Broadcast(ctx, rec.StoreId, rec.TableName)
	}
}
