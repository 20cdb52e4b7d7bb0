package changelog

import (
	"fmt"
	"sync"

	"atdw-sync/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notification identifies a mutated concern for cache invalidation.
type Notification struct {
	ProductID uint   `json:"product_id"`
	Kind      string `json:"kind"`
}

// Notifier consumes change notifications. Delivery is at-least-once;
// consumers must treat duplicate notifications as idempotent.
type Notifier interface {
	Invalidate(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

// Invalidate calls the wrapped function.
func (f NotifierFunc) Invalidate(n Notification) { f(n) }

// Log appends audit entries and fans change notifications out to
// subscribers. Entries are append-only: nothing in this package or
// elsewhere updates or deletes them.
type Log struct {
	logger *zap.Logger

	mu          sync.RWMutex
	subscribers []Notifier
}

// New creates a change log.
func New(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Subscribe registers a notifier. Subscriptions are expected before the
// first sync pass; they apply to all subsequent dispatches.
func (l *Log) Subscribe(n Notifier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, n)
}

// Append writes one audit entry inside the caller's transaction: one
// mutated concern, one entry. Callers only append when a mutation
// actually happened; an unchanged concern never produces an entry.
func (l *Log) Append(tx *gorm.DB, productID uint, kind, payloadHash string) error {
	entry := models.ChangeLogEntry{
		ProductID:   productID,
		Kind:        kind,
		PayloadHash: payloadHash,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append change log %s/%s: %w", kind, payloadHash, err)
	}
	return nil
}

// Dispatch fans notifications out to every subscriber. Called after the
// owning transaction commits so consumers never see uncommitted state;
// a crash between commit and dispatch is recovered by the next sync
// pass, hence at-least-once.
func (l *Log) Dispatch(notes []Notification) {
	if len(notes) == 0 {
		return
	}

	l.mu.RLock()
	subs := make([]Notifier, len(l.subscribers))
	copy(subs, l.subscribers)
	l.mu.RUnlock()

	for _, n := range notes {
		for _, sub := range subs {
			sub.Invalidate(n)
		}
	}
}

// History returns a product's change entries, oldest first.
func (l *Log) History(db *gorm.DB, productID uint) ([]models.ChangeLogEntry, error) {
	var entries []models.ChangeLogEntry
	if err := db.Where("product_id = ?", productID).Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load change log: %w", err)
	}
	return entries, nil
}
