package reconcile

import (
	"fmt"

	"gorm.io/gorm"
)

// CascadeFunc removes rows that depend on a doomed row before the row
// itself is deleted, so a vanished parent never strands its dependents.
type CascadeFunc[T Row] func(tx *gorm.DB, doomed T) error

// Apply executes a plan inside the given transaction. Inserts run first,
// then in-place updates, then vanished deletions with their cascade.
// The caller owns the transaction; Apply never commits or rolls back.
func Apply[T Row](tx *gorm.DB, plan Plan[T], cascade CascadeFunc[T]) (Stats, error) {
	stats := Stats{Skipped: plan.Skips}

	for _, item := range plan.Inserts {
		if err := tx.Create(item).Error; err != nil {
			return stats, fmt.Errorf("insert %q: %w", item.IdentityKey(), err)
		}
		stats.Inserted++
	}

	for _, u := range plan.Updates {
		// Save overwrites every column of the stored row, keyed by the
		// primary key BuildPlan carried over.
		if err := tx.Save(u.Incoming).Error; err != nil {
			return stats, fmt.Errorf("update %q: %w", u.Incoming.IdentityKey(), err)
		}
		stats.Updated++
	}

	for _, row := range plan.Deletes {
		if cascade != nil {
			if err := cascade(tx, row); err != nil {
				return stats, fmt.Errorf("cascade %q: %w", row.IdentityKey(), err)
			}
		}
		if err := tx.Delete(row).Error; err != nil {
			return stats, fmt.Errorf("delete %q: %w", row.IdentityKey(), err)
		}
		stats.Deleted++
	}

	return stats, nil
}

// Sync plans and applies in one call: the stored collection converges to
// exactly the incoming set. Safe to invoke any number of times with the
// same input; repeat calls produce zero mutations.
func Sync[T Row](tx *gorm.DB, stored, incoming []T, cascade CascadeFunc[T]) (Stats, error) {
	plan, err := BuildPlan(stored, incoming)
	if err != nil {
		return Stats{}, err
	}
	return Apply(tx, plan, cascade)
}
