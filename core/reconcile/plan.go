package reconcile

// BuildPlan computes the mutations that converge the stored collection to
// the incoming one. It does NOT execute them; use Apply for that.
//
// For each incoming item: insert if its identity key is absent from the
// stored set, update in place if present with a different content hash,
// skip if identical. Every stored row whose key is absent from the
// incoming set is planned for deletion, so the collection converges to
// exactly the incoming set no matter how often the same input is applied.
//
// Incoming duplicates with identical content are collapsed to one item.
// Duplicates with differing content return a *ConflictError and no plan.
func BuildPlan[T Row](stored, incoming []T) (Plan[T], error) {
	var plan Plan[T]

	// Index stored rows by identity key.
	index := make(map[string]T, len(stored))
	for _, row := range stored {
		index[row.IdentityKey()] = row
	}

	seen := make(map[string]string, len(incoming))
	for _, item := range incoming {
		key := item.IdentityKey()

		// Reject ambiguous batches; collapse exact duplicates.
		if prev, dup := seen[key]; dup {
			if prev != item.ContentHash() {
				return Plan[T]{}, &ConflictError{Key: key}
			}
			continue
		}
		seen[key] = item.ContentHash()

		existing, ok := index[key]
		if !ok {
			plan.Inserts = append(plan.Inserts, item)
			continue
		}
		if existing.ContentHash() == item.ContentHash() {
			plan.Skips++
			continue
		}
		item.SetPrimaryKey(existing.PrimaryKey())
		plan.Updates = append(plan.Updates, Update[T]{Incoming: item, Previous: existing})
	}

	// Vanished deletion: stored rows not present in the incoming set.
	for _, row := range stored {
		if _, ok := seen[row.IdentityKey()]; !ok {
			plan.Deletes = append(plan.Deletes, row)
		}
	}

	return plan, nil
}
