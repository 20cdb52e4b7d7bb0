package reconcile

import "fmt"

// Item is the minimal surface a reconcilable entity must expose.
// IdentityKey identifies the item within its parent scope; ContentHash
// is the item's change fingerprint.
type Item interface {
	// IdentityKey returns the stable identity of the item within its
	// collection, e.g. "physical" for an address or the canonical URL
	// for a media link.
	IdentityKey() string

	// ContentHash returns the fingerprint of the item's content. Two
	// items with equal keys and equal hashes are considered identical.
	ContentHash() string
}

// Row extends Item with primary-key access so updates can overwrite a
// stored row in place.
type Row interface {
	Item

	// PrimaryKey returns the database primary key, zero when unsaved.
	PrimaryKey() uint

	// SetPrimaryKey assigns the database primary key before an
	// update-in-place write.
	SetPrimaryKey(id uint)
}

// Update pairs an incoming item with the stored row it replaces.
type Update[T Row] struct {
	// Incoming is the new content, carrying the stored row's primary key.
	Incoming T

	// Previous is the stored row being overwritten.
	Previous T
}

// Plan describes the mutations required to converge a stored collection
// to an incoming one. It is computed without touching the database.
type Plan[T Row] struct {
	// Inserts are incoming items with no stored counterpart.
	Inserts []T

	// Updates are incoming items whose stored counterpart has a
	// different content hash.
	Updates []Update[T]

	// Deletes are stored rows whose identity key vanished from the
	// incoming set.
	Deletes []T

	// Skips counts incoming items identical to their stored counterpart.
	Skips int
}

// Empty reports whether the plan contains no mutations.
func (p Plan[T]) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// Stats summarizes the mutations an applied plan performed.
type Stats struct {
	// Inserted counts newly created rows.
	Inserted int `json:"inserted"`

	// Updated counts rows overwritten in place.
	Updated int `json:"updated"`

	// Deleted counts vanished rows removed.
	Deleted int `json:"deleted"`

	// Skipped counts incoming items that required no write.
	Skipped int `json:"skipped"`
}

// Changed reports whether any row was written or removed.
func (s Stats) Changed() bool {
	return s.Inserted+s.Updated+s.Deleted > 0
}

// Add accumulates another Stats value.
func (s *Stats) Add(o Stats) {
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Deleted += o.Deleted
	s.Skipped += o.Skipped
}

// ConflictError reports two incoming items resolving to the same identity
// key with different content in one batch. The batch is rejected as a
// whole because the winner would depend on input order.
type ConflictError struct {
	// Key is the duplicated identity key.
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("identity conflict: duplicate key %q with differing content", e.Key)
}
