package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// contactRow is a minimal Row implementation for exercising the planner.
type contactRow struct {
	ID    uint `gorm:"primarykey"`
	Kind  string
	Value string
	Hash  string
}

func (c *contactRow) IdentityKey() string   { return c.Kind }
func (c *contactRow) ContentHash() string   { return c.Hash }
func (c *contactRow) PrimaryKey() uint      { return c.ID }
func (c *contactRow) SetPrimaryKey(id uint) { c.ID = id }

func TestBuildPlanClassification(t *testing.T) {
	stored := []*contactRow{
		{ID: 1, Kind: "phone", Value: "02 6680 1000", Hash: "h-phone-1"},
		{ID: 2, Kind: "email", Value: "old@example.com", Hash: "h-email-1"},
		{ID: 3, Kind: "website", Value: "https://old.example.com", Hash: "h-web-1"},
	}
	incoming := []*contactRow{
		{Kind: "phone", Value: "02 6680 1000", Hash: "h-phone-1"},       // unchanged
		{Kind: "email", Value: "new@example.com", Hash: "h-email-2"},    // changed
		{Kind: "booking", Value: "https://book.example.com", Hash: "b"}, // new
	}

	plan, err := BuildPlan(stored, incoming)
	assert.NoError(t, err)

	assert.Len(t, plan.Inserts, 1)
	assert.Equal(t, "booking", plan.Inserts[0].Kind)

	assert.Len(t, plan.Updates, 1)
	assert.Equal(t, "email", plan.Updates[0].Incoming.Kind)
	// The incoming row inherits the stored primary key for the overwrite.
	assert.Equal(t, uint(2), plan.Updates[0].Incoming.ID)
	assert.Equal(t, "h-email-1", plan.Updates[0].Previous.Hash)

	assert.Len(t, plan.Deletes, 1)
	assert.Equal(t, "website", plan.Deletes[0].Kind)

	assert.Equal(t, 1, plan.Skips)
	assert.False(t, plan.Empty())
}

func TestBuildPlanEmptyIncomingDeletesAll(t *testing.T) {
	stored := []*contactRow{
		{ID: 1, Kind: "phone", Hash: "a"},
		{ID: 2, Kind: "email", Hash: "b"},
	}

	plan, err := BuildPlan(stored, nil)
	assert.NoError(t, err)
	assert.Empty(t, plan.Inserts)
	assert.Empty(t, plan.Updates)
	assert.Len(t, plan.Deletes, 2)
}

func TestBuildPlanConvergedIsEmpty(t *testing.T) {
	stored := []*contactRow{
		{ID: 1, Kind: "phone", Hash: "a"},
	}
	incoming := []*contactRow{
		{Kind: "phone", Hash: "a"},
	}

	plan, err := BuildPlan(stored, incoming)
	assert.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Equal(t, 1, plan.Skips)
}

func TestBuildPlanDuplicateIdenticalCollapsed(t *testing.T) {
	incoming := []*contactRow{
		{Kind: "phone", Value: "02 6680 1000", Hash: "a"},
		{Kind: "phone", Value: "02 6680 1000", Hash: "a"},
	}

	plan, err := BuildPlan(nil, incoming)
	assert.NoError(t, err)
	assert.Len(t, plan.Inserts, 1)
}

func TestBuildPlanConflictingDuplicateRejected(t *testing.T) {
	incoming := []*contactRow{
		{Kind: "phone", Value: "02 6680 1000", Hash: "a"},
		{Kind: "phone", Value: "02 6680 9999", Hash: "b"},
	}

	_, err := BuildPlan(nil, incoming)
	assert.Error(t, err)

	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "phone", conflict.Key)
}

func TestStatsChanged(t *testing.T) {
	assert.False(t, Stats{Skipped: 10}.Changed())
	assert.True(t, Stats{Inserted: 1}.Changed())
	assert.True(t, Stats{Deleted: 1}.Changed())

	var total Stats
	total.Add(Stats{Inserted: 1, Skipped: 2})
	total.Add(Stats{Updated: 3, Deleted: 1})
	assert.Equal(t, Stats{Inserted: 1, Updated: 3, Deleted: 1, Skipped: 2}, total)
}
