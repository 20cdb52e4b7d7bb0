package models

import "time"

// SyncCheckpoint records the last fully committed page per source and
// scope so a restarted run skips pages whose products already
// committed.
type SyncCheckpoint struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	Source string `gorm:"column:source;type:varchar(32);not null;uniqueIndex:idx_checkpoints_identity,priority:1" json:"source"`

	// Scope separates full catalog passes from incremental ones; an
	// interrupted full run must not hand its cursor to a delta run.
	Scope string `gorm:"column:scope;type:varchar(16);not null;default:full;uniqueIndex:idx_checkpoints_identity,priority:2" json:"scope"`

	// LastPage is the highest page number whose products all committed.
	LastPage int `gorm:"column:last_page;default:0" json:"last_page"`

	// Cursor is the opaque feed cursor positioned after LastPage.
	Cursor string `gorm:"column:cursor;type:varchar(255)" json:"cursor"`

	// RunStartedAt marks the beginning of the run the checkpoint
	// belongs to; a new run resets LastPage to zero.
	RunStartedAt time.Time `gorm:"column:run_started_at" json:"run_started_at"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (SyncCheckpoint) TableName() string {
	return "sync_checkpoints"
}
