package sync

// Config holds configuration for the synchronization runner.
type Config struct {
	// Enabled toggles the sync feature's HTTP surface.
	Enabled bool `mapstructure:"enabled" default:"true"`

	// Source labels the upstream feed; it scopes product identity and
	// checkpoints.
	Source string `mapstructure:"source" default:"atdw"`

	// Workers bounds how many products reconcile concurrently.
	Workers int `mapstructure:"workers" default:"4"`

	// AttributePolicy decides what to do with unknown attribute codes:
	// "strict" rejects the product's attribute batch, "discover"
	// auto-registers the code.
	AttributePolicy string `mapstructure:"attribute_policy" default:"strict"`

	// ArchiveRaw enables raw payload snapshots to object storage.
	ArchiveRaw bool `mapstructure:"archive_raw" default:"false"`

	// SnapshotRetention caps archived snapshots kept per product,
	// zero keeps all.
	SnapshotRetention int `mapstructure:"snapshot_retention" default:"0"`
}
