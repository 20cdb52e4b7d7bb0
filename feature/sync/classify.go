package sync

import "atdw-sync/feature/catalog/models"

// Classification is the derived relationship between an incoming record
// and the local store.
type Classification string

const (
	ClassificationNew         Classification = "new"
	ClassificationUpdated     Classification = "updated"
	ClassificationUnchanged   Classification = "unchanged"
	ClassificationSoftDeleted Classification = "soft_deleted"
	ClassificationExpired     Classification = "expired"
)

// classify derives the delta status for one record. The feed's coarse
// status wins first: inactive and expired records classify by status
// alone. Active records compare all three fingerprints against the
// stored product; any difference means updated. A stored product that
// is not currently active also classifies as updated even with equal
// fingerprints, because its stored hashes predate the status flip and
// reactivation must be applied.
func classify(status string, stored *models.Product, coreHash, mediaHash, attrsHash string) Classification {
	switch status {
	case UpstreamInactive:
		return ClassificationSoftDeleted
	case UpstreamExpired:
		return ClassificationExpired
	}

	if stored == nil {
		return ClassificationNew
	}
	if stored.Status != models.StatusActive {
		return ClassificationUpdated
	}
	if stored.CoreHash != coreHash || stored.MediaHash != mediaHash || stored.AttrsHash != attrsHash {
		return ClassificationUpdated
	}
	return ClassificationUnchanged
}
