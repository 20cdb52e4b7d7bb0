package archive

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"atdw-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archive persists raw upstream payload snapshots to object storage,
// one object per distinct core fingerprint, so every content version a
// sync ever applied stays available for audit and replay.
type Archive struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// New creates an archive writing to the given bucket.
func New(client storage.Client, bucket string, logger *zap.Logger) *Archive {
	return &Archive{client: client, bucket: bucket, logger: logger}
}

// objectName builds the snapshot key for one product content version.
func objectName(source, upstreamID, coreHash string) string {
	return fmt.Sprintf("raw/%s/%s/%s.json", source, upstreamID, coreHash)
}

// prefix builds the listing prefix for one product's snapshots.
func prefix(source, upstreamID string) string {
	return fmt.Sprintf("raw/%s/%s/", source, upstreamID)
}

// EnsureBucket creates the archive bucket when it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	a.logger.Info("Created archive bucket", zap.String("bucket", a.bucket))
	return nil
}

// Store writes one snapshot. The key embeds the core fingerprint, so
// re-applying an unchanged record overwrites the same object and the
// archive stays idempotent.
func (a *Archive) Store(ctx context.Context, source, upstreamID, coreHash string, payload []byte) error {
	name := objectName(source, upstreamID, coreHash)

	_, err := a.client.PutObject(ctx, a.bucket, name,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("store snapshot %s: %w", name, err)
	}
	return nil
}

// Fetch reads one snapshot back.
func (a *Archive) Fetch(ctx context.Context, source, upstreamID, coreHash string) ([]byte, error) {
	name := objectName(source, upstreamID, coreHash)

	obj, err := a.client.GetObject(ctx, a.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %s: %w", name, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Versions lists a product's snapshot hashes, newest first.
func (a *Archive) Versions(ctx context.Context, source, upstreamID string) ([]string, error) {
	infos, err := a.list(ctx, source, upstreamID)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, 0, len(infos))
	for _, info := range infos {
		base := info.Key[strings.LastIndexByte(info.Key, '/')+1:]
		hashes = append(hashes, strings.TrimSuffix(base, ".json"))
	}
	return hashes, nil
}

// Prune removes a product's oldest snapshots, keeping the most recent
// keep objects. A keep of zero or less disables pruning.
func (a *Archive) Prune(ctx context.Context, source, upstreamID string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	infos, err := a.list(ctx, source, upstreamID)
	if err != nil {
		return 0, err
	}
	if len(infos) <= keep {
		return 0, nil
	}

	doomed := infos[keep:]
	objectsCh := make(chan minio.ObjectInfo, len(doomed))
	for _, info := range doomed {
		objectsCh <- info
	}
	close(objectsCh)

	removed := len(doomed)
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		a.logger.Warn("Snapshot prune failed",
			zap.String("object", rerr.ObjectName),
			zap.Error(rerr.Err),
		)
		removed--
	}
	return removed, nil
}

// list returns a product's snapshot objects sorted newest first.
func (a *Archive) list(ctx context.Context, source, upstreamID string) ([]minio.ObjectInfo, error) {
	var infos []minio.ObjectInfo
	for info := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    prefix(source, upstreamID),
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list snapshots: %w", info.Err)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastModified.After(infos[j].LastModified)
	})
	return infos, nil
}
