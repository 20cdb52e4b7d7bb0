package archive

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"atdw-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func objectChannel(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func removeErrorChannel() <-chan minio.RemoveObjectError {
	ch := make(chan minio.RemoveObjectError)
	close(ch)
	return ch
}

func TestStoreWritesSnapshotKey(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "atdw-raw", zap.NewNop())

	client.On("PutObject", mock.Anything, "atdw-raw", "raw/atdw/P1/abc123.json",
		mock.Anything, int64(15), mock.Anything).
		Return(minio.UploadInfo{}, nil)

	err := a.Store(context.Background(), "atdw", "P1", "abc123", []byte(`{"name":"Inn"}`+"\n"))
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestFetchReadsSnapshot(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "atdw-raw", zap.NewNop())

	body := io.NopCloser(strings.NewReader(`{"name":"Inn"}`))
	client.On("GetObject", mock.Anything, "atdw-raw", "raw/atdw/P1/abc123.json", mock.Anything).
		Return(body, nil)

	payload, err := a.Fetch(context.Background(), "atdw", "P1", "abc123")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"Inn"}`, string(payload))
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "atdw-raw", zap.NewNop())

	client.On("BucketExists", mock.Anything, "atdw-raw").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "atdw-raw", mock.Anything).Return(nil)

	assert.NoError(t, a.EnsureBucket(context.Background()))
	client.AssertExpectations(t)
}

func TestEnsureBucketSkipsExisting(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "atdw-raw", zap.NewNop())

	client.On("BucketExists", mock.Anything, "atdw-raw").Return(true, nil)

	assert.NoError(t, a.EnsureBucket(context.Background()))
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestVersionsNewestFirst(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "atdw-raw", zap.NewNop())

	now := time.Now()
	client.On("ListObjects", mock.Anything, "atdw-raw", mock.Anything).
		Return(objectChannel(
			minio.ObjectInfo{Key: "raw/atdw/P1/old.json", LastModified: now.Add(-2 * time.Hour)},
			minio.ObjectInfo{Key: "raw/atdw/P1/new.json", LastModified: now},
		))

	hashes, err := a.Versions(context.Background(), "atdw", "P1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, hashes)
}

func TestPruneKeepsNewest(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "atdw-raw", zap.NewNop())

	now := time.Now()
	client.On("ListObjects", mock.Anything, "atdw-raw", mock.Anything).
		Return(objectChannel(
			minio.ObjectInfo{Key: "raw/atdw/P1/a.json", LastModified: now},
			minio.ObjectInfo{Key: "raw/atdw/P1/b.json", LastModified: now.Add(-time.Hour)},
			minio.ObjectInfo{Key: "raw/atdw/P1/c.json", LastModified: now.Add(-2 * time.Hour)},
		))
	client.On("RemoveObjects", mock.Anything, "atdw-raw", mock.Anything, mock.Anything).
		Return(removeErrorChannel())

	removed, err := a.Prune(context.Background(), "atdw", "P1", 2)
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestPruneDisabled(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "atdw-raw", zap.NewNop())

	removed, err := a.Prune(context.Background(), "atdw", "P1", 0)
	assert.NoError(t, err)
	assert.Zero(t, removed)
	client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}
